package aws

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/s3cycle/s3cycle/internal/models"
)

// ClientBuilder yields the AWS clients for one scan context. Tests inject
// a builder returning mocks.
type ClientBuilder func(ctx context.Context, sc models.ScanContext) (*Clients, error)

// FleetConfig carries the scan-wide knobs into the fleet scanner.
type FleetConfig struct {
	Thresholds    []models.TransitionStep
	MaxObjects    int
	MinObjectSize int64
	Concurrency   int
}

// FleetScanner fans the bucket scan out over every configured (account,
// region) pair with a bounded worker pool. Results are append-only and
// each record is produced by exactly one worker.
type FleetScanner struct {
	accounts []models.Account
	regions  []string
	build    ClientBuilder
	cfg      FleetConfig
}

// NewFleetScanner wires the account/region iterator to a client builder.
// A nil builder uses the real AWS clients.
func NewFleetScanner(accounts []models.Account, regions []string, build ClientBuilder, cfg FleetConfig) *FleetScanner {
	if build == nil {
		build = NewClients
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if len(accounts) == 0 {
		// no roles configured: scan the ambient credentials
		accounts = []models.Account{{ID: "default", DisplayName: "default"}}
	}
	return &FleetScanner{accounts: accounts, regions: regions, build: build, cfg: cfg}
}

// Contexts returns the (account, region) scanning units in config order.
func (f *FleetScanner) Contexts() []models.ScanContext {
	contexts := make([]models.ScanContext, 0, len(f.accounts)*len(f.regions))
	for _, acct := range f.accounts {
		for _, region := range f.regions {
			contexts = append(contexts, models.ScanContext{Account: acct, Region: region})
		}
	}
	return contexts
}

// ScanAll runs every scan context through the pool. Cancellation stops new
// API calls; everything collected so far is still returned so the report
// can flush a partial result.
func (f *FleetScanner) ScanAll(ctx context.Context) (*models.ScanResult, error) {
	var (
		mu     sync.Mutex
		result models.ScanResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	for _, sc := range f.Contexts() {
		sc := sc
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			slog.Info("Scanning context", "account", sc.Account.Label(), "region", sc.Region)

			records, skipped := f.scanContext(gctx, sc)

			mu.Lock()
			result.Records = append(result.Records, records...)
			result.Skipped = append(result.Skipped, skipped...)
			result.ContextsScanned++
			result.BucketsScanned += len(records)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &result, err
	}
	return &result, nil
}

func (f *FleetScanner) scanContext(ctx context.Context, sc models.ScanContext) ([]models.BucketRecord, []models.SkippedBucket) {
	clients, err := f.build(ctx, sc)
	if err != nil {
		slog.Warn("Client setup failed", "account", sc.Account.Label(), "region", sc.Region, "error", err)
		return nil, []models.SkippedBucket{{
			BucketName: "*",
			Account:    sc.Account,
			Region:     sc.Region,
			Reason:     ClassifySkip(err),
			Detail:     err.Error(),
		}}
	}

	scanner := NewBucketScanner(clients.S3, sc, f.regions)
	records, skipped, err := scanner.Scan(ctx)
	if err != nil {
		slog.Warn("Bucket listing failed", "account", sc.Account.Label(), "region", sc.Region, "error", err)
		skipped = append(skipped, models.SkippedBucket{
			BucketName: "*",
			Account:    sc.Account,
			Region:     sc.Region,
			Reason:     ClassifySkip(err),
			Detail:     err.Error(),
		})
		return nil, skipped
	}

	profiler := NewObjectProfiler(clients.S3, clients.CloudWatch, f.cfg.Thresholds, f.cfg.MaxObjects, f.cfg.MinObjectSize)

	kept := records[:0]
	for i := range records {
		if ctx.Err() != nil {
			break
		}
		if err := profiler.Profile(ctx, &records[i]); err != nil {
			skipped = append(skipped, models.SkippedBucket{
				BucketName: records[i].BucketName,
				Account:    sc.Account,
				Region:     sc.Region,
				Reason:     ClassifySkip(err),
				Detail:     err.Error(),
			})
			continue
		}
		kept = append(kept, records[i])
	}
	return kept, skipped
}
