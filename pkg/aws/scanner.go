package aws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/s3cycle/s3cycle/internal/models"
)

// BucketScanner lists the buckets of one scan context and populates the
// lifecycle, versioning, and logging flags via read-only calls. Per-bucket
// failures are recorded as skips; the scan always continues.
type BucketScanner struct {
	client     S3API
	scanCtx    models.ScanContext
	runRegions map[string]bool // every region covered by this run
}

// NewBucketScanner creates a scanner for one (account, region) context.
// runRegions is the full set of regions the run covers, used to decide
// whether a location mismatch is someone else's bucket or a genuine skip.
func NewBucketScanner(client S3API, scanCtx models.ScanContext, runRegions []string) *BucketScanner {
	set := make(map[string]bool, len(runRegions))
	for _, r := range runRegions {
		set[r] = true
	}
	return &BucketScanner{client: client, scanCtx: scanCtx, runRegions: set}
}

// Scan returns bucket records for this context's region. Records carry the
// policy flags but no histogram yet; profiling happens separately.
func (s *BucketScanner) Scan(ctx context.Context) ([]models.BucketRecord, []models.SkippedBucket, error) {
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, nil, fmt.Errorf("listing buckets for account %s: %w", s.scanCtx.Account.Label(), err)
	}

	var records []models.BucketRecord
	var skipped []models.SkippedBucket

	for _, bucket := range out.Buckets {
		if ctx.Err() != nil {
			break
		}
		name := aws.ToString(bucket.Name)

		// per-bucket call budget, distinct from the run timeout
		bctx, cancel := context.WithTimeout(ctx, scanTimeout)

		location, err := s.bucketRegion(bctx, name)
		if err != nil {
			cancel()
			skipped = append(skipped, s.skip(name, err))
			continue
		}
		if location != s.scanCtx.Region {
			cancel()
			if s.runRegions[location] {
				// covered by that region's own scan context
				continue
			}
			slog.Debug("Bucket outside scanned regions", "bucket", name, "region", location)
			skipped = append(skipped, s.skip(name, fmt.Errorf("%w: %s is in %s", ErrRegionMismatch, name, location)))
			continue
		}

		rec, err := s.describeBucket(bctx, name)
		cancel()
		if err != nil {
			skipped = append(skipped, s.skip(name, err))
			continue
		}
		if bucket.CreationDate != nil {
			rec.CreationTime = *bucket.CreationDate
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// bucketRegion resolves the bucket's actual region. An empty location
// constraint means us-east-1.
func (s *BucketScanner) bucketRegion(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("getting location for bucket %s: %w", name, err)
	}
	if out.LocationConstraint == "" {
		return "us-east-1", nil
	}
	return string(out.LocationConstraint), nil
}

func (s *BucketScanner) describeBucket(ctx context.Context, name string) (models.BucketRecord, error) {
	rec := models.BucketRecord{
		BucketName:   name,
		Account:      s.scanCtx.Account,
		Region:       s.scanCtx.Region,
		StorageClass: "STANDARD",
	}

	rules, err := s.lifecycleRules(ctx, name)
	if err != nil {
		return rec, err
	}
	rec.HasLifecyclePolicy = len(rules) > 0
	for _, rule := range rules {
		rec.LifecycleRuleNames = append(rec.LifecycleRuleNames, aws.ToString(rule.ID))
	}

	versioning, err := s.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		if IsPermissionDenied(err) {
			return rec, fmt.Errorf("getting versioning for bucket %s: %w", name, err)
		}
		slog.Warn("Could not read versioning status", "bucket", name, "error", err)
	} else {
		rec.VersioningEnabled = versioning.Status == s3types.BucketVersioningStatusEnabled
	}

	logging, err := s.client.GetBucketLogging(ctx, &s3.GetBucketLoggingInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		slog.Warn("Could not read logging status", "bucket", name, "error", err)
	} else {
		rec.LoggingEnabled = logging.LoggingEnabled != nil
	}

	return rec, nil
}

// lifecycleRules fetches the bucket's existing lifecycle rules. A
// NoSuchLifecycleConfiguration response means no policy, not a failure.
func (s *BucketScanner) lifecycleRules(ctx context.Context, name string) ([]s3types.LifecycleRule, error) {
	out, err := s.client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		if IsNoSuchLifecycle(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting lifecycle for bucket %s: %w", name, err)
	}
	return out.Rules, nil
}

func (s *BucketScanner) skip(name string, err error) models.SkippedBucket {
	reason := ClassifySkip(err)
	slog.Warn("Skipping bucket", "bucket", name, "reason", reason, "error", err)
	return models.SkippedBucket{
		BucketName: name,
		Account:    s.scanCtx.Account,
		Region:     s.scanCtx.Region,
		Reason:     reason,
		Detail:     err.Error(),
	}
}

// scanTimeout bounds each individual bucket describe call, distinct from
// the run-level timeout.
const scanTimeout = 30 * time.Second
