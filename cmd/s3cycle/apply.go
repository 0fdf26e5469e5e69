package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/s3cycle/s3cycle/internal/models"
	"github.com/s3cycle/s3cycle/pkg/aws"
	"github.com/s3cycle/s3cycle/pkg/pricing"
	"github.com/s3cycle/s3cycle/pkg/recommend"
	"github.com/s3cycle/s3cycle/pkg/remediate"
)

func newApplyCmd() *cobra.Command {
	var (
		dryRun      bool
		confirm     bool
		override    bool
		onlyBuckets []string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply recommended lifecycle policies to buckets",
		Long: `apply scans the targeted buckets, computes recommendations, and
writes the resulting lifecycle configuration back to S3. The default is
a dry run that only prints the policy documents; live mode requires
--dry-run=false together with --confirm.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(dryRun, confirm, override, onlyBuckets)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Print the policy documents without applying them")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm live application of lifecycle policies")
	cmd.Flags().BoolVar(&override, "override", false, "Replace existing lifecycle rules on the bucket")
	cmd.Flags().StringSliceVar(&onlyBuckets, "bucket", nil, "Only apply to these buckets (comma separated)")
	return cmd
}

func runApply(dryRun, confirm, override bool, onlyBuckets []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !dryRun && !confirm {
		return fmt.Errorf("live apply requires --confirm (or keep --dry-run)")
	}

	table := pricing.NewTable(cfg.Pricing)
	if err := table.Validate(cfg.TransitionSteps()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	fmt.Println("Starting S3 lifecycle apply ...")
	scanStartTime := time.Now()

	fleet := aws.NewFleetScanner(cfg.Accounts, cfg.Regions, nil, aws.FleetConfig{
		Thresholds:    cfg.TransitionSteps(),
		MaxObjects:    cfg.Sampling.MaxObjects,
		MinObjectSize: cfg.MinObjectSize,
		Concurrency:   cfg.Concurrency,
	})

	s := startScanSpinner(len(fleet.Contexts()))
	result, scanErr := fleet.ScanAll(ctx)
	s.FinalMSG = fmt.Sprintf("✓ [%d buckets profiled] S3 resources analyzed - Completed in %.2f seconds\n",
		len(result.Records), time.Since(scanStartTime).Seconds())
	s.Stop()

	if scanErr != nil {
		slog.Warn("Scan finished with errors", "error", scanErr)
	}

	records := result.Records
	if len(onlyBuckets) > 0 {
		records = filterBuckets(records, onlyBuckets)
		if len(records) == 0 {
			return fmt.Errorf("no scanned bucket matches %v", onlyBuckets)
		}
	}

	engine := recommend.NewEngine(cfg.TransitionSteps(), table, cfg.MinObjectSize, cfg.MinBucketSizeGB)
	opts := remediate.Options{
		DryRun:        dryRun,
		Confirm:       confirm,
		Override:      override,
		MinObjectSize: cfg.MinObjectSize,
	}

	// S3 clients are rebuilt per (account, region) so each put runs
	// under the right role and endpoint.
	appliers := make(map[string]*remediate.Applier)
	var applied, skipped, failed int

	for _, record := range records {
		rec, err := engine.Recommend(record)
		if err != nil {
			slog.Warn("Recommendation failed", "bucket", record.BucketName, "error", err)
			failed++
			continue
		}
		if !rec.HasTransitions() {
			skipped++
			continue
		}

		key := record.Account.Label() + "/" + record.Region
		applier, ok := appliers[key]
		if !ok {
			clients, err := aws.NewClients(ctx, models.ScanContext{Account: record.Account, Region: record.Region})
			if err != nil {
				fmt.Printf("Error: client setup for %s failed: %v\n", key, err)
				failed++
				continue
			}
			applier = remediate.NewApplier(clients.S3, opts)
			appliers[key] = applier
		}

		if err := applier.Apply(ctx, record, rec); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed++
			continue
		}
		applied++
	}

	verb := "applied"
	if dryRun {
		verb = "previewed"
	}
	fmt.Printf("\n✓ %d policies %s, %d buckets without transitions, %d failures\n", applied, verb, skipped, failed)

	if failed > 0 {
		return &exitError{code: 2, msg: ""}
	}
	return nil
}

// filterBuckets keeps the records whose bucket name matches one of the
// requested names.
func filterBuckets(records []models.BucketRecord, names []string) []models.BucketRecord {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var kept []models.BucketRecord
	for _, record := range records {
		if wanted[record.BucketName] {
			kept = append(kept, record)
		}
	}
	return kept
}
