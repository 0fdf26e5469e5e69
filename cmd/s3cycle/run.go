package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/briandowns/spinner"

	"github.com/s3cycle/s3cycle/internal/config"
	"github.com/s3cycle/s3cycle/internal/models"
	"github.com/s3cycle/s3cycle/internal/version"
	"github.com/s3cycle/s3cycle/pkg/aws"
	"github.com/s3cycle/s3cycle/pkg/formatter"
	"github.com/s3cycle/s3cycle/pkg/pricing"
	"github.com/s3cycle/s3cycle/pkg/recommend"
	"github.com/s3cycle/s3cycle/pkg/report"
)

const (
	modeAudit     = "audit"
	modeRecommend = "recommend"
)

// startScanSpinner creates and starts a spinner for the fleet scan.
func startScanSpinner(contexts int) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Scanning S3 buckets across %d account/region contexts ...", contexts)
	s.Start()
	return s
}

// runScan drives the audit and recommend modes. Both run the full
// pipeline; recommend additionally prints the proposed policies.
func runScan(mode string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table := pricing.NewTable(cfg.Pricing)
	if err := table.Validate(cfg.TransitionSteps()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	if refreshPricing {
		pricing.RefreshTable(ctx, table, cfg.Regions[0])
		if msg := pricing.GetInitMessage(); msg != "" {
			fmt.Println(msg)
		}
	}

	fmt.Printf("Starting S3 lifecycle %s ...\n", mode)
	scanStartTime := time.Now()

	fleet := aws.NewFleetScanner(cfg.Accounts, cfg.Regions, nil, aws.FleetConfig{
		Thresholds:    cfg.TransitionSteps(),
		MaxObjects:    cfg.Sampling.MaxObjects,
		MinObjectSize: cfg.MinObjectSize,
		Concurrency:   cfg.Concurrency,
	})

	s := startScanSpinner(len(fleet.Contexts()))
	result, scanErr := fleet.ScanAll(ctx)
	scanDuration := time.Since(scanStartTime)

	s.FinalMSG = fmt.Sprintf("✓ [%d buckets profiled] S3 resources analyzed - Completed in %.2f seconds\n",
		len(result.Records), scanDuration.Seconds())
	s.Stop()

	if scanErr != nil {
		slog.Warn("Scan finished with errors", "error", scanErr)
	}

	engine := recommend.NewEngine(cfg.TransitionSteps(), table, cfg.MinObjectSize, cfg.MinBucketSizeGB)
	recs := make([]models.Recommendation, 0, len(result.Records))
	for _, record := range result.Records {
		rec, err := engine.Recommend(record)
		if err != nil {
			slog.Warn("Recommendation failed", "bucket", record.BucketName, "error", err)
			continue
		}
		recs = append(recs, rec)
	}

	data := report.Assemble("s3cycle", version.Get().Version, result, recs, time.Now())

	reportPath, err := writeReport(cfg, mode, data)
	if err != nil {
		return err
	}

	formatter.PrintAuditTable(data, scanStartTime, scanDuration)
	if mode == modeRecommend {
		printRecommendations(data)
	}
	formatter.PrintRunSummary(data)
	if refreshPricing {
		formatter.PrintPricingAPIStats()
	}
	fmt.Printf("\nReport written to %s\n", reportPath)

	if cfg.FailureTolerance >= 0 && len(result.Skipped) > cfg.FailureTolerance {
		return &exitError{
			code: 2,
			msg: fmt.Sprintf("Error: %d buckets skipped, exceeding the failure tolerance of %d",
				len(result.Skipped), cfg.FailureTolerance),
		}
	}
	return nil
}

// writeReport emits the report file into the output directory and
// returns its path.
func writeReport(cfg *config.Config, mode string, data report.Data) (string, error) {
	if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	name := fmt.Sprintf("s3cycle-%s-%s.%s", mode, data.GeneratedAt.Format("20060102-150405"), cfg.Output.Format)
	path := filepath.Join(cfg.Output.Directory, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	var reporter report.Reporter
	switch cfg.Output.Format {
	case "json":
		reporter = report.JSONReporter{Writer: f}
	default:
		reporter = report.CSVReporter{Writer: f}
	}
	if err := reporter.Generate(data); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// printRecommendations lists the proposed transition ladder per bucket.
func printRecommendations(data report.Data) {
	var count int
	for _, row := range data.Rows {
		if row.Recommendation != nil && row.Recommendation.HasTransitions() {
			count++
		}
	}
	if count == 0 {
		fmt.Println("\nNo lifecycle transitions recommended.")
		return
	}

	fmt.Printf("\n## RECOMMENDATIONS (%d buckets):\n", count)
	for _, row := range data.Rows {
		rec := row.Recommendation
		if rec == nil || !rec.HasTransitions() {
			continue
		}
		fmt.Printf("- %s (%s/%s): save $%.2f/month (%.1f%%)\n",
			rec.BucketName, rec.Account.Label(), rec.Region, rec.SavingsAmount, rec.SavingsPercent)
		for _, step := range rec.Transitions {
			fmt.Printf("    after %d days -> %s\n", step.Days, step.StorageClass)
		}
	}
}

// filterAccounts keeps the accounts whose ID or label matches one of
// the requested names.
func filterAccounts(accounts []models.Account, names []string) []models.Account {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var kept []models.Account
	for _, acct := range accounts {
		if wanted[acct.ID] || wanted[acct.Label()] {
			kept = append(kept, acct)
		}
	}
	return kept
}
