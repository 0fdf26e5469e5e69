package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/s3cycle/s3cycle/internal/config"
	"github.com/s3cycle/s3cycle/internal/version"
	"github.com/s3cycle/s3cycle/pkg/utils"
)

var (
	cfgFile        string
	regions        []string
	outputDir      string
	outputFormat   string
	accountFilter  []string
	refreshPricing bool
	debug          bool
)

// exitError carries a process exit code through cobra's error path.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	rootCmd := &cobra.Command{
		Use:   "s3cycle",
		Short: "Audit S3 buckets and recommend lifecycle policies",
		Long: `s3cycle scans S3 buckets across accounts and regions, profiles
object age distributions, and recommends storage class transition
policies that reduce monthly storage cost.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringSliceVarP(&regions, "regions", "r", nil,
		fmt.Sprintf("AWS regions to scan (comma separated, default: %s)", utils.GetDefaultRegion()))
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Directory for the generated report")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "Report format (csv or json)")
	rootCmd.PersistentFlags().StringSliceVar(&accountFilter, "account", nil, "Limit the scan to these account IDs or labels")
	rootCmd.PersistentFlags().BoolVar(&refreshPricing, "refresh-pricing", false, "Refresh storage prices from the AWS Pricing API")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Inventory buckets and report current storage cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(modeAudit)
		},
	}
}

func newRecommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Audit buckets and print lifecycle transition recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(modeRecommend)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("s3cycle %s\n", version.Get())
		},
	}
}

// loadConfig resolves the run configuration from the config file and
// command line flags, flags winning.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if len(regions) > 0 {
		cfg.Regions = regions
	}
	if outputDir != "" {
		cfg.Output.Directory = outputDir
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}

	if len(cfg.Regions) == 0 {
		cfg.Regions = []string{utils.GetDefaultRegion()}
	}
	var validRegions []string
	for _, region := range cfg.Regions {
		if utils.IsValidRegion(region) {
			validRegions = append(validRegions, region)
		} else {
			fmt.Printf("Warning: Skipping invalid region '%s'\n", region)
		}
	}
	if len(validRegions) == 0 {
		return nil, fmt.Errorf("no valid regions specified")
	}
	cfg.Regions = validRegions

	if len(accountFilter) > 0 {
		cfg.Accounts = filterAccounts(cfg.Accounts, accountFilter)
		if len(cfg.Accounts) == 0 {
			return nil, fmt.Errorf("no configured account matches %v", accountFilter)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
