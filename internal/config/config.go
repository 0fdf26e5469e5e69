package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/s3cycle/s3cycle/internal/models"
)

// Defaults applied when the config file leaves a field unset.
const (
	DefaultMinObjectSize    = 128 * 1024 // AWS bills 128 KiB minimum for IA/archive tiers
	DefaultMinBucketSizeGB  = 1.0
	DefaultMaxSampleObjects = 20000
	DefaultConcurrency      = 4
	DefaultFormat           = "csv"
	DefaultTimeout          = 30 * time.Minute
)

// Config holds the full s3cycle run configuration loaded from YAML.
type Config struct {
	Accounts []models.Account `yaml:"accounts"`
	Regions  []string         `yaml:"regions"`

	Thresholds Thresholds `yaml:"thresholds"`

	// Objects below this size stay in their current class (IA/archive
	// tiers bill a minimum object size).
	MinObjectSize int64 `yaml:"min_object_size"`

	// Buckets below this size are reported but get no recommendation.
	MinBucketSizeGB float64 `yaml:"min_bucket_size_gb"`

	// Per-class USD/GB-month overrides merged over the built-in table.
	Pricing map[string]float64 `yaml:"pricing"`

	Sampling Sampling `yaml:"sampling"`
	Output   Output   `yaml:"output"`

	// Number of scan failures (skipped buckets) tolerated before the
	// run exits nonzero. Negative disables the check.
	FailureTolerance int `yaml:"failure_tolerance"`

	Concurrency int    `yaml:"concurrency"`
	Timeout     string `yaml:"timeout"`
}

// Thresholds names the four transition stages in days since object creation.
// A zero stage is omitted from the generated rule.
type Thresholds struct {
	IntelligentTieringDays int `yaml:"intelligent_tiering_days"`
	GlacierIRDays          int `yaml:"glacier_ir_days"`
	GlacierDays            int `yaml:"glacier_days"`
	DeepArchiveDays        int `yaml:"deep_archive_days"`
}

// Sampling bounds object enumeration per bucket.
type Sampling struct {
	MaxObjects int `yaml:"max_objects"`
}

// Output controls report emission.
type Output struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"` // csv or json
}

// Load reads and parses the YAML config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a runnable configuration for flag-only invocations.
func Default() *Config {
	cfg := &Config{
		Thresholds: Thresholds{
			IntelligentTieringDays: 30,
			GlacierIRDays:          90,
			GlacierDays:            180,
			DeepArchiveDays:        365,
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MinObjectSize == 0 {
		c.MinObjectSize = DefaultMinObjectSize
	}
	if c.MinBucketSizeGB == 0 {
		c.MinBucketSizeGB = DefaultMinBucketSizeGB
	}
	if c.Sampling.MaxObjects == 0 {
		c.Sampling.MaxObjects = DefaultMaxSampleObjects
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Output.Format == "" {
		c.Output.Format = DefaultFormat
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "."
	}
}

// TransitionSteps returns the configured stages as an ordered rule,
// skipping unset stages.
func (c *Config) TransitionSteps() []models.TransitionStep {
	stages := []struct {
		days  int
		class string
	}{
		{c.Thresholds.IntelligentTieringDays, "INTELLIGENT_TIERING"},
		{c.Thresholds.GlacierIRDays, "GLACIER_IR"},
		{c.Thresholds.GlacierDays, "GLACIER"},
		{c.Thresholds.DeepArchiveDays, "DEEP_ARCHIVE"},
	}

	var steps []models.TransitionStep
	for _, s := range stages {
		if s.days > 0 {
			steps = append(steps, models.TransitionStep{Days: s.days, StorageClass: s.class})
		}
	}
	return steps
}

// TimeoutDuration parses the run timeout, falling back to the default.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// Validate rejects configurations that must abort before any scanning.
func (c *Config) Validate() error {
	steps := c.TransitionSteps()
	if len(steps) == 0 {
		return fmt.Errorf("thresholds: at least one transition stage is required")
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Days <= steps[i-1].Days {
			return fmt.Errorf("thresholds: %s (%d days) must come after %s (%d days)",
				steps[i].StorageClass, steps[i].Days,
				steps[i-1].StorageClass, steps[i-1].Days)
		}
	}

	switch c.Output.Format {
	case "csv", "json":
	default:
		return fmt.Errorf("output.format: unsupported format %q (csv or json)", c.Output.Format)
	}

	for i, acct := range c.Accounts {
		if acct.ID == "" {
			return fmt.Errorf("accounts[%d]: id is required", i)
		}
	}

	if c.MinObjectSize < 0 {
		return fmt.Errorf("min_object_size must not be negative")
	}
	if c.Sampling.MaxObjects < 0 {
		return fmt.Errorf("sampling.max_objects must not be negative")
	}
	return nil
}
