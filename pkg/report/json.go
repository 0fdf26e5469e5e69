package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/s3cycle/s3cycle/internal/models"
)

// JSONReporter writes the report as a single JSON document.
type JSONReporter struct {
	Writer io.Writer
}

type jsonEnvelope struct {
	Tool              string        `json:"tool"`
	Version           string        `json:"version"`
	GeneratedAt       time.Time     `json:"generated_at"`
	Buckets           []jsonRow     `json:"buckets"`
	Skipped           []jsonSkipped `json:"skipped"`
	Summary           jsonSummary   `json:"summary"`
	SamplingTolerance string        `json:"sampling_tolerance,omitempty"`
}

type jsonRow struct {
	Account             string                  `json:"account"`
	Region              string                  `json:"region"`
	Bucket              string                  `json:"bucket"`
	SizeBytes           int64                   `json:"size_bytes"`
	ObjectCount         int64                   `json:"object_count"`
	HasLifecycle        bool                    `json:"has_lifecycle"`
	VersioningEnabled   bool                    `json:"versioning_enabled"`
	LoggingEnabled      bool                    `json:"logging_enabled"`
	Sampled             bool                    `json:"sampled"`
	SampleFraction      float64                 `json:"sample_fraction,omitempty"`
	CurrentStorageClass string                  `json:"current_storage_class,omitempty"`
	CurrentMonthlyCost  *float64                `json:"current_monthly_cost,omitempty"`
	Transitions         []models.TransitionStep `json:"recommended_transitions,omitempty"`
	ProjectedMonthly    *float64                `json:"projected_monthly_cost,omitempty"`
	MonthlySavings      *float64                `json:"savings_monthly,omitempty"`
	SavingsPercent      *float64                `json:"savings_percent,omitempty"`
	Strategy            string                  `json:"strategy,omitempty"`
	AgeHistogram        []jsonAgeBand           `json:"age_histogram,omitempty"`
}

type jsonAgeBand struct {
	Range       string `json:"range"`
	SizeBytes   int64  `json:"size_bytes"`
	ObjectCount int64  `json:"object_count"`
}

type jsonSkipped struct {
	Account string `json:"account"`
	Region  string `json:"region"`
	Bucket  string `json:"bucket"`
	Reason  string `json:"reason"`
	Detail  string `json:"detail"`
}

type jsonSummary struct {
	AccountsScanned    int     `json:"accounts_scanned"`
	RegionsScanned     int     `json:"regions_scanned"`
	BucketsScanned     int     `json:"buckets_scanned"`
	BucketsSkipped     int     `json:"buckets_skipped"`
	BucketsSampled     int     `json:"buckets_sampled"`
	WithoutLifecycle   int     `json:"without_lifecycle"`
	TotalSizeBytes     int64   `json:"total_size_bytes"`
	CurrentMonthlyCost float64 `json:"current_monthly_cost"`
	ProjectedMonthly   float64 `json:"projected_monthly_cost"`
	MonthlySavings     float64 `json:"monthly_savings"`
	AnnualSavings      float64 `json:"annual_savings"`
	Warnings           int     `json:"warnings"`
}

// Generate marshals the whole report. Rows lacking a recommendation keep
// their scan fields and omit the cost block.
func (r JSONReporter) Generate(data Data) error {
	env := jsonEnvelope{
		Tool:        data.Tool,
		Version:     data.Version,
		GeneratedAt: data.GeneratedAt.UTC(),
		Buckets:     make([]jsonRow, 0, len(data.Rows)),
		Skipped:     make([]jsonSkipped, 0, len(data.Skipped)),
		Summary: jsonSummary{
			AccountsScanned:    data.Summary.AccountsScanned,
			RegionsScanned:     data.Summary.RegionsScanned,
			BucketsScanned:     data.Summary.BucketsScanned,
			BucketsSkipped:     data.Summary.BucketsSkipped,
			BucketsSampled:     data.Summary.BucketsSampled,
			WithoutLifecycle:   data.Summary.WithoutLifecycle,
			TotalSizeBytes:     data.Summary.TotalSizeBytes,
			CurrentMonthlyCost: data.Summary.CurrentMonthlyCost,
			ProjectedMonthly:   data.Summary.ProjectedMonthly,
			MonthlySavings:     data.Summary.MonthlySavings,
			AnnualSavings:      data.Summary.AnnualSavings,
			Warnings:           data.Summary.Warnings,
		},
	}
	if data.Summary.BucketsSampled > 0 {
		env.SamplingTolerance = SamplingTolerance
	}

	for _, row := range data.Rows {
		env.Buckets = append(env.Buckets, buildJSONRow(row))
	}
	for _, sk := range data.Skipped {
		env.Skipped = append(env.Skipped, jsonSkipped{
			Account: sk.Account.Label(),
			Region:  sk.Region,
			Bucket:  sk.BucketName,
			Reason:  string(sk.Reason),
			Detail:  sk.Detail,
		})
	}

	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}

func buildJSONRow(row Row) jsonRow {
	rec := row.Record
	out := jsonRow{
		Account:           rec.Account.Label(),
		Region:            rec.Region,
		Bucket:            rec.BucketName,
		SizeBytes:         rec.TotalSizeBytes,
		ObjectCount:       rec.ObjectCount,
		HasLifecycle:      rec.HasLifecyclePolicy,
		VersioningEnabled: rec.VersioningEnabled,
		LoggingEnabled:    rec.LoggingEnabled,
		Sampled:           rec.Sampled,
	}
	if rec.Sampled {
		out.SampleFraction = rec.SampleFraction
	}
	for _, band := range rec.AgeBuckets {
		if band.ObjectCount == 0 {
			continue
		}
		out.AgeHistogram = append(out.AgeHistogram, jsonAgeBand{
			Range:       band.Label(),
			SizeBytes:   band.SizeBytes,
			ObjectCount: band.ObjectCount,
		})
	}

	if r := row.Recommendation; r != nil {
		out.CurrentStorageClass = r.CurrentStorageClass
		out.CurrentMonthlyCost = &r.CurrentMonthlyCost
		out.Transitions = r.Transitions
		out.ProjectedMonthly = &r.ProjectedMonthlyCost
		out.MonthlySavings = &r.SavingsAmount
		out.SavingsPercent = &r.SavingsPercent
		out.Strategy = r.Strategy
	}
	return out
}
