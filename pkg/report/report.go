// Package report serializes scan findings to CSV or JSON. Output ordering
// is deterministic (account label, then bucket name) so re-runs over the
// same fleet diff cleanly.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/s3cycle/s3cycle/internal/models"
)

// SamplingTolerance is the disclosed estimation error bound for buckets
// whose histograms were sampled rather than fully enumerated.
const SamplingTolerance = "+/-5%"

// Reporter is the interface both output formats implement.
type Reporter interface {
	Generate(data Data) error
}

// Row is one report line: a scanned bucket and its recommendation.
// Recommendation may be nil when the engine could not price the bucket;
// writers emit placeholders and count a warning.
type Row struct {
	Record         models.BucketRecord
	Recommendation *models.Recommendation
}

// Data holds everything a writer needs.
type Data struct {
	Tool        string
	Version     string
	GeneratedAt time.Time
	Rows        []Row
	Skipped     []models.SkippedBucket
	Summary     models.ScanSummary
}

// Assemble merges scan records with their recommendations, sorts rows,
// and computes the summary counters.
func Assemble(tool, version string, result *models.ScanResult, recs []models.Recommendation, generatedAt time.Time) Data {
	byKey := make(map[string]*models.Recommendation, len(recs))
	for i := range recs {
		byKey[recs[i].Account.Label()+"/"+recs[i].BucketName] = &recs[i]
	}

	rows := make([]Row, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, Row{
			Record:         rec,
			Recommendation: byKey[rec.Account.Label()+"/"+rec.BucketName],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if a, b := rows[i].Record.Account.Label(), rows[j].Record.Account.Label(); a != b {
			return a < b
		}
		return rows[i].Record.BucketName < rows[j].Record.BucketName
	})

	skipped := append([]models.SkippedBucket(nil), result.Skipped...)
	sort.Slice(skipped, func(i, j int) bool {
		if a, b := skipped[i].Account.Label(), skipped[j].Account.Label(); a != b {
			return a < b
		}
		return skipped[i].BucketName < skipped[j].BucketName
	})

	return Data{
		Tool:        tool,
		Version:     version,
		GeneratedAt: generatedAt,
		Rows:        rows,
		Skipped:     skipped,
		Summary:     buildSummary(rows, skipped, generatedAt),
	}
}

func buildSummary(rows []Row, skipped []models.SkippedBucket, generatedAt time.Time) models.ScanSummary {
	s := models.ScanSummary{
		GeneratedAt:    generatedAt,
		BucketsScanned: len(rows),
		BucketsSkipped: len(skipped),
	}

	accounts := map[string]bool{}
	regions := map[string]bool{}
	for _, row := range rows {
		accounts[row.Record.Account.Label()] = true
		regions[row.Record.Region] = true
		s.TotalSizeBytes += row.Record.TotalSizeBytes
		if row.Record.Sampled {
			s.BucketsSampled++
		}
		if !row.Record.HasLifecyclePolicy {
			s.WithoutLifecycle++
		}
		if row.Recommendation == nil {
			s.Warnings++
			continue
		}
		s.CurrentMonthlyCost += row.Recommendation.CurrentMonthlyCost
		s.ProjectedMonthly += row.Recommendation.ProjectedMonthlyCost
		s.MonthlySavings += row.Recommendation.SavingsAmount
	}
	s.AccountsScanned = len(accounts)
	s.RegionsScanned = len(regions)
	s.AnnualSavings = s.MonthlySavings * 12
	return s
}

// formatTransitions renders a transition sequence as "30:CLASS;90:CLASS".
func formatTransitions(steps []models.TransitionStep) string {
	if len(steps) == 0 {
		return "none"
	}
	parts := make([]string, len(steps))
	for i, step := range steps {
		parts[i] = fmt.Sprintf("%d:%s", step.Days, step.StorageClass)
	}
	return strings.Join(parts, ";")
}
