package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVReporter writes the report as CSV with a comment-style summary and
// skipped-bucket footer.
type CSVReporter struct {
	Writer io.Writer
}

var csvHeader = []string{
	"account", "region", "bucket", "size_bytes", "object_count",
	"has_lifecycle", "versioning", "logging", "current_storage_class",
	"current_monthly_cost", "recommended_transitions",
	"projected_monthly_cost", "savings_monthly", "savings_percent",
	"strategy", "sampled",
}

// Generate writes all rows, the skipped section, and the summary footer.
// A row with a missing recommendation gets N/A placeholders instead of
// failing the run.
func (r CSVReporter) Generate(data Data) error {
	w := csv.NewWriter(r.Writer)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, row := range data.Rows {
		rec := row.Record
		line := []string{
			rec.Account.Label(),
			rec.Region,
			rec.BucketName,
			strconv.FormatInt(rec.TotalSizeBytes, 10),
			strconv.FormatInt(rec.ObjectCount, 10),
			strconv.FormatBool(rec.HasLifecyclePolicy),
			strconv.FormatBool(rec.VersioningEnabled),
			strconv.FormatBool(rec.LoggingEnabled),
		}

		if row.Recommendation != nil {
			line = append(line,
				row.Recommendation.CurrentStorageClass,
				formatMoney(row.Recommendation.CurrentMonthlyCost),
				formatTransitions(row.Recommendation.Transitions),
				formatMoney(row.Recommendation.ProjectedMonthlyCost),
				formatMoney(row.Recommendation.SavingsAmount),
				fmt.Sprintf("%.1f", row.Recommendation.SavingsPercent),
				row.Recommendation.Strategy,
			)
		} else {
			line = append(line, "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A")
		}
		line = append(line, strconv.FormatBool(rec.Sampled))

		if err := w.Write(line); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", rec.BucketName, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return r.writeFooter(data)
}

func (r CSVReporter) writeFooter(data Data) error {
	s := data.Summary

	fmt.Fprintf(r.Writer, "\n# summary generated_at=%s tool=%s version=%s\n",
		s.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"), data.Tool, data.Version)
	fmt.Fprintf(r.Writer, "# accounts=%d regions=%d buckets_scanned=%d buckets_skipped=%d warnings=%d\n",
		s.AccountsScanned, s.RegionsScanned, s.BucketsScanned, s.BucketsSkipped, s.Warnings)
	fmt.Fprintf(r.Writer, "# without_lifecycle=%d total_size_bytes=%d\n",
		s.WithoutLifecycle, s.TotalSizeBytes)
	fmt.Fprintf(r.Writer, "# current_monthly_cost=%s projected_monthly_cost=%s monthly_savings=%s annual_savings=%s\n",
		formatMoney(s.CurrentMonthlyCost), formatMoney(s.ProjectedMonthly),
		formatMoney(s.MonthlySavings), formatMoney(s.AnnualSavings))
	if s.BucketsSampled > 0 {
		fmt.Fprintf(r.Writer, "# sampled_buckets=%d estimation_tolerance=%s\n",
			s.BucketsSampled, SamplingTolerance)
	}

	if len(data.Skipped) > 0 {
		fmt.Fprintf(r.Writer, "# skipped buckets:\n")
		for _, sk := range data.Skipped {
			fmt.Fprintf(r.Writer, "# skipped account=%s region=%s bucket=%s reason=%s detail=%q\n",
				sk.Account.Label(), sk.Region, sk.BucketName, sk.Reason, sk.Detail)
		}
	}
	return nil
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
