package formatter

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/s3cycle/s3cycle/internal/models"
	"github.com/s3cycle/s3cycle/pkg/report"
)

// PrintAuditTable prints one row per scanned bucket in the kubernetes
// style tabwriter layout.
func PrintAuditTable(data report.Data, scanStartTime time.Time, scanDuration time.Duration) {
	if len(data.Rows) == 0 {
		fmt.Println("No buckets scanned.")
		return
	}

	fmt.Printf("Scan completed at %s (took %.2fs)\n\n",
		scanStartTime.Format("2006-01-02 15:04:05"), scanDuration.Seconds())

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tACCOUNT\tREGION\tOBJECTS\tSIZE\tLIFECYCLE\tCURRENT $/MO\tPROJECTED $/MO\tSAVINGS\tTRANSITIONS")

	for _, row := range data.Rows {
		rec := row.Record

		lifecycle := "No"
		if rec.HasLifecyclePolicy {
			lifecycle = "Yes"
		}

		current, projected, savings, transitions := "N/A", "N/A", "N/A", "N/A"
		if r := row.Recommendation; r != nil {
			current = fmt.Sprintf("%.2f", r.CurrentMonthlyCost)
			projected = fmt.Sprintf("%.2f", r.ProjectedMonthlyCost)
			savings = fmt.Sprintf("%.2f (%.1f%%)", r.SavingsAmount, r.SavingsPercent)
			transitions = transitionSummary(r)
		}

		name := rec.BucketName
		if rec.Sampled {
			name += " *"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			name,
			rec.Account.Label(),
			rec.Region,
			rec.ObjectCount,
			humanize.IBytes(uint64(rec.TotalSizeBytes)),
			lifecycle,
			current,
			projected,
			savings,
			transitions,
		)
	}
	w.Flush()

	if data.Summary.BucketsSampled > 0 {
		fmt.Printf("\n* sampled bucket, sizes estimated within %s\n", report.SamplingTolerance)
	}
}

// transitionSummary renders a transition ladder as "30d>IT, 365d>DEEP_ARCHIVE".
func transitionSummary(r *models.Recommendation) string {
	if !r.HasTransitions() {
		return "none"
	}
	parts := make([]string, len(r.Transitions))
	for i, step := range r.Transitions {
		parts[i] = fmt.Sprintf("%dd>%s", step.Days, shortClass(step.StorageClass))
	}
	return strings.Join(parts, ", ")
}

// shortClass abbreviates storage class names for the terminal table.
func shortClass(class string) string {
	switch class {
	case "INTELLIGENT_TIERING":
		return "IT"
	case "GLACIER_IR":
		return "GIR"
	case "DEEP_ARCHIVE":
		return "DA"
	default:
		return class
	}
}
