package formatter

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/s3cycle/s3cycle/pkg/report"
)

// PrintRunSummary prints the aggregate counters and the skipped section.
func PrintRunSummary(data report.Data) {
	s := data.Summary

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "\n## SCAN SUMMARY:")
	fmt.Fprintf(w, "Accounts scanned:\t%d\n", s.AccountsScanned)
	fmt.Fprintf(w, "Regions scanned:\t%d\n", s.RegionsScanned)
	fmt.Fprintf(w, "Buckets scanned:\t%d\n", s.BucketsScanned)
	fmt.Fprintf(w, "Buckets skipped:\t%d\n", s.BucketsSkipped)
	fmt.Fprintf(w, "Without lifecycle policy:\t%d\n", s.WithoutLifecycle)
	fmt.Fprintf(w, "Total storage:\t%s\n", humanize.IBytes(uint64(s.TotalSizeBytes)))
	fmt.Fprintf(w, "Current monthly cost:\t$%.2f\n", s.CurrentMonthlyCost)
	fmt.Fprintf(w, "Projected monthly cost:\t$%.2f\n", s.ProjectedMonthly)
	fmt.Fprintf(w, "Potential monthly savings:\t$%.2f\n", s.MonthlySavings)
	fmt.Fprintf(w, "Potential annual savings:\t$%.2f\n", s.AnnualSavings)
	if s.Warnings > 0 {
		fmt.Fprintf(w, "Warnings:\t%d\n", s.Warnings)
	}
	w.Flush()

	if len(data.Skipped) > 0 {
		w = tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "\n## SKIPPED BUCKETS:")
		fmt.Fprintln(w, "BUCKET\tACCOUNT\tREGION\tREASON")
		for _, sk := range data.Skipped {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				sk.BucketName, sk.Account.Label(), sk.Region, sk.Reason)
		}
		w.Flush()
	}
}
