package formatter

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/s3cycle/s3cycle/pkg/pricing"
)

// PrintPricingAPIStats prints the Pricing API call counters once after a
// run that used --refresh-pricing.
func PrintPricingAPIStats() {
	stats := pricing.GetAPIStats()
	if len(stats) == 0 {
		return
	}

	regions := make([]string, 0, len(stats))
	for region := range stats {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "\n## PRICING API CALLS:")
	fmt.Fprintln(w, "REGION\tSUCCESS\tFAILURE")
	for _, region := range regions {
		fmt.Fprintf(w, "%s\t%d\t%d\n", region, stats[region]["success"], stats[region]["failure"])
	}
	w.Flush()
}
