package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/s3cycle/s3cycle/internal/models"
)

// S3 storage class identifiers as used by the lifecycle API.
const (
	ClassStandard           = "STANDARD"
	ClassIntelligentTiering = "INTELLIGENT_TIERING"
	ClassStandardIA         = "STANDARD_IA"
	ClassOneZoneIA          = "ONEZONE_IA"
	ClassGlacierIR          = "GLACIER_IR"
	ClassGlacier            = "GLACIER"
	ClassDeepArchive        = "DEEP_ARCHIVE"
)

const bytesPerGB = 1 << 30

// defaultPrices is the built-in USD per GB-month table (us-east-1 list
// prices). Fallback when the Pricing API is unavailable and no config
// override is present.
var defaultPrices = map[string]float64{
	ClassStandard:           0.023,
	ClassIntelligentTiering: 0.0125,
	ClassStandardIA:         0.0125,
	ClassOneZoneIA:          0.01,
	ClassGlacierIR:          0.004,
	ClassGlacier:            0.0036,
	ClassDeepArchive:        0.00099,
}

// Table maps storage class to USD per GB-month. Constant for a run.
type Table struct {
	prices map[string]float64
}

// NewTable builds a pricing table from the defaults merged with config
// overrides. Override keys are case-insensitive ("deep_archive" works).
func NewTable(overrides map[string]float64) *Table {
	prices := make(map[string]float64, len(defaultPrices))
	for class, price := range defaultPrices {
		prices[class] = price
	}
	for key, price := range overrides {
		prices[NormalizeClass(key)] = price
	}
	return &Table{prices: prices}
}

// NormalizeClass maps a config key to the canonical storage class name.
func NormalizeClass(key string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(key), "-", "_"))
}

// CostPerGBMonth returns the monthly price for one GB in the given class.
func (t *Table) CostPerGBMonth(class string) (float64, bool) {
	price, ok := t.prices[NormalizeClass(class)]
	return price, ok
}

// MonthlyCost returns the monthly cost of storing size bytes in the class.
func (t *Table) MonthlyCost(class string, sizeBytes int64) (float64, error) {
	price, ok := t.CostPerGBMonth(class)
	if !ok {
		return 0, fmt.Errorf("no pricing entry for storage class %s", class)
	}
	return float64(sizeBytes) / bytesPerGB * price, nil
}

// Classes returns the storage classes in the table, sorted by name.
func (t *Table) Classes() []string {
	classes := make([]string, 0, len(t.prices))
	for class := range t.prices {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// Validate checks that every transition target and the current class have
// a pricing entry. Missing entries abort the run before scanning.
func (t *Table) Validate(steps []models.TransitionStep) error {
	if _, ok := t.CostPerGBMonth(ClassStandard); !ok {
		return fmt.Errorf("pricing table is missing the %s entry", ClassStandard)
	}
	for _, step := range steps {
		if _, ok := t.CostPerGBMonth(step.StorageClass); !ok {
			return fmt.Errorf("pricing table is missing an entry for transition target %s", step.StorageClass)
		}
	}
	return nil
}

// Set records a price, used by the Pricing API refresh.
func (t *Table) Set(class string, price float64) {
	t.prices[NormalizeClass(class)] = price
}
