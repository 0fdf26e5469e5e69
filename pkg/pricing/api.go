package pricing

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"github.com/s3cycle/s3cycle/pkg/utils"
)

// AWS pricing client. The Pricing API is only served from us-east-1 and
// ap-south-1.
var (
	pricingClient *pricing.Client
	pricingOnce   sync.Once
	initMessage   string
)

// volumeTypes maps our storage class names to the volumeType attribute
// values used by the AmazonS3 offer file.
var volumeTypes = map[string]string{
	ClassStandard:           "Standard",
	ClassIntelligentTiering: "Intelligent-Tiering Frequent Access",
	ClassStandardIA:         "Standard - Infrequent Access",
	ClassOneZoneIA:          "One Zone - Infrequent Access",
	ClassGlacierIR:          "Glacier Instant Retrieval",
	ClassGlacier:            "Glacier Flexible Retrieval",
	ClassDeepArchive:        "Glacier Deep Archive",
}

// API call statistics per region, printed once at the end of a run.
var (
	apiStats     = make(map[string]map[string]int) // region -> {success, failure}
	apiStatsLock sync.RWMutex
)

func initPricingClient() {
	const pricingRegion = "us-east-1"
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(pricingRegion))
	if err != nil {
		initMessage = fmt.Sprintf("Error loading AWS config for pricing API: %v. Using built-in pricing.", err)
		return
	}
	pricingClient = pricing.NewFromConfig(cfg)
	initMessage = fmt.Sprintf("AWS Pricing API initialized in %s region", pricingRegion)
}

// GetInitMessage returns the initialization message once, then clears it.
func GetInitMessage() string {
	msg := initMessage
	initMessage = ""
	return msg
}

// RefreshTable overwrites table entries with live first-tier storage prices
// for the given region. Classes the API cannot resolve keep their current
// value; the refresh never fails the run.
func RefreshTable(ctx context.Context, table *Table, region string) {
	pricingOnce.Do(initPricingClient)
	if pricingClient == nil {
		return
	}

	for class, volumeType := range volumeTypes {
		price, err := fetchStoragePrice(ctx, volumeType, region)
		if err != nil {
			recordStat(region, "failure")
			continue
		}
		recordStat(region, "success")
		table.Set(class, price)
	}
}

func fetchStoragePrice(ctx context.Context, volumeType, region string) (float64, error) {
	input := &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonS3"),
		MaxResults:  aws.Int32(1),
		Filters: []types.Filter{
			{
				Type:  types.FilterTypeTermMatch,
				Field: aws.String("volumeType"),
				Value: aws.String(volumeType),
			},
			{
				Type:  types.FilterTypeTermMatch,
				Field: aws.String("location"),
				Value: aws.String(utils.GetRegionDescriptiveName(region)),
			},
			{
				Type:  types.FilterTypeTermMatch,
				Field: aws.String("productFamily"),
				Value: aws.String("Storage"),
			},
		},
	}

	resp, err := pricingClient.GetProducts(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("calling AWS Pricing API: %w", err)
	}
	if len(resp.PriceList) == 0 {
		return 0, fmt.Errorf("no pricing found for %s in %s", volumeType, region)
	}

	return extractOnDemandPrice(resp.PriceList[0])
}

// extractOnDemandPrice walks the offer JSON down to the first on-demand
// price dimension's USD rate.
func extractOnDemandPrice(priceJSON string) (float64, error) {
	priceData, err := utils.ParseJSON(priceJSON)
	if err != nil {
		return 0, fmt.Errorf("parsing pricing data: %w", err)
	}

	terms, ok := priceData["terms"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("terms field not found or invalid")
	}
	onDemand, ok := terms["OnDemand"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("OnDemand field not found or invalid")
	}

	skuOffer, err := utils.GetFirstMapValue(onDemand)
	if err != nil {
		return 0, fmt.Errorf("no SKU offer found")
	}
	skuOfferMap, ok := skuOffer.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("SKU offer is not a map")
	}

	priceDimensions, ok := skuOfferMap["priceDimensions"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("priceDimensions field not found or invalid")
	}
	dimension, err := utils.GetFirstMapValue(priceDimensions)
	if err != nil {
		return 0, fmt.Errorf("no price dimension found")
	}
	dimensionMap, ok := dimension.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("price dimension is not a map")
	}

	pricePerUnit, ok := dimensionMap["pricePerUnit"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("pricePerUnit field not found or invalid")
	}
	usd, ok := pricePerUnit["USD"].(string)
	if !ok {
		return 0, fmt.Errorf("USD price not found or invalid")
	}

	price, err := strconv.ParseFloat(usd, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing price: %w", err)
	}
	return price, nil
}

func recordStat(region, kind string) {
	apiStatsLock.Lock()
	defer apiStatsLock.Unlock()

	if _, exists := apiStats[region]; !exists {
		apiStats[region] = map[string]int{"success": 0, "failure": 0}
	}
	apiStats[region][kind]++
}

// GetAPIStats returns a copy of the per-region Pricing API call counters.
func GetAPIStats() map[string]map[string]int {
	apiStatsLock.RLock()
	defer apiStatsLock.RUnlock()

	out := make(map[string]map[string]int, len(apiStats))
	for region, counts := range apiStats {
		c := make(map[string]int, len(counts))
		for k, v := range counts {
			c[k] = v
		}
		out[region] = c
	}
	return out
}
