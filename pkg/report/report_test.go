package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s3cycle/s3cycle/internal/models"
)

func testScanResult() *models.ScanResult {
	acctB := models.Account{ID: "222222222222", DisplayName: "staging"}
	acctA := models.Account{ID: "111111111111", DisplayName: "prod"}
	return &models.ScanResult{
		Records: []models.BucketRecord{
			{BucketName: "z-archive", Account: acctB, Region: "us-east-1", TotalSizeBytes: 100, ObjectCount: 2},
			{BucketName: "b-logs", Account: acctA, Region: "eu-west-1", TotalSizeBytes: 300, ObjectCount: 3, Sampled: true, SampleFraction: 0.5},
			{BucketName: "a-data", Account: acctA, Region: "eu-west-1", TotalSizeBytes: 200, ObjectCount: 1, HasLifecyclePolicy: true},
		},
		Skipped: []models.SkippedBucket{
			{BucketName: "locked", Account: acctA, Region: "eu-west-1", Reason: models.SkipPermission, Detail: "AccessDenied"},
		},
		ContextsScanned: 3,
		BucketsScanned:  3,
	}
}

func testRecommendations() []models.Recommendation {
	acctA := models.Account{ID: "111111111111", DisplayName: "prod"}
	return []models.Recommendation{
		{
			BucketName:          "b-logs",
			Account:             acctA,
			Region:              "eu-west-1",
			CurrentStorageClass: "STANDARD",
			Strategy:            "logs",
			Transitions: []models.TransitionStep{
				{Days: 30, StorageClass: "INTELLIGENT_TIERING"},
				{Days: 365, StorageClass: "DEEP_ARCHIVE"},
			},
			CurrentMonthlyCost:   10,
			ProjectedMonthlyCost: 2,
			SavingsAmount:        8,
			SavingsPercent:       80,
		},
		{
			BucketName:           "a-data",
			Account:              acctA,
			Region:               "eu-west-1",
			CurrentStorageClass:  "STANDARD",
			Strategy:             "general",
			CurrentMonthlyCost:   5,
			ProjectedMonthlyCost: 5,
		},
		// z-archive deliberately has no recommendation
	}
}

func TestAssemble(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	data := Assemble("s3cycle", "dev", testScanResult(), testRecommendations(), now)

	// rows sorted by account label, then bucket
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "a-data", data.Rows[0].Record.BucketName)
	assert.Equal(t, "b-logs", data.Rows[1].Record.BucketName)
	assert.Equal(t, "z-archive", data.Rows[2].Record.BucketName)

	require.NotNil(t, data.Rows[1].Recommendation)
	assert.Equal(t, "logs", data.Rows[1].Recommendation.Strategy)
	assert.Nil(t, data.Rows[2].Recommendation)

	s := data.Summary
	assert.Equal(t, 2, s.AccountsScanned)
	assert.Equal(t, 2, s.RegionsScanned)
	assert.Equal(t, 3, s.BucketsScanned)
	assert.Equal(t, 1, s.BucketsSkipped)
	assert.Equal(t, 1, s.BucketsSampled)
	assert.Equal(t, 2, s.WithoutLifecycle)
	assert.Equal(t, int64(600), s.TotalSizeBytes)
	assert.Equal(t, 1, s.Warnings)
	assert.Equal(t, float64(15), s.CurrentMonthlyCost)
	assert.Equal(t, float64(8), s.MonthlySavings)
	assert.Equal(t, float64(96), s.AnnualSavings)
}

func TestAssembleDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var first, second bytes.Buffer
	require.NoError(t, CSVReporter{Writer: &first}.Generate(
		Assemble("s3cycle", "dev", testScanResult(), testRecommendations(), now)))
	require.NoError(t, CSVReporter{Writer: &second}.Generate(
		Assemble("s3cycle", "dev", testScanResult(), testRecommendations(), now)))

	assert.Equal(t, first.String(), second.String())
}

func TestCSVReporter(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	data := Assemble("s3cycle", "dev", testScanResult(), testRecommendations(), now)

	var buf bytes.Buffer
	require.NoError(t, CSVReporter{Writer: &buf}.Generate(data))
	out := buf.String()

	lines := strings.Split(out, "\n")
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])

	assert.Contains(t, out, "prod,eu-west-1,b-logs,300,3,false,false,false,STANDARD,10.00,30:INTELLIGENT_TIERING;365:DEEP_ARCHIVE,2.00,8.00,80.0,logs,true")
	// missing recommendation renders placeholders, not an error
	assert.Contains(t, out, "staging,us-east-1,z-archive,100,2,false,false,false,N/A,N/A,N/A,N/A,N/A,N/A,N/A,false")

	assert.Contains(t, out, "# skipped account=prod region=eu-west-1 bucket=locked reason=PermissionError")
	assert.Contains(t, out, "warnings=1")
	assert.Contains(t, out, "estimation_tolerance=+/-5%")
}

func TestJSONReporter(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	data := Assemble("s3cycle", "dev", testScanResult(), testRecommendations(), now)

	var buf bytes.Buffer
	require.NoError(t, JSONReporter{Writer: &buf}.Generate(data))

	var env struct {
		Tool    string `json:"tool"`
		Buckets []struct {
			Bucket             string   `json:"bucket"`
			CurrentMonthlyCost *float64 `json:"current_monthly_cost"`
			Transitions        []struct {
				Days         int    `json:"days"`
				StorageClass string `json:"storage_class"`
			} `json:"recommended_transitions"`
		} `json:"buckets"`
		Skipped []struct {
			Reason string `json:"reason"`
		} `json:"skipped"`
		Summary struct {
			Warnings       int     `json:"warnings"`
			MonthlySavings float64 `json:"monthly_savings"`
		} `json:"summary"`
		SamplingTolerance string `json:"sampling_tolerance"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))

	assert.Equal(t, "s3cycle", env.Tool)
	require.Len(t, env.Buckets, 3)
	assert.Equal(t, "b-logs", env.Buckets[1].Bucket)
	require.Len(t, env.Buckets[1].Transitions, 2)
	assert.Equal(t, 365, env.Buckets[1].Transitions[1].Days)
	assert.Equal(t, "DEEP_ARCHIVE", env.Buckets[1].Transitions[1].StorageClass)

	// z-archive has no recommendation: cost block omitted
	assert.Nil(t, env.Buckets[2].CurrentMonthlyCost)

	require.Len(t, env.Skipped, 1)
	assert.Equal(t, "PermissionError", env.Skipped[0].Reason)
	assert.Equal(t, 1, env.Summary.Warnings)
	assert.Equal(t, float64(8), env.Summary.MonthlySavings)
	assert.Equal(t, SamplingTolerance, env.SamplingTolerance)
}

func TestFormatTransitions(t *testing.T) {
	assert.Equal(t, "none", formatTransitions(nil))
	assert.Equal(t, "30:INTELLIGENT_TIERING;365:DEEP_ARCHIVE", formatTransitions([]models.TransitionStep{
		{Days: 30, StorageClass: "INTELLIGENT_TIERING"},
		{Days: 365, StorageClass: "DEEP_ARCHIVE"},
	}))
}
