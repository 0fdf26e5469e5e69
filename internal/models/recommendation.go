package models

import "time"

// TransitionStep is one (age, storage class) stage of a lifecycle rule.
type TransitionStep struct {
	Days         int    `json:"days"`
	StorageClass string `json:"storage_class"`
}

// Recommendation holds the lifecycle recommendation for one bucket.
// Derived by the engine and never mutated afterwards.
type Recommendation struct {
	BucketName          string
	Account             Account
	Region              string
	CurrentStorageClass string
	Strategy            string // name-pattern hint: "archive", "logs", "general"

	Transitions []TransitionStep

	CurrentMonthlyCost   float64
	ProjectedMonthlyCost float64
	SavingsAmount        float64
	SavingsPercent       float64

	// Sampling disclosure carried through from the profile
	Sampled        bool
	SampleFraction float64
}

// HasTransitions reports whether the engine found anything worth moving.
func (r Recommendation) HasTransitions() bool {
	return len(r.Transitions) > 0
}

// SkipReason classifies why a bucket was left out of the scan.
type SkipReason string

const (
	SkipPermission     SkipReason = "PermissionError"
	SkipRegionMismatch SkipReason = "RegionMismatchError"
	SkipThrottled      SkipReason = "ThrottlingError"
	SkipOther          SkipReason = "Error"
)

// SkippedBucket records one bucket the scan could not cover and why.
type SkippedBucket struct {
	BucketName string
	Account    Account
	Region     string
	Reason     SkipReason
	Detail     string
}

// ScanResult is the append-only collection produced by the fleet scan.
type ScanResult struct {
	Records []BucketRecord
	Skipped []SkippedBucket

	ContextsScanned int
	BucketsScanned  int
}

// ScanSummary aggregates counters for the report footer.
type ScanSummary struct {
	GeneratedAt        time.Time
	AccountsScanned    int
	RegionsScanned     int
	BucketsScanned     int
	BucketsSkipped     int
	BucketsSampled     int
	WithoutLifecycle   int
	TotalSizeBytes     int64
	CurrentMonthlyCost float64
	ProjectedMonthly   float64
	MonthlySavings     float64
	AnnualSavings      float64
	Warnings           int
}
