package models

import (
	"fmt"
	"time"
)

// BucketRecord represents one scanned S3 bucket. Produced by exactly one
// scan worker and read-only afterwards.
type BucketRecord struct {
	BucketName   string
	Account      Account
	Region       string
	CreationTime time.Time

	HasLifecyclePolicy bool
	LifecycleRuleNames []string // existing rule IDs, used by the conflict guard
	VersioningEnabled  bool
	LoggingEnabled     bool

	TotalSizeBytes int64
	ObjectCount    int64
	StorageClass   string // dominant current class, Standard unless observed otherwise

	// Object age/size histogram. Bands are derived from the configured
	// transition thresholds; sizes must sum to TotalSizeBytes.
	AgeBuckets []AgeBucket

	// Sampling disclosure
	Sampled        bool
	SampleFraction float64 // sampled bytes / total bytes when Sampled

	Access AccessProfile
}

// AgeBucket is one histogram band summarizing objects by age.
// MinAgeDays is inclusive, MaxAgeDays exclusive (0 = open-ended).
type AgeBucket struct {
	MinAgeDays  int
	MaxAgeDays  int
	SizeBytes   int64
	ObjectCount int64

	// Bytes held by objects below the configured minimum object size.
	// Counted in SizeBytes but never eligible for archival transitions.
	SmallObjectBytes int64
}

// Label renders the band's age range for reports.
func (b AgeBucket) Label() string {
	if b.MaxAgeDays <= 0 {
		return fmt.Sprintf(">=%dd", b.MinAgeDays)
	}
	return fmt.Sprintf("%d-%dd", b.MinAgeDays, b.MaxAgeDays)
}

// HistogramSize returns the byte total across all age bands.
func (r BucketRecord) HistogramSize() int64 {
	var total int64
	for _, b := range r.AgeBuckets {
		total += b.SizeBytes
	}
	return total
}

// ValidateHistogram checks the band-sum invariant against the record total.
func (r BucketRecord) ValidateHistogram() error {
	if got := r.HistogramSize(); got != r.TotalSizeBytes {
		return fmt.Errorf("bucket %s: histogram sums to %d bytes, record total is %d",
			r.BucketName, got, r.TotalSizeBytes)
	}
	return nil
}

// AccessProfile summarizes request activity for a bucket. When CloudWatch
// request metrics are unavailable Known is false and the engine falls back
// to age-only heuristics.
type AccessProfile struct {
	Known                 bool
	GetRequestsLast30Days int64
	PutRequestsLast30Days int64
	Frequent              bool
}
