// Package recommend implements the lifecycle recommendation engine: a
// deterministic table lookup over the configured transition thresholds,
// with bytes-weighted blended cost projection. No I/O happens here so the
// engine is unit-testable without cloud calls.
package recommend

import (
	"fmt"
	"strings"

	"github.com/s3cycle/s3cycle/internal/models"
	"github.com/s3cycle/s3cycle/pkg/pricing"
)

const bytesPerGB = 1 << 30

// Engine holds the run-constant inputs of the recommendation function.
type Engine struct {
	thresholds    []models.TransitionStep
	table         *pricing.Table
	minObjectSize int64
	minBucketGB   float64
}

// NewEngine builds an engine. Thresholds must already be validated as
// strictly increasing in days.
func NewEngine(thresholds []models.TransitionStep, table *pricing.Table, minObjectSize int64, minBucketGB float64) *Engine {
	return &Engine{
		thresholds:    thresholds,
		table:         table,
		minObjectSize: minObjectSize,
		minBucketGB:   minBucketGB,
	}
}

// TargetStage returns the threshold stage an object of the given age
// qualifies for: the stage with the largest age_days <= ageDays. The
// boolean is false when the object is too young for any stage.
func TargetStage(thresholds []models.TransitionStep, ageDays int) (int, bool) {
	stage := -1
	for i, step := range thresholds {
		if step.Days <= ageDays {
			stage = i
		}
	}
	if stage < 0 {
		return 0, false
	}
	return stage, true
}

// Recommend derives the lifecycle recommendation for one scanned bucket.
// Identical inputs always yield identical output.
func (e *Engine) Recommend(rec models.BucketRecord) (models.Recommendation, error) {
	if err := rec.ValidateHistogram(); err != nil {
		return models.Recommendation{}, err
	}

	currentClass := rec.StorageClass
	if currentClass == "" {
		currentClass = pricing.ClassStandard
	}

	currentCost, err := e.table.MonthlyCost(currentClass, rec.TotalSizeBytes)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("bucket %s: %w", rec.BucketName, err)
	}

	out := models.Recommendation{
		BucketName:           rec.BucketName,
		Account:              rec.Account,
		Region:               rec.Region,
		CurrentStorageClass:  currentClass,
		Strategy:             strategyHint(rec.BucketName),
		CurrentMonthlyCost:   currentCost,
		ProjectedMonthlyCost: currentCost,
		Sampled:              rec.Sampled,
		SampleFraction:       rec.SampleFraction,
	}

	// Buckets with an existing policy or below the size floor are
	// reported but not optimized.
	if rec.HasLifecyclePolicy || float64(rec.TotalSizeBytes)/bytesPerGB < e.minBucketGB {
		return out, nil
	}

	maxStage := e.maxStage(rec)

	var projected float64
	highestHit := -1
	for _, band := range rec.AgeBuckets {
		eligible := band.SizeBytes - band.SmallObjectBytes
		small := band.SmallObjectBytes

		stage, ok := TargetStage(e.thresholds, band.MinAgeDays)
		if ok && stage > maxStage {
			stage = maxStage
			ok = maxStage >= 0
		}

		if ok && eligible > 0 {
			cost, err := e.table.MonthlyCost(e.thresholds[stage].StorageClass, eligible)
			if err != nil {
				return models.Recommendation{}, fmt.Errorf("bucket %s: %w", rec.BucketName, err)
			}
			projected += cost
			if stage > highestHit {
				highestHit = stage
			}
		} else {
			// Too young or access-capped out of every stage
			cost, err := e.table.MonthlyCost(currentClass, eligible)
			if err != nil {
				return models.Recommendation{}, fmt.Errorf("bucket %s: %w", rec.BucketName, err)
			}
			projected += cost
		}

		if small > 0 {
			cost, err := e.table.MonthlyCost(currentClass, small)
			if err != nil {
				return models.Recommendation{}, fmt.Errorf("bucket %s: %w", rec.BucketName, err)
			}
			projected += cost
		}
	}

	if highestHit < 0 {
		return out, nil
	}

	// The recommended rule mirrors the configured ladder up to the
	// highest stage any bytes qualify for, so objects keep descending
	// as they age.
	out.Transitions = append(out.Transitions, e.thresholds[:highestHit+1]...)
	out.ProjectedMonthlyCost = projected
	out.SavingsAmount = currentCost - projected
	if currentCost > 0 {
		out.SavingsPercent = out.SavingsAmount / currentCost * 100
	}
	return out, nil
}

// maxStage returns the deepest threshold stage this bucket may use.
// Buckets with observed frequent access stop at Intelligent-Tiering.
func (e *Engine) maxStage(rec models.BucketRecord) int {
	if !rec.Access.Known || !rec.Access.Frequent {
		return len(e.thresholds) - 1
	}
	for i, step := range e.thresholds {
		if step.StorageClass == pricing.ClassIntelligentTiering {
			return i
		}
	}
	return -1
}

// strategyHint classifies the bucket by naming convention, mirroring the
// common log/backup/archive bucket naming patterns. The hint annotates the
// report; the cost math is driven purely by the threshold table.
func strategyHint(bucketName string) string {
	name := strings.ToLower(bucketName)
	switch {
	case strings.Contains(name, "archive"):
		return "archive"
	case strings.Contains(name, "log"), strings.Contains(name, "backup"):
		return "logs"
	default:
		return "general"
	}
}
