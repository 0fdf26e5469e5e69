// Package remediate writes recommended lifecycle configurations back to
// buckets. Live mode requires an explicit confirmation and never
// overwrites an existing policy without the override flag.
package remediate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/s3cycle/s3cycle/internal/models"
	awsx "github.com/s3cycle/s3cycle/pkg/aws"
	"github.com/s3cycle/s3cycle/pkg/utils"
)

const ruleID = "s3cycle-storage-class-transitions"

var (
	// ErrConflictingPolicy guards against silently replacing rules the
	// bucket owner configured themselves.
	ErrConflictingPolicy = errors.New("bucket already has lifecycle rules; use --override to replace them")

	// ErrNotConfirmed is returned in live mode without the confirm flag.
	ErrNotConfirmed = errors.New("live apply requires --confirm")

	// ErrNothingToApply means the recommendation carries no transitions.
	ErrNothingToApply = errors.New("recommendation has no transitions to apply")
)

// Options control applier behavior.
type Options struct {
	DryRun   bool
	Confirm  bool
	Override bool

	// Transition rules only act on objects at or above this size.
	MinObjectSize int64
}

// Applier submits (or previews) lifecycle configurations.
type Applier struct {
	client awsx.S3API
	opts   Options
}

// NewApplier creates an applier over the given S3 client.
func NewApplier(client awsx.S3API, opts Options) *Applier {
	return &Applier{client: client, opts: opts}
}

// BuildConfiguration turns a recommendation into the lifecycle document
// submitted to PutBucketLifecycleConfiguration.
func BuildConfiguration(rec models.Recommendation, minObjectSize int64) *s3types.BucketLifecycleConfiguration {
	rule := s3types.LifecycleRule{
		ID:     aws.String(ruleID),
		Status: s3types.ExpirationStatusEnabled,
		Filter: &s3types.LifecycleRuleFilter{
			ObjectSizeGreaterThan: aws.Int64(minObjectSize),
		},
	}
	for _, step := range rec.Transitions {
		rule.Transitions = append(rule.Transitions, s3types.Transition{
			Days:         aws.Int32(int32(step.Days)),
			StorageClass: s3types.TransitionStorageClass(step.StorageClass),
		})
	}
	return &s3types.BucketLifecycleConfiguration{
		Rules: []s3types.LifecycleRule{rule},
	}
}

// Apply previews or submits the recommended policy for one bucket.
func (a *Applier) Apply(ctx context.Context, record models.BucketRecord, rec models.Recommendation) error {
	if !rec.HasTransitions() {
		return fmt.Errorf("bucket %s: %w", record.BucketName, ErrNothingToApply)
	}
	if record.HasLifecyclePolicy && !a.opts.Override {
		return fmt.Errorf("bucket %s (rules: %v): %w",
			record.BucketName, record.LifecycleRuleNames, ErrConflictingPolicy)
	}

	cfg := BuildConfiguration(rec, a.opts.MinObjectSize)

	if a.opts.DryRun {
		doc, err := utils.FormatJSON(cfg)
		if err != nil {
			return fmt.Errorf("rendering policy for %s: %w", record.BucketName, err)
		}
		fmt.Printf("[DRY RUN] Would apply lifecycle policy to %s:\n%s\n", record.BucketName, doc)
		return nil
	}

	if !a.opts.Confirm {
		return fmt.Errorf("bucket %s: %w", record.BucketName, ErrNotConfirmed)
	}

	_, err := a.client.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket:                 aws.String(record.BucketName),
		LifecycleConfiguration: cfg,
	})
	if err != nil {
		return fmt.Errorf("applying lifecycle policy to %s: %w", record.BucketName, err)
	}

	slog.Info("Applied lifecycle policy", "bucket", record.BucketName, "transitions", len(rec.Transitions))
	return nil
}
