package aws

import (
	"errors"
	"fmt"
	"testing"

	"github.com/s3cycle/s3cycle/internal/models"
)

func TestClassifySkip(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want models.SkipReason
	}{
		{"access denied", apiError("AccessDenied"), models.SkipPermission},
		{"invalid key", apiError("InvalidAccessKeyId"), models.SkipPermission},
		{"wrapped access denied", fmt.Errorf("getting lifecycle: %w", apiError("AccessDenied")), models.SkipPermission},
		{"slow down", apiError("SlowDown"), models.SkipThrottled},
		{"throttling", apiError("ThrottlingException"), models.SkipThrottled},
		{"region mismatch sentinel", fmt.Errorf("%w: b is in eu-west-1", ErrRegionMismatch), models.SkipRegionMismatch},
		{"unclassified", errors.New("connection reset"), models.SkipOther},
		{"other api error", apiError("InternalError"), models.SkipOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySkip(tc.err); got != tc.want {
				t.Errorf("ClassifySkip(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsNoSuchLifecycle(t *testing.T) {
	if !IsNoSuchLifecycle(apiError("NoSuchLifecycleConfiguration")) {
		t.Error("NoSuchLifecycleConfiguration should be recognized")
	}
	if IsNoSuchLifecycle(apiError("AccessDenied")) {
		t.Error("AccessDenied is not a lifecycle answer")
	}
	if IsNoSuchLifecycle(errors.New("plain")) {
		t.Error("plain errors are not lifecycle answers")
	}
}

func TestIsPermissionDeniedSentinel(t *testing.T) {
	if !IsPermissionDenied(fmt.Errorf("wrapped: %w", ErrPermission)) {
		t.Error("wrapped ErrPermission should be recognized")
	}
	if IsPermissionDenied(errors.New("nope")) {
		t.Error("plain errors are not permission failures")
	}
}
