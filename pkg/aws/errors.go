package aws

import (
	"errors"

	"github.com/aws/smithy-go"

	"github.com/s3cycle/s3cycle/internal/models"
)

// Sentinel errors for scan failure classification.
var (
	ErrPermission     = errors.New("missing IAM permission")
	ErrRegionMismatch = errors.New("bucket lives in another region")
	ErrThrottled      = errors.New("request throttled after retries")
)

// permission-denied API error codes across S3 and STS
var permissionCodes = map[string]bool{
	"AccessDenied":          true,
	"AccessDeniedException": true,
	"UnauthorizedOperation": true,
	"InvalidAccessKeyId":    true,
}

// throttle codes that survive the SDK's standard retry mode
var throttleCodes = map[string]bool{
	"Throttling":               true,
	"ThrottlingException":      true,
	"SlowDown":                 true,
	"RequestLimitExceeded":     true,
	"TooManyRequestsException": true,
}

// IsPermissionDenied reports whether err is a missing-IAM-action failure.
func IsPermissionDenied(err error) bool {
	if errors.Is(err, ErrPermission) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && permissionCodes[apiErr.ErrorCode()]
}

// IsThrottled reports whether err is a rate-limit failure that exhausted
// the SDK's retries.
func IsThrottled(err error) bool {
	if errors.Is(err, ErrThrottled) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && throttleCodes[apiErr.ErrorCode()]
}

// IsNoSuchLifecycle reports the "bucket has no lifecycle configuration"
// response, which is an answer rather than a failure.
func IsNoSuchLifecycle(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchLifecycleConfiguration"
}

// ClassifySkip maps an error to the report's skip-reason taxonomy.
func ClassifySkip(err error) models.SkipReason {
	switch {
	case errors.Is(err, ErrRegionMismatch):
		return models.SkipRegionMismatch
	case IsPermissionDenied(err):
		return models.SkipPermission
	case IsThrottled(err):
		return models.SkipThrottled
	default:
		return models.SkipOther
	}
}
