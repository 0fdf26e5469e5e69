package aws

import (
	"context"
	"strconv"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// apiError builds a smithy API error with the given code, as the SDK
// surfaces service failures.
func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

// mockS3 is a test double for S3API.
type mockS3 struct {
	buckets    []s3types.Bucket
	locations  map[string]s3types.BucketLocationConstraint
	lifecycles map[string][]s3types.LifecycleRule
	versioning map[string]s3types.BucketVersioningStatus
	logging    map[string]bool
	objects    map[string][]s3types.Object

	// pageSize splits ListObjectsV2 responses to exercise pagination.
	pageSize int

	listBucketsErr error
	locationErr    map[string]error
	lifecycleErr   map[string]error
	versioningErr  map[string]error
	listObjectsErr map[string]error
	putErr         error

	putInputs []*s3.PutBucketLifecycleConfigurationInput
}

func (m *mockS3) ListBuckets(_ context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	if m.listBucketsErr != nil {
		return nil, m.listBucketsErr
	}
	return &s3.ListBucketsOutput{Buckets: m.buckets}, nil
}

func (m *mockS3) GetBucketLocation(_ context.Context, params *s3.GetBucketLocationInput, _ ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	name := awssdk.ToString(params.Bucket)
	if err := m.locationErr[name]; err != nil {
		return nil, err
	}
	return &s3.GetBucketLocationOutput{LocationConstraint: m.locations[name]}, nil
}

func (m *mockS3) GetBucketLifecycleConfiguration(_ context.Context, params *s3.GetBucketLifecycleConfigurationInput, _ ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error) {
	name := awssdk.ToString(params.Bucket)
	if err := m.lifecycleErr[name]; err != nil {
		return nil, err
	}
	rules, ok := m.lifecycles[name]
	if !ok {
		return nil, apiError("NoSuchLifecycleConfiguration")
	}
	return &s3.GetBucketLifecycleConfigurationOutput{Rules: rules}, nil
}

func (m *mockS3) GetBucketVersioning(_ context.Context, params *s3.GetBucketVersioningInput, _ ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error) {
	name := awssdk.ToString(params.Bucket)
	if err := m.versioningErr[name]; err != nil {
		return nil, err
	}
	return &s3.GetBucketVersioningOutput{Status: m.versioning[name]}, nil
}

func (m *mockS3) GetBucketLogging(_ context.Context, params *s3.GetBucketLoggingInput, _ ...func(*s3.Options)) (*s3.GetBucketLoggingOutput, error) {
	out := &s3.GetBucketLoggingOutput{}
	if m.logging[awssdk.ToString(params.Bucket)] {
		out.LoggingEnabled = &s3types.LoggingEnabled{TargetBucket: awssdk.String("log-target")}
	}
	return out, nil
}

func (m *mockS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	name := awssdk.ToString(params.Bucket)
	if err := m.listObjectsErr[name]; err != nil {
		return nil, err
	}
	objs := m.objects[name]

	start := 0
	if params.ContinuationToken != nil {
		start, _ = strconv.Atoi(awssdk.ToString(params.ContinuationToken))
	}
	end := len(objs)
	if m.pageSize > 0 && start+m.pageSize < end {
		end = start + m.pageSize
	}

	out := &s3.ListObjectsV2Output{
		Contents:    objs[start:end],
		IsTruncated: awssdk.Bool(end < len(objs)),
	}
	if end < len(objs) {
		out.NextContinuationToken = awssdk.String(strconv.Itoa(end))
	}
	return out, nil
}

func (m *mockS3) PutBucketLifecycleConfiguration(_ context.Context, params *s3.PutBucketLifecycleConfigurationInput, _ ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.putInputs = append(m.putInputs, params)
	return &s3.PutBucketLifecycleConfigurationOutput{}, nil
}

// mockCW is a test double for CloudWatchAPI. Datapoint values are keyed
// by metric name; Average and Sum are both filled so either statistic
// reads them.
type mockCW struct {
	values map[string][]float64
	err    error
}

func (m *mockCW) GetMetricStatistics(_ context.Context, params *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := &cloudwatch.GetMetricStatisticsOutput{}
	for i, v := range m.values[awssdk.ToString(params.MetricName)] {
		ts := params.EndTime.Add(-time.Duration(i+1) * time.Minute)
		out.Datapoints = append(out.Datapoints, cwtypes.Datapoint{
			Timestamp: awssdk.Time(ts),
			Average:   awssdk.Float64(v),
			Sum:       awssdk.Float64(v),
		})
	}
	return out, nil
}
