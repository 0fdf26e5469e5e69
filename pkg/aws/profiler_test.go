package aws

import (
	"context"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/s3cycle/s3cycle/internal/models"
)

var testThresholds = []models.TransitionStep{
	{Days: 30, StorageClass: "INTELLIGENT_TIERING"},
	{Days: 90, StorageClass: "GLACIER_IR"},
	{Days: 180, StorageClass: "GLACIER"},
	{Days: 365, StorageClass: "DEEP_ARCHIVE"},
}

func objectAged(days int, size int64) s3types.Object {
	return s3types.Object{
		LastModified: awssdk.Time(time.Now().AddDate(0, 0, -days)),
		Size:         awssdk.Int64(size),
	}
}

func TestObjectProfiler_Histogram(t *testing.T) {
	client := &mockS3{
		objects: map[string][]s3types.Object{
			"data": {
				objectAged(10, 1000),
				objectAged(45, 2000),
				objectAged(45, 50), // below min object size
				objectAged(400, 4000),
			},
		},
	}
	profiler := NewObjectProfiler(client, &mockCW{}, testThresholds, 0, 128)

	rec := models.BucketRecord{BucketName: "data"}
	if err := profiler.Profile(context.Background(), &rec); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if rec.TotalSizeBytes != 7050 {
		t.Errorf("TotalSizeBytes = %d, want 7050", rec.TotalSizeBytes)
	}
	if rec.ObjectCount != 4 {
		t.Errorf("ObjectCount = %d, want 4", rec.ObjectCount)
	}
	if rec.Sampled {
		t.Error("full enumeration must not be marked sampled")
	}
	if err := rec.ValidateHistogram(); err != nil {
		t.Errorf("histogram invariant: %v", err)
	}

	// bands: [0,30) [30,90) [90,180) [180,365) [365,)
	if len(rec.AgeBuckets) != 5 {
		t.Fatalf("bands = %d, want 5", len(rec.AgeBuckets))
	}
	if got := rec.AgeBuckets[0].SizeBytes; got != 1000 {
		t.Errorf("band [0,30) = %d bytes, want 1000", got)
	}
	if got := rec.AgeBuckets[1].SizeBytes; got != 2050 {
		t.Errorf("band [30,90) = %d bytes, want 2050", got)
	}
	if got := rec.AgeBuckets[1].SmallObjectBytes; got != 50 {
		t.Errorf("band [30,90) small bytes = %d, want 50", got)
	}
	if got := rec.AgeBuckets[4].SizeBytes; got != 4000 {
		t.Errorf("band [365,) = %d bytes, want 4000", got)
	}
}

func TestObjectProfiler_BandIndexBoundaries(t *testing.T) {
	profiler := NewObjectProfiler(&mockS3{}, &mockCW{}, testThresholds, 0, 0)

	cases := []struct {
		age  int
		want int
	}{
		{0, 0},
		{29, 0},
		{30, 1},
		{89, 1},
		{90, 2},
		{179, 2},
		{180, 3},
		{365, 4},
		{10000, 4},
	}
	for _, tc := range cases {
		if got := profiler.bandIndex(tc.age); got != tc.want {
			t.Errorf("bandIndex(%d) = %d, want %d", tc.age, got, tc.want)
		}
	}
}

func TestObjectProfiler_SamplingExtrapolation(t *testing.T) {
	client := &mockS3{
		objects: map[string][]s3types.Object{
			"big": {
				objectAged(45, 1000),
				objectAged(45, 1000),
				objectAged(400, 2000),
				objectAged(400, 2000), // never listed: cut off by the sample cap
			},
		},
		pageSize: 1,
	}
	// CloudWatch reports twice the listed bytes, so every band doubles.
	cw := &mockCW{values: map[string][]float64{
		"BucketSizeBytes": {8000},
		"NumberOfObjects": {6},
	}}
	profiler := NewObjectProfiler(client, cw, testThresholds, 3, 128)

	rec := models.BucketRecord{BucketName: "big"}
	if err := profiler.Profile(context.Background(), &rec); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if !rec.Sampled {
		t.Fatal("truncated enumeration must be marked sampled")
	}
	if rec.SampleFraction != 0.5 {
		t.Errorf("SampleFraction = %v, want 0.5", rec.SampleFraction)
	}
	if rec.TotalSizeBytes != 8000 {
		t.Errorf("TotalSizeBytes = %d, want 8000", rec.TotalSizeBytes)
	}
	if err := rec.ValidateHistogram(); err != nil {
		t.Errorf("histogram invariant: %v", err)
	}
	if got := rec.AgeBuckets[1].SizeBytes; got != 4000 {
		t.Errorf("band [30,90) = %d bytes, want 4000", got)
	}
	if got := rec.AgeBuckets[4].SizeBytes; got != 4000 {
		t.Errorf("band [365,) = %d bytes, want 4000", got)
	}
}

func TestObjectProfiler_SamplingWithoutMetricKeepsSample(t *testing.T) {
	client := &mockS3{
		objects: map[string][]s3types.Object{
			"big": {
				objectAged(45, 1000),
				objectAged(45, 1000),
			},
		},
		pageSize: 1,
	}
	profiler := NewObjectProfiler(client, &mockCW{err: apiError("AccessDenied")}, testThresholds, 1, 128)

	rec := models.BucketRecord{BucketName: "big"}
	if err := profiler.Profile(context.Background(), &rec); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !rec.Sampled {
		t.Error("truncated enumeration must be marked sampled")
	}
	if rec.TotalSizeBytes != 1000 {
		t.Errorf("TotalSizeBytes = %d, want the sampled 1000", rec.TotalSizeBytes)
	}
	if err := rec.ValidateHistogram(); err != nil {
		t.Errorf("histogram invariant: %v", err)
	}
}

func TestObjectProfiler_AccessProfile(t *testing.T) {
	client := &mockS3{
		objects: map[string][]s3types.Object{
			"hot": {objectAged(45, 1000)},
		},
	}
	cw := &mockCW{values: map[string][]float64{
		"GetRequests": {90, 60},
		"PutRequests": {5},
	}}
	profiler := NewObjectProfiler(client, cw, testThresholds, 0, 128)

	rec := models.BucketRecord{BucketName: "hot"}
	if err := profiler.Profile(context.Background(), &rec); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !rec.Access.Known {
		t.Fatal("access profile should be known")
	}
	if rec.Access.GetRequestsLast30Days != 150 {
		t.Errorf("GetRequests = %d, want 150", rec.Access.GetRequestsLast30Days)
	}
	if !rec.Access.Frequent {
		t.Error("150 GETs over 1 object should classify as frequent")
	}
}

func TestObjectProfiler_AccessMetricsUnavailable(t *testing.T) {
	client := &mockS3{
		objects: map[string][]s3types.Object{
			"quiet": {objectAged(45, 1000)},
		},
	}
	profiler := NewObjectProfiler(client, &mockCW{err: apiError("AccessDenied")}, testThresholds, 0, 128)

	rec := models.BucketRecord{BucketName: "quiet"}
	if err := profiler.Profile(context.Background(), &rec); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if rec.Access.Known {
		t.Error("missing request metrics must leave the profile unknown")
	}
}

func TestObjectProfiler_ListFailure(t *testing.T) {
	client := &mockS3{
		listObjectsErr: map[string]error{"broken": apiError("AccessDenied")},
	}
	profiler := NewObjectProfiler(client, &mockCW{}, testThresholds, 0, 128)

	rec := models.BucketRecord{BucketName: "broken"}
	if err := profiler.Profile(context.Background(), &rec); err == nil {
		t.Fatal("Profile should fail when object listing fails")
	}
}
