package aws

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/s3cycle/s3cycle/internal/models"
	"github.com/s3cycle/s3cycle/pkg/utils"
)

// frequentAccessFloor is the minimum 30-day GET count before a bucket can
// be classified as frequently accessed.
const frequentAccessFloor = 100

// ObjectProfiler builds the per-bucket age/size histogram. Large buckets
// are sampled up to maxObjects and extrapolated against the CloudWatch
// size metric; access frequency comes from request metrics when present.
type ObjectProfiler struct {
	s3Client      S3API
	cwClient      CloudWatchAPI
	bandBounds    []int // ascending age boundaries in days, starting at 0
	maxObjects    int
	minObjectSize int64
	now           time.Time
}

// NewObjectProfiler derives histogram bands from the transition thresholds
// so every band maps directly onto one rule stage.
func NewObjectProfiler(s3Client S3API, cwClient CloudWatchAPI, thresholds []models.TransitionStep, maxObjects int, minObjectSize int64) *ObjectProfiler {
	bounds := []int{0}
	for _, step := range thresholds {
		if step.Days > bounds[len(bounds)-1] {
			bounds = append(bounds, step.Days)
		}
	}
	return &ObjectProfiler{
		s3Client:      s3Client,
		cwClient:      cwClient,
		bandBounds:    bounds,
		maxObjects:    maxObjects,
		minObjectSize: minObjectSize,
		now:           time.Now(),
	}
}

// Profile fills rec's histogram, totals, sampling disclosure, and access
// profile. The histogram invariant (bands sum to total) holds on return.
func (p *ObjectProfiler) Profile(ctx context.Context, rec *models.BucketRecord) error {
	bands := make([]models.AgeBucket, len(p.bandBounds))
	for i, min := range p.bandBounds {
		bands[i].MinAgeDays = min
		if i+1 < len(p.bandBounds) {
			bands[i].MaxAgeDays = p.bandBounds[i+1]
		}
	}

	var listed, listedBytes int64
	truncated := false

	input := &s3.ListObjectsV2Input{Bucket: aws.String(rec.BucketName)}
	for {
		out, err := p.s3Client.ListObjectsV2(ctx, input)
		if err != nil {
			return fmt.Errorf("listing objects in bucket %s: %w", rec.BucketName, err)
		}

		for _, obj := range out.Contents {
			size := aws.ToInt64(obj.Size)
			age := 0
			if obj.LastModified != nil {
				age = utils.ElapsedDaysAt(*obj.LastModified, p.now)
			}
			i := p.bandIndex(age)
			bands[i].SizeBytes += size
			bands[i].ObjectCount++
			if size < p.minObjectSize {
				bands[i].SmallObjectBytes += size
			}
			listed++
			listedBytes += size
		}

		if p.maxObjects > 0 && listed >= int64(p.maxObjects) {
			truncated = aws.ToBool(out.IsTruncated)
			break
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	rec.Sampled = truncated
	rec.SampleFraction = 1

	if truncated {
		p.extrapolate(ctx, rec, bands, listedBytes)
	}

	var total, count int64
	for _, b := range bands {
		total += b.SizeBytes
		count += b.ObjectCount
	}
	rec.AgeBuckets = bands
	rec.TotalSizeBytes = total
	rec.ObjectCount = count

	p.profileAccess(ctx, rec)
	return nil
}

// extrapolate scales the sampled histogram by the CloudWatch size metric.
// Band sums stay the record total by construction; only the disclosure
// fraction reflects how much was actually enumerated.
func (p *ObjectProfiler) extrapolate(ctx context.Context, rec *models.BucketRecord, bands []models.AgeBucket, listedBytes int64) {
	metricBytes, _, err := p.bucketMetrics(ctx, rec.BucketName)
	if err != nil || metricBytes <= listedBytes || listedBytes == 0 {
		if err != nil {
			slog.Warn("No size metric for sampled bucket, using sampled totals", "bucket", rec.BucketName, "error", err)
		}
		return
	}

	factor := float64(metricBytes) / float64(listedBytes)
	for i := range bands {
		bands[i].SizeBytes = int64(float64(bands[i].SizeBytes) * factor)
		bands[i].SmallObjectBytes = int64(float64(bands[i].SmallObjectBytes) * factor)
		bands[i].ObjectCount = int64(float64(bands[i].ObjectCount) * factor)
	}
	rec.SampleFraction = float64(listedBytes) / float64(metricBytes)
}

func (p *ObjectProfiler) bandIndex(ageDays int) int {
	// last boundary <= age; bounds[0] is 0 so this always matches
	i := sort.SearchInts(p.bandBounds, ageDays+1) - 1
	if i < 0 {
		return 0
	}
	return i
}

// bucketMetrics reads the most recent BucketSizeBytes and NumberOfObjects
// datapoints from CloudWatch.
func (p *ObjectProfiler) bucketMetrics(ctx context.Context, bucketName string) (int64, int64, error) {
	size, err := p.latestMetric(ctx, bucketName, "BucketSizeBytes", "StandardStorage")
	if err != nil {
		return 0, 0, err
	}
	count, err := p.latestMetric(ctx, bucketName, "NumberOfObjects", "AllStorageTypes")
	if err != nil {
		return 0, 0, err
	}
	return size, count, nil
}

func (p *ObjectProfiler) latestMetric(ctx context.Context, bucketName, metricName, storageType string) (int64, error) {
	endTime := p.now
	startTime := endTime.AddDate(0, 0, -2)

	out, err := p.cwClient.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/S3"),
		MetricName: aws.String(metricName),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("BucketName"), Value: aws.String(bucketName)},
			{Name: aws.String("StorageType"), Value: aws.String(storageType)},
		},
		StartTime:  aws.Time(startTime),
		EndTime:    aws.Time(endTime),
		Period:     aws.Int32(86400),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return 0, fmt.Errorf("getting %s metric for %s: %w", metricName, bucketName, err)
	}
	if len(out.Datapoints) == 0 {
		return 0, fmt.Errorf("no %s datapoints for %s", metricName, bucketName)
	}

	sort.Slice(out.Datapoints, func(i, j int) bool {
		return out.Datapoints[i].Timestamp.After(*out.Datapoints[j].Timestamp)
	})
	if out.Datapoints[0].Average == nil {
		return 0, fmt.Errorf("empty %s datapoint for %s", metricName, bucketName)
	}
	return int64(*out.Datapoints[0].Average), nil
}

// profileAccess augments the record with 30-day request activity. Missing
// metrics are the documented fallback to age-only heuristics, not an error.
func (p *ObjectProfiler) profileAccess(ctx context.Context, rec *models.BucketRecord) {
	gets, err := p.sumMetric(ctx, rec.BucketName, "GetRequests")
	if err != nil {
		slog.Debug("No request metrics, falling back to age-only heuristics", "bucket", rec.BucketName, "error", err)
		return
	}
	puts, err := p.sumMetric(ctx, rec.BucketName, "PutRequests")
	if err != nil {
		slog.Debug("No request metrics, falling back to age-only heuristics", "bucket", rec.BucketName, "error", err)
		return
	}

	rec.Access = models.AccessProfile{
		Known:                 true,
		GetRequestsLast30Days: gets,
		PutRequestsLast30Days: puts,
	}
	// roughly one read per object per month marks the bucket hot
	threshold := rec.ObjectCount
	if threshold < frequentAccessFloor {
		threshold = frequentAccessFloor
	}
	rec.Access.Frequent = gets >= threshold
}

func (p *ObjectProfiler) sumMetric(ctx context.Context, bucketName, metricName string) (int64, error) {
	endTime := p.now
	startTime := endTime.AddDate(0, 0, -30)

	out, err := p.cwClient.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/S3"),
		MetricName: aws.String(metricName),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("BucketName"), Value: aws.String(bucketName)},
		},
		StartTime:  aws.Time(startTime),
		EndTime:    aws.Time(endTime),
		Period:     aws.Int32(86400),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticSum},
	})
	if err != nil {
		return 0, err
	}
	if len(out.Datapoints) == 0 {
		return 0, fmt.Errorf("no %s datapoints for %s", metricName, bucketName)
	}

	var total int64
	for _, dp := range out.Datapoints {
		if dp.Sum != nil {
			total += int64(*dp.Sum)
		}
	}
	return total, nil
}
