package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/s3cycle/s3cycle/internal/models"
)

const roleSessionName = "s3cycle-scan"

// Clients bundles the per-context AWS service clients.
type Clients struct {
	S3         S3API
	CloudWatch CloudWatchAPI
	Region     string
}

// NewClients builds the S3 and CloudWatch clients for one (account,
// region) scan context, assuming the account role when one is configured.
func NewClients(ctx context.Context, sc models.ScanContext) (*Clients, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(sc.Region),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithRetryMaxAttempts(5),
		config.WithEC2IMDSClientEnableState(imds.ClientEnabled),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for region %s: %w", sc.Region, err)
	}

	if sc.Account.RoleARN != "" {
		stsClient := sts.NewFromConfig(cfg)
		provider := stscreds.NewAssumeRoleProvider(stsClient, sc.Account.RoleARN,
			func(o *stscreds.AssumeRoleOptions) {
				o.RoleSessionName = roleSessionName
			})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // path-style addressing is more reliable
	})
	cwClient := cloudwatch.NewFromConfig(cfg)

	return &Clients{
		S3:         s3Client,
		CloudWatch: cwClient,
		Region:     sc.Region,
	}, nil
}
