// Package awsbatch adapts the AWS Batch and CloudWatch Logs APIs to the
// narrow interfaces the watch loop consumes.
package awsbatch

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/batchtools/batchwatch/pkg/config"
	"github.com/batchtools/batchwatch/pkg/logger"
)

// BatchAPI is the subset of the Batch client the adapter calls.
type BatchAPI interface {
	ListJobs(ctx context.Context, params *batch.ListJobsInput, optFns ...func(*batch.Options)) (*batch.ListJobsOutput, error)
	DescribeJobs(ctx context.Context, params *batch.DescribeJobsInput, optFns ...func(*batch.Options)) (*batch.DescribeJobsOutput, error)
}

// LogsAPI is the subset of the CloudWatch Logs client the adapter calls.
type LogsAPI interface {
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// Client queries AWS Batch for job state and CloudWatch Logs for job output.
type Client struct {
	batch    BatchAPI
	logs     LogsAPI
	region   string
	logGroup string
	logger   *logger.Logger

	// per-run DescribeJobs cache: jobID -> log stream name ("" when the job
	// has no container stream, e.g. array parents)
	streamCache map[string]string
}

// New builds a client from the AWS default credential chain. The region
// comes from config, then the SDK chain, then EC2 instance metadata.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.New().WithField("component", "awsbatch")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	region := awsCfg.Region
	if region == "" {
		detected, err := detectEC2Region(ctx)
		if err != nil {
			log.Warn("failed to auto-detect AWS region, using us-east-1 as default", "error", err)
			region = "us-east-1"
		} else {
			log.Info("auto-detected AWS region from EC2 metadata", "region", detected)
			region = detected
		}
		awsCfg.Region = region
	}

	return &Client{
		batch:       batch.NewFromConfig(awsCfg),
		logs:        cloudwatchlogs.NewFromConfig(awsCfg),
		region:      region,
		logGroup:    cfg.LogGroup,
		logger:      log,
		streamCache: make(map[string]string),
	}, nil
}

// NewWithAPI wires explicit API implementations. Used by tests.
func NewWithAPI(batchAPI BatchAPI, logsAPI LogsAPI, region, logGroup string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.New().WithField("component", "awsbatch")
	}
	return &Client{
		batch:       batchAPI,
		logs:        logsAPI,
		region:      region,
		logGroup:    logGroup,
		logger:      log,
		streamCache: make(map[string]string),
	}
}

// Region returns the resolved AWS region.
func (c *Client) Region() string {
	return c.region
}

// detectEC2Region attempts to detect the AWS region from EC2 metadata service
func detectEC2Region(ctx context.Context) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := imds.NewFromConfig(cfg)
	result, err := client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get region from EC2 metadata: %w", err)
	}

	return result.Region, nil
}
