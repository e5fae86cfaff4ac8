package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/younsl/logreaper/internal/logger"
	"github.com/younsl/logreaper/internal/models"
)

// A stream younger than this without any event is treated as about to be written to.
const newStreamGracePeriod = 10 * time.Minute

// CloudWatchLogsAPI is the subset of the CloudWatch Logs client used by LogsClient.
type CloudWatchLogsAPI interface {
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
	DeleteLogGroup(ctx context.Context, params *cloudwatchlogs.DeleteLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DeleteLogGroupOutput, error)
	DescribeSubscriptionFilters(ctx context.Context, params *cloudwatchlogs.DescribeSubscriptionFiltersInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeSubscriptionFiltersOutput, error)
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
}

// LogsClient performs the CloudWatch Logs calls a reaper run needs.
type LogsClient struct {
	client CloudWatchLogsAPI
	region string
	log    *logger.Logger
	now    func() time.Time
}

// LoadAWSConfig loads the default AWS configuration, optionally pinned to a region and profile.
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("error loading AWS config: %w", err)
	}
	return cfg, nil
}

// NewLogsClient creates a LogsClient from an AWS config.
func NewLogsClient(cfg aws.Config, log *logger.Logger) *LogsClient {
	return NewLogsClientFromAPI(cloudwatchlogs.NewFromConfig(cfg), cfg.Region, log)
}

// NewLogsClientFromAPI creates a LogsClient around an existing API implementation.
func NewLogsClientFromAPI(api CloudWatchLogsAPI, region string, log *logger.Logger) *LogsClient {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogsClient{
		client: api,
		region: region,
		log:    log.With("region", region),
		now:    time.Now,
	}
}

// Region returns the region the client talks to.
func (c *LogsClient) Region() string {
	return c.region
}

// ListLogGroups returns one page of log groups whose names start with prefix.
// An empty prefix lists every group; an empty pageToken starts from the first page.
func (c *LogsClient) ListLogGroups(ctx context.Context, prefix, pageToken string) (models.LogGroupPage, error) {
	input := &cloudwatchlogs.DescribeLogGroupsInput{}
	if p := strings.TrimSpace(prefix); p != "" {
		input.LogGroupNamePrefix = aws.String(p)
	}
	if pageToken != "" {
		input.NextToken = aws.String(pageToken)
	}

	output, err := c.client.DescribeLogGroups(ctx, input)
	if err != nil {
		return models.LogGroupPage{}, fmt.Errorf("error describing log groups with prefix %q: %w", prefix, err)
	}

	page := models.LogGroupPage{
		Groups:    make([]models.LogGroup, 0, len(output.LogGroups)),
		NextToken: aws.ToString(output.NextToken),
	}
	for _, lg := range output.LogGroups {
		page.Groups = append(page.Groups, toLogGroup(lg))
	}
	return page, nil
}

// DeleteLogGroup deletes a log group on a best-effort basis.
// A failed delete is logged and never returned, so one stuck group cannot abort the run.
func (c *LogsClient) DeleteLogGroup(ctx context.Context, name string) {
	_, err := c.client.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil {
		c.log.Error("failed to delete log group", "logGroup", name, "error", err)
		return
	}
	c.log.Debug("deleted log group", "logGroup", name)
}

// SubscriptionFilterCount reports whether the group has subscription filters.
// Only one filter is requested, so the result is 0 or 1.
func (c *LogsClient) SubscriptionFilterCount(ctx context.Context, name string) (int, error) {
	output, err := c.client.DescribeSubscriptionFilters(ctx, &cloudwatchlogs.DescribeSubscriptionFiltersInput{
		LogGroupName: aws.String(name),
		Limit:        aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("error describing subscription filters for %s: %w", name, err)
	}
	return len(output.SubscriptionFilters), nil
}

// LatestActivity returns the most recent evidence of writes to a log group.
//
// The newest stream's last event wins. A stream without events counts by its
// creation time once it is older than the grace period, and as "now" before that.
// A group without streams, or one that no longer exists, returns the zero time.
func (c *LogsClient) LatestActivity(ctx context.Context, name string) (time.Time, error) {
	output, err := c.client.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(name),
		OrderBy:      types.OrderByLastEventTime,
		Descending:   aws.Bool(true),
		Limit:        aws.Int32(1),
	})
	if err != nil {
		var resourceNotFound *types.ResourceNotFoundException
		if errors.As(err, &resourceNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("error describing log streams for %s: %w", name, err)
	}

	if len(output.LogStreams) == 0 {
		return time.Time{}, nil
	}

	now := c.now()
	stream := output.LogStreams[0]
	if ts := aws.ToInt64(stream.LastEventTimestamp); ts > 0 {
		return time.UnixMilli(ts), nil
	}
	if stream.CreationTime != nil {
		created := time.UnixMilli(*stream.CreationTime)
		if created.Before(now.Add(-newStreamGracePeriod)) {
			return created, nil
		}
	}
	return now, nil
}

func toLogGroup(lg types.LogGroup) models.LogGroup {
	group := models.LogGroup{
		Name:            aws.ToString(lg.LogGroupName),
		ARN:             aws.ToString(lg.Arn),
		RetentionInDays: lg.RetentionInDays,
		StoredBytes:     aws.ToInt64(lg.StoredBytes),
	}
	if lg.CreationTime != nil {
		group.CreationTime = time.UnixMilli(*lg.CreationTime)
	}
	return group
}
