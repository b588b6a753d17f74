package awsbatch

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	pkgerrors "github.com/batchtools/batchwatch/pkg/errors"
)

// FetchTail retrieves up to maxLines of the most recent log events from a
// job's log stream. A stream the service has not published yet surfaces as
// ErrLogsNotAvailable so callers can degrade instead of aborting.
func (c *Client) FetchTail(ctx context.Context, logStream string, maxLines int) ([]string, error) {
	if logStream == "" {
		return nil, pkgerrors.NewLogError(logStream, pkgerrors.ErrLogsNotAvailable)
	}

	input := &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(c.logGroup),
		LogStreamName: aws.String(logStream),
		Limit:         aws.Int32(int32(maxLines)),
		// reading backwards from the end yields the tail in one call
		StartFromHead: aws.Bool(false),
	}

	out, err := c.logs.GetLogEvents(ctx, input)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewLogError(logStream, pkgerrors.ErrLogsNotAvailable)
		}
		return nil, pkgerrors.NewLogError(logStream, err)
	}

	lines := make([]string, 0, len(out.Events))
	for _, event := range out.Events {
		if event.Message != nil {
			lines = append(lines, *event.Message)
		}
	}

	c.logger.Debug("fetched log tail", "logStream", logStream, "lines", len(lines))
	return lines, nil
}

// ConsoleLink builds the CloudWatch console URL for a log stream.
func (c *Client) ConsoleLink(logStream string) string {
	if logStream == "" {
		return ""
	}
	return fmt.Sprintf(
		"https://%s.console.aws.amazon.com/cloudwatch/home?region=%s#logEventViewer:group=%s;stream=%s",
		c.region, c.region, c.logGroup, logStream)
}
