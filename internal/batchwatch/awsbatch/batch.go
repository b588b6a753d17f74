package awsbatch

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	batchtypes "github.com/aws/aws-sdk-go-v2/service/batch/types"

	"github.com/batchtools/batchwatch/internal/batchwatch/domain"
	pkgerrors "github.com/batchtools/batchwatch/pkg/errors"
)

// ListJobs fetches all jobs matching the filter. The service only accepts a
// single status per ListJobs call, so one paginated pass runs per requested
// status; name glob and since window filtering happen client-side.
func (c *Client) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.JobSnapshot, error) {
	var snapshots []domain.JobSnapshot

	for _, status := range filter.Statuses {
		input := &batch.ListJobsInput{
			JobQueue:  aws.String(filter.Queue),
			JobStatus: batchtypes.JobStatus(status),
		}

		for {
			out, err := c.batch.ListJobs(ctx, input)
			if err != nil {
				return nil, pkgerrors.NewQueryError(filter.Queue, "ListJobs", err)
			}

			for _, summary := range out.JobSummaryList {
				snapshot := fromSummary(summary)
				if filter.Matches(snapshot) {
					snapshots = append(snapshots, snapshot)
				}
			}

			if out.NextToken == nil {
				break
			}
			input.NextToken = out.NextToken
		}
	}

	c.logger.Debug("listed jobs", "queue", filter.Queue, "matched", len(snapshots))
	return snapshots, nil
}

// LogStreamName resolves the CloudWatch log stream for a job via
// DescribeJobs, caching the result for the run. An empty name with a nil
// error means the job has no container log stream (array or multi-node
// parent jobs).
func (c *Client) LogStreamName(ctx context.Context, jobID string) (string, error) {
	if stream, ok := c.streamCache[jobID]; ok {
		return stream, nil
	}

	out, err := c.batch.DescribeJobs(ctx, &batch.DescribeJobsInput{
		Jobs: []string{jobID},
	})
	if err != nil {
		return "", pkgerrors.NewQueryError(jobID, "DescribeJobs", err)
	}

	stream := ""
	if len(out.Jobs) > 0 && out.Jobs[0].Container != nil && out.Jobs[0].Container.LogStreamName != nil {
		stream = *out.Jobs[0].Container.LogStreamName
	}

	c.streamCache[jobID] = stream
	return stream, nil
}

// fromSummary converts a Batch job summary into a domain snapshot.
// Batch timestamps are unix milliseconds.
func fromSummary(s batchtypes.JobSummary) domain.JobSnapshot {
	snapshot := domain.JobSnapshot{
		ID:        aws.ToString(s.JobId),
		Name:      aws.ToString(s.JobName),
		Status:    domain.JobStatus(s.Status),
		CreatedAt: millisToTime(s.CreatedAt),
		StartedAt: millisToTime(s.StartedAt),
		StoppedAt: millisToTime(s.StoppedAt),
	}
	if s.StatusReason != nil {
		snapshot.StatusReason = *s.StatusReason
	}
	if s.Container != nil && s.Container.Reason != nil {
		snapshot.ContainerReason = *s.Container.Reason
	}
	return snapshot
}

func millisToTime(ms *int64) time.Time {
	if ms == nil || *ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(*ms)
}
