package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of an AWS Batch job.
// The set is owned by the Batch service; this tool treats it as a flat
// enumeration with no transition graph.
type JobStatus string

const (
	StatusSubmitted JobStatus = "SUBMITTED"
	StatusPending   JobStatus = "PENDING"
	StatusRunnable  JobStatus = "RUNNABLE"
	StatusStarting  JobStatus = "STARTING"
	StatusRunning   JobStatus = "RUNNING"
	StatusSucceeded JobStatus = "SUCCEEDED"
	StatusFailed    JobStatus = "FAILED"
)

// AllStatuses returns every job status in lifecycle order.
func AllStatuses() []JobStatus {
	return []JobStatus{
		StatusSubmitted,
		StatusPending,
		StatusRunnable,
		StatusStarting,
		StatusRunning,
		StatusSucceeded,
		StatusFailed,
	}
}

// ParseStatus converts a user-supplied string into a JobStatus.
// Matching is case-insensitive.
func ParseStatus(s string) (JobStatus, error) {
	candidate := JobStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, status := range AllStatuses() {
		if candidate == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q (valid: %s)", s, statusNames())
}

func statusNames() string {
	names := make([]string, 0, len(AllStatuses()))
	for _, status := range AllStatuses() {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

// IsTerminal returns true for statuses the Batch service never leaves.
func (s JobStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// HasLogs returns true for statuses where a container log stream may exist.
func (s JobStatus) HasLogs() bool {
	return s == StatusRunning || s.IsTerminal()
}

func (s JobStatus) String() string {
	return string(s)
}

// JobSnapshot is the per-job state observed at a single poll. Snapshots are
// ephemeral; only the (ID, Status) pair is remembered across polls.
type JobSnapshot struct {
	ID              string
	Name            string
	Status          JobStatus
	CreatedAt       time.Time
	StartedAt       time.Time
	StoppedAt       time.Time
	StatusReason    string
	ContainerReason string
	LogStreamName   string
}

// RunDuration returns how long the job ran, if it both started and stopped.
func (j JobSnapshot) RunDuration() (time.Duration, bool) {
	if j.StartedAt.IsZero() || j.StoppedAt.IsZero() {
		return 0, false
	}
	return j.StoppedAt.Sub(j.StartedAt), true
}

// JobFilter holds the immutable query parameters for a watch run.
type JobFilter struct {
	Queue    string
	NameGlob string
	Statuses []JobStatus
	Since    time.Time
}

// NewJobFilter builds a validated filter. An empty glob matches everything
// and an empty status list expands to all statuses.
func NewJobFilter(queue, nameGlob string, statuses []JobStatus, since time.Time) (JobFilter, error) {
	f := JobFilter{
		Queue:    queue,
		NameGlob: nameGlob,
		Statuses: statuses,
		Since:    since,
	}
	if f.NameGlob == "" {
		f.NameGlob = "*"
	}
	if len(f.Statuses) == 0 {
		f.Statuses = AllStatuses()
	}
	if err := f.Validate(); err != nil {
		return JobFilter{}, err
	}
	return f, nil
}

// Validate checks the filter before the first poll.
func (f JobFilter) Validate() error {
	if f.Queue == "" {
		return fmt.Errorf("job queue is required")
	}
	// path.Match reports malformed patterns regardless of the name matched
	if _, err := path.Match(f.NameGlob, "probe"); err != nil {
		return fmt.Errorf("invalid job name pattern %q: %w", f.NameGlob, err)
	}
	for _, status := range f.Statuses {
		if _, err := ParseStatus(string(status)); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether a snapshot passes the name glob and since window.
// Status filtering happens at query time, one list call per status.
func (f JobFilter) Matches(j JobSnapshot) bool {
	if !f.Since.IsZero() && !j.CreatedAt.After(f.Since) {
		return false
	}
	ok, err := path.Match(f.NameGlob, j.Name)
	if err != nil {
		return false
	}
	return ok
}
