// Package watch implements the poll-and-diff loop at the heart of
// batchwatch: query the queue, compare against what was seen last poll,
// and report every status transition exactly once.
package watch

import (
	"context"
	"sort"
	"time"

	"github.com/batchtools/batchwatch/internal/batchwatch/domain"
	pkgerrors "github.com/batchtools/batchwatch/pkg/errors"
	"github.com/batchtools/batchwatch/pkg/logger"
)

// JobLister queries the batch service for jobs matching a filter.
type JobLister interface {
	ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.JobSnapshot, error)
}

// LogProvider resolves and reads a job's log stream.
type LogProvider interface {
	LogStreamName(ctx context.Context, jobID string) (string, error)
	FetchTail(ctx context.Context, logStream string, maxLines int) ([]string, error)
	ConsoleLink(logStream string) string
}

// Options control a watch run.
type Options struct {
	Watch     bool
	Interval  time.Duration
	TailLines int
}

// Watcher owns the seen-state for one run. It is single-threaded; all poll
// and report work happens sequentially on the caller's goroutine.
type Watcher struct {
	lister  JobLister
	logs    LogProvider
	filter  domain.JobFilter
	printer *Printer
	opts    Options
	logger  *logger.Logger

	// jobID -> last reported status; guarantees at most one report per
	// (jobID, status) pair per run
	seen map[string]domain.JobStatus
}

func New(lister JobLister, logs LogProvider, filter domain.JobFilter, printer *Printer, opts Options, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.New().WithField("component", "watcher")
	}
	return &Watcher{
		lister:  lister,
		logs:    logs,
		filter:  filter,
		printer: printer,
		opts:    opts,
		logger:  log,
		seen:    make(map[string]domain.JobStatus),
	}
}

// Run executes the watch loop. Without the watch option it performs a
// single poll and returns. In watch mode it repeats at the configured
// interval; cancellation of ctx (ctrl-c) ends the loop without error, and
// poll failures are logged but do not stop watching.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		if err := w.poll(ctx); err != nil {
			if !w.opts.Watch {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			if pkgerrors.IsTransient(err) {
				w.logger.Warn("poll failed, retrying next interval", "error", err)
			} else {
				w.logger.Error("poll failed", "error", err)
			}
		}

		if !w.opts.Watch {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.opts.Interval):
		}
	}
}

// poll performs one list-diff-report pass.
func (w *Watcher) poll(ctx context.Context) error {
	snapshots, err := w.lister.ListJobs(ctx, w.filter)
	if err != nil {
		return err
	}

	for _, ev := range w.diff(snapshots) {
		w.report(ctx, ev)
	}
	return nil
}

// diff updates the seen-state and returns the status changes since the
// previous poll, ordered by creation time. The service does not guarantee
// any ordering of its own.
func (w *Watcher) diff(snapshots []domain.JobSnapshot) []Event {
	var events []Event
	for _, snapshot := range snapshots {
		prev, known := w.seen[snapshot.ID]
		if known && prev == snapshot.Status {
			continue
		}
		events = append(events, Event{Job: snapshot, Previous: prev})
		w.seen[snapshot.ID] = snapshot.Status
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Job.CreatedAt.Before(events[j].Job.CreatedAt)
	})
	return events
}

// report prints one event, resolving the log link for states that have
// logs and fetching the tail on failure. Log trouble degrades to a
// placeholder; it never aborts the run.
func (w *Watcher) report(ctx context.Context, ev Event) {
	job := ev.Job

	var link string
	if job.Status.HasLogs() {
		stream, err := w.logs.LogStreamName(ctx, job.ID)
		if err != nil {
			w.logger.Warn("failed to resolve log stream", "jobId", job.ID, "error", err)
		} else {
			job.LogStreamName = stream
			link = w.logs.ConsoleLink(stream)
		}
	}

	var tail []string
	logsUnavailable := false
	if job.Status == domain.StatusFailed {
		lines, err := w.logs.FetchTail(ctx, job.LogStreamName, w.opts.TailLines)
		if err != nil {
			logsUnavailable = true
			if !pkgerrors.IsNotFound(err) {
				w.logger.Warn("failed to fetch log tail", "jobId", job.ID, "error", err)
			}
		} else {
			tail = lines
		}
	}

	if err := w.printer.Print(Event{Job: job, Previous: ev.Previous}, link, tail, logsUnavailable); err != nil {
		w.logger.Error("failed to print event", "jobId", job.ID, "error", err)
	}
}
