package watch

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batchtools/batchwatch/internal/batchwatch/domain"
	pkgerrors "github.com/batchtools/batchwatch/pkg/errors"
	"github.com/batchtools/batchwatch/pkg/logger"
)

// fakeLister replays one snapshot slice per poll.
type fakeLister struct {
	polls [][]domain.JobSnapshot
	errs  []error
	calls int
}

func (f *fakeLister) ListJobs(context.Context, domain.JobFilter) ([]domain.JobSnapshot, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.polls) {
		return nil, nil
	}
	return f.polls[i], nil
}

type fakeLogs struct {
	streams    map[string]string
	tail       []string
	tailErr    error
	tailCalls  int
	streamErrs map[string]error
}

func (f *fakeLogs) LogStreamName(_ context.Context, jobID string) (string, error) {
	if err := f.streamErrs[jobID]; err != nil {
		return "", err
	}
	return f.streams[jobID], nil
}

func (f *fakeLogs) FetchTail(_ context.Context, logStream string, _ int) ([]string, error) {
	f.tailCalls++
	if f.tailErr != nil {
		return nil, f.tailErr
	}
	if logStream == "" {
		return nil, pkgerrors.NewLogError(logStream, pkgerrors.ErrLogsNotAvailable)
	}
	return f.tail, nil
}

func (f *fakeLogs) ConsoleLink(logStream string) string {
	if logStream == "" {
		return ""
	}
	return "https://console.example/" + logStream
}

func testLogger() *logger.Logger {
	return logger.NewWithConfig(logger.Config{Level: logger.ERROR, Output: &bytes.Buffer{}})
}

func mustFilter(t *testing.T) domain.JobFilter {
	t.Helper()
	f, err := domain.NewJobFilter("train-queue", "*", nil, time.Time{})
	require.NoError(t, err)
	return f
}

func job(id string, status domain.JobStatus, createdAt time.Time) domain.JobSnapshot {
	return domain.JobSnapshot{ID: id, Name: "job-" + id, Status: status, CreatedAt: createdAt}
}

func newTestWatcher(t *testing.T, lister *fakeLister, logs *fakeLogs, opts Options) (*Watcher, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	if logs.streams == nil {
		logs.streams = map[string]string{}
	}
	w := New(lister, logs, mustFilter(t), NewPrinter(&out, false), opts, testLogger())
	return w, &out
}

func TestSinglePassReportsBaseline(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{polls: [][]domain.JobSnapshot{{
		job("a", domain.StatusPending, created),
		job("b", domain.StatusRunning, created.Add(time.Minute)),
	}}}

	w, out := newTestWatcher(t, lister, &fakeLogs{}, Options{TailLines: 10})

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, 1, lister.calls, "non-watch mode performs exactly one poll")

	output := out.String()
	assert.Contains(t, output, "a job-a")
	assert.Contains(t, output, "b job-b")
	assert.NotContains(t, output, "->", "baseline events carry no transition arrow")
}

func TestUnchangedJobProducesNoSecondReport(t *testing.T) {
	created := time.Now()
	snapshot := job("a", domain.StatusRunning, created)
	lister := &fakeLister{polls: [][]domain.JobSnapshot{{snapshot}, {snapshot}}}

	w, out := newTestWatcher(t, lister, &fakeLogs{streams: map[string]string{"a": "s"}}, Options{TailLines: 10})

	require.NoError(t, w.poll(context.Background()))
	firstLen := out.Len()
	require.NoError(t, w.poll(context.Background()))

	assert.Equal(t, firstLen, out.Len(), "unchanged status must not be re-reported")
}

func TestStatusTransitionsReportedOncePerPair(t *testing.T) {
	created := time.Now()
	lister := &fakeLister{polls: [][]domain.JobSnapshot{
		{job("a", domain.StatusPending, created)},
		{job("a", domain.StatusRunning, created)},
		{job("a", domain.StatusRunning, created)},
		{job("a", domain.StatusFailed, created)},
	}}
	logs := &fakeLogs{
		streams: map[string]string{"a": "jobdef/default/a"},
		tail:    []string{"panic: out of memory"},
	}

	w, out := newTestWatcher(t, lister, logs, Options{TailLines: 10})

	for i := 0; i < 4; i++ {
		require.NoError(t, w.poll(context.Background()))
	}

	output := out.String()
	assert.Equal(t, 1, strings.Count(output, "\033[90mPENDING"), "PENDING reported exactly once")
	assert.Contains(t, output, "(PENDING -> RUNNING)")
	assert.Contains(t, output, "(RUNNING -> FAILED)")
	assert.Equal(t, 3, strings.Count(output, "job-a"), "three events for three distinct statuses")
}

func TestFailureIncludesLinkAndTail(t *testing.T) {
	created := time.Now()
	lister := &fakeLister{polls: [][]domain.JobSnapshot{
		{job("a", domain.StatusPending, created)},
		{job("a", domain.StatusRunning, created)},
		{job("a", domain.StatusFailed, created)},
	}}
	logs := &fakeLogs{
		streams: map[string]string{"a": "jobdef/default/a"},
		tail:    []string{"line one", "line two"},
	}

	w, out := newTestWatcher(t, lister, logs, Options{TailLines: 10})

	for i := 0; i < 3; i++ {
		require.NoError(t, w.poll(context.Background()))
	}

	output := out.String()
	assert.Contains(t, output, "https://console.example/jobdef/default/a")
	assert.Contains(t, output, "line one")
	assert.Contains(t, output, "line two")
	assert.Equal(t, 1, logs.tailCalls, "exactly one tail fetch per transition into FAILED")
}

func TestFailedJobWithMissingLogsDegrades(t *testing.T) {
	lister := &fakeLister{polls: [][]domain.JobSnapshot{
		{job("a", domain.StatusFailed, time.Now())},
	}}
	logs := &fakeLogs{
		streams: map[string]string{"a": "jobdef/default/a"},
		tailErr: pkgerrors.NewLogError("jobdef/default/a", pkgerrors.ErrLogsNotAvailable),
	}

	w, out := newTestWatcher(t, lister, logs, Options{TailLines: 10})

	require.NoError(t, w.Run(context.Background()))

	output := out.String()
	assert.Contains(t, output, "FAILED")
	assert.Contains(t, output, "logs not available")
}

func TestFailedJobWithoutStreamDegrades(t *testing.T) {
	// array parent jobs have no container log stream at all
	lister := &fakeLister{polls: [][]domain.JobSnapshot{
		{job("arr", domain.StatusFailed, time.Now())},
	}}
	logs := &fakeLogs{streams: map[string]string{}}

	w, out := newTestWatcher(t, lister, logs, Options{TailLines: 10})

	require.NoError(t, w.Run(context.Background()))

	output := out.String()
	assert.Contains(t, output, "logs not available")
	assert.NotContains(t, output, "https://", "no link without a stream")
}

func TestStreamResolutionOnlyForLogStates(t *testing.T) {
	lister := &fakeLister{polls: [][]domain.JobSnapshot{
		{job("a", domain.StatusRunnable, time.Now())},
	}}
	logs := &fakeLogs{streamErrs: map[string]error{"a": assert.AnError}}

	w, out := newTestWatcher(t, lister, logs, Options{TailLines: 10})

	require.NoError(t, w.Run(context.Background()))
	assert.Contains(t, out.String(), "RUNNABLE")
	assert.Zero(t, logs.tailCalls)
}

func TestEventsOrderedByCreationTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{polls: [][]domain.JobSnapshot{{
		job("late", domain.StatusPending, base.Add(time.Hour)),
		job("early", domain.StatusPending, base),
	}}}

	w, out := newTestWatcher(t, lister, &fakeLogs{}, Options{TailLines: 10})

	require.NoError(t, w.Run(context.Background()))

	output := out.String()
	assert.Less(t, strings.Index(output, "job-early"), strings.Index(output, "job-late"))
}

func TestNonWatchModeAbortsOnQueryError(t *testing.T) {
	lister := &fakeLister{errs: []error{assert.AnError}}

	w, _ := newTestWatcher(t, lister, &fakeLogs{}, Options{TailLines: 10})

	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestWatchModeSurvivesQueryErrors(t *testing.T) {
	created := time.Now()
	lister := &fakeLister{
		errs:  []error{assert.AnError, nil},
		polls: [][]domain.JobSnapshot{nil, {job("a", domain.StatusRunning, created)}},
	}
	logs := &fakeLogs{streams: map[string]string{"a": "s"}}

	w, out := newTestWatcher(t, lister, logs, Options{Watch: true, Interval: time.Millisecond, TailLines: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "job-a")
	}, time.Second, 5*time.Millisecond, "loop must keep polling past a failed poll")

	cancel()
	<-done
}

func TestWatchModeStopsOnCancel(t *testing.T) {
	lister := &fakeLister{}

	w, _ := newTestWatcher(t, lister, &fakeLogs{}, Options{Watch: true, Interval: time.Hour, TailLines: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean exit")
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}
