package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/batchtools/batchwatch/internal/batchwatch/awsbatch"
	"github.com/batchtools/batchwatch/internal/batchwatch/domain"
	"github.com/batchtools/batchwatch/internal/batchwatch/sincetime"
	"github.com/batchtools/batchwatch/internal/batchwatch/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		jobQueue  string
		jobName   string
		statuses  []domain.JobStatus
		since     string
		watchFlag bool
		interval  time.Duration
		tailLines int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a job queue for status changes",
		Long: `Poll an AWS Batch job queue and print every job status change
matching the given filters. By default a single pass runs and the
command exits; with --watch it keeps polling until interrupted.

Failed jobs get a CloudWatch console link and the last lines of
their log stream printed inline.

Examples:
  # One-shot report of everything in a queue created in the last hour
  batchwatch watch --job-queue training --since "1 hour ago"

  # Follow a queue, but only completed work
  batchwatch watch --job-queue training --job-status SUCCEEDED --job-status FAILED --watch

  # Jobs matching a name pattern, as JSON lines
  batchwatch watch --job-queue etl --job-name "nightly-*" --since yesterday --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// flags not set explicitly fall back to the config file values
			if !cmd.Flags().Changed("interval") {
				interval = cfg.PollInterval
			}
			if !cmd.Flags().Changed("tail-lines") {
				tailLines = cfg.TailLines
			}
			if interval < time.Second {
				return fmt.Errorf("poll interval must be at least 1s")
			}
			if tailLines < 0 {
				return fmt.Errorf("tail-lines must not be negative")
			}

			sinceTime, err := sincetime.Parse(since, time.Now())
			if err != nil {
				return err
			}

			filter, err := domain.NewJobFilter(jobQueue, jobName, statuses, sinceTime)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := awsbatch.New(ctx, cfg, log.WithField("component", "awsbatch"))
			if err != nil {
				return fmt.Errorf("failed to create AWS client: %w", err)
			}
			log.Debug("client ready", "region", client.Region(), "queue", filter.Queue)

			watcher := watch.New(client, client, filter,
				watch.NewPrinter(os.Stdout, jsonOutput),
				watch.Options{Watch: watchFlag, Interval: interval, TailLines: tailLines},
				log.WithField("component", "watcher"))

			return watcher.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&jobQueue, "job-queue", "", "Job queue to watch (required)")
	_ = cmd.MarkFlagRequired("job-queue")
	cmd.Flags().StringVar(&jobName, "job-name", "*",
		"Name of job to filter. Shell-style wildcards are supported")
	cmd.Flags().Var(newStatusListValue(&statuses), "job-status",
		"Job status filter, repeatable or comma-separated (default: all statuses)")
	cmd.Flags().StringVar(&since, "since", "now",
		`Only report jobs created after this time ("10 minutes ago", "2026-03-01 09:00")`)
	cmd.Flags().BoolVar(&watchFlag, "watch", false, "Keep polling until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Poll interval in watch mode")
	cmd.Flags().IntVar(&tailLines, "tail-lines", 10, "Log lines to print for failed jobs")

	return cmd
}

// statusListValue is a pflag.Value accepting repeated or comma-separated
// job statuses, validated against the known set.
type statusListValue struct {
	statuses *[]domain.JobStatus
}

var _ pflag.Value = (*statusListValue)(nil)

func newStatusListValue(statuses *[]domain.JobStatus) *statusListValue {
	return &statusListValue{statuses: statuses}
}

func (v *statusListValue) String() string {
	names := make([]string, 0, len(*v.statuses))
	for _, status := range *v.statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ",")
}

func (v *statusListValue) Set(raw string) error {
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		status, err := domain.ParseStatus(part)
		if err != nil {
			return err
		}
		*v.statuses = append(*v.statuses, status)
	}
	return nil
}

func (v *statusListValue) Type() string {
	return "jobStatus"
}
