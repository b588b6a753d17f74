package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hako/durafmt"

	"github.com/batchtools/batchwatch/internal/batchwatch/domain"
)

// Event is a single observed status change. Previous is empty when the job
// is seen for the first time in this run.
type Event struct {
	Job      domain.JobSnapshot
	Previous domain.JobStatus
}

// FirstSeen reports whether this is the baseline observation of the job.
func (e Event) FirstSeen() bool {
	return e.Previous == ""
}

// Printer renders status-change events to a writer, either as colored
// human-readable lines or as JSON objects, one per event.
type Printer struct {
	out  io.Writer
	json bool
}

func NewPrinter(out io.Writer, jsonOutput bool) *Printer {
	return &Printer{out: out, json: jsonOutput}
}

// Print renders one event together with its log link and, for failures,
// the log tail (or the logs-not-available placeholder).
func (p *Printer) Print(ev Event, link string, tail []string, logsUnavailable bool) error {
	if p.json {
		return p.printJSON(ev, link, tail, logsUnavailable)
	}
	p.printText(ev, link, tail, logsUnavailable)
	return nil
}

func (p *Printer) printText(ev Event, link string, tail []string, logsUnavailable bool) {
	job := ev.Job

	if job.ContainerReason != "" {
		fmt.Fprintln(p.out, job.ContainerReason)
	}

	statusColor, resetColor := getStatusColor(job.Status)

	line := fmt.Sprintf("%s%-9s%s %s %s", statusColor, job.Status, resetColor, job.ID, job.Name)
	if !ev.FirstSeen() {
		line += fmt.Sprintf(" (%s -> %s)", ev.Previous, job.Status)
	}
	if d, ok := job.RunDuration(); ok {
		line += fmt.Sprintf(" %q", "completed in "+formatTimespan(d))
	}
	if job.StatusReason != "" && job.Status != domain.StatusSucceeded {
		line += fmt.Sprintf(" %q", job.StatusReason)
	}
	if link != "" {
		line += " " + link
	}
	fmt.Fprintln(p.out, line)

	for _, logLine := range tail {
		fmt.Fprintf(p.out, "%s %s%s\n", dimColor, logLine, resetColor)
	}
	if logsUnavailable {
		fmt.Fprintf(p.out, "%s logs not available%s\n", dimColor, resetColor)
	}
}

func (p *Printer) printJSON(ev Event, link string, tail []string, logsUnavailable bool) error {
	job := ev.Job

	out := jsonEvent{
		JobID:           job.ID,
		JobName:         job.Name,
		Status:          string(job.Status),
		PreviousStatus:  string(ev.Previous),
		StatusReason:    job.StatusReason,
		ContainerReason: job.ContainerReason,
		LogLink:         link,
		LogTail:         tail,
		LogsUnavailable: logsUnavailable,
	}
	if !job.CreatedAt.IsZero() {
		out.CreatedAt = job.CreatedAt.UTC().Format(time.RFC3339)
	}
	if d, ok := job.RunDuration(); ok {
		out.Duration = formatTimespan(d)
	}

	return json.NewEncoder(p.out).Encode(out)
}

type jsonEvent struct {
	JobID           string   `json:"job_id"`
	JobName         string   `json:"job_name"`
	Status          string   `json:"status"`
	PreviousStatus  string   `json:"previous_status,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	Duration        string   `json:"duration,omitempty"`
	StatusReason    string   `json:"status_reason,omitempty"`
	ContainerReason string   `json:"container_reason,omitempty"`
	LogLink         string   `json:"log_link,omitempty"`
	LogTail         []string `json:"log_tail,omitempty"`
	LogsUnavailable bool     `json:"logs_unavailable,omitempty"`
}

// formatTimespan renders a duration the way a human would say it.
func formatTimespan(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return durafmt.Parse(d.Round(time.Second)).LimitFirstN(2).String()
}

const dimColor = "\033[90m"

// getStatusColor returns the ANSI color code for a given status
func getStatusColor(status domain.JobStatus) (string, string) {
	var statusColor string
	switch status {
	case domain.StatusSubmitted, domain.StatusPending:
		statusColor = "\033[90m" // Bright black
	case domain.StatusRunnable:
		statusColor = "\033[94m" // Bright blue
	case domain.StatusStarting, domain.StatusRunning:
		statusColor = "\033[33m" // Yellow
	case domain.StatusSucceeded:
		statusColor = "\033[32m" // Green
	case domain.StatusFailed:
		statusColor = "\033[31m" // Red
	default:
		statusColor = ""
	}
	resetColor := "\033[0m"
	return statusColor, resetColor
}
