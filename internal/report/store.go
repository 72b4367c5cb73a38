// Package report persists and retrieves launcher run records.
package report

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the type of a run.
type Kind string

const (
	// Launch is a full launch sequence.
	Launch Kind = "launch"
	// Doctor is a diagnostics-only run.
	Doctor Kind = "doctor"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeMissingRuntime Outcome = "missing_runtime"
	OutcomeInstallFailed  Outcome = "install_failed"
	OutcomeAppFailed      Outcome = "app_failed"
	OutcomeLaunchError    Outcome = "launch_error"
	OutcomeInterrupted    Outcome = "interrupted"
	OutcomeChecksFailed   Outcome = "checks_failed"
)

// Stage statuses.
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Store persists and retrieves run records.
type Store interface {
	Save(record *RunRecord) error
	Load(runID string) (*RunRecord, error)
	// List returns up to limit records, newest first. limit <= 0 means all.
	List(limit int) ([]*RunRecord, error)
}

// RunRecord holds the structured outcome of one launcher invocation.
type RunRecord struct {
	ID         string        `json:"id"`
	Kind       Kind          `json:"kind"`
	Workspace  string        `json:"workspace"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stages     []StageRecord `json:"stages"`
	Outcome    Outcome       `json:"outcome"`
	Status     int           `json:"status"` // terminal status of the launcher
}

// StageRecord holds the outcome of one stage or check.
type StageRecord struct {
	Name     string   `json:"name"`
	Argv     []string `json:"argv,omitempty"`
	Status   string   `json:"status"`
	ExitCode int      `json:"exit_code"`
	Detail   string   `json:"detail,omitempty"`
}

// Duration returns how long the run took.
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stage returns the record for the named stage, or nil.
func (r *RunRecord) Stage(name string) *StageRecord {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// Summary renders a one-line description used by history listings.
func (r *RunRecord) Summary() string {
	return fmt.Sprintf("%s  %-6s  %-15s  status=%d  %s",
		r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Kind, r.Outcome, r.Status, r.ID)
}

// Format renders the record with one line per stage.
func Format(r *RunRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", r.ID, r.Kind)
	fmt.Fprintf(&b, "Started: %s\n", r.StartedAt.Local().Format(time.RFC3339))
	if d := r.Duration(); d > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", d.Round(time.Millisecond))
	}
	if r.Workspace != "" {
		fmt.Fprintf(&b, "Workspace: %s\n", r.Workspace)
	}
	fmt.Fprintf(&b, "Outcome: %s (status %d)\n", r.Outcome, r.Status)
	fmt.Fprintln(&b)

	for _, s := range r.Stages {
		fmt.Fprintf(&b, "  %-12s %-8s", s.Name, s.Status)
		if s.Status != StatusSkipped && len(s.Argv) > 0 {
			fmt.Fprintf(&b, " exit=%d  %s", s.ExitCode, strings.Join(s.Argv, " "))
		}
		fmt.Fprintln(&b)
		if s.Detail != "" {
			for _, line := range strings.Split(strings.TrimRight(s.Detail, "\n"), "\n") {
				fmt.Fprintf(&b, "      %s\n", line)
			}
		}
	}
	return b.String()
}

// Nop discards every record.
type Nop struct{}

func (Nop) Save(*RunRecord) error { return nil }

func (Nop) Load(runID string) (*RunRecord, error) {
	return nil, fmt.Errorf("run %s not found: history is disabled", runID)
}

func (Nop) List(int) ([]*RunRecord, error) { return nil, nil }
