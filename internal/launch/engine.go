// Package launch implements the launcher's gate-then-run sequence: verify
// the runtime, ensure the dependency is installed, run the application and
// report its exit status. It is consumed by the CLI and the MCP server.
package launch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/moosedata/My-Code/internal/config"
	"github.com/moosedata/My-Code/internal/logging"
	"github.com/moosedata/My-Code/internal/prompt"
	"github.com/moosedata/My-Code/internal/report"
	"github.com/moosedata/My-Code/internal/runner"
)

// Terminal statuses the launcher produces itself.
const (
	StatusOK          = 0
	StatusPreLaunch   = 1   // runtime missing, install failed, entry point not started
	StatusInterrupted = 130 // SIGINT
)

// CommandRunner executes child processes. Implemented by runner.Runner.
type CommandRunner interface {
	// Run executes a probe; its output is captured and never shown.
	Run(ctx context.Context, argv []string, cwd string) (*runner.Result, error)
	// RunInteractive executes in the foreground with terminal streams connected.
	RunInteractive(ctx context.Context, argv []string, cwd string) (*runner.Result, error)
}

// Engine holds shared dependencies for the launch sequence and doctor checks.
type Engine struct {
	Config  *config.Config
	Runner  CommandRunner
	Prompt  prompt.Acknowledger // nil skips every pause
	Out     io.Writer           // user-facing messages; nil discards
	Store   report.Store        // nil keeps no history
	AppRoot string
}

// ProbeResult is the exit code of one diagnostic command.
type ProbeResult struct {
	Command  string
	ExitCode int
}

// InstallOutcome exists only when the dependency probe failed.
type InstallOutcome struct {
	Attempted bool
	ExitCode  int
}

// LaunchOutcome is the application's exit code.
type LaunchOutcome struct {
	ExitCode int
}

// Result holds the full outcome of one launch sequence.
type Result struct {
	Record  *report.RunRecord
	Status  int // terminal status
	Probes  []ProbeResult
	Install *InstallOutcome // nil when no install was attempted
	Launch  *LaunchOutcome  // nil when the sequence stopped before launching
	Err     error           // infrastructure failure, e.g. *StageError
}

// StageError reports a stage that could not run its command at all.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Launch runs the sequence: runtime check, dependency check, conditional
// install, launch, exit reporting. It always produces a terminal status.
func (e *Engine) Launch(ctx context.Context) *Result {
	s := e.newSession(report.Launch, stageRuntime, stageDependency, stageInstall, stageLaunch)

	v := drive(ctx, s, e.pipeline())
	if ctx.Err() != nil && s.record.Outcome == "" {
		s.record.Outcome = report.OutcomeInterrupted
	}
	s.record.Status = v.Code
	s.record.FinishedAt = time.Now()
	e.save(ctx, s.record)

	return &Result{
		Record:  s.record,
		Status:  v.Code,
		Probes:  s.probes,
		Install: s.install,
		Launch:  s.launch,
		Err:     s.err,
	}
}

func (e *Engine) newSession(kind report.Kind, stageNames ...string) *session {
	record := &report.RunRecord{
		ID:        uuid.New().String(),
		Kind:      kind,
		Workspace: e.AppRoot,
		StartedAt: time.Now(),
	}
	for _, name := range stageNames {
		record.Stages = append(record.Stages, report.StageRecord{Name: name, Status: report.StatusSkipped})
	}
	out := e.Out
	if out == nil {
		out = io.Discard
	}
	return &session{engine: e, record: record, printer: newPrinter(out)}
}

func (e *Engine) save(ctx context.Context, record *report.RunRecord) {
	if e.Store == nil {
		return
	}
	if err := e.Store.Save(record); err != nil {
		logging.FromContext(ctx).Warn("saving run record", "run_id", record.ID, "err", err)
	}
}
