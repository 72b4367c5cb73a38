package launch

import (
	"context"

	"github.com/moosedata/My-Code/internal/logging"
	"github.com/moosedata/My-Code/internal/prompt"
	"github.com/moosedata/My-Code/internal/report"
)

// Verdict is a stage's tagged result: continue, or abort with a status.
type Verdict struct {
	Halt bool
	Code int
}

// Continue lets the driver run the next stage.
func Continue() Verdict { return Verdict{} }

// Abort stops the pipeline with code as the terminal status.
func Abort(code int) Verdict { return Verdict{Halt: true, Code: code} }

// Finish is returned by the last stage; code becomes the terminal status.
func Finish(code int) Verdict { return Verdict{Code: code} }

// stage is one step of the pipeline.
type stage struct {
	name string
	run  func(ctx context.Context, s *session) Verdict
}

// drive runs stages in order and halts at the first Abort. Otherwise the
// final stage's code is returned. A cancelled context ends the run with
// StatusInterrupted, whatever the stage returned.
func drive(ctx context.Context, s *session, stages []stage) Verdict {
	log := logging.FromContext(ctx)
	v := Continue()
	for _, st := range stages {
		log.Debug("stage start", "stage", st.name, "run_id", s.record.ID)
		v = st.run(ctx, s)
		if ctx.Err() != nil {
			log.Debug("interrupted", "stage", st.name)
			s.record.Outcome = report.OutcomeInterrupted
			return Abort(StatusInterrupted)
		}
		if v.Halt {
			log.Debug("stage aborted", "stage", st.name, "code", v.Code)
			return v
		}
	}
	return v
}

// session is the state threaded through one pipeline run.
type session struct {
	engine  *Engine
	record  *report.RunRecord
	printer *printer

	probes      []ProbeResult
	depsMissing bool
	install     *InstallOutcome
	launch      *LaunchOutcome
	err         error
}

// mark replaces the record of the named stage.
func (s *session) mark(rec report.StageRecord) {
	if r := s.record.Stage(rec.Name); r != nil {
		*r = rec
		return
	}
	s.record.Stages = append(s.record.Stages, rec)
}

// pause blocks until the user acknowledges. Prompt failures are logged;
// they never change the terminal status.
func (s *session) pause(ctx context.Context) {
	if s.engine.Prompt == nil {
		return
	}
	if err := s.engine.Prompt.Acknowledge(ctx, prompt.DefaultMessage); err != nil && ctx.Err() == nil {
		logging.FromContext(ctx).Warn("waiting for acknowledgment", "err", err)
	}
}
