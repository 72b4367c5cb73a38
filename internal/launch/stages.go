package launch

import (
	"context"
	"fmt"
	"strings"

	"github.com/moosedata/My-Code/internal/logging"
	"github.com/moosedata/My-Code/internal/report"
	"github.com/moosedata/My-Code/internal/runner"
)

// Stage names as they appear in run records.
const (
	stageRuntime    = "runtime"
	stageDependency = "dependency"
	stageInstall    = "install"
	stageLaunch     = "launch"
	stageReport     = "report"
)

// notStarted is the exit code recorded for a command that could not be
// started at all, matching the shell's "command not found".
const notStarted = 127

func (e *Engine) pipeline() []stage {
	return []stage{
		{name: stageRuntime, run: checkRuntime},
		{name: stageDependency, run: checkDependency},
		{name: stageInstall, run: installDependencies},
		{name: stageLaunch, run: launchApp},
		{name: stageReport, run: reportExit},
	}
}

// checkRuntime runs the runtime's version query. Any failure is fatal.
func checkRuntime(ctx context.Context, s *session) Verdict {
	cfg := s.engine.Config
	argv := cfg.RuntimeProbe()

	res, err := s.engine.Runner.Run(ctx, argv, "")
	code := probeCode(res, err)
	s.probes = append(s.probes, ProbeResult{Command: strings.Join(argv, " "), ExitCode: code})
	logging.FromContext(ctx).Debug("runtime probe", "argv", argv, "exit_code", code, "err", err)

	rec := report.StageRecord{Name: stageRuntime, Argv: argv, ExitCode: code, Status: report.StatusPass}
	ok := err == nil && code == 0
	if ok && cfg.Runtime.EnforceMinVersion {
		found, detail, vok := checkMinVersion(res, cfg.MinVersion())
		rec.Detail = detail
		if !vok {
			ok = false
			if found != "" {
				s.printer.errorf("%s %s was found, but %s or newer is required.", cfg.RuntimeName(), found, cfg.MinVersion())
			}
		}
	}
	if ok {
		s.mark(rec)
		return Continue()
	}

	rec.Status = report.StatusFail
	if err != nil {
		rec.Detail = err.Error()
	}
	s.mark(rec)
	s.record.Outcome = report.OutcomeMissingRuntime
	s.printer.errorf("%s", MissingRuntimeMessage(cfg.RuntimeName(), cfg.MinVersion()))
	s.pause(ctx)
	return Abort(StatusPreLaunch)
}

// checkDependency probes each library. A missing one schedules the install.
func checkDependency(ctx context.Context, s *session) Verdict {
	cfg := s.engine.Config
	rec := report.StageRecord{Name: stageDependency, Status: report.StatusPass}

	for _, lib := range cfg.Libraries() {
		argv := cfg.DependencyProbe(lib)
		res, err := s.engine.Runner.Run(ctx, argv, "")
		code := probeCode(res, err)
		s.probes = append(s.probes, ProbeResult{Command: strings.Join(argv, " "), ExitCode: code})
		logging.FromContext(ctx).Debug("dependency probe", "library", lib, "exit_code", code, "err", err)

		rec.Argv, rec.ExitCode = argv, code
		if err != nil || code != 0 {
			s.depsMissing = true
			rec.Status = report.StatusFail
			rec.Detail = fmt.Sprintf("%s is not installed", lib)
			break
		}
	}

	s.mark(rec)
	return Continue()
}

// installDependencies runs the installer once, only when a probe failed.
func installDependencies(ctx context.Context, s *session) Verdict {
	if !s.depsMissing {
		return Continue()
	}
	cfg := s.engine.Config
	argv := cfg.InstallCommand()

	s.printer.infof("%s", InstallingMessage(cfg.Manifest()))
	res, err := s.engine.Runner.RunInteractive(ctx, argv, "")
	code := probeCode(res, err)
	s.install = &InstallOutcome{Attempted: true, ExitCode: code}
	logging.FromContext(ctx).Debug("install", "argv", argv, "exit_code", code, "err", err)

	rec := report.StageRecord{Name: stageInstall, Argv: argv, ExitCode: code, Status: report.StatusPass}
	if err == nil && code == 0 {
		s.mark(rec)
		return Continue()
	}

	rec.Status = report.StatusFail
	if err != nil {
		rec.Detail = err.Error()
	}
	s.mark(rec)
	s.record.Outcome = report.OutcomeInstallFailed
	s.printer.errorf("%s", InstallFailedMessage)
	s.pause(ctx)
	return Abort(StatusPreLaunch)
}

// launchApp runs the application in the foreground until it exits.
func launchApp(ctx context.Context, s *session) Verdict {
	argv := s.engine.Config.AppCommand()
	res, err := s.engine.Runner.RunInteractive(ctx, argv, "")
	if err != nil {
		if ctx.Err() != nil {
			return Abort(StatusInterrupted)
		}
		s.err = &StageError{Stage: stageLaunch, Err: err}
		s.mark(report.StageRecord{Name: stageLaunch, Argv: argv, ExitCode: notStarted, Status: report.StatusError, Detail: err.Error()})
		s.record.Outcome = report.OutcomeLaunchError
		s.printer.errorf("The application could not be started: %v", err)
		s.pause(ctx)
		return Abort(StatusPreLaunch)
	}

	s.launch = &LaunchOutcome{ExitCode: res.ExitCode}
	status := report.StatusPass
	if res.ExitCode != 0 {
		status = report.StatusFail
	}
	s.mark(report.StageRecord{Name: stageLaunch, Argv: argv, ExitCode: res.ExitCode, Status: status})
	logging.FromContext(ctx).Debug("application exited", "exit_code", res.ExitCode)
	return Continue()
}

// reportExit surfaces the application's exit code and propagates it.
func reportExit(ctx context.Context, s *session) Verdict {
	code := s.launch.ExitCode
	if code == 0 {
		s.record.Outcome = report.OutcomeOK
		s.pause(ctx)
		return Finish(StatusOK)
	}

	s.record.Outcome = report.OutcomeAppFailed
	s.printer.errorf("%s", AppFailedMessage(code))
	s.pause(ctx)
	return Finish(code)
}

// probeCode derives the exit code of a run that may not have started.
func probeCode(res *runner.Result, err error) int {
	if err != nil || res == nil {
		return notStarted
	}
	return res.ExitCode
}
