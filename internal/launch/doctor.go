package launch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moosedata/My-Code/internal/report"
)

// Check is the outcome of one doctor check.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"` // pass or fail
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// DoctorResult holds every check of a doctor run.
type DoctorResult struct {
	Record *report.RunRecord `json:"record"`
	Checks []Check           `json:"checks"`
}

// Failed reports whether any check failed.
func (r *DoctorResult) Failed() bool {
	for _, c := range r.Checks {
		if c.Status != report.StatusPass {
			return true
		}
	}
	return false
}

// Doctor runs the runtime and dependency probes and checks that the
// manifest and entry point exist. It never installs, launches or pauses.
func (e *Engine) Doctor(ctx context.Context) (*DoctorResult, error) {
	cfg := e.Config
	s := e.newSession(report.Doctor)
	var checks []Check

	// Runtime.
	argv := cfg.RuntimeProbe()
	res, err := e.Runner.Run(ctx, argv, "")
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	code := probeCode(res, err)
	c := Check{Name: "runtime", Status: report.StatusPass}
	switch {
	case err != nil:
		c.Status, c.Detail = report.StatusFail, err.Error()
	case code != 0:
		c.Status, c.Detail = report.StatusFail, fmt.Sprintf("%s exited with code %d", strings.Join(argv, " "), code)
	default:
		c.Detail = firstLine(string(res.Stdout) + string(res.Stderr))
		if cfg.Runtime.EnforceMinVersion {
			_, detail, ok := checkMinVersion(res, cfg.MinVersion())
			c.Detail = detail
			if !ok {
				c.Status = report.StatusFail
			}
		}
	}
	if c.Status != report.StatusPass {
		c.Hint = MissingRuntimeMessage(cfg.RuntimeName(), cfg.MinVersion())
	}
	checks = append(checks, c)
	s.mark(report.StageRecord{Name: c.Name, Argv: argv, ExitCode: code, Status: c.Status, Detail: c.Detail})

	// Dependencies, each probed even after a miss.
	for _, lib := range cfg.Libraries() {
		argv := cfg.DependencyProbe(lib)
		res, err := e.Runner.Run(ctx, argv, "")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := probeCode(res, err)
		c := Check{Name: "dependency:" + lib, Status: report.StatusPass, Detail: "installed"}
		if err != nil || code != 0 {
			c.Status = report.StatusFail
			c.Detail = fmt.Sprintf("%s is not installed", lib)
			c.Hint = "Run the launcher to install it with: " + strings.Join(cfg.InstallCommand(), " ")
		}
		checks = append(checks, c)
		s.mark(report.StageRecord{Name: c.Name, Argv: argv, ExitCode: code, Status: c.Status, Detail: c.Detail})
	}

	checks = append(checks,
		fileCheck("manifest", e.AppRoot, cfg.Manifest()),
		fileCheck("entry", e.AppRoot, cfg.Entry()),
	)
	for _, c := range checks[len(checks)-2:] {
		s.mark(report.StageRecord{Name: c.Name, Status: c.Status, Detail: c.Detail})
	}

	result := &DoctorResult{Record: s.record, Checks: checks}
	s.record.Outcome = report.OutcomeOK
	if result.Failed() {
		s.record.Outcome = report.OutcomeChecksFailed
		s.record.Status = 1
	}
	s.record.FinishedAt = time.Now()
	e.save(ctx, s.record)
	return result, nil
}

func fileCheck(name, root, file string) Check {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, file)
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return Check{Name: name, Status: report.StatusFail, Detail: fmt.Sprintf("%s not found", file), Hint: "Run the launcher from the application directory, or set it in .launcher.yaml."}
	case info.IsDir():
		return Check{Name: name, Status: report.StatusFail, Detail: fmt.Sprintf("%s is a directory", file)}
	default:
		return Check{Name: name, Status: report.StatusPass, Detail: file}
	}
}

// FormatDoctor renders the checks, one per line, with hints for failures.
func FormatDoctor(r *DoctorResult) string {
	var b strings.Builder

	if r.Failed() {
		fmt.Fprintln(&b, "FAIL")
	} else {
		fmt.Fprintln(&b, "ok")
	}
	if r.Record != nil {
		fmt.Fprintf(&b, "Run: %s\n", r.Record.ID)
	}
	fmt.Fprintln(&b)

	for _, c := range r.Checks {
		mark := "ok"
		if c.Status != report.StatusPass {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "  %-22s %-4s  %s\n", c.Name, mark, c.Detail)
	}

	var hints []string
	for _, c := range r.Checks {
		if c.Hint != "" {
			hints = append(hints, c.Hint)
		}
	}
	if len(hints) > 0 {
		fmt.Fprintln(&b)
		for _, h := range hints {
			fmt.Fprintf(&b, "%s\n", h)
		}
	}
	return b.String()
}

// firstLine returns the first non-empty line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
