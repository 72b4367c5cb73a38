package runner

// Result holds the outcome of a command execution.
type Result struct {
	RunID     string // unique identifier for this run
	ExitCode  int    // process exit code
	Stdout    []byte // captured stdout (may be truncated; empty for interactive runs)
	Stderr    []byte // captured stderr (may be truncated; empty for interactive runs)
	Truncated bool   // true if output exceeded the size cap
}

// Success reports whether the process exited with code 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}
