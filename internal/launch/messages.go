package launch

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// InstallFailedMessage is shown when the installer exits non-zero.
const InstallFailedMessage = "Dependency installation failed. Check your network connection and try again."

// MissingRuntimeMessage names the runtime and the minimum version required.
func MissingRuntimeMessage(runtime, minVersion string) string {
	return fmt.Sprintf("%s was not found. Install %s %s or newer and make sure it is on PATH.", runtime, runtime, minVersion)
}

// InstallingMessage announces the install step.
func InstallingMessage(manifest string) string {
	return fmt.Sprintf("Installing dependencies from %s...", manifest)
}

// AppFailedMessage carries the application's literal exit code.
func AppFailedMessage(code int) string {
	return fmt.Sprintf("The application exited abnormally with code %d.", code)
}

// printer writes user-facing lines. Styles are bound to the writer, so
// colour is only emitted on a terminal.
type printer struct {
	w    io.Writer
	err  lipgloss.Style
	info lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:    w,
		err:  r.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true),
		info: r.NewStyle().Foreground(lipgloss.Color("#74c7ec")),
	}
}

func (p *printer) errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, p.err.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) infof(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, p.info.Render(fmt.Sprintf(format, args...)))
}
