// Package prompt implements the "press any key" acknowledgment the
// launcher shows before it exits.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// DefaultMessage is shown while waiting for acknowledgment.
const DefaultMessage = "Press any key to continue . . ."

// Acknowledger blocks until the user acknowledges message. There is no timeout;
// only ctx cancellation ends the wait early.
type Acknowledger interface {
	Acknowledge(ctx context.Context, message string) error
}

// New returns a keypress acknowledger when in is a terminal, and a
// line-based one otherwise.
func New(in io.Reader, out io.Writer) Acknowledger {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return &Keypress{In: f, Out: out}
	}
	return &Line{In: in, Out: out}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// None acknowledges immediately.
type None struct{}

func (None) Acknowledge(context.Context, string) error { return nil }

// Keypress waits for a single key on a raw-mode terminal.
type Keypress struct {
	In  io.Reader
	Out io.Writer
}

func (k *Keypress) Acknowledge(ctx context.Context, message string) error {
	p := tea.NewProgram(pauseModel{message: message},
		tea.WithInput(k.In),
		tea.WithOutput(k.Out),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("waiting for keypress: %w", err)
	}
	_, _ = fmt.Fprintln(k.Out)
	return nil
}

// pauseModel shows the message and quits on the first key.
type pauseModel struct {
	message string
	done    bool
}

func (m pauseModel) Init() tea.Cmd { return nil }

func (m pauseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pauseModel) View() string { return m.message }

// Line waits for a newline. End of input counts as acknowledgment, so a
// closed or redirected stdin never blocks forever.
type Line struct {
	In  io.Reader
	Out io.Writer

	r *bufio.Reader
}

func (l *Line) Acknowledge(ctx context.Context, message string) error {
	if l.r == nil {
		l.r = bufio.NewReader(l.In)
	}
	_, _ = fmt.Fprint(l.Out, message)

	done := make(chan error, 1)
	go func() {
		_, err := l.r.ReadString('\n')
		done <- err
	}()

	select {
	case err := <-done:
		_, _ = fmt.Fprintln(l.Out)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading acknowledgment: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
