package action

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	tea "github.com/charmbracelet/bubbletea/v2"
	bubbleterm "github.com/taigrr/bubbleterm"
)

// ShellSession is one embedded shell pane: a background task with a UI
// stream rather than a foreground terminal handoff. The cockpit keeps
// rendering around it, and its PTY output reaches the active slot's
// OverlayShell through bubbleterm's own tea.Model rather than through the
// Event Bus's byte-chunk TaskOutput path, since bubbleterm already speaks
// tea.Msg/tea.Cmd directly.
type ShellSession struct {
	ID       string
	terminal *bubbleterm.Model
	exited   bool
}

// ShellRegistry tracks the embedded shell panes started via `:shell`, keyed
// by id the way the PF registry keys port-forwards.
type ShellRegistry struct {
	mu       sync.Mutex
	sessions map[string]*ShellSession
}

// NewShellRegistry constructs an empty registry.
func NewShellRegistry() *ShellRegistry {
	return &ShellRegistry{sessions: map[string]*ShellSession{}}
}

// StartShell spawns shell (falling back to $SHELL, then /bin/sh) in an
// embedded PTY pane sized w x h, registers it under id, and returns the
// tea.Cmd that must be run to initialize and start the command.
func (r *ShellRegistry) StartShell(id, shell string, w, h int) (*ShellSession, tea.Cmd, error) {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	term, err := bubbleterm.New(w, h)
	if err != nil {
		return nil, nil, fmt.Errorf("action: create embedded terminal: %w", err)
	}
	sess := &ShellSession{ID: id, terminal: term}

	if emu := term.GetEmulator(); emu != nil {
		emu.SetOnExit(func(string) { sess.exited = true })
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	cmd := exec.Command(shell)
	cmd.Env = os.Environ()
	return sess, tea.Batch(term.Init(), term.StartCommand(cmd)), nil
}

// Get returns a session by id.
func (r *ShellRegistry) Get(id string) (*ShellSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close removes a session from the registry; the child process is reaped by
// bubbleterm's own PTY teardown when the model is dropped.
func (r *ShellRegistry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Update feeds one tea.Msg into the pane's terminal emulator.
func (s *ShellSession) Update(msg tea.Msg) tea.Cmd {
	model, cmd := s.terminal.Update(msg)
	s.terminal = model.(*bubbleterm.Model)
	return cmd
}

// View renders the pane's current screen content and cursor.
func (s *ShellSession) View() (string, *tea.Cursor) {
	return s.terminal.View()
}

// Exited reports whether the pane's shell process has terminated.
func (s *ShellSession) Exited() bool { return s.exited }

// Focus/Blur forward focus state to the embedded terminal emulator.
func (s *ShellSession) Focus() { s.terminal.Focus() }
func (s *ShellSession) Blur()  { s.terminal.Blur() }
