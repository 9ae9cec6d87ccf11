// Package action implements the Action Supervisor: foreground
// terminal suspension for :edit/:exec and foreground plugins, background
// tasks with UI streaming for port-forwards and log tails, embedded :shell
// panes, and the port-forward registry. The read-only guard is not here; the
// command dispatcher applies it.
package action

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/orca-cli/orca/internal/bus"
)

// ErrActionBusy mirrors internal/command.ActionBusy for callers that don't
// already hold a *command.Error (e.g. the runtime loop's own foreground
// dispatch path).
var ErrActionBusy = fmt.Errorf("action: a foreground action is already running")

// Supervisor tracks the single in-flight foreground action and the set of
// background tasks (port-forwards, log tails, shell panes) whose output
// streams onto the Event Bus.
type Supervisor struct {
	bus *bus.Bus

	mu         sync.Mutex
	foreground bool

	tasks sync.Map // taskID -> context.CancelFunc

	PF     *PortForwardRegistry
	Shells *ShellRegistry
}

// New constructs a Supervisor publishing background task output onto b.
func New(b *bus.Bus) *Supervisor {
	return &Supervisor{bus: b, PF: NewPortForwardRegistry(), Shells: NewShellRegistry()}
}

// Busy reports whether a foreground action currently owns the terminal.
func (s *Supervisor) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.foreground
}

// Foreground suspends the renderer, runs cmd with inherited stdio via
// bubbletea's own ExecProcess (restoring cooked mode and forcing a redraw
// on return), and reports completion through fn. At most one foreground
// action runs at a time; a second call while busy returns ErrActionBusy
// instead of a tea.Cmd.
func (s *Supervisor) Foreground(cmd *exec.Cmd, fn func(error) tea.Msg) (tea.Cmd, error) {
	s.mu.Lock()
	if s.foreground {
		s.mu.Unlock()
		return nil, ErrActionBusy
	}
	s.foreground = true
	s.mu.Unlock()

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		s.mu.Lock()
		s.foreground = false
		s.mu.Unlock()
		return fn(err)
	}), nil
}

// ForegroundFunc suspends the renderer the same way Foreground does, but for
// a tea.ExecCommand that streams over a live connection rather than spawning
// a child OS process (the :exec verb's remotecommand handoff, which has no
// *exec.Cmd to run).
func (s *Supervisor) ForegroundFunc(cmd tea.ExecCommand, fn func(error) tea.Msg) (tea.Cmd, error) {
	s.mu.Lock()
	if s.foreground {
		s.mu.Unlock()
		return nil, ErrActionBusy
	}
	s.foreground = true
	s.mu.Unlock()

	return tea.Exec(cmd, func(err error) tea.Msg {
		s.mu.Lock()
		s.foreground = false
		s.mu.Unlock()
		return fn(err)
	}), nil
}

// Background starts a long-running task (log tail, shell pane content feed)
// whose stdout/stderr chunks are routed onto the bus as TaskOutputMsg, and
// whose termination is signalled via TaskExitMsg. Background returns the
// task's id and a cancel func the caller stores for `:` cancellation
// commands.
func (s *Supervisor) Background(ctx context.Context, run func(ctx context.Context, taskID string, emit func(stderr bool, chunk []byte)) error) (string, context.CancelFunc) {
	taskID := uuid.NewString()
	taskCtx, cancel := context.WithCancel(ctx)
	s.tasks.Store(taskID, cancel)

	emit := func(stderr bool, chunk []byte) {
		s.bus.Send(bus.Msg{TaskOutput: &bus.TaskOutputMsg{TaskID: taskID, Stderr: stderr, Bytes: chunk}})
	}

	go func() {
		defer s.tasks.Delete(taskID)
		err := run(taskCtx, taskID, emit)
		s.bus.Send(bus.Msg{TaskExit: &bus.TaskExitMsg{TaskID: taskID, Err: err}})
	}()

	return taskID, cancel
}

// CancelTask cancels a running background task by id, if still present.
func (s *Supervisor) CancelTask(taskID string) bool {
	v, ok := s.tasks.LoadAndDelete(taskID)
	if !ok {
		return false
	}
	v.(context.CancelFunc)()
	return true
}
