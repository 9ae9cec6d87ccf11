// Package bus implements the typed, bounded, multi-producer/single-consumer
// Event Bus: the only channel through which background tasks
// (watch sessions, log tails, port-forwards, the config watcher) talk to the
// runtime loop. Single-writer discipline over the Resource Store and UI
// state is preserved because only the runtime loop ever drains this bus.
package bus

import (
	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/store"
)

// DefaultCapacity is the bus's bounded channel capacity.
const DefaultCapacity = 1024

// Msg is the sum type of everything that can cross the bus.
type Msg struct {
	Watch          *WatchMsg
	TaskOutput     *TaskOutputMsg
	TaskExit       *TaskExitMsg
	Timer          *TimerMsg
	ConfigReloaded *ConfigReloadedMsg
}

// WatchMsg carries one delta for a (kind, scope) watch session.
type WatchMsg struct {
	Kind  kinds.ResourceKind
	Scope store.Scope
	Event store.WatchEvent
}

// TaskOutputMsg carries a chunk of output from a background action task
// (log tail, port-forward, shell pane).
type TaskOutputMsg struct {
	TaskID string
	Stderr bool
	Bytes  []byte
}

// TaskExitMsg signals a background task's termination.
type TaskExitMsg struct {
	TaskID string
	Err    error
}

// TimerMsg fires a named timer (idle-stop checks, refresh cadence, PF health).
type TimerMsg struct {
	ID string
}

// ConfigReloadedMsg carries a freshly parsed configuration snapshot.
type ConfigReloadedMsg struct {
	Aliases  map[string]string
	Hotkeys  map[string]string
	Revision uint64
}

// Bus is a bounded mpsc channel into the runtime loop. Producers call
// Send/TrySend; only the runtime loop calls Drain.
type Bus struct {
	ch chan Msg
}

// New creates a Bus with the given capacity (0 uses DefaultCapacity).
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ch: make(chan Msg, capacity)}
}

// Send blocks until the message is queued or the bus is closed. Background
// producers (e.g. TaskOutput) use this to get back-pressure: a full bus
// pauses the producer rather than dropping data
func (b *Bus) Send(m Msg) {
	b.ch <- m
}

// TrySend attempts a non-blocking send, reporting whether it queued. Watch
// producers use this so that a full bus never blocks a watch goroutine; a
// message that does not fit is not queued.
func (b *Bus) TrySend(m Msg) bool {
	select {
	case b.ch <- m:
		return true
	default:
		return false
	}
}

// Drain removes up to max pending messages without blocking, preserving
// arrival order. Used by the runtime loop's per-tick bounded batch.
func (b *Bus) Drain(max int) []Msg {
	out := make([]Msg, 0, max)
	for len(out) < max {
		select {
		case m := <-b.ch:
			out = append(out, m)
		default:
			return out
		}
	}
	return out
}

// Chan exposes the raw channel for select-based consumers (e.g. a bubbletea
// command that waits for the next message).
func (b *Bus) Chan() <-chan Msg { return b.ch }
