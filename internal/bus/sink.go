package bus

import (
	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/store"
)

// Sink wraps a Bus to implement store.Sink, the narrow interface the watch
// Multiplexer publishes through. Living here (rather than in internal/store)
// is what keeps store free of an import on bus.
type Sink struct {
	bus *Bus
}

// NewSink adapts bus into a store.Sink.
func NewSink(b *Bus) *Sink { return &Sink{bus: b} }

// Publish forwards a watch delta onto the bus, using TrySend so a full bus
// makes Publish return false rather than blocking a watch goroutine
// indefinitely.
func (s *Sink) Publish(kind kinds.ResourceKind, scope store.Scope, evt store.WatchEvent) bool {
	return s.bus.TrySend(Msg{Watch: &WatchMsg{Kind: kind, Scope: scope, Event: evt}})
}

var _ store.Sink = (*Sink)(nil)
