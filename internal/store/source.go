package store

import (
	"context"

	"github.com/orca-cli/orca/internal/kinds"
)

// EventType classifies one watch delta.
type EventType int

const (
	Added EventType = iota
	Modified
	Deleted
	Resynced
	Errored
)

// WatchEvent is one item from a Source's watch stream.
type WatchEvent struct {
	Type    EventType
	Row     ResourceRow   // set for Added/Modified/Deleted
	Rows    []ResourceRow // set for Resynced
	Err     error         // set for Errored
	TooOld  bool          // true when the server reports the resource version expired
	Version string        // resourceVersion this event leaves the caller at
}

// Sink receives deltas from a watch session for forwarding onto the Event
// Bus. It is implemented by an adapter in internal/bus so that this package
// never imports the bus package (the bus imports store's types, not the
// reverse). Publish returns false when the underlying bus is full; the
// multiplexer then logs and drops that notification. The delta itself is
// already applied to the ResourceTable; the dropped notification is not
// coalesced, queued or retried.
type Sink interface {
	Publish(kind kinds.ResourceKind, scope Scope, evt WatchEvent) bool
}

// Source is the narrow Kubernetes collaborator the watch multiplexer
// consumes: list/watch for one (kind, scope). internal/k8s
// implements this against a real cluster; tests implement it with fakes.
type Source interface {
	// List returns the current rows for (kind, scope) and the resourceVersion
	// to resume a watch from.
	List(ctx context.Context, kind kinds.ResourceKind, scope Scope) (rows []ResourceRow, version string, err error)
	// Watch streams deltas for (kind, scope) starting after fromVersion. The
	// returned channel is closed when ctx is cancelled or the stream ends.
	Watch(ctx context.Context, kind kinds.ResourceKind, scope Scope, fromVersion string) (<-chan WatchEvent, error)
	// SupportsWatch reports whether the kind has a working watch endpoint;
	// when false the multiplexer uses the polling fallback.
	SupportsWatch(kind kinds.ResourceKind) bool
}
