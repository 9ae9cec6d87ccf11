package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/orca-cli/orca/internal/kinds"
	orcatest "github.com/orca-cli/orca/internal/testing"
)

type fakeSink struct {
	mu     sync.Mutex
	events []WatchEvent
}

func (f *fakeSink) Publish(kind kinds.ResourceKind, scope Scope, evt WatchEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return true
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeSource struct {
	mu      sync.Mutex
	rows    []ResourceRow
	watchCh chan WatchEvent
	watches int
}

func (f *fakeSource) List(ctx context.Context, kind kinds.ResourceKind, scope Scope) ([]ResourceRow, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ResourceRow(nil), f.rows...), "1", nil
}

func (f *fakeSource) Watch(ctx context.Context, kind kinds.ResourceKind, scope Scope, fromVersion string) (<-chan WatchEvent, error) {
	f.mu.Lock()
	f.watches++
	f.mu.Unlock()
	return f.watchCh, nil
}

func (f *fakeSource) SupportsWatch(kind kinds.ResourceKind) bool { return true }

func TestMultiplexerSingleSessionPerKindScope(t *testing.T) {
	src := &fakeSource{watchCh: make(chan WatchEvent)}
	mux := NewMultiplexer(src, &fakeSink{}, 1000, logr.Discard())

	mux.Table(kinds.Pods, AllNamespaces())
	mux.Table(kinds.Pods, AllNamespaces())
	mux.Table(kinds.Pods, NamespaceScope("other")) // different key

	time.Sleep(20 * time.Millisecond)
	if got := mux.ActiveSessionCount(); got != 2 {
		t.Fatalf("expected 2 active sessions, got %d", got)
	}
}

func TestMultiplexerAppliesAddedDelta(t *testing.T) {
	src := &fakeSource{watchCh: make(chan WatchEvent, 4)}
	sink := &fakeSink{}
	mux := NewMultiplexer(src, sink, 1000, logr.Discard())

	table := mux.Table(kinds.Pods, AllNamespaces())
	src.watchCh <- WatchEvent{Type: Added, Row: ResourceRow{UID: "1", Name: "web-1", Namespace: "default"}}

	orcatest.Eventually(t, time.Second, 5*time.Millisecond, func() bool {
		return len(table.Rows()) == 1
	}, "expected row web-1 to appear")
	rows := table.Rows()
	if len(rows) != 1 || rows[0].Name != "web-1" {
		t.Fatalf("expected row web-1 to be present, got %+v", rows)
	}
}

func TestMultiplexerClusterScopedIgnoresNamespace(t *testing.T) {
	src := &fakeSource{watchCh: make(chan WatchEvent)}
	mux := NewMultiplexer(src, &fakeSink{}, 1000, logr.Discard())

	mux.Table(kinds.Nodes, NamespaceScope("a"))
	mux.Table(kinds.Nodes, NamespaceScope("b"))

	time.Sleep(20 * time.Millisecond)
	if got := mux.ActiveSessionCount(); got != 1 {
		t.Fatalf("expected cluster-scoped kind to collapse to 1 session, got %d", got)
	}
}

func TestIdleSweepStopsUnreferencedSession(t *testing.T) {
	src := &fakeSource{watchCh: make(chan WatchEvent)}
	mux := NewMultiplexer(src, &fakeSink{}, 1000, logr.Discard())

	mux.Table(kinds.Pods, AllNamespaces())
	mux.Release(kinds.Pods, AllNamespaces())

	mux.IdleSweep(1 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	mux.IdleSweep(1 * time.Millisecond)

	if got := mux.ActiveSessionCount(); got != 0 {
		t.Fatalf("expected idle session to be swept, got %d active", got)
	}
}

func TestHeartbeatReconnectsSilentStream(t *testing.T) {
	src := &fakeSource{watchCh: make(chan WatchEvent)}
	mux := NewMultiplexer(src, &fakeSink{}, 1000, logr.Discard())
	mux.heartbeat = 10 * time.Millisecond

	mux.Table(kinds.Pods, AllNamespaces())

	// The stream stays open but never delivers an event; the heartbeat must
	// force a reconnect, observable as a second Watch call.
	orcatest.Eventually(t, 3*time.Second, 10*time.Millisecond, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.watches >= 2
	}, "expected the idle heartbeat to trigger a watch reconnect")
}
