package store

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/orca-cli/orca/internal/kinds"
)

// IdleGrace is the default time a (kind, scope) session stays live after its
// last referencing view goes away.
const IdleGrace = 30 * time.Second

// IdleHeartbeat is the default silence window after which an open but
// event-less watch stream is torn down and reconnected. Watch streams carry
// no read deadline, so a stream that stays open while the server side has
// quietly died would otherwise never recover.
const IdleHeartbeat = 60 * time.Second

// Reconnect backoff: initial 500ms, factor 2, cap 30s, jitter ±20%. The
// jitter is applied by sleepBackoff, since wait.Backoff's own Jitter only
// ever lengthens a step.
var backoffTemplate = wait.Backoff{
	Duration: 500 * time.Millisecond,
	Factor:   2.0,
	Steps:    1 << 30, // effectively unbounded; capped by Cap
	Cap:      30 * time.Second,
}

// backoffJitter is the symmetric jitter fraction sleepBackoff applies.
const backoffJitter = 0.2

// session tracks the lifecycle of one live (kind, scope) watch.
type session struct {
	kind     kinds.ResourceKind
	scope    Scope
	table    *ResourceTable
	refs     int
	lastUsed time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// Multiplexer maintains at most one live watch session per (kind, scope) and
// materializes deltas into per-key ResourceTables.
type Multiplexer struct {
	mu        sync.Mutex
	sessions  map[string]*session
	source    Source
	sink      Sink
	refreshMs int
	heartbeat time.Duration
	log       logr.Logger
}

// NewMultiplexer creates a Multiplexer. refreshMs drives the polling
// fallback cadence (refresh_ms * 4).
func NewMultiplexer(source Source, sink Sink, refreshMs int, log logr.Logger) *Multiplexer {
	if refreshMs <= 0 {
		refreshMs = 1000
	}
	return &Multiplexer{
		sessions:  make(map[string]*session),
		source:    source,
		sink:      sink,
		refreshMs: refreshMs,
		heartbeat: IdleHeartbeat,
		log:       log,
	}
}

// Table returns the ResourceTable for (kind, scope), creating and starting a
// session if none exists yet. Callers must call Release when the view no
// longer references this (kind, scope).
func (m *Multiplexer) Table(kind kinds.ResourceKind, scope Scope) *ResourceTable {
	scope = Normalize(kind, scope)
	key := Key(kind, scope)

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		s = &session{
			kind:   kind,
			scope:  scope,
			table:  NewResourceTable(kind, scope),
			cancel: cancel,
			done:   make(chan struct{}),
		}
		m.sessions[key] = s
		go m.run(ctx, key, s)
	}
	s.refs++
	s.lastUsed = time.Time{} // referenced; not idle
	return s.table
}

// Release drops a reference to (kind, scope). The session is not stopped
// immediately; IdleSweep performs idle-stop after IdleGrace with no
// referencing view
func (m *Multiplexer) Release(kind kinds.ResourceKind, scope Scope) {
	key := Key(kind, Normalize(kind, scope))
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		s.refs = 0
		s.lastUsed = time.Now()
	}
}

// IdleSweep stops sessions that have had zero references for at least grace.
// The runtime loop calls this on a periodic Timer event.
func (m *Multiplexer) IdleSweep(grace time.Duration) {
	if grace <= 0 {
		grace = IdleGrace
	}
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		if s.refs == 0 && !s.lastUsed.IsZero() && now.Sub(s.lastUsed) >= grace {
			s.cancel()
			delete(m.sessions, key)
		}
	}
}

// ActiveSessionCount reports the number of live sessions; used by tests to
// verify the "at most one live watch session per (kind, scope)" invariant.
func (m *Multiplexer) ActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// run drives one session's lifecycle: initial list, then either a watch
// loop with reconnect/backoff or a polling loop, applying deltas to the
// table and forwarding them to the sink.
func (m *Multiplexer) run(ctx context.Context, key string, s *session) {
	defer close(s.done)

	rows, version, err := m.source.List(ctx, s.kind, s.scope)
	if err != nil {
		m.emitError(s, err)
	} else {
		s.table.Resync(rows)
		m.emit(s, WatchEvent{Type: Resynced, Rows: rows, Version: version})
	}

	if !m.source.SupportsWatch(s.kind) {
		m.pollLoop(ctx, s)
		return
	}
	m.watchLoop(ctx, s, version)
}

func (m *Multiplexer) watchLoop(ctx context.Context, s *session, fromVersion string) {
	backoff := backoffTemplate
	consecutiveFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Each attempt gets its own context so abandoning a stream (idle
		// heartbeat lapse) also stops the source's translation goroutine.
		wCtx, wCancel := context.WithCancel(ctx)
		events, err := m.source.Watch(wCtx, s.kind, s.scope, fromVersion)
		if err != nil {
			wCancel()
			consecutiveFailures++
			m.log.Error(err, "watch source error", "kind", s.kind, "scope", s.scope, "attempt", consecutiveFailures)
			if consecutiveFailures >= 3 {
				// Persistent failure surfaces to the UI; transient
				// retries before this threshold stay internal to the task.
				m.emit(s, WatchEvent{Type: Errored, Err: err})
			}
			if !sleepBackoff(ctx, &backoff) {
				return
			}
			continue
		}
		backoff = backoffTemplate
		consecutiveFailures = 0

		fromVersion = m.consumeStream(ctx, s, events, fromVersion)
		wCancel()

		select {
		case <-ctx.Done():
			return
		default:
		}
		if !sleepBackoff(ctx, &backoff) {
			return
		}
	}
}

// consumeStream drains one watch attempt until the stream ends, the session
// is cancelled, or the idle heartbeat lapses with no event received. Watch
// streams have no read deadline, so the heartbeat is what forces an open but
// silent stream to reconnect. Returns the resourceVersion the next attempt
// resumes from.
func (m *Multiplexer) consumeStream(ctx context.Context, s *session, events <-chan WatchEvent, fromVersion string) string {
	idle := m.heartbeat
	if idle <= 0 {
		idle = IdleHeartbeat
	}
	heartbeat := time.NewTimer(idle)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return fromVersion

		case <-heartbeat.C:
			m.log.V(1).Info("watch idle past heartbeat, reconnecting", "kind", s.kind, "scope", s.scope, "idle", idle)
			return fromVersion

		case evt, ok := <-events:
			if !ok {
				// Stream ended; the caller reconnects with backoff.
				return fromVersion
			}
			if !heartbeat.Stop() {
				select {
				case <-heartbeat.C:
				default:
				}
			}
			heartbeat.Reset(idle)

			if evt.Type == Errored && evt.TooOld {
				// Server signals resource version too old: full relist, emit
				// Resync, then continue watching.
				rows, version, lerr := m.source.List(ctx, s.kind, s.scope)
				if lerr != nil {
					m.emitError(s, lerr)
					continue
				}
				s.table.Resync(rows)
				m.emit(s, WatchEvent{Type: Resynced, Rows: rows, Version: version})
				fromVersion = version
				continue
			}
			m.applyDelta(s, evt)
			m.emit(s, evt)
			if evt.Version != "" {
				fromVersion = evt.Version
			}
		}
	}
}

func (m *Multiplexer) pollLoop(ctx context.Context, s *session) {
	interval := time.Duration(m.refreshMs*4) * time.Millisecond
	if interval <= 0 {
		interval = 4 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rows, version, err := m.source.List(ctx, s.kind, s.scope)
			if err != nil {
				m.emitError(s, err)
				continue
			}
			s.table.Resync(rows)
			m.emit(s, WatchEvent{Type: Resynced, Rows: rows, Version: version})
		}
	}
}

func (m *Multiplexer) applyDelta(s *session, evt WatchEvent) {
	switch evt.Type {
	case Added, Modified:
		s.table.Upsert(evt.Row)
	case Deleted:
		s.table.Delete(evt.Row.UID)
	case Resynced:
		s.table.Resync(evt.Rows)
	}
}

func (m *Multiplexer) emit(s *session, evt WatchEvent) {
	if m.sink == nil {
		return
	}
	if !m.sink.Publish(s.kind, s.scope, evt) {
		m.log.V(1).Info("event bus full, dropping delta notification", "kind", s.kind, "scope", s.scope)
	}
}

func (m *Multiplexer) emitError(s *session, err error) {
	m.log.Error(err, "watch source error", "kind", s.kind, "scope", s.scope)
	m.emit(s, WatchEvent{Type: Errored, Err: err})
}

// sleepBackoff sleeps for the current backoff step, advancing it, and
// returns false if ctx was cancelled while sleeping.
func sleepBackoff(ctx context.Context, b *wait.Backoff) bool {
	d := b.Step()
	d = time.Duration(float64(d) * (1 + backoffJitter*(2*rand.Float64()-1)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
