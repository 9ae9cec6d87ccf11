package action

import (
	"testing"
	"time"

	"github.com/orca-cli/orca/internal/kinds"
)

func mkSession(id, ns, name string, local int) *PortForwardSession {
	return &PortForwardSession{
		ID:         id,
		Target:     PFTarget{Kind: kinds.Pods, Namespace: ns, Name: name},
		LocalPort:  local,
		RemotePort: 80,
		StartedAt:  time.Now(),
		state:      PFStarting,
		stop:       make(chan struct{}),
	}
}

func TestRegistryIndexesByTarget(t *testing.T) {
	r := NewPortForwardRegistry()
	a := mkSession("a", "default", "web-1", 8080)
	b := mkSession("b", "default", "web-1", 9090)
	c := mkSession("c", "default", "web-2", 8081)
	r.register(a)
	r.register(b)
	r.register(c)

	got := r.ForTarget(PFTarget{Kind: kinds.Pods, Namespace: "default", Name: "web-1"})
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions for web-1, got %d", len(got))
	}
	if len(r.Sessions()) != 3 {
		t.Fatalf("expected 3 sessions total, got %d", len(r.Sessions()))
	}
}

func TestUnregisterRemovesTargetIndexEntry(t *testing.T) {
	r := NewPortForwardRegistry()
	a := mkSession("a", "default", "web-1", 8080)
	r.register(a)
	r.unregister("a", a.Target)

	if got := r.ForTarget(a.Target); len(got) != 0 {
		t.Fatalf("expected no sessions after unregister, got %d", len(got))
	}
	if len(r.Sessions()) != 0 {
		t.Fatalf("expected empty registry, got %d", len(r.Sessions()))
	}
}

func TestSessionStateTransitions(t *testing.T) {
	s := mkSession("a", "default", "web-1", 8080)
	if st, _ := s.State(); st != PFStarting {
		t.Fatalf("expected Starting, got %v", st)
	}
	s.setState(PFLive, "")
	if st, _ := s.State(); st != PFLive {
		t.Fatalf("expected Live, got %v", st)
	}
	s.setState(PFFailed, "connection refused")
	st, reason := s.State()
	if st != PFFailed || reason != "connection refused" {
		t.Fatalf("expected Failed with reason, got %v %q", st, reason)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := mkSession("a", "default", "web-1", 8080)
	s.Close()
	s.Close()
	select {
	case <-s.stop:
	default:
		t.Fatalf("expected stop channel to be closed")
	}
}
