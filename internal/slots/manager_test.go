package slots

import (
	"testing"

	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/store"
)

func rootFrame() Frame {
	return Frame{Kind: kinds.Pods, Scope: store.AllNamespaces()}
}

func TestSwitchCreatesSlotPreInitialized(t *testing.T) {
	m := NewManager(rootFrame)
	s, err := m.Switch(2)
	if err != nil {
		t.Fatal(err)
	}
	if s.Drill.Top().Kind != kinds.Pods {
		t.Fatalf("expected new slot seeded at Pods, got %v", s.Drill.Top().Kind)
	}
	if m.ActiveID() != 2 {
		t.Fatalf("expected active slot 2, got %d", m.ActiveID())
	}
}

func TestDeleteLastSlotForbidden(t *testing.T) {
	m := NewManager(rootFrame)
	if err := m.Delete(1); err == nil {
		t.Fatalf("expected deleting the last slot to fail")
	}
}

func TestDeleteActiveSwitchesToLowestSurviving(t *testing.T) {
	m := NewManager(rootFrame)
	m.Switch(3)
	m.Switch(5)
	// active is 5; delete it, should fall back to 1 (lowest surviving).
	if err := m.Delete(5); err != nil {
		t.Fatal(err)
	}
	if m.ActiveID() != 1 {
		t.Fatalf("expected active to fall back to 1, got %d", m.ActiveID())
	}
}

func TestViewSlotIsolation(t *testing.T) {
	m := NewManager(rootFrame)
	a, _ := m.Switch(1)
	a.Drill.UpdateTop("lb", "")

	b, _ := m.Switch(2)
	if b.Drill.Top().Filter == "lb" {
		t.Fatalf("mutating slot A's filter leaked into slot B")
	}

	a2, _ := m.Switch(1)
	if a2.Drill.Top().Filter != "lb" {
		t.Fatalf("slot A's own filter was not preserved across switches")
	}
}

func TestBufferEvictsOldestLine(t *testing.T) {
	b := &Buffer{Cap: 3}
	b.Append("1")
	b.Append("2")
	b.Append("3")
	b.Append("4")
	if len(b.Lines) != 3 || b.Lines[0] != "2" {
		t.Fatalf("expected oldest-line eviction, got %+v", b.Lines)
	}
}

func TestDrillStackRootNeverPops(t *testing.T) {
	d := NewDrillStack(rootFrame())
	if d.Pop() {
		t.Fatalf("expected popping the root frame to fail")
	}
	d.Push(Frame{Kind: kinds.Pods})
	if !d.Pop() {
		t.Fatalf("expected popping a non-root frame to succeed")
	}
	if d.Depth() != 1 {
		t.Fatalf("expected depth 1 after pop, got %d", d.Depth())
	}
}
