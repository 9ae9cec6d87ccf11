package confirm

import (
	"testing"

	"github.com/orca-cli/orca/internal/kinds"
)

func TestConfirmRequiresMatchingID(t *testing.T) {
	g := NewGate()
	pa := g.Request(Delete, ResourceRef{Namespace: "default", Name: "web-1"}, 0, "delete default/web-1?")

	if got := g.Confirm("not-the-id"); got != nil {
		t.Fatalf("expected mismatched id to be rejected, got %+v", got)
	}
	if g.Pending() == nil {
		t.Fatalf("expected pending action to remain after mismatched confirm")
	}

	executed := g.Confirm(pa.ID)
	if executed == nil || executed.Kind != Delete {
		t.Fatalf("expected matching confirm to return the pending action")
	}
	if g.Pending() != nil {
		t.Fatalf("expected gate to be empty after confirm")
	}
}

func TestDiscardClearsWithoutExecuting(t *testing.T) {
	g := NewGate()
	g.Request(Restart, ResourceRef{Name: "x"}, 0, "restart x?")
	g.Discard()
	if g.Pending() != nil {
		t.Fatalf("expected discard to clear pending action")
	}
}

func TestRequestLeavesUnsetTargetKindUnknown(t *testing.T) {
	g := NewGate()
	pa := g.Request(Delete, ResourceRef{Namespace: "default", Name: "web-1"}, 0, "delete "+ResourceRef{Namespace: "default", Name: "web-1"}.String()+"?")
	if pa.Target.Kind != kinds.Unknown {
		t.Fatalf("unset kind should default to Unknown, got %v", pa.Target.Kind)
	}
}
