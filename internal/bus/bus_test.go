package bus

import (
	"testing"

	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/store"
)

func TestTrySendReportsOverflow(t *testing.T) {
	b := New(2)
	if !b.TrySend(Msg{Timer: &TimerMsg{ID: "1"}}) {
		t.Fatalf("expected first send to queue")
	}
	if !b.TrySend(Msg{Timer: &TimerMsg{ID: "2"}}) {
		t.Fatalf("expected second send to queue")
	}
	if b.TrySend(Msg{Timer: &TimerMsg{ID: "3"}}) {
		t.Fatalf("expected full bus to reject TrySend")
	}
}

func TestDrainPreservesArrivalOrderAndBound(t *testing.T) {
	b := New(8)
	for _, id := range []string{"a", "b", "c", "d"} {
		b.Send(Msg{Timer: &TimerMsg{ID: id}})
	}
	got := b.Drain(3)
	if len(got) != 3 {
		t.Fatalf("expected bounded batch of 3, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Timer == nil || got[i].Timer.ID != want {
			t.Fatalf("message %d out of order: %+v", i, got[i])
		}
	}
	rest := b.Drain(10)
	if len(rest) != 1 || rest[0].Timer.ID != "d" {
		t.Fatalf("expected remaining message d, got %+v", rest)
	}
}

func TestSinkPublishesWatchDelta(t *testing.T) {
	b := New(2)
	s := NewSink(b)
	ok := s.Publish(kinds.Pods, store.AllNamespaces(), store.WatchEvent{Type: store.Added, Row: store.ResourceRow{UID: "1"}})
	if !ok {
		t.Fatalf("expected publish onto an empty bus to succeed")
	}
	msgs := b.Drain(1)
	if len(msgs) != 1 || msgs[0].Watch == nil || msgs[0].Watch.Kind != kinds.Pods {
		t.Fatalf("expected a Watch message, got %+v", msgs)
	}
	if msgs[0].Watch.Event.Row.UID != "1" {
		t.Fatalf("expected the delta's row to survive the bus, got %+v", msgs[0].Watch.Event)
	}
}
