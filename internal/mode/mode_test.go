package mode

import "testing"

func TestNormalEntersCommandMode(t *testing.T) {
	in := NewInterpreter(nil)
	r := in.Key(":")
	if r.Outcome != EnterMode || r.NewMode != Command {
		t.Fatalf("expected EnterMode/Command, got %+v", r)
	}
	if in.Mode() != Command {
		t.Fatalf("expected live mode Command, got %v", in.Mode())
	}
}

func TestEscDiscardsBuffer(t *testing.T) {
	in := NewInterpreter(nil)
	in.Key(":")
	in.Key("d")
	in.Key("e")
	if in.Buffer() != "de" {
		t.Fatalf("expected buffer 'de', got %q", in.Buffer())
	}
	r := in.Key("esc")
	if r.Outcome != CancelBuffer {
		t.Fatalf("expected CancelBuffer, got %+v", r)
	}
	if in.Mode() != Normal || in.Buffer() != "" {
		t.Fatalf("expected Normal mode and empty buffer after esc, got mode=%v buf=%q", in.Mode(), in.Buffer())
	}
}

func TestConfirmModeOnlyAcceptsYN(t *testing.T) {
	in := NewInterpreter(nil)
	in.SetConfirmPending(true)
	if got := in.Key("j").Outcome; got != NoOp {
		t.Fatalf("expected navigation keys to be ignored in confirm mode, got %v", got)
	}
	if got := in.Key("y").Outcome; got != ConfirmYes {
		t.Fatalf("expected y to confirm, got %v", got)
	}
}

func TestConfirmModeTakesPrecedenceOverOverlay(t *testing.T) {
	in := NewInterpreter(nil)
	in.SetOverlayActive(true)
	in.SetConfirmPending(true)
	if in.Mode() != ConfirmMode {
		t.Fatalf("expected ConfirmMode to take precedence, got %v", in.Mode())
	}
}

func TestSlotSwitchHotkeyAllowedInAnyMode(t *testing.T) {
	in := NewInterpreter(nil)
	in.Key(":") // enter Command mode
	r := in.Key("ctrl+3")
	if r.Outcome != SlotSwitch || r.SlotID != 3 {
		t.Fatalf("expected SlotSwitch to slot 3, got %+v", r)
	}
}

func TestSlotDeleteHotkey(t *testing.T) {
	in := NewInterpreter(nil)
	r := in.Key("ctrl+alt+5")
	if r.Outcome != SlotDelete || r.SlotID != 5 {
		t.Fatalf("expected SlotDelete for slot 5, got %+v", r)
	}
}

func TestAutocompleteCyclesCandidates(t *testing.T) {
	in := NewInterpreter(func(prefix string) []string { return []string{"pods", "po"} })
	in.Key(":")
	r := in.Key("tab")
	if r.Outcome != Autocomplete || in.Buffer() != "pods" {
		t.Fatalf("expected first candidate 'pods', got buf=%q", in.Buffer())
	}
	in.Key("tab")
	if in.Buffer() != "po" {
		t.Fatalf("expected cycling to second candidate 'po', got buf=%q", in.Buffer())
	}
}

func TestSubmitReturnsToNormal(t *testing.T) {
	in := NewInterpreter(nil)
	in.Key(":")
	in.Key("q")
	r := in.Key("enter")
	if r.Outcome != Submit {
		t.Fatalf("expected Submit, got %+v", r)
	}
	if in.Mode() != Normal {
		t.Fatalf("expected Normal mode after submit, got %v", in.Mode())
	}
}

func TestDoubleGNavigatesToTop(t *testing.T) {
	in := NewInterpreter(nil)
	if got := in.Key("g").Outcome; got != NoOp {
		t.Fatalf("expected a lone g to be a no-op, got %v", got)
	}
	r := in.Key("g")
	if r.Outcome != Navigate || r.NavKey != "gg" {
		t.Fatalf("expected gg navigation, got %+v", r)
	}
}

func TestLoneGDisarmedByOtherKey(t *testing.T) {
	in := NewInterpreter(nil)
	in.Key("g")
	in.Key("j")
	if r := in.Key("g"); r.Outcome != NoOp {
		t.Fatalf("expected g chord to be disarmed after j, got %+v", r)
	}
}

func TestEnterAndEscDrillInNormalMode(t *testing.T) {
	in := NewInterpreter(nil)
	if r := in.Key("enter"); r.Outcome != DrillDown {
		t.Fatalf("expected DrillDown on enter, got %+v", r)
	}
	if r := in.Key("esc"); r.Outcome != DrillUp {
		t.Fatalf("expected DrillUp on esc, got %+v", r)
	}
}
