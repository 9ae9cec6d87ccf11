// Package mode implements the Mode/Input Interpreter: the state machine that
// maps keys to actions under the current mode, including autocomplete cursor
// advancement and the Confirm-mode key whitelist.
package mode

import "strings"

// Mode is the current input mode.
type Mode int

const (
	Normal Mode = iota
	Filter
	Command
	Jump
	ConfirmMode
	OverlayActive
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Filter:
		return "filter"
	case Command:
		return "command"
	case Jump:
		return "jump"
	case ConfirmMode:
		return "confirm"
	case OverlayActive:
		return "overlay"
	default:
		return "unknown"
	}
}

// Outcome is what the interpreter decided to do with a key.
type Outcome int

const (
	NoOp Outcome = iota
	EnterMode
	AppendRune
	Backspace
	Submit
	CancelBuffer
	Autocomplete
	Navigate
	SlotSwitch
	SlotCreate
	SlotDelete
	ConfirmYes
	ConfirmNo
	DrillDown
	DrillUp
)

// Result is what the interpreter produced for one key event.
type Result struct {
	Outcome  Outcome
	NewMode  Mode
	Rune     rune
	SlotID   int
	NavKey   string // "j", "k", "gg", "G", "ctrl+u", "ctrl+d"
}

// Interpreter holds the live mode and input buffer.
type Interpreter struct {
	mode       Mode
	buf        string
	overlay    bool // true when an overlay owns input (OverlayActive)
	confirm    bool // true when the Confirm gate has a pending action
	pendingG   bool // a lone "g" was seen; the next "g" completes gg
	candidates func(prefix string) []string
	acIndex    int
}

// NewInterpreter creates an Interpreter starting in Normal mode.
func NewInterpreter(candidates func(prefix string) []string) *Interpreter {
	return &Interpreter{mode: Normal, candidates: candidates}
}

// Mode returns the live mode, with Confirm and OverlayActive taking
// precedence over whatever text-buffer mode was active.
func (in *Interpreter) Mode() Mode {
	if in.confirm {
		return ConfirmMode
	}
	if in.overlay {
		return OverlayActive
	}
	return in.mode
}

// Buffer returns the live input buffer (for `:`/`>`/`/` modes).
func (in *Interpreter) Buffer() string { return in.buf }

// SetConfirmPending toggles whether a PendingAction is awaiting y/n.
func (in *Interpreter) SetConfirmPending(pending bool) { in.confirm = pending }

// SetOverlayActive toggles whether an overlay currently owns input.
func (in *Interpreter) SetOverlayActive(active bool) { in.overlay = active }

// Key feeds one key to the interpreter and returns the resulting action.
// `key` is a bubbletea-style key string: "j", "k", "enter", "esc", "tab",
// "ctrl+1".."ctrl+9", "ctrl+shift+1".."ctrl+shift+9", "ctrl+alt+0".."ctrl+alt+9",
// or a single printable rune.
func (in *Interpreter) Key(key string) Result {
	// User hotkeys are consulted by the caller before Key is invoked; Key
	// implements only the built-in modal map and the no-op fallthrough.

	if id, ok := slotSwitchID(key); ok {
		return Result{Outcome: SlotSwitch, SlotID: id}
	}
	if id, ok := slotDeleteID(key); ok {
		return Result{Outcome: SlotDelete, SlotID: id}
	}

	if in.confirm {
		switch key {
		case "y", "enter":
			return Result{Outcome: ConfirmYes}
		case "n", "esc":
			return Result{Outcome: ConfirmNo}
		default:
			return Result{Outcome: NoOp}
		}
	}

	if in.overlay {
		// Overlays interpret their own keys; the interpreter only recognizes
		// the universal slot hotkeys above and leaves the rest to the overlay.
		return Result{Outcome: NoOp}
	}

	switch in.mode {
	case Normal:
		return in.keyNormal(key)
	default:
		return in.keyInput(key)
	}
}

func (in *Interpreter) keyNormal(key string) Result {
	// A lone "g" arms the gg chord; any other key disarms it.
	if key == "g" {
		if in.pendingG {
			in.pendingG = false
			return Result{Outcome: Navigate, NavKey: "gg"}
		}
		in.pendingG = true
		return Result{Outcome: NoOp}
	}
	in.pendingG = false

	switch key {
	case ":":
		in.mode, in.buf, in.acIndex = Command, "", 0
		return Result{Outcome: EnterMode, NewMode: Command}
	case ">":
		in.mode, in.buf, in.acIndex = Jump, "", 0
		return Result{Outcome: EnterMode, NewMode: Jump}
	case "/":
		in.mode, in.buf, in.acIndex = Filter, "", 0
		return Result{Outcome: EnterMode, NewMode: Filter}
	case "enter":
		return Result{Outcome: DrillDown}
	case "esc":
		return Result{Outcome: DrillUp}
	case "j", "k", "gg", "G", "ctrl+u", "ctrl+d":
		return Result{Outcome: Navigate, NavKey: key}
	default:
		return Result{Outcome: NoOp}
	}
}

func (in *Interpreter) keyInput(key string) Result {
	switch key {
	case "enter":
		m := in.mode
		in.mode = Normal
		return Result{Outcome: Submit, NewMode: m}
	case "esc":
		in.mode, in.buf, in.acIndex = Normal, "", 0
		return Result{Outcome: CancelBuffer}
	case "backspace":
		if len(in.buf) > 0 {
			in.buf = in.buf[:len(in.buf)-1]
		}
		in.acIndex = 0
		return Result{Outcome: Backspace}
	case "tab":
		return in.autocomplete()
	default:
		if len(key) == 1 {
			in.buf += key
			in.acIndex = 0
			return Result{Outcome: AppendRune, Rune: rune(key[0])}
		}
		return Result{Outcome: NoOp}
	}
}

// autocomplete advances the candidate cursor: repeated Tab cycles through
// candidates sourced from the alias registry, the active kind's resource
// names, and the command vocabulary.
func (in *Interpreter) autocomplete() Result {
	if in.candidates == nil {
		return Result{Outcome: NoOp}
	}
	cands := in.candidates(in.buf)
	if len(cands) == 0 {
		return Result{Outcome: NoOp}
	}
	choice := cands[in.acIndex%len(cands)]
	in.acIndex++
	in.buf = choice
	return Result{Outcome: Autocomplete}
}

// ResetBuffer clears the input buffer, e.g. after a successful Submit that
// returns to Normal mode.
func (in *Interpreter) ResetBuffer() { in.buf = "" }

// SetBuffer restores the buffer, e.g. after a parse failure where the input
// mode stays put with the inline error shown and the buffer preserved.
func (in *Interpreter) SetBuffer(s string) { in.buf = s }

// ReenterMode re-enters a mode after a parse error, keeping the buffer.
func (in *Interpreter) ReenterMode(m Mode) { in.mode = m }

func slotSwitchID(key string) (int, bool) {
	if !strings.HasPrefix(key, "ctrl+") {
		return 0, false
	}
	rest := strings.TrimPrefix(key, "ctrl+")
	rest = strings.TrimPrefix(rest, "shift+")
	return digit1to9(rest)
}

func slotDeleteID(key string) (int, bool) {
	if !strings.HasPrefix(key, "ctrl+alt+") {
		return 0, false
	}
	return digit0to9(strings.TrimPrefix(key, "ctrl+alt+"))
}

func digit1to9(s string) (int, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '0'), true
}

func digit0to9(s string) (int, bool) {
	if len(s) != 1 || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '0'), true
}
