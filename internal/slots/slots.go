// Package slots implements the view slot manager: up to nine independent
// ViewSlots, each owning a DrillStack, the active Overlay, and references
// into a shared buffer arena rather than the buffers themselves. Overlays
// hold only arena keys, never back-pointers, so slot teardown never has to
// break a reference cycle.
package slots

import (
	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/store"
)

// MaxSlots is the largest addressable slot id.
const MaxSlots = 9

// DefaultBufferCap is the default line cap for per-slot overlay buffers
// (log tails, shell scrollback); the oldest line is evicted at capacity.
const DefaultBufferCap = 10_000

// Frame is one entry in a DrillStack.
type Frame struct {
	Kind         kinds.ResourceKind
	Scope        store.Scope
	Filter       string
	SelectionUID string
}

// DrillStack is an ordered sequence of Frames. The root frame (index 0) is
// never popped.
type DrillStack struct {
	frames []Frame
}

// NewDrillStack creates a stack seeded with a root frame.
func NewDrillStack(root Frame) *DrillStack {
	return &DrillStack{frames: []Frame{root}}
}

// Push enters a new (kind, scope, filter) frame, e.g. on Enter over a row.
func (d *DrillStack) Push(f Frame) {
	d.frames = append(d.frames, f)
}

// Pop returns to the previous frame. The root frame is never popped: calling
// Pop when only the root remains is a no-op and returns false.
func (d *DrillStack) Pop() bool {
	if len(d.frames) <= 1 {
		return false
	}
	d.frames = d.frames[:len(d.frames)-1]
	return true
}

// Top returns the current (topmost) frame.
func (d *DrillStack) Top() Frame {
	return d.frames[len(d.frames)-1]
}

// ResetToRoot discards every frame but the root, used before executing a
// `>` jump command.
func (d *DrillStack) ResetToRoot() {
	d.frames = d.frames[:1]
}

// Depth returns the number of frames currently on the stack.
func (d *DrillStack) Depth() int { return len(d.frames) }

// UpdateTop replaces the top frame's mutable fields (filter, selection) in
// place without pushing, used when a filter is submitted and when navigation
// moves the selection.
func (d *DrillStack) UpdateTop(filter, selectionUID string) {
	top := &d.frames[len(d.frames)-1]
	top.Filter = filter
	top.SelectionUID = selectionUID
}

// OverlayKind is the variant tag for Overlay.
type OverlayKind int

const (
	OverlayNone OverlayKind = iota
	OverlayDashboard
	OverlayDetails
	OverlayLogs
	OverlayShell
	OverlayContainerPicker
	OverlayCatalogContexts
	OverlayCatalogClusters
	OverlayCatalogUsers
	OverlayCatalogCRDs
	OverlayConfirm
	OverlayDevOpsTool
	OverlayHelp
	// OverlayXray and OverlayPulses hold their lifecycle state here; their
	// content is rendered by the view-layer collaborator.
	OverlayXray
	OverlayPulses
)

// Overlay is the at-most-one-per-slot modal/auxiliary view.
type Overlay struct {
	Kind OverlayKind
	// PendingActionID references a confirm.PendingAction by id when Kind ==
	// OverlayConfirm; left as a string to avoid an import cycle with the
	// confirm package.
	PendingActionID string
	// DevOpsToolName names the tool for OverlayDevOpsTool (argocd, helm, tf, …).
	DevOpsToolName string
	// BufferKey references a buffer in the arena (Details/Logs); for
	// OverlayShell it holds the shell session id instead.
	BufferKey string
	// TaskID names the background task feeding BufferKey, so closing the
	// overlay can cancel it.
	TaskID string
}

// ViewSlot is one of the N independent UI states.
type ViewSlot struct {
	ID         int
	Drill      *DrillStack
	Overlay    *Overlay // nil when no overlay is active
	ScrollOff  int
	InputBuf   string // unsubmitted `:`/`>`/`/` buffer; slot switches neither save nor restore it
}

// NewViewSlot creates a slot pre-initialized to the given root frame.
func NewViewSlot(id int, root Frame) *ViewSlot {
	return &ViewSlot{ID: id, Drill: NewDrillStack(root)}
}

// SetOverlay installs the slot's single overlay, replacing any previous one.
func (s *ViewSlot) SetOverlay(o *Overlay) { s.Overlay = o }

// ClearOverlay removes the active overlay. Per the design note's teardown
// order (overlay closed -> buffer key dropped -> arena entry freed), callers
// must free the arena entry named by the overlay's BufferKey themselves
// after calling this.
func (s *ViewSlot) ClearOverlay() { s.Overlay = nil }
