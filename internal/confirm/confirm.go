// Package confirm implements the Confirmation Gate: no mutating
// action reaches the Kubernetes collaborator unless its PendingAction has
// transitioned through Confirm-`y`.
package confirm

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/orca-cli/orca/internal/kinds"
)

// ActionKind is the mutating action a PendingAction guards.
type ActionKind int

const (
	Delete ActionKind = iota
	Restart
	Scale
)

func (k ActionKind) String() string {
	switch k {
	case Delete:
		return "delete"
	case Restart:
		return "restart"
	case Scale:
		return "scale"
	default:
		return "unknown"
	}
}

// ResourceRef identifies the target of a mutating action.
type ResourceRef struct {
	Kind      kinds.ResourceKind
	Namespace string
	Name      string
}

func (r ResourceRef) String() string {
	if r.Namespace == "" {
		return r.Name
	}
	return fmt.Sprintf("%s/%s", r.Namespace, r.Name)
}

// PendingAction is a mutating command awaiting (or exempt from) confirmation.
type PendingAction struct {
	ID         string
	Kind       ActionKind
	Target     ResourceRef
	ScaleTo    int // valid when Kind == Scale
	PromptText string
}

// Gate tracks at most one PendingAction at a time: while pending, only
// y/Enter and n/Esc are accepted (enforced by internal/mode, which consults
// Gate.Pending() to decide whether it is in Confirm mode).
type Gate struct {
	mu      sync.Mutex
	pending *PendingAction
}

// NewGate creates an empty confirmation gate.
func NewGate() *Gate { return &Gate{} }

// Request creates a PendingAction and makes it the gate's single pending
// action. `:scale` only comes here when scale confirmation is switched on;
// otherwise the dispatcher executes it immediately (see internal/command).
func (g *Gate) Request(kind ActionKind, target ResourceRef, scaleTo int, promptText string) *PendingAction {
	g.mu.Lock()
	defer g.mu.Unlock()
	pa := &PendingAction{
		ID:         uuid.NewString(),
		Kind:       kind,
		Target:     target,
		ScaleTo:    scaleTo,
		PromptText: promptText,
	}
	g.pending = pa
	return pa
}

// Pending returns the current PendingAction, or nil if none.
func (g *Gate) Pending() *PendingAction {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Confirm transitions the named PendingAction through Confirm-`y`, clearing
// it and returning it for execution. Returns nil if id does not match the
// current pending action (stale confirmation, e.g. after Esc+re-request).
func (g *Gate) Confirm(id string) *PendingAction {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil || g.pending.ID != id {
		return nil
	}
	pa := g.pending
	g.pending = nil
	return pa
}

// Discard clears the pending action on `n`/`Esc` without executing it.
func (g *Gate) Discard() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = nil
}
