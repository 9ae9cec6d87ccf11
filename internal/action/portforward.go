package action

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"

	"github.com/orca-cli/orca/internal/kinds"
)

// PFState is a PortForwardSession's lifecycle state.
type PFState int

const (
	PFStarting PFState = iota
	PFLive
	PFFailed
	PFClosed
)

func (s PFState) String() string {
	switch s {
	case PFStarting:
		return "starting"
	case PFLive:
		return "live"
	case PFFailed:
		return "failed"
	case PFClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PFTarget identifies the resource row a port-forward session belongs to: a
// pod, or a service whose backing pod the tunnel dials.
type PFTarget struct {
	Kind      kinds.ResourceKind
	Namespace string
	Name      string
}

// PortForwardSession tracks one live `:pf` invocation: the target row, the
// local/remote port pair, and its current lifecycle state. Exposed to the
// view layer so the resource table's PF column can show an active session's
// local port.
type PortForwardSession struct {
	ID         string
	Target     PFTarget
	LocalPort  int
	RemotePort int
	StartedAt  time.Time

	mu       sync.Mutex
	state    PFState
	failReas string
	stop     chan struct{}
	stopOnce sync.Once
}

// State returns the session's current lifecycle state and, when Failed, the
// failure reason.
func (s *PortForwardSession) State() (PFState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.failReas
}

func (s *PortForwardSession) setState(st PFState, reason string) {
	s.mu.Lock()
	s.state = st
	s.failReas = reason
	s.mu.Unlock()
}

// Close stops the session's forwarding goroutine. Safe to call more than
// once and from multiple goroutines.
func (s *PortForwardSession) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// PortForwardRegistry is the global table of active port-forward sessions,
// keyed by id and indexed by target for the resource table's PF-column
// lookup.
type PortForwardRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*PortForwardSession
	byTarget map[PFTarget][]string
}

// NewPortForwardRegistry constructs an empty registry.
func NewPortForwardRegistry() *PortForwardRegistry {
	return &PortForwardRegistry{
		sessions: map[string]*PortForwardSession{},
		byTarget: map[PFTarget][]string{},
	}
}

// Sessions returns every session active right now, for callers that scan
// all sessions rather than one target's.
func (r *PortForwardRegistry) Sessions() []*PortForwardSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*PortForwardSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// ForTarget returns the sessions forwarding to target, for the PF column on
// a resource row.
func (r *PortForwardRegistry) ForTarget(t PFTarget) []*PortForwardSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byTarget[t]
	out := make([]*PortForwardSession, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (r *PortForwardRegistry) register(s *PortForwardSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.byTarget[s.Target] = append(r.byTarget[s.Target], s.ID)
}

func (r *PortForwardRegistry) unregister(id string, target PFTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	ids := r.byTarget[target]
	for i, x := range ids {
		if x == id {
			r.byTarget[target] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// StartPortForward opens a port-forward session against a pod, the way
// `kubectl port-forward` dials via SPDY over the /portforward subresource.
// It registers the session immediately in PFStarting state and flips it to
// PFLive once client-go signals the tunnel is ready, or PFFailed if dialing
// or forwarding errors out. The returned session's Close stops forwarding
// and removes it from the registry.
//
// target names the row the session belongs to in the registry; for a
// service-backed forward it carries the service while pod names the resolved
// backing pod the tunnel actually dials.
func (s *Supervisor) StartPortForward(restConfig *rest.Config, target PFTarget, pod string, localPort, remotePort int, id string) (*PortForwardSession, error) {
	transport, upgrader, err := spdy.RoundTripperFor(restConfig)
	if err != nil {
		return nil, fmt.Errorf("action: build spdy roundtripper: %w", err)
	}

	restConfig = rest.CopyConfig(restConfig)
	urlPath := fmt.Sprintf("/api/v1/namespaces/%s/pods/%s/portforward", target.Namespace, pod)
	hostURL := restConfig.Host + urlPath
	req, err := http.NewRequest(http.MethodPost, hostURL, nil)
	if err != nil {
		return nil, fmt.Errorf("action: build port-forward request: %w", err)
	}

	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, req.URL)

	sess := &PortForwardSession{
		ID:         id,
		Target:     target,
		LocalPort:  localPort,
		RemotePort: remotePort,
		StartedAt:  time.Now(),
		state:      PFStarting,
		stop:       make(chan struct{}),
	}
	s.PF.register(sess)

	ready := make(chan struct{})
	ports := []string{fmt.Sprintf("%d:%d", localPort, remotePort)}
	fw, err := portforward.New(dialer, ports, sess.stop, ready, io.Discard, io.Discard)
	if err != nil {
		sess.setState(PFFailed, err.Error())
		return sess, fmt.Errorf("action: build port-forwarder: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- fw.ForwardPorts() }()

	go func() {
		select {
		case <-ready:
			sess.setState(PFLive, "")
		case err := <-errCh:
			if err != nil {
				sess.setState(PFFailed, err.Error())
			}
			s.PF.unregister(sess.ID, sess.Target)
			return
		}
		err := <-errCh
		if err != nil {
			sess.setState(PFFailed, err.Error())
		} else {
			sess.setState(PFClosed, "")
		}
		s.PF.unregister(sess.ID, sess.Target)
	}()

	return sess, nil
}

// StopPortForward closes a session by id if present, reporting whether one
// was found.
func (s *Supervisor) StopPortForward(id string) bool {
	for _, sess := range s.PF.Sessions() {
		if sess.ID == id {
			sess.Close()
			return true
		}
	}
	return false
}
