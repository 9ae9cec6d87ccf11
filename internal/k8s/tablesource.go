package k8s

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"

	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/store"
)

const (
	tableListAcceptHeader  = "application/json;as=Table;g=meta.k8s.io;v=v1, application/json"
	tableWatchAcceptHeader = "application/json;as=Table;g=meta.k8s.io;v=v1;watch=true, application/json"
)

// TableSource implements store.Source by requesting the `as=Table` Accept
// header on List/Watch and converting metav1.Table rows into
// store.ResourceRow, so every kind shares the server's own column rendering
// instead of per-kind decoders.
type TableSource struct {
	client *Client

	httpClient *http.Client
	codec      serializer.CodecFactory
	paramCodec runtime.ParameterCodec

	mu      sync.Mutex
	clients map[string]rest.Interface
}

// NewTableSource builds a TableSource over an already-started Client.
func NewTableSource(c *Client) (*TableSource, error) {
	codec := serializer.NewCodecFactory(scheme.Scheme)
	cfg := rest.CopyConfig(c.RESTConfig())
	cfg.NegotiatedSerializer = serializer.WithoutConversionCodecFactory{CodecFactory: codec}
	httpClient, err := rest.HTTPClientFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("k8s: build table http client: %w", err)
	}
	return &TableSource{
		client:     c,
		httpClient: httpClient,
		codec:      codec,
		paramCodec: metav1.ParameterCodec,
		clients:    make(map[string]rest.Interface),
	}, nil
}

func (s *TableSource) restClientFor(gvk kinds.Capability) (rest.Interface, error) {
	gv := gvk.GVK.GroupVersion()
	key := gv.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	if rc, ok := s.clients[key]; ok {
		return rc, nil
	}

	cfg := rest.CopyConfig(s.client.RESTConfig())
	cfg.GroupVersion = &gv
	if gv.Group == "" {
		cfg.APIPath = "/api"
	} else {
		cfg.APIPath = "/apis"
	}
	cfg.NegotiatedSerializer = serializer.WithoutConversionCodecFactory{CodecFactory: s.codec}
	rc, err := rest.RESTClientForConfigAndClient(cfg, s.httpClient)
	if err != nil {
		return nil, fmt.Errorf("k8s: build REST client for %s: %w", gv, err)
	}
	s.clients[key] = rc
	return rc, nil
}

func resourceNameFor(capRow kinds.Capability) string {
	if capRow.Canonical != "" {
		return capRow.Canonical
	}
	return ""
}

// SupportsWatch reports whether the kind has a working watch endpoint.
// Every static kind in the table supports watch; the CRD catalog itself
// (discovery results, not a live resource) does not.
func (s *TableSource) SupportsWatch(kind kinds.ResourceKind) bool {
	return kind != kinds.CRD
}

// List requests the table-aware Accept header and decodes the response into
// ResourceRows.
func (s *TableSource) List(ctx context.Context, kind kinds.ResourceKind, scope store.Scope) ([]store.ResourceRow, string, error) {
	capRow, ok := kinds.CapabilityOf(kind)
	if !ok {
		return nil, "", fmt.Errorf("k8s: unknown kind %v", kind)
	}
	rc, err := s.restClientFor(capRow)
	if err != nil {
		return nil, "", err
	}
	req := rc.Get().Resource(resourceNameFor(capRow))
	if capRow.ScopeKind == kinds.Namespaced && !scope.All && !scope.Cluster && scope.Namespace != "" {
		req = req.Namespace(scope.Namespace)
	}
	req.Param("includeObject", string(metav1.IncludeObject))
	req.SetHeader("Accept", tableListAcceptHeader)

	table := &metav1.Table{}
	if err := req.Do(ctx).Into(table); err != nil {
		return nil, "", fmt.Errorf("k8s: list %s: %w", capRow.Canonical, err)
	}
	rows := convertTableRows(table, kind, scope)
	return rows, table.ResourceVersion, nil
}

// Watch requests the table-aware watch Accept header and converts each event
// into a store.WatchEvent. On stream end (TooOld or channel close) the
// caller (the multiplexer) relists and reconnects.
func (s *TableSource) Watch(ctx context.Context, kind kinds.ResourceKind, scope store.Scope, fromVersion string) (<-chan store.WatchEvent, error) {
	capRow, ok := kinds.CapabilityOf(kind)
	if !ok {
		return nil, fmt.Errorf("k8s: unknown kind %v", kind)
	}
	rc, err := s.restClientFor(capRow)
	if err != nil {
		return nil, err
	}
	req := rc.Get().Resource(resourceNameFor(capRow))
	if capRow.ScopeKind == kinds.Namespaced && !scope.All && !scope.Cluster && scope.Namespace != "" {
		req = req.Namespace(scope.Namespace)
	}
	req.Param("includeObject", string(metav1.IncludeObject))
	if fromVersion != "" {
		req.Param("resourceVersion", fromVersion)
	}
	req.SetHeader("Accept", tableWatchAcceptHeader)

	upstream, err := req.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("k8s: watch %s: %w", capRow.Canonical, err)
	}

	out := make(chan store.WatchEvent)
	go translateWatch(ctx, upstream, kind, scope, out)
	return out, nil
}

func translateWatch(ctx context.Context, upstream watch.Interface, kind kinds.ResourceKind, scope store.Scope, out chan<- store.WatchEvent) {
	defer close(out)
	defer upstream.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-upstream.ResultChan():
			if !ok {
				return
			}
			we, ok := convertWatchEvent(evt, kind, scope)
			if !ok {
				continue
			}
			select {
			case out <- we:
			case <-ctx.Done():
				return
			}
			if we.Type == store.Errored && we.TooOld {
				return
			}
		}
	}
}

func convertWatchEvent(evt watch.Event, kind kinds.ResourceKind, scope store.Scope) (store.WatchEvent, bool) {
	switch evt.Type {
	case watch.Bookmark:
		return store.WatchEvent{}, false
	case watch.Error:
		status, _ := evt.Object.(*metav1.Status)
		tooOld := status != nil && status.Reason == metav1.StatusReasonGone
		msg := "watch error"
		if status != nil {
			msg = status.Message
		}
		return store.WatchEvent{Type: store.Errored, Err: fmt.Errorf("k8s: %s", msg), TooOld: tooOld}, true
	}

	table, ok := evt.Object.(*metav1.Table)
	if !ok {
		return store.WatchEvent{}, false
	}
	rows := convertTableRows(table, kind, scope)
	if len(rows) == 0 {
		return store.WatchEvent{}, false
	}
	var t store.EventType
	switch evt.Type {
	case watch.Added:
		t = store.Added
	case watch.Modified:
		t = store.Modified
	case watch.Deleted:
		t = store.Deleted
	default:
		return store.WatchEvent{}, false
	}
	return store.WatchEvent{Type: t, Row: rows[0], Version: table.ResourceVersion}, true
}

func convertTableRows(table *metav1.Table, kind kinds.ResourceKind, scope store.Scope) []store.ResourceRow {
	if table == nil {
		return nil
	}
	colNames := make([]string, len(table.ColumnDefinitions))
	for i, c := range table.ColumnDefinitions {
		colNames[i] = c.Name
	}
	ageIdx := -1
	for i, n := range colNames {
		if n == "Age" {
			ageIdx = i
		}
	}

	rows := make([]store.ResourceRow, 0, len(table.Rows))
	for _, r := range table.Rows {
		meta, err := rowObjectMeta(r)
		if err != nil {
			continue
		}
		cols := make([]string, len(r.Cells))
		for i, cell := range r.Cells {
			cols[i] = fmt.Sprint(cell)
		}
		age := ""
		if ageIdx >= 0 && ageIdx < len(cols) {
			age = cols[ageIdx]
		}
		rows = append(rows, store.ResourceRow{
			UID:         string(meta.UID),
			Kind:        kind,
			Namespace:   meta.Namespace,
			Name:        meta.Name,
			ColumnNames: colNames,
			Columns:     cols,
			Age:         age,
		})
	}
	return rows
}

func rowObjectMeta(row metav1.TableRow) (metav1.ObjectMeta, error) {
	if row.Object.Object != nil {
		acc, err := meta.Accessor(row.Object.Object)
		if err != nil {
			return metav1.ObjectMeta{}, err
		}
		return metav1.ObjectMeta{Name: acc.GetName(), Namespace: acc.GetNamespace(), UID: acc.GetUID()}, nil
	}
	if len(row.Object.Raw) > 0 {
		var u metav1.PartialObjectMetadata
		if err := runtime.DecodeInto(scheme.Codecs.UniversalDecoder(), row.Object.Raw, &u); err == nil {
			return u.ObjectMeta, nil
		}
	}
	return metav1.ObjectMeta{}, fmt.Errorf("k8s: table row missing object metadata")
}
