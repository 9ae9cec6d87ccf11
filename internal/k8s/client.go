// Package k8s is the concrete Kubernetes collaborator: cluster/cache/client
// construction, discovery-backed GVK↔GVR resolution, and the table-aware
// source the Resource Store multiplexes over.
package k8s

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/cluster"

	"github.com/orca-cli/orca/internal/kinds"
)

// Client wraps a controller-runtime cluster with the lazily-initialized
// discovery/restmapper/dynamic collaborators orca's CRD catalog and scale
// subresource access need.
type Client struct {
	cluster cluster.Cluster
	config  *rest.Config
	log     logr.Logger

	ctx    context.Context
	cancel context.CancelFunc

	discoOnce sync.Once
	discoErr  error
	disco     discovery.CachedDiscoveryInterface
	mapper    *restmapper.DeferredDiscoveryRESTMapper
	dyn       dynamic.Interface
}

// New constructs a Client from a REST config.
func New(config *rest.Config, log logr.Logger) (*Client, error) {
	c, err := cluster.New(config)
	if err != nil {
		return nil, fmt.Errorf("k8s: create cluster: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{cluster: c, config: config, log: log, ctx: ctx, cancel: cancel}, nil
}

// Start starts the cluster's cache and blocks until the first sync.
func (c *Client) Start() error {
	go func() {
		if err := c.cluster.Start(c.ctx); err != nil {
			c.log.Error(err, "cluster stopped")
		}
	}()
	if !c.cluster.GetCache().WaitForCacheSync(c.ctx) {
		return fmt.Errorf("k8s: cache failed to sync")
	}
	return nil
}

// Stop tears down the cluster's background goroutines.
func (c *Client) Stop() { c.cancel() }

// Client returns the controller-runtime client.
func (c *Client) Client() client.Client { return c.cluster.GetClient() }

// Cache returns the controller-runtime cache.
func (c *Client) Cache() cache.Cache { return c.cluster.GetCache() }

// RESTConfig returns the underlying REST config, needed by the table fetcher
// and by remotecommand/portforward which bypass controller-runtime entirely.
func (c *Client) RESTConfig() *rest.Config { return c.config }

func (c *Client) ensureDiscovery() error {
	c.discoOnce.Do(func() {
		dc, err := discovery.NewDiscoveryClientForConfig(c.config)
		if err != nil {
			c.discoErr = fmt.Errorf("k8s: create discovery client: %w", err)
			return
		}
		c.disco = memory.NewMemCacheClient(dc)
		c.mapper = restmapper.NewDeferredDiscoveryRESTMapper(c.disco)
		c.dyn, err = dynamic.NewForConfig(c.config)
		if err != nil {
			c.discoErr = fmt.Errorf("k8s: create dynamic client: %w", err)
		}
	})
	return c.discoErr
}

// Dynamic returns the lazily-initialized dynamic client, used for CRD
// instance access where no typed scheme registration exists.
func (c *Client) Dynamic() (dynamic.Interface, error) {
	if err := c.ensureDiscovery(); err != nil {
		return nil, err
	}
	return c.dyn, nil
}

// Mapper returns the lazily-initialized deferred discovery REST mapper.
func (c *Client) Mapper() (*restmapper.DeferredDiscoveryRESTMapper, error) {
	if err := c.ensureDiscovery(); err != nil {
		return nil, err
	}
	return c.mapper, nil
}

// DiscoverCRDs enumerates server-discovered resources whose group is neither
// core (empty group) nor a well-known *.k8s.io built-in group, keeping only
// custom-domain groups for the CRD catalog overlay.
func (c *Client) DiscoverCRDs(ctx context.Context) ([]kinds.Capability, error) {
	if err := c.ensureDiscovery(); err != nil {
		return nil, err
	}
	c.disco.Invalidate()
	lists, err := c.disco.ServerPreferredResources()
	if err != nil && lists == nil {
		return nil, fmt.Errorf("k8s: discover server resources: %w", err)
	}
	var caps []kinds.Capability
	for _, l := range lists {
		gv, err := schemaParseGroupVersion(l.GroupVersion)
		if err != nil || !isCustomGroup(gv.Group) {
			continue
		}
		for _, r := range l.APIResources {
			if isSubresourceName(r.Name) {
				continue
			}
			caps = append(caps, kinds.Capability{
				Kind:      kinds.CRDInstance,
				Canonical: r.Name,
				GVK:       gv.WithKind(r.Kind),
				ScopeKind: namespacedScope(r.Namespaced),
				Dynamic:   true,
			})
		}
	}
	return caps, nil
}
