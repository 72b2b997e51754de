package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/embedding"
	"github.com/hupe1980/agriconnect/logging"
)

// Options configures a Registry.
type Options struct {
	// ProxyBaseURL is the gateway base every endpoint is rewritten to.
	ProxyBaseURL string
	Logger       logging.Logger
}

// Registry is the in-memory descriptor catalog. Descriptors are immutable
// after Load; Resolve is safe for concurrent use.
type Registry struct {
	*core.LoggerAdapter
	index     *embedding.Index
	proxyBase string

	mu          sync.RWMutex
	descriptors map[string]core.AgentDescriptor
	order       []string
}

// New creates an empty Registry backed by index.
func New(index *embedding.Index, optFns ...func(o *Options)) *Registry {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		index:         index,
		proxyBase:     strings.TrimRight(opts.ProxyBaseURL, "/"),
		descriptors:   make(map[string]core.AgentDescriptor),
	}
}

// ProxyEndpoint returns the gateway URL routing to the named agent.
func ProxyEndpoint(base, agentName string) string {
	return strings.TrimRight(base, "/") + "/invoke/?agent_name=" + url.QueryEscape(agentName)
}

// Load reads every descriptor from src, rewrites its endpoint through the
// proxy and indexes its search text. Descriptors whose embedding fails are
// logged and left out of matching; they are not a load error. The returned
// count is the number of descriptors available for matching.
func (r *Registry) Load(ctx context.Context, src Source) (int, error) {
	if r.proxyBase == "" {
		return 0, errors.New("proxy base URL is required")
	}
	descs, err := src.Descriptors(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	r.LogInfo("Loading agent descriptors", "count", len(descs), "proxy_base", r.proxyBase)

	accepted := make([]core.AgentDescriptor, 0, len(descs))
	entries := make([]embedding.Entry, 0, len(descs))
	seen := make(map[string]bool, len(descs))
	r.mu.RLock()
	for _, d := range descs {
		if d.Name == "" {
			r.LogWarn("Skipping descriptor without name")
			continue
		}
		if _, exists := r.descriptors[d.Name]; exists || seen[d.Name] {
			r.LogWarn("Skipping duplicate descriptor", "name", d.Name)
			continue
		}
		seen[d.Name] = true
		d = d.Clone()
		d.Endpoint = ProxyEndpoint(r.proxyBase, d.Name)
		accepted = append(accepted, d)
		entries = append(entries, embedding.Entry{Key: d.Name, Text: d.SearchText()})
	}
	r.mu.RUnlock()

	if _, err := r.index.AddAll(ctx, entries); err != nil {
		r.LogWarn("Some descriptors were not indexed", "error", err)
	}

	indexed := make(map[string]bool)
	for _, k := range r.index.Keys() {
		indexed[k] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range accepted {
		if !indexed[d.Name] {
			continue
		}
		r.descriptors[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	r.LogInfo("Agent descriptors indexed", "count", len(r.order))
	return len(r.order), nil
}

// Resolve returns the descriptor best matching taskDescription. It fails
// with core.ErrNoAgentFound when the catalog is empty or the query cannot be
// embedded.
func (r *Registry) Resolve(ctx context.Context, taskDescription string) (core.AgentDescriptor, error) {
	m, err := r.index.Query(ctx, taskDescription)
	if err != nil {
		r.LogError("Agent resolution failed", "error", err)
		return core.AgentDescriptor{}, fmt.Errorf("%w: %w", core.ErrNoAgentFound, err)
	}
	d, ok := r.Get(m.Key)
	if !ok {
		return core.AgentDescriptor{}, fmt.Errorf("%w: indexed key %q has no descriptor", core.ErrNoAgentFound, m.Key)
	}
	r.LogInfo("Resolved agent", "name", d.Name, "score", m.Score, "url", d.Endpoint)
	return d, nil
}

// Get returns a copy of the named descriptor.
func (r *Registry) Get(name string) (core.AgentDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	if !ok {
		return core.AgentDescriptor{}, false
	}
	return d.Clone(), true
}

// Descriptors returns copies of all matchable descriptors in registration order.
func (r *Registry) Descriptors() []core.AgentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.AgentDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name].Clone())
	}
	return out
}
