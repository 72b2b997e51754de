package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agriconnect/a2a"
	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
	"github.com/hupe1980/agriconnect/registry"
)

// Invoker calls a resolved agent and always answers with text.
type Invoker interface {
	Invoke(ctx context.Context, desc core.AgentDescriptor, taskDescription string) string
}

// DelegatorOptions configures a Delegator.
type DelegatorOptions struct {
	Logger logging.Logger
}

// Delegator finds the best specialist for a task and calls it.
type Delegator struct {
	*core.LoggerAdapter
	resolver registry.Resolver
	invoker  Invoker
}

// NewDelegator creates a Delegator. resolver is usually a registry.Client
// and invoker an a2a.Client.
func NewDelegator(resolver registry.Resolver, invoker Invoker, optFns ...func(o *DelegatorOptions)) *Delegator {
	opts := DelegatorOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Delegator{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		resolver:      resolver,
		invoker:       invoker,
	}
}

// CallAgent delegates taskDescription and returns the specialist's answer.
// Every failure is rendered as text; it never picks an arbitrary agent.
func (d *Delegator) CallAgent(ctx context.Context, taskDescription string) string {
	if strings.TrimSpace(taskDescription) == "" {
		return "Resolution Error: could not find an agent for an empty task description."
	}
	d.LogInfo("Delegating task", "task", preview(taskDescription, 70))

	start := time.Now()
	desc, err := d.resolver.Resolve(ctx, taskDescription)
	if err != nil {
		if errors.Is(err, registry.ErrDiscoveryUnavailable) {
			d.LogError("Discovery service unreachable", "duration", time.Since(start), "error", err)
			return fmt.Sprintf("Connection Error: Could not connect to the discovery service. Details: %v", err)
		}
		d.LogWarn("No agent resolved for task", "duration", time.Since(start), "error", err)
		return fmt.Sprintf("Resolution Error: could not find an agent for this task. Details: %v", err)
	}
	d.LogInfo("Discovery selected agent", "agent", desc.Name, "url", desc.Endpoint)

	return d.invoker.Invoke(ctx, desc, taskDescription)
}

// Compile-time check.
var _ Invoker = (*a2a.Client)(nil)

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
