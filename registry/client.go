package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
)

// DefaultDiscoveryTimeout bounds one discovery round trip.
const DefaultDiscoveryTimeout = 30 * time.Second

// ErrDiscoveryUnavailable is returned when the discovery service cannot be reached.
var ErrDiscoveryUnavailable = errors.New("discovery service unavailable")

// ClientOptions configures a Client.
type ClientOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     logging.Logger
}

// Client calls a remote discovery Server. It implements Resolver.
type Client struct {
	*core.LoggerAdapter
	baseURL string
	http    *http.Client
}

// NewClient creates a discovery client for baseURL.
func NewClient(baseURL string, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{Timeout: DefaultDiscoveryTimeout}
	for _, fn := range optFns {
		fn(&opts)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          hc,
	}
}

// Resolve asks the discovery service for the agent best matching taskDescription.
// A discovery-side miss is reported as core.ErrNoAgentFound.
func (c *Client) Resolve(ctx context.Context, taskDescription string) (core.AgentDescriptor, error) {
	body, err := json.Marshal(FindAgentRequest{Query: taskDescription})
	if err != nil {
		return core.AgentDescriptor{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/find_agent", bytes.NewReader(body))
	if err != nil {
		return core.AgentDescriptor{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.LogError("Discovery request failed", "url", c.baseURL, "error", err)
		return core.AgentDescriptor{}, fmt.Errorf("%w: %w", ErrDiscoveryUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.AgentDescriptor{}, fmt.Errorf("read discovery response: %w", err)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error != "" {
		return core.AgentDescriptor{}, fmt.Errorf("%w: %s", core.ErrNoAgentFound, errResp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return core.AgentDescriptor{}, fmt.Errorf("discovery returned status %d", resp.StatusCode)
	}

	var d core.AgentDescriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return core.AgentDescriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	if d.Name == "" || d.Endpoint == "" {
		return core.AgentDescriptor{}, fmt.Errorf("%w: incomplete descriptor", core.ErrNoAgentFound)
	}
	return d, nil
}
