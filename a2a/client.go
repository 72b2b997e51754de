package a2a

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
)

const (
	// DefaultInvokeTimeout bounds one remote agent call.
	DefaultInvokeTimeout = 300 * time.Second

	// NoTextContent is returned when a completed call carries no text.
	NoTextContent = "Agent completed the task but returned no text content."
)

var (
	// ErrConnection is returned when the endpoint cannot be reached.
	ErrConnection = errors.New("connection error")
	// ErrProtocol is returned for malformed or unexpected responses.
	ErrProtocol = errors.New("protocol error")
	// ErrStreamClosed is returned when an event stream ends early.
	ErrStreamClosed = errors.New("stream closed")
)

// AgentError is a failure reported by the remote agent itself, either as a
// JSON-RPC error or as a task that ended in the failed state.
type AgentError struct {
	Message string
}

func (e *AgentError) Error() string { return "agent error: " + e.Message }

// ClientOptions configures a Client.
type ClientOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     logging.Logger
	// Headers are added to every request, e.g. Authorization.
	Headers map[string]string
}

// Client sends tasks to remote agents.
type Client struct {
	*core.LoggerAdapter
	factory *a2aclient.Factory
	timeout time.Duration
}

// NewClient creates a Client.
func NewClient(optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{Timeout: DefaultInvokeTimeout}
	for _, fn := range optFns {
		fn(&opts)
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		hc = &c
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &agentTransport{base: base, headers: opts.Headers}

	return &Client{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		factory:       a2aclient.NewFactory(a2aclient.WithJSONRPCTransport(hc)),
		timeout:       opts.Timeout,
	}
}

// Invoke sends taskDescription to the agent and returns its answer as text.
// It never fails: connection failures, protocol errors and agent-reported
// errors are all rendered as text. Only connection failures log at error.
func (c *Client) Invoke(ctx context.Context, desc core.AgentDescriptor, taskDescription string) string {
	start := time.Now()
	res, err := c.Send(ctx, desc.Endpoint, taskDescription)

	var agentErr *AgentError
	switch {
	case errors.Is(err, ErrConnection):
		c.LogError("Remote agent call failed", "agent", desc.Name, "url", desc.Endpoint, "duration", time.Since(start), "error", err)
		return fmt.Sprintf("Connection Error: Could not connect to agent '%s' at %s. Details: %v", desc.Name, desc.Endpoint, err)
	case errors.As(err, &agentErr):
		c.LogWarn("Remote agent reported an error", "agent", desc.Name, "duration", time.Since(start), "error", agentErr.Message)
		return "Agent returned an error: " + agentErr.Message
	case err != nil:
		c.LogWarn("Remote agent returned an invalid response", "agent", desc.Name, "duration", time.Since(start), "error", err)
		return fmt.Sprintf("Protocol Error: invalid response from agent '%s': %v", desc.Name, err)
	}

	text, ok := ResultText(res)
	if !ok {
		c.LogInfo("Remote agent returned no text", "agent", desc.Name, "duration", time.Since(start))
		return NoTextContent
	}
	c.LogInfo("Remote agent call completed", "agent", desc.Name, "duration", time.Since(start), "chars", len(text))
	return text
}

// Send performs one blocking message/send exchange with endpoint. Errors
// wrap ErrConnection or ErrProtocol, or are an *AgentError. A task that
// ended in the failed state is an *AgentError carrying the status text.
func (c *Client) Send(ctx context.Context, endpoint, text string) (a2a.SendMessageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := c.connect(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Destroy() }()

	res, err := client.SendMessage(ctx, &a2a.MessageSendParams{Message: NewUserMessage(text)})
	if err != nil {
		return nil, classify(err)
	}
	if task, ok := res.(*a2a.Task); ok && task.Status.State == TaskStateFailed {
		return res, &AgentError{Message: failureText(task.Status)}
	}
	return res, nil
}

// Stream performs a message/stream exchange, calling fn for every status
// update, and returns the text of the final status. A final failed status
// is returned as an *AgentError.
func (c *Client) Stream(ctx context.Context, desc core.AgentDescriptor, text string, fn func(*TaskStatusUpdateEvent) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := c.connect(ctx, desc.Endpoint)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Destroy() }()

	msg := &a2a.MessageSendParams{Message: NewUserMessage(text)}
	for ev, err := range client.SendStreamingMessage(ctx, msg) {
		if err != nil {
			return "", classify(err)
		}

		var status TaskStatus
		switch v := ev.(type) {
		case *a2a.TaskStatusUpdateEvent:
			if fn != nil {
				if err := fn(v); err != nil {
					return "", err
				}
			}
			if !v.Final {
				continue
			}
			status = v.Status
		case *a2a.Task:
			if !v.Status.State.Terminal() {
				continue
			}
			status = v.Status
		case *a2a.Message:
			if out := MessageText(v); out != "" {
				return out, nil
			}
			return NoTextContent, nil
		default:
			continue
		}

		if status.State == TaskStateFailed {
			return "", &AgentError{Message: failureText(status)}
		}
		out := MessageText(status.Message)
		if out == "" {
			out = NoTextContent
		}
		return out, nil
	}
	return "", fmt.Errorf("%w: no final status from agent '%s'", ErrStreamClosed, desc.Name)
}

func (c *Client) connect(ctx context.Context, endpoint string) (*a2aclient.Client, error) {
	client, err := c.factory.CreateFromEndpoints(ctx, []a2a.AgentInterface{
		{Transport: a2a.TransportProtocolJSONRPC, URL: endpoint},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return client, nil
}

// ResultText descends the result's status.message.parts[0].text, or the
// first part of a direct message reply. ok is false when any level is
// absent or the text is empty.
func ResultText(res a2a.SendMessageResult) (string, bool) {
	switch v := res.(type) {
	case *a2a.Task:
		return StatusText(v.Status)
	case *a2a.Message:
		if len(v.Parts) == 0 {
			return "", false
		}
		text := partText(v.Parts[0])
		return text, text != ""
	}
	return "", false
}

func failureText(status TaskStatus) string {
	if text, ok := StatusText(status); ok {
		return text
	}
	return "task failed"
}

// classify sorts transport errors into connection, agent and protocol
// failures.
func classify(err error) error {
	var urlErr *url.Error
	var rpcErr *a2a.Error
	switch {
	case errors.Is(err, ErrConnection):
		return err
	case errors.As(err, &urlErr), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrConnection, err)
	case errors.As(err, &rpcErr):
		return &AgentError{Message: rpcErr.Error()}
	}
	return fmt.Errorf("%w: %w", ErrProtocol, err)
}

// agentTransport adds the configured headers and turns gateway failures
// into transport errors.
type agentTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *agentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrConnection, resp.StatusCode, snippet(raw))
	}
	return resp, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
