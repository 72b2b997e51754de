package a2a

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
)

// LegacyAgentCardPath is the card path used by agents predating the
// agent-card.json name.
const LegacyAgentCardPath = "/.well-known/agent.json"

// ServerOptions configures a Server.
type ServerOptions struct {
	Logger logging.Logger
	// ProtocolLogger receives the request handler's own logs. Nil discards them.
	ProtocolLogger *slog.Logger
	// KeepAlive is the interval of SSE keep-alive comments on streams; 0 disables them.
	KeepAlive time.Duration
}

// Server hosts an Executor over the JSON-RPC protocol and serves its agent
// card at the well-known paths.
type Server struct {
	*core.LoggerAdapter
	card *a2a.AgentCard
	mux  *http.ServeMux
}

// NewServer creates a Server publishing card and running executor.
func NewServer(card core.AgentDescriptor, executor Executor, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ProtocolLogger == nil {
		opts.ProtocolLogger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		card:          AgentCard(card),
		mux:           http.NewServeMux(),
	}

	handler := a2asrv.NewHandler(
		NewAgentExecutor(executor, opts.Logger),
		a2asrv.WithLogger(opts.ProtocolLogger),
		a2asrv.WithExtendedAgentCard(s.card),
	)
	rpcOpts := []a2asrv.JSONRPCHandlerOption{
		a2asrv.WithPanicHandler(func(r any) error {
			s.LogError("Recovered from panic in request handler", "panic", r)
			return a2a.ErrInternalError
		}),
	}
	if opts.KeepAlive > 0 {
		rpcOpts = append(rpcOpts, a2asrv.WithKeepAlive(opts.KeepAlive))
	}

	cardHandler := a2asrv.NewStaticAgentCardHandler(s.card)
	s.mux.Handle(a2asrv.WellKnownAgentCardPath, cardHandler)
	s.mux.Handle(LegacyAgentCardPath, cardHandler)
	s.mux.Handle("/", a2asrv.NewJSONRPCHandler(handler, rpcOpts...))
	return s
}

// Card returns the published agent card.
func (s *Server) Card() *a2a.AgentCard {
	return s.card
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// AgentCard converts a descriptor into the card an agent publishes. The
// JSON form keeps the descriptor's name, description, url and skills keys.
func AgentCard(desc core.AgentDescriptor) *a2a.AgentCard {
	skills := make([]a2a.AgentSkill, 0, len(desc.Skills))
	for _, sk := range desc.Skills {
		tags := sk.Tags
		if tags == nil {
			tags = []string{}
		}
		skills = append(skills, a2a.AgentSkill{
			ID:          sk.ID,
			Name:        sk.Name,
			Description: sk.Description,
			Tags:        tags,
			Examples:    sk.Examples,
		})
	}
	version := desc.Version
	if version == "" {
		version = "1.0.0"
	}
	return &a2a.AgentCard{
		Name:               desc.Name,
		Description:        desc.Description,
		URL:                desc.Endpoint,
		Version:            version,
		ProtocolVersion:    "0.3.0",
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		Capabilities:       a2a.AgentCapabilities{Streaming: true},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills:             skills,
	}
}
