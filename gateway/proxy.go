package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
)

// DefaultTimeout bounds one forwarded call.
const DefaultTimeout = 300 * time.Second

// forwardedHeaders are the only request headers passed to agents.
var forwardedHeaders = []string{"Content-Type", "Accept", "Authorization"}

// Options configures a Proxy.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     logging.Logger
	// LogFile, when set, is served as text at GET /logs.
	LogFile string
}

// Proxy forwards POST /invoke/?agent_name=<name> to the agent's internal URL.
type Proxy struct {
	*core.LoggerAdapter
	agents  map[string]string
	client  *http.Client
	logFile string
	mux     *http.ServeMux
}

// New creates a Proxy for the given agent name to internal URL map.
func New(agents map[string]string, optFns ...func(o *Options)) *Proxy {
	opts := Options{Timeout: DefaultTimeout}
	for _, fn := range optFns {
		fn(&opts)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	m := make(map[string]string, len(agents))
	for k, v := range agents {
		m[k] = v
	}
	p := &Proxy{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		agents:        m,
		client:        hc,
		logFile:       opts.LogFile,
		mux:           http.NewServeMux(),
	}
	p.mux.HandleFunc("POST /invoke/", p.handleInvoke)
	p.mux.HandleFunc("GET /logs", p.handleLogs)
	p.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"message":"AgriConnect Gateway is running."}`+"\n")
	})
	return p
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

func (p *Proxy) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("agent_name")
	target, ok := p.agents[name]
	if !ok {
		p.LogError("Gateway received call for unknown agent", "agent", name)
		http.Error(w, fmt.Sprintf("Agent '%s' not found.", name), http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Internal server error in gateway.", http.StatusInternalServerError)
		return
	}

	url := target
	if q := r.URL.RawQuery; q != "" {
		url += "?" + q
	}
	p.LogInfo("Gateway proxying request", "agent", name, "url", url)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		p.LogError("Gateway could not build request", "agent", name, "error", err)
		http.Error(w, "Internal server error in gateway.", http.StatusInternalServerError)
		return
	}
	for _, h := range forwardedHeaders {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if isConnectError(err) {
			p.LogError("Gateway failed to connect to internal agent", "agent", name, "url", target, "error", err)
			http.Error(w, fmt.Sprintf("Service unavailable: Could not connect to %s.", name), http.StatusServiceUnavailable)
			return
		}
		p.LogError("Gateway encountered an unexpected error", "agent", name, "error", err)
		http.Error(w, "Internal server error in gateway.", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if err := copyFlush(w, resp.Body); err != nil {
		p.LogWarn("Gateway response copy interrupted", "agent", name, "error", err)
	}
	p.LogInfo("Gateway call completed", "agent", name, "status", resp.StatusCode, "duration", time.Since(start))
}

func (p *Proxy) handleLogs(w http.ResponseWriter, _ *http.Request) {
	if p.logFile == "" {
		http.Error(w, "Log file not found.", http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(p.logFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.LogWarn("Log file not found", "path", p.logFile)
			http.Error(w, "Log file not found.", http.StatusNotFound)
			return
		}
		p.LogError("Error reading log file", "path", p.logFile, "error", err)
		http.Error(w, "Error reading log file.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Log-File-Name", filepath.Base(p.logFile))
	_, _ = w.Write(data)
}

// copyFlush streams src to w, flushing after each read so SSE responses
// pass through incrementally.
func copyFlush(w http.ResponseWriter, src io.Reader) error {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func isConnectError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
