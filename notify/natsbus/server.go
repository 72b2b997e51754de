package natsbus

import (
	"errors"
	"fmt"
	"os"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// BusOptions configures an embedded NATS server.
type BusOptions struct {
	// Host defaults to 127.0.0.1.
	Host string
	// Port -1 picks a random free port.
	Port int
	// DataDir is the JetStream store directory.
	DataDir string
}

// Bus is an embedded NATS server with JetStream, for local runs and tests.
type Bus struct {
	server *natsserver.Server
}

// NewBus starts an embedded server and waits until it accepts connections.
func NewBus(opts BusOptions) (*Bus, error) {
	if opts.DataDir == "" {
		return nil, errors.New("nats data dir is required")
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create nats data dir: %w", err)
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}

	ns, err := natsserver.NewServer(&natsserver.Options{
		Host:      host,
		Port:      opts.Port,
		NoLog:     true,
		NoSigs:    true,
		JetStream: true,
		StoreDir:  opts.DataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("nats server not ready")
	}
	return &Bus{server: ns}, nil
}

// ClientURL returns the URL clients connect to.
func (b *Bus) ClientURL() string {
	return b.server.ClientURL()
}

// Close shuts the server down and waits for it to stop.
func (b *Bus) Close() {
	b.server.Shutdown()
	b.server.WaitForShutdown()
}
