// Package logging provides a minimal logging interface and adapters for AgriConnect.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the registry, router and workflow engine use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ComponentLogger with a component name and contextual attributes
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Component: "discovery"})
//	reg := registry.New(index, func(o *registry.Options) { o.Logger = logger })
package logging
