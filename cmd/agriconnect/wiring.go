package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/agriconnect/config"
	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/embedding"
	embopenai "github.com/hupe1980/agriconnect/embedding/openai"
	"github.com/hupe1980/agriconnect/logging"
	"github.com/hupe1980/agriconnect/model"
	modelanthropic "github.com/hupe1980/agriconnect/model/anthropic"
	modelopenai "github.com/hupe1980/agriconnect/model/openai"
	"github.com/hupe1980/agriconnect/notify/natsbus"
	storemem "github.com/hupe1980/agriconnect/store/memory"
	"github.com/hupe1980/agriconnect/store/sqlite"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(configFlag.Name)
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// newLogger builds the process logger. When a log file is configured,
// entries go to stdout and the file.
func newLogger(cfg *config.Config, component string) (*logging.ComponentLogger, func(), error) {
	out := io.Writer(os.Stdout)
	closeFn := func() {}
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closeFn = func() { _ = f.Close() }
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Output:    out,
		Component: component,
	})
	return logger, closeFn, nil
}

func newModel(cfg *config.Config) (model.Model, error) {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		return modelopenai.NewModel(func(o *modelopenai.Options) {
			o.APIKey = cfg.LLM.OpenAIAPIKey
			o.Temperature = cfg.LLM.Temperature
			if cfg.LLM.Model != "" {
				o.Model = cfg.LLM.Model
			}
		}), nil
	case "anthropic":
		if cfg.LLM.AnthropicAPIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return modelanthropic.NewModel(func(o *modelanthropic.Options) {
			o.APIKey = cfg.LLM.AnthropicAPIKey
			o.Temperature = cfg.LLM.Temperature
			if cfg.LLM.Model != "" {
				o.Model = anthropic.Model(cfg.LLM.Model)
			}
		}), nil
	case "mock":
		return model.NewMockModel("mock"), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.LLM.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for openai embeddings")
		}
		return embopenai.NewEmbedder(func(o *embopenai.Options) {
			o.APIKey = cfg.LLM.OpenAIAPIKey
			o.Dimensions = int64(cfg.Embedding.Dimensions)
			if cfg.Embedding.Model != "" {
				o.Model = openaisdk.EmbeddingModel(cfg.Embedding.Model)
			}
		}), nil
	case "hash":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimensions), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
}

func newStore(cfg *config.Config) (core.RecordStore, func(), error) {
	if cfg.Store.Driver == "memory" {
		return storemem.New(), func() {}, nil
	}
	db, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}

// newChannel connects the notification publisher, starting an embedded
// NATS server when no URL is configured.
func newChannel(cfg *config.Config, logger logging.Logger) (core.NotificationChannel, func(), error) {
	url := cfg.NATS.URL
	var bus *natsbus.Bus
	if url == "" {
		var err error
		bus, err = natsbus.NewBus(natsbus.BusOptions{Port: cfg.NATS.Port, DataDir: cfg.NATS.DataDir})
		if err != nil {
			return nil, nil, fmt.Errorf("init nats: %w", err)
		}
		url = bus.ClientURL()
		logger.Info("Embedded NATS started", "url", url)
	}

	pub, err := natsbus.NewPublisher(url, func(o *natsbus.Options) {
		o.JetStream = cfg.NATS.JetStream
		o.Subjects = []string{cfg.NATS.Topic}
		o.Logger = logger
	})
	if err != nil {
		if bus != nil {
			bus.Close()
		}
		return nil, nil, err
	}
	return pub, func() {
		_ = pub.Close()
		if bus != nil {
			bus.Close()
		}
	}, nil
}

// serve runs handler on addr until SIGINT or SIGTERM.
func serve(ctx context.Context, addr string, handler http.Handler, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
