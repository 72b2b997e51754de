package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/agriconnect/a2a"
	"github.com/hupe1980/agriconnect/config"
	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/embedding"
	"github.com/hupe1980/agriconnect/extract"
	"github.com/hupe1980/agriconnect/gateway"
	"github.com/hupe1980/agriconnect/logging"
	"github.com/hupe1980/agriconnect/orchestrator"
	"github.com/hupe1980/agriconnect/registry"
	"github.com/hupe1980/agriconnect/trade"
)

var (
	listenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "address to listen on, overrides the config",
	}
	cardFlag = &cli.StringFlag{
		Name:  "card",
		Usage: "agent card file (`json` or yaml) describing the served agent",
	}
	instructionsFlag = &cli.StringFlag{
		Name:  "instructions",
		Usage: "file holding the instruction template of a specialist",
	}
)

func listenAddr(c *cli.Context, fallback string) string {
	if v := c.String(listenFlag.Name); v != "" {
		return v
	}
	return fallback
}

var commandDiscovery = &cli.Command{
	Name:  "discovery",
	Usage: "serve the agent discovery service",
	Flags: []cli.Flag{listenFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cfg, "discovery")
		if err != nil {
			return err
		}
		defer closeLog()

		emb, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		index := embedding.NewIndex(emb, func(o *embedding.Options) {
			o.QueryCacheSize = cfg.Embedding.CacheSize
			o.Logger = logger.WithComponent("embedding")
		})
		reg := registry.New(index, func(o *registry.Options) {
			o.ProxyBaseURL = cfg.ProxyBaseURL()
			o.Logger = logger
		})
		n, err := reg.Load(c.Context, registry.DirSource{Dir: cfg.Discovery.CatalogDir})
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		logger.Info("Agent catalog loaded", "dir", cfg.Discovery.CatalogDir, "agents", n)

		return serve(c.Context, listenAddr(c, cfg.Discovery.Listen), registry.NewServer(reg, logger), logger)
	},
}

var commandGateway = &cli.Command{
	Name:  "gateway",
	Usage: "serve the routing proxy in front of the specialist agents",
	Flags: []cli.Flag{listenFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cfg, "gateway")
		if err != nil {
			return err
		}
		defer closeLog()

		logFile := cfg.Gateway.LogFile
		if logFile == "" {
			logFile = cfg.Log.File
		}
		proxy := gateway.New(cfg.Gateway.Agents, func(o *gateway.Options) {
			o.Timeout = cfg.Gateway.Timeout
			o.Logger = logger
			o.LogFile = logFile
		})
		logger.Info("Gateway routes configured", "agents", len(cfg.Gateway.Agents))
		return serve(c.Context, listenAddr(c, cfg.Gateway.Listen), proxy, logger)
	},
}

var commandSpecialist = &cli.Command{
	Name:  "specialist",
	Usage: "serve one model-backed specialist agent over A2A",
	Flags: []cli.Flag{listenFlag, cardFlag, instructionsFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		cardPath := c.String(cardFlag.Name)
		if cardPath == "" {
			cardPath = cfg.Agent.Card
		}
		if cardPath == "" {
			return fmt.Errorf("%w: --card", core.ErrMissingInput)
		}
		card, err := registry.ReadCard(cardPath)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cfg, "specialist")
		if err != nil {
			return err
		}
		defer closeLog()
		logger = logger.WithContext("agent", card.Name)

		instructions := cfg.Agent.Instructions
		if path := c.String(instructionsFlag.Name); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read instructions: %w", err)
			}
			instructions = string(data)
		}

		m, err := newModel(cfg)
		if err != nil {
			return err
		}
		spec, err := orchestrator.NewSpecialist(card, m, func(o *orchestrator.SpecialistOptions) {
			o.Instructions = instructions
			o.Stream = cfg.Agent.Stream
			o.Logger = logger
		})
		if err != nil {
			return err
		}
		srv := a2a.NewServer(card, spec, func(o *a2a.ServerOptions) {
			o.Logger = logger
			o.ProtocolLogger = logger.WithComponent("a2asrv").Slog()
		})
		return serve(c.Context, listenAddr(c, cfg.Agent.Listen), srv, logger)
	},
}

var commandTradeAgent = &cli.Command{
	Name:  "trade-agent",
	Usage: "serve the trade coordinator over A2A",
	Flags: []cli.Flag{listenFlag, cardFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cfg, "trade_coordinator")
		if err != nil {
			return err
		}
		defer closeLog()

		card := defaultTradeCard
		if path := c.String(cardFlag.Name); path != "" {
			if card, err = registry.ReadCard(path); err != nil {
				return err
			}
		}

		rt, err := newTradeRuntime(cfg, logger, true)
		if err != nil {
			return err
		}
		defer rt.close()

		srv := a2a.NewServer(card, rt.executor, func(o *a2a.ServerOptions) {
			o.Logger = logger
			o.ProtocolLogger = logger.WithComponent("a2asrv").Slog()
		})
		return serve(c.Context, listenAddr(c, cfg.Agent.Listen), srv, logger)
	},
}

var defaultTradeCard = core.AgentDescriptor{
	Name:        "trade_coordination_agent",
	Description: "Sets up new trades with logistics, payment and notifications, updates trade fields and answers questions about a farmer's trades.",
	Version:     "1.0.0",
	Skills: []core.Skill{
		{ID: "new_trade", Name: "New trade setup", Description: "Record a sale and arrange pickup, delivery and payment."},
		{ID: "update_field", Name: "Trade update", Description: "Change the logistics status or any other field of an existing trade."},
		{ID: "query", Name: "Trade query", Description: "List pending payments, completed trades or the details of one trade."},
	},
}

// tradeRuntime holds the collaborators of the trade commands.
type tradeRuntime struct {
	setup    *trade.SetupWorkflow
	service  *trade.Service
	executor *trade.Executor
	closers  []func()
}

func (rt *tradeRuntime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// newTradeRuntime wires store, notification channel, extractor and payment
// policy. useModel enables LLM extraction and intent resolution.
func newTradeRuntime(cfg *config.Config, logger *logging.ComponentLogger, useModel bool) (*tradeRuntime, error) {
	rt := &tradeRuntime{}

	store, closeStore, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, closeStore)

	channel, closeChannel, err := newChannel(cfg, logger.WithComponent("notify"))
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.closers = append(rt.closers, closeChannel)

	policy, err := trade.NewPaymentPolicy(cfg.Trade.PaymentPolicy, cfg.Trade.PaymentStatus, cfg.Trade.PaymentMedium, cfg.Trade.Seed)
	if err != nil {
		rt.close()
		return nil, err
	}

	var extractor extract.Extractor = extract.Passthrough{}
	execOpts := func(*trade.ExecutorOptions) {}
	if useModel {
		m, err := newModel(cfg)
		if err != nil {
			rt.close()
			return nil, err
		}
		extractor = extract.NewModelExtractor(m, func(o *extract.ModelOptions) { o.Logger = logger })
		execOpts = func(o *trade.ExecutorOptions) { o.Intent = m }
	}

	rt.setup = trade.NewSetupWorkflow(store, channel, func(o *trade.SetupOptions) {
		o.Extractor = extractor
		o.Policy = policy
		o.Topic = cfg.NATS.Topic
		o.DefaultFarmerID = cfg.Trade.DefaultFarmerID
		o.Logger = logger.WithComponent("workflow")
	})
	rt.service = trade.NewService(store, func(o *trade.ServiceOptions) {
		o.DefaultFarmerID = cfg.Trade.DefaultFarmerID
		o.Logger = logger
	})
	rt.executor = trade.NewExecutor(rt.setup, rt.service, execOpts, func(o *trade.ExecutorOptions) { o.Logger = logger })
	return rt, nil
}
