package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/agriconnect/a2a"
	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/extract"
	"github.com/hupe1980/agriconnect/orchestrator"
	"github.com/hupe1980/agriconnect/registry"
	"github.com/hupe1980/agriconnect/trade"
)

var commandAsk = &cli.Command{
	Name:      "ask",
	Usage:     "delegate a task to the best specialist and print its answer",
	ArgsUsage: "<task description>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "stream", Usage: "stream status updates from the agent"},
	},
	Action: func(c *cli.Context) error {
		task := strings.Join(c.Args().Slice(), " ")
		if strings.TrimSpace(task) == "" {
			return fmt.Errorf("%w: task description", core.ErrMissingInput)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cfg, "orchestrator")
		if err != nil {
			return err
		}
		defer closeLog()

		resolver := registry.NewClient(cfg.Discovery.URL, func(o *registry.ClientOptions) {
			o.Timeout = cfg.Discovery.Timeout
			o.Logger = logger
		})
		client := a2a.NewClient(func(o *a2a.ClientOptions) {
			o.Timeout = cfg.Gateway.Timeout
			o.Logger = logger
		})

		if !c.Bool("stream") {
			out := orchestrator.NewDelegator(resolver, client, func(o *orchestrator.DelegatorOptions) { o.Logger = logger }).
				CallAgent(c.Context, task)
			fmt.Fprintln(c.App.Writer, out)
			return nil
		}

		desc, err := resolver.Resolve(c.Context, task)
		if err != nil {
			return err
		}
		final, err := client.Stream(c.Context, desc, task, func(ev *a2a.TaskStatusUpdateEvent) error {
			if !ev.Final && ev.Status.Message != nil {
				fmt.Fprintf(c.App.ErrWriter, "[%s] %s\n", ev.Status.State, a2a.MessageText(ev.Status.Message))
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, final)
		return nil
	},
}

var commandTrade = &cli.Command{
	Name:  "trade",
	Usage: "run trade operations against the configured store",
	Subcommands: []*cli.Command{
		commandTradeNew,
		commandTradeUpdate,
		commandTradeQuery,
	},
}

var commandTradeNew = &cli.Command{
	Name:      "new",
	Usage:     "run the new trade setup workflow",
	ArgsUsage: "<farmer message>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "details", Usage: "explicit trade details as a JSON object"},
		&cli.BoolFlag{Name: "extract", Usage: "fill absent details from the message with the configured LLM"},
	},
	Action: func(c *cli.Context) error {
		message := strings.Join(c.Args().Slice(), " ")
		var details extract.TradeDetails
		if raw := c.String("details"); raw != "" {
			var err error
			if details, err = extract.Parse([]byte(raw)); err != nil {
				return fmt.Errorf("parse --details: %w", err)
			}
		}
		if strings.TrimSpace(message) == "" && details == (extract.TradeDetails{}) {
			return fmt.Errorf("%w: farmer message or --details", core.ErrMissingInput)
		}

		return withTradeRuntime(c, c.Bool("extract"), func(rt *tradeRuntime) (any, error) {
			return rt.setup.Run(c.Context, trade.SetupRequest{FarmerMessage: message, Details: details})
		})
	},
}

var commandTradeUpdate = &cli.Command{
	Name:      "update",
	Usage:     "set one existing field of a trade",
	ArgsUsage: "<trade id> <field> <value>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return fmt.Errorf("%w: trade id, field to update, or new value", core.ErrMissingInput)
		}
		return withTradeRuntime(c, false, func(rt *tradeRuntime) (any, error) {
			return rt.service.UpdateField(c.Context, c.Args().Get(0), c.Args().Get(1), parseValue(c.Args().Get(2)))
		})
	},
}

var commandTradeQuery = &cli.Command{
	Name:  "query",
	Usage: "list trades with a canned query",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "type", Value: string(trade.QueryAllTrades), Usage: "PENDING_PAYMENTS, COMPLETED_TRADES, SPECIFIC_TRADE_INFO or ALL_TRADES"},
		&cli.StringFlag{Name: "farmer", Usage: "farmer id, defaults to the configured farmer"},
		&cli.StringFlag{Name: "trade", Usage: "trade id for SPECIFIC_TRADE_INFO"},
	},
	Action: func(c *cli.Context) error {
		return withTradeRuntime(c, false, func(rt *tradeRuntime) (any, error) {
			recs, err := rt.service.QueryByType(c.Context, trade.QueryRequest{
				Type:     trade.QueryType(strings.ToUpper(c.String("type"))),
				FarmerID: c.String("farmer"),
				TradeID:  c.String("trade"),
			})
			if err != nil {
				return nil, err
			}
			out := make([]map[string]any, 0, len(recs))
			for _, r := range recs {
				out = append(out, r.Flatten())
			}
			return out, nil
		})
	},
}

func withTradeRuntime(c *cli.Context, useModel bool, fn func(rt *tradeRuntime) (any, error)) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, "trade")
	if err != nil {
		return err
	}
	defer closeLog()

	rt, err := newTradeRuntime(cfg, logger, useModel)
	if err != nil {
		return err
	}
	defer rt.close()

	out, err := fn(rt)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseValue reads a CLI value as JSON when it is a number, bool, null,
// object or array, and as a string otherwise.
func parseValue(s string) any {
	if _, err := strconv.ParseFloat(s, 64); err == nil || s == "true" || s == "false" || s == "null" ||
		strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		var v any
		if json.Unmarshal([]byte(s), &v) == nil {
			return v
		}
	}
	return s
}
