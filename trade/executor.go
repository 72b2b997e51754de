package trade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agriconnect/a2a"
	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/extract"
	"github.com/hupe1980/agriconnect/internal/util"
	"github.com/hupe1980/agriconnect/logging"
	"github.com/hupe1980/agriconnect/model"
)

// Command actions accepted by the Executor.
const (
	ActionNewTrade    = "new_trade"
	ActionUpdateField = "update_field"
	ActionQuery       = "query"
)

// ErrUnknownCommand is returned for messages that map to no action.
var ErrUnknownCommand = errors.New("unknown trade command")

// Command is the structured request the trade coordinator acts on.
type Command struct {
	Action        string         `json:"action" description:"One of new_trade, update_field or query"`
	FarmerMessage *string        `json:"farmer_message,omitempty" description:"The farmer's original message"`
	Details       map[string]any `json:"extracted_details,omitempty" description:"Trade details stated in the message"`
	TradeID       *string        `json:"trade_id,omitempty" description:"Trade to update or look up"`
	Field         *string        `json:"field_to_update,omitempty" description:"Exact field name to modify"`
	NewValue      any            `json:"new_value,omitempty" description:"New value of the field"`
	QueryType     *string        `json:"query_type,omitempty" description:"PENDING_PAYMENTS, COMPLETED_TRADES, SPECIFIC_TRADE_INFO or ALL_TRADES"`
	FarmerID      *string        `json:"farmer_id,omitempty" description:"Farmer whose trades are queried"`
}

var commandSchema = func() map[string]any {
	s := util.CreateSchema(Command{})
	// new_value may hold any JSON type.
	props := s["properties"].(map[string]any)
	props["new_value"] = map[string]any{"description": "New value of the field"}
	return s
}()

const intentInstructions = `You route a farmer's trade request to an action.
Reply with a single JSON object following this JSON schema:
{{ json .Schema }}
Use new_trade when the farmer reports a sale, update_field when they change
one field of an existing trade, and query when they ask about their trades.`

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Intent resolves free text into a Command. Without it, free text starts
	// a new trade.
	Intent model.Model
	Logger logging.Logger
}

// Executor serves the trade coordinator over A2A.
type Executor struct {
	*core.LoggerAdapter
	setup        *SetupWorkflow
	service      *Service
	intent       model.Model
	instructions string
}

// NewExecutor creates an Executor.
func NewExecutor(setup *SetupWorkflow, service *Service, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		setup:         setup,
		service:       service,
		intent:        opts.Intent,
		instructions:  util.MustTemplate(intentInstructions, map[string]any{"Schema": commandSchema}),
	}
}

// Execute implements a2a.Executor.
func (e *Executor) Execute(ctx context.Context, reqCtx *a2a.RequestContext, updater *a2a.TaskUpdater) error {
	cmd, err := e.resolve(ctx, a2a.UserInput(reqCtx))
	if err != nil {
		return err
	}
	if err := updater.UpdateStatus(ctx, a2a.TaskStateWorking, fmt.Sprintf("Running %s...", cmd.Action)); err != nil {
		return err
	}

	out, err := e.Handle(ctx, cmd)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return updater.Complete(ctx, string(data))
}

// Handle runs a command and returns its JSON-ready result.
func (e *Executor) Handle(ctx context.Context, cmd Command) (any, error) {
	switch cmd.Action {
	case ActionNewTrade:
		return e.setup.Run(ctx, SetupRequest{
			FarmerMessage: deref(cmd.FarmerMessage),
			Details:       extract.FromMap(cmd.Details),
		})
	case ActionUpdateField:
		return e.service.UpdateField(ctx, deref(cmd.TradeID), deref(cmd.Field), cmd.NewValue)
	case ActionQuery:
		records, err := e.service.QueryByType(ctx, QueryRequest{
			Type:     QueryType(deref(cmd.QueryType)),
			FarmerID: deref(cmd.FarmerID),
			TradeID:  deref(cmd.TradeID),
		})
		if err != nil {
			return nil, err
		}
		data := make([]map[string]any, 0, len(records))
		for _, r := range records {
			data = append(data, r.Flatten())
		}
		return map[string]any{"status": "success", "data": data}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Action)
}

func (e *Executor) resolve(ctx context.Context, text string) (Command, error) {
	cmd, err := ParseCommand(text)
	if err == nil {
		return cmd, nil
	}
	if !errors.Is(err, util.ErrNoJSONObject) {
		return Command{}, err
	}

	if e.intent == nil {
		return Command{Action: ActionNewTrade, FarmerMessage: extract.String(text)}, nil
	}

	out, err := model.Complete(ctx, e.intent, model.Request{
		Instructions: e.instructions,
		Messages:     []model.Message{model.UserMessage(text)},
	})
	if err != nil {
		return Command{}, fmt.Errorf("resolve trade intent: %w", err)
	}
	cmd, err = ParseCommand(out)
	if err != nil {
		return Command{}, fmt.Errorf("resolve trade intent: %w", err)
	}
	if cmd.Action == ActionNewTrade && cmd.FarmerMessage == nil {
		cmd.FarmerMessage = extract.String(text)
	}
	e.LogDebug("Resolved trade intent", "action", cmd.Action)
	return cmd, nil
}

// ParseCommand decodes and validates a JSON command. Text holding no JSON
// object yields util.ErrNoJSONObject.
func ParseCommand(text string) (Command, error) {
	var raw map[string]any
	if err := util.DecodeJSONObject(text, &raw); err != nil {
		if errors.Is(err, util.ErrNoJSONObject) {
			return Command{}, err
		}
		return Command{}, fmt.Errorf("decode trade command: %w", err)
	}
	if err := util.ValidateParameters(raw, commandSchema); err != nil {
		return Command{}, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return Command{}, err
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode trade command: %w", err)
	}
	cmd.Action = strings.ToLower(strings.TrimSpace(cmd.Action))
	return cmd, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
