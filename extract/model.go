package extract

import (
	"context"
	"strings"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/internal/util"
	"github.com/hupe1980/agriconnect/logging"
	"github.com/hupe1980/agriconnect/model"
)

const extractInstructions = `You extract trade details from a farmer's message.
Reply with a single JSON object using only these keys, following this JSON schema:
{{ json .Schema }}
Omit any key whose value the message does not state. Do not guess.`

// ModelOptions configures a ModelExtractor.
type ModelOptions struct {
	Logger logging.Logger
}

// ModelExtractor asks an LLM for the absent fields. Extraction is best
// effort: model or decoding failures are logged and the explicit details
// are returned unchanged.
type ModelExtractor struct {
	*core.LoggerAdapter
	model        model.Model
	instructions string
}

// NewModelExtractor creates a ModelExtractor backed by m.
func NewModelExtractor(m model.Model, optFns ...func(o *ModelOptions)) *ModelExtractor {
	opts := ModelOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelExtractor{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		model:         m,
		instructions:  util.MustTemplate(extractInstructions, map[string]any{"Schema": util.CreateSchema(TradeDetails{})}),
	}
}

// Extract implements Extractor.
func (e *ModelExtractor) Extract(ctx context.Context, message string, explicit TradeDetails) (TradeDetails, error) {
	if strings.TrimSpace(message) == "" {
		return explicit, nil
	}
	out, err := model.Complete(ctx, e.model, model.Request{
		Instructions: e.instructions,
		Messages:     []model.Message{model.UserMessage(message)},
	})
	if err != nil {
		if ctx.Err() != nil {
			return explicit, ctx.Err()
		}
		e.LogWarn("Trade detail extraction failed", "error", err)
		return explicit, nil
	}

	var raw map[string]any
	if err := util.DecodeJSONObject(out, &raw); err != nil {
		e.LogWarn("Trade detail extraction returned no JSON", "error", err)
		return explicit, nil
	}
	return explicit.Fill(FromMap(raw)), nil
}
