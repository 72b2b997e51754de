package orchestrator

import (
	"context"
	"fmt"

	"github.com/hupe1980/agriconnect/a2a"
	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/internal/util"
	"github.com/hupe1980/agriconnect/logging"
	"github.com/hupe1980/agriconnect/model"
)

const defaultInstructions = `You are {{.Name}}, a specialist agent of the AgriConnect farmer assistant.
{{.Description}}
{{- range .Skills}}
- {{.Description}}
{{- end}}
Answer the farmer's request directly and concisely.`

// SpecialistOptions configures a Specialist.
type SpecialistOptions struct {
	// Instructions is a template rendered with the agent descriptor. Empty
	// means a prompt built from the descriptor alone.
	Instructions string
	// Stream forwards partial model output as working updates.
	Stream bool
	Logger logging.Logger
}

// Specialist answers A2A tasks with a language model.
type Specialist struct {
	*core.LoggerAdapter
	card         core.AgentDescriptor
	model        model.Model
	instructions string
	stream       bool
}

// NewSpecialist creates a Specialist serving card.
func NewSpecialist(card core.AgentDescriptor, m model.Model, optFns ...func(o *SpecialistOptions)) (*Specialist, error) {
	opts := SpecialistOptions{Instructions: defaultInstructions}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Instructions == "" {
		opts.Instructions = defaultInstructions
	}
	instructions, err := util.RenderTemplate(opts.Instructions, card)
	if err != nil {
		return nil, fmt.Errorf("render instructions for %s: %w", card.Name, err)
	}
	return &Specialist{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		card:          card,
		model:         m,
		instructions:  instructions,
		stream:        opts.Stream,
	}, nil
}

// Card returns the served descriptor.
func (s *Specialist) Card() core.AgentDescriptor { return s.card }

// Execute implements a2a.Executor.
func (s *Specialist) Execute(ctx context.Context, reqCtx *a2a.RequestContext, updater *a2a.TaskUpdater) error {
	query := a2a.UserInput(reqCtx)
	s.LogInfo("Executing task", "agent", s.card.Name, "task_id", reqCtx.TaskID, "query", preview(query, 100))

	if err := updater.UpdateStatus(ctx, a2a.TaskStateWorking, "Agent is processing..."); err != nil {
		return err
	}

	respCh, errCh := s.model.Generate(ctx, model.Request{
		Instructions: s.instructions,
		Messages:     []model.Message{model.UserMessage(query)},
		Stream:       s.stream,
	})

	var final string
	for resp := range respCh {
		if resp.Partial {
			if err := updater.UpdateStatus(ctx, a2a.TaskStateWorking, resp.Text); err != nil {
				return err
			}
			continue
		}
		final = resp.Text
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("%s generation failed: %w", s.card.Name, err)
	}

	s.LogInfo("Task completed", "agent", s.card.Name, "task_id", reqCtx.TaskID, "chars", len(final))
	return updater.Complete(ctx, final)
}
