package orchestrator

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agriconnect/a2a"
	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/model"
)

var buyerCard = core.AgentDescriptor{
	Name:        "smart_buyer_matching_agent",
	Description: "Identifies potential buyers for the farmer's produce.",
	Skills:      []core.Skill{{Description: "buyer matching"}, {Description: "term negotiation"}},
}

func TestSpecialist_DefaultInstructions(t *testing.T) {
	m := model.NewMockModel("m")
	m.AddResponse("who buys onions?", "AgroMart buys onions.")
	s, err := NewSpecialist(buyerCard, m)
	require.NoError(t, err)

	srv := httptest.NewServer(a2a.NewServer(buyerCard, s))
	defer srv.Close()

	out := a2a.NewClient().Invoke(context.Background(), core.AgentDescriptor{Name: buyerCard.Name, Endpoint: srv.URL}, "who buys onions?")
	assert.Equal(t, "AgroMart buys onions.", out)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "smart_buyer_matching_agent")
	assert.Contains(t, reqs[0].Instructions, "- term negotiation")
}

func TestSpecialist_CustomInstructions(t *testing.T) {
	m := model.NewMockModel("m")
	s, err := NewSpecialist(buyerCard, m, func(o *SpecialistOptions) {
		o.Instructions = "Match buyers as {{.Name}}."
	})
	require.NoError(t, err)

	_, err = NewSpecialist(buyerCard, m, func(o *SpecialistOptions) { o.Instructions = "{{.Nope" })
	assert.Error(t, err)

	srv := httptest.NewServer(a2a.NewServer(buyerCard, s))
	defer srv.Close()
	a2a.NewClient().Invoke(context.Background(), core.AgentDescriptor{Endpoint: srv.URL}, "hi")
	assert.Equal(t, "Match buyers as smart_buyer_matching_agent.", m.Requests()[0].Instructions)
}

func TestSpecialist_StreamsPartials(t *testing.T) {
	m := model.NewMockModel("m")
	m.AddResponse("price?", "ok")
	s, err := NewSpecialist(buyerCard, m, func(o *SpecialistOptions) { o.Stream = true })
	require.NoError(t, err)

	srv := httptest.NewServer(a2a.NewServer(buyerCard, s))
	defer srv.Close()

	var states []a2a.TaskState
	final, err := a2a.NewClient().Stream(context.Background(), core.AgentDescriptor{Endpoint: srv.URL}, "price?", func(ev *a2a.TaskStatusUpdateEvent) error {
		states = append(states, ev.Status.State)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", final)
	assert.Equal(t, []a2a.TaskState{a2a.TaskStateWorking, a2a.TaskStateWorking, a2a.TaskStateWorking, a2a.TaskStateCompleted}, states)
}

func TestSpecialist_ModelFailure(t *testing.T) {
	m := model.NewMockModel("m")
	m.SetFallback(func(model.Request) (string, error) { return "", errors.New("quota exceeded") })
	s, err := NewSpecialist(buyerCard, m)
	require.NoError(t, err)

	srv := httptest.NewServer(a2a.NewServer(buyerCard, s))
	defer srv.Close()

	out := a2a.NewClient().Invoke(context.Background(), core.AgentDescriptor{Endpoint: srv.URL}, "hi")
	assert.Contains(t, out, "quota exceeded")
}
