package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agriconnect/a2a"
	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/embedding"
	"github.com/hupe1980/agriconnect/gateway"
	"github.com/hupe1980/agriconnect/internal/testutil"
	"github.com/hupe1980/agriconnect/model"
	"github.com/hupe1980/agriconnect/registry"
)

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, task string) (core.AgentDescriptor, error) {
	args := m.Called(ctx, task)
	d, _ := args.Get(0).(core.AgentDescriptor)
	return d, args.Error(1)
}

type mockInvoker struct{ mock.Mock }

func (m *mockInvoker) Invoke(ctx context.Context, desc core.AgentDescriptor, task string) string {
	return m.Called(ctx, desc, task).String(0)
}

func TestDelegator_CallAgent(t *testing.T) {
	desc := core.AgentDescriptor{Name: "price_agent", Endpoint: "http://gw/invoke/?agent_name=price_agent"}
	r := &mockResolver{}
	r.On("Resolve", mock.Anything, "price of onions in Nashik").Return(desc, nil)
	inv := &mockInvoker{}
	inv.On("Invoke", mock.Anything, desc, "price of onions in Nashik").Return("Rs 2200 per quintal")

	out := NewDelegator(r, inv).CallAgent(context.Background(), "price of onions in Nashik")
	assert.Equal(t, "Rs 2200 per quintal", out)
	r.AssertExpectations(t)
	inv.AssertExpectations(t)
}

func TestDelegator_ResolutionFailures(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		want  string
		level string
	}{
		{"no agent", fmt.Errorf("%w: %w", core.ErrNoAgentFound, embedding.ErrEmptyIndex), "could not find an agent", "WARN"},
		{"discovery down", fmt.Errorf("%w: dial tcp: connection refused", registry.ErrDiscoveryUnavailable), "Connection Error", "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockResolver{}
			r.On("Resolve", mock.Anything, mock.Anything).Return(nil, tt.err)
			inv := &mockInvoker{}
			logger := &testutil.RecordingLogger{}

			out := NewDelegator(r, inv, func(o *DelegatorOptions) { o.Logger = logger }).CallAgent(context.Background(), "sell wheat")
			assert.Contains(t, out, tt.want)
			assert.Equal(t, 1, logger.Count(tt.level))
			inv.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDelegator_EmptyTask(t *testing.T) {
	r := &mockResolver{}
	out := NewDelegator(r, &mockInvoker{}).CallAgent(context.Background(), "   ")
	assert.Contains(t, out, "could not find an agent")
	r.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

// End to end: discovery resolves through the gateway to a model-backed specialist.
func TestDelegator_ThroughDiscoveryAndGateway(t *testing.T) {
	priceModel := model.NewMockModel("price")
	priceModel.SetFallback(func(model.Request) (string, error) { return "Onions trade at Rs 2200 per quintal.", nil })
	buyerModel := model.NewMockModel("buyer")
	buyerModel.SetFallback(func(model.Request) (string, error) { return "", errors.New("unreachable") })

	priceCard := core.AgentDescriptor{Name: "price_agent", Description: "Predicts crop price", Skills: []core.Skill{{Description: "price prediction"}}}
	buyerCard := core.AgentDescriptor{Name: "buyer_agent", Description: "Finds a buyer", Skills: []core.Skill{{Description: "buyer matching"}}}

	priceSpec, err := NewSpecialist(priceCard, priceModel)
	require.NoError(t, err)
	priceSrv := httptest.NewServer(a2a.NewServer(priceCard, priceSpec))
	defer priceSrv.Close()

	gw := httptest.NewServer(gateway.New(map[string]string{
		"price_agent": priceSrv.URL,
		"buyer_agent": "http://127.0.0.1:1",
	}))
	defer gw.Close()

	reg := registry.New(embedding.NewIndex(testutil.NewKeywordEmbedder("price", "buyer")), func(o *registry.Options) {
		o.ProxyBaseURL = gw.URL
	})
	_, err = reg.Load(context.Background(), registry.StaticSource{priceCard, buyerCard})
	require.NoError(t, err)
	disc := httptest.NewServer(registry.NewServer(reg, nil))
	defer disc.Close()

	logger := &testutil.RecordingLogger{}
	d := NewDelegator(registry.NewClient(disc.URL), a2a.NewClient(func(o *a2a.ClientOptions) { o.Logger = logger }))

	assert.Equal(t, "Onions trade at Rs 2200 per quintal.", d.CallAgent(context.Background(), "what price for onions?"))

	out := d.CallAgent(context.Background(), "find a buyer for my wheat")
	assert.Contains(t, out, "Connection Error")
	assert.Contains(t, out, "buyer_agent")
	assert.Equal(t, 1, logger.Count("ERROR"))
}
