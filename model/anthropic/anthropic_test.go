package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agriconnect/model"
)

func TestModel_Complete(t *testing.T) {
	systems := make(chan any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		systems <- body["system"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "Buyer: FreshFoods"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	client := anthropic.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"), option.WithMaxRetries(0))
	m := NewModelFromClient(&client)

	out, err := model.Complete(context.Background(), m, model.Request{
		Instructions: "Match buyers.",
		Messages:     []model.Message{model.UserMessage("who buys tomatoes?")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Buyer: FreshFoods", out)
	assert.NotNil(t, <-systems)
}

func TestModel_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	client := anthropic.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"), option.WithMaxRetries(0))
	_, err := model.Complete(context.Background(), NewModelFromClient(&client), model.Request{
		Messages: []model.Message{model.UserMessage("x")},
	})
	assert.ErrorContains(t, err, "anthropic api error")
}

func TestBuildMessages_SkipsEmptyTurns(t *testing.T) {
	msgs := buildMessages([]model.Message{
		model.UserMessage("a"),
		{Role: "assistant", Text: ""},
		{Role: "assistant", Text: "b"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
}
