package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_CannedResponse(t *testing.T) {
	m := NewMockModel("mock")
	m.AddResponse("price of onions?", "2400 INR")

	out, err := Complete(context.Background(), m, Request{
		Instructions: "be brief",
		Messages:     []Message{UserMessage("price of onions?")},
	})
	require.NoError(t, err)
	assert.Equal(t, "2400 INR", out)
	require.Len(t, m.Requests(), 1)
	assert.Equal(t, "be brief", m.Requests()[0].Instructions)
}

func TestComplete_Streaming(t *testing.T) {
	m := NewMockModel("mock")
	m.AddResponse("hi", "hello")

	out, err := Complete(context.Background(), m, Request{Messages: []Message{UserMessage("hi")}, Stream: true})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestComplete_FallbackError(t *testing.T) {
	m := NewMockModel("mock")
	m.SetFallback(func(Request) (string, error) { return "", errors.New("quota exceeded") })

	_, err := Complete(context.Background(), m, Request{Messages: []Message{UserMessage("x")}})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestComplete_EmptyText(t *testing.T) {
	m := NewMockModel("mock")
	m.AddResponse("x", "   ")

	_, err := Complete(context.Background(), m, Request{Messages: []Message{UserMessage("x")}})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestComplete_NoMessages(t *testing.T) {
	_, err := Complete(context.Background(), NewMockModel("mock"), Request{})
	assert.Error(t, err)
}
