// Package memory is an in-process core.NotificationChannel that records
// every publish, for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/notify"
)

// Message is one recorded publish.
type Message struct {
	ID    string
	Topic string
	Data  []byte
}

// Channel records published messages. Set Err to make Publish fail.
type Channel struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

// New creates an empty Channel.
func New() *Channel {
	return &Channel{}
}

// Publish implements core.NotificationChannel.
func (c *Channel) Publish(ctx context.Context, topic string, payload any) (core.PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return core.PublishResult{}, err
	}
	data, err := notify.Encode(payload)
	if err != nil {
		return core.PublishResult{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return core.PublishResult{}, c.Err
	}
	msg := Message{ID: uuid.NewString(), Topic: topic, Data: data}
	c.messages = append(c.messages, msg)
	return core.PublishResult{Status: notify.StatusSuccess, MessageID: msg.ID, Topic: topic}, nil
}

// Messages returns a copy of the recorded messages in publish order.
func (c *Channel) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}
