package core

import "context"

// PublishResult confirms a best-effort publish.
type PublishResult struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Topic     string `json:"topic_id"`
}

// NotificationChannel publishes payloads to a named topic.
type NotificationChannel interface {
	Publish(ctx context.Context, topic string, payload any) (PublishResult, error)
}
