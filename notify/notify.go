// Package notify holds the topic names and payload encoding shared by the
// core.NotificationChannel implementations in its subpackages.
package notify

import (
	"encoding/json"
	"fmt"
)

// DefaultTopic is the topic trade workflow notifications are published to.
const DefaultTopic = "trade-notifications"

// StatusSuccess is the PublishResult status of a confirmed publish.
const StatusSuccess = "success"

// Encode marshals a payload for the wire. Raw bytes and strings pass through.
func Encode(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case json.RawMessage:
		return v, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return data, nil
}
