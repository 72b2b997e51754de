package a2a

import (
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
)

// Protocol types used by callers that only import this package.
type (
	TaskState             = a2a.TaskState
	Message               = a2a.Message
	TaskStatus            = a2a.TaskStatus
	Task                  = a2a.Task
	TaskStatusUpdateEvent = a2a.TaskStatusUpdateEvent
	RequestContext        = a2asrv.RequestContext
)

const (
	TaskStateSubmitted = a2a.TaskStateSubmitted
	TaskStateWorking   = a2a.TaskStateWorking
	TaskStateCompleted = a2a.TaskStateCompleted
	TaskStateFailed    = a2a.TaskStateFailed
)

// NewUserMessage builds a user message with a fresh message id and context
// id. No conversation context is reused across calls.
func NewUserMessage(text string) *Message {
	msg := a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: text})
	msg.ContextID = a2a.NewContextID()
	return msg
}

// MessageText concatenates the text parts of m separated by newlines.
func MessageText(m *Message) string {
	if m == nil {
		return ""
	}
	var texts []string
	for _, p := range m.Parts {
		if t := partText(p); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n")
}

// UserInput returns the text of the incoming message.
func UserInput(reqCtx *RequestContext) string {
	if reqCtx == nil {
		return ""
	}
	return MessageText(reqCtx.Message)
}

// StatusText descends status.message.parts[0].text. ok is false when any
// level is absent or the text is empty.
func StatusText(status TaskStatus) (string, bool) {
	if status.Message == nil || len(status.Message.Parts) == 0 {
		return "", false
	}
	text := partText(status.Message.Parts[0])
	return text, text != ""
}

func partText(p a2a.Part) string {
	switch v := p.(type) {
	case a2a.TextPart:
		return v.Text
	case *a2a.TextPart:
		return v.Text
	}
	return ""
}
