package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository persists the chat transcript replayed to the agent
// on every turn. WhatsApp sessions key it by the sender's number.
type ConversationRepository interface {
	// AddMessage appends one turn and refreshes the transcript's expiry.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error
	// LoadHistory returns the stored turns oldest first; unknown IDs yield an empty history.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)
	ClearHistory(ctx context.Context, conversationID string) error
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// Tail copies the last n messages, or all of them when n <= 0.
func (h *ConversationHistory) Tail(n int) []*schema.Message {
	if h == nil {
		return nil
	}
	start := 0
	if n > 0 && len(h.Messages) > n {
		start = len(h.Messages) - n
	}
	return append([]*schema.Message(nil), h.Messages[start:]...)
}
