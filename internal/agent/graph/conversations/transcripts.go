package conversations

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/synapse-ia/salesagent/internal/agent/model"
)

const defaultWindow = 20

// Transcripts records lead and agent turns and builds the message window the
// response model is prompted with.
type Transcripts struct {
	repo   model.ConversationRepository
	window int
}

func NewTranscripts(repo model.ConversationRepository, cfg model.ConversationConfig) *Transcripts {
	window := cfg.MaxTurns
	if window <= 0 {
		window = defaultWindow
	}
	return &Transcripts{repo: repo, window: window}
}

// RecordLead appends an inbound message from the lead.
func (t *Transcripts) RecordLead(ctx context.Context, conversationID, text string) error {
	if strings.TrimSpace(conversationID) == "" {
		return errors.New("conversation id is empty")
	}
	return t.repo.AddMessage(ctx, conversationID, schema.UserMessage(text))
}

// RecordReply appends the agent's answer.
func (t *Transcripts) RecordReply(ctx context.Context, conversationID, text string) error {
	return t.repo.AddMessage(ctx, conversationID, schema.AssistantMessage(text, nil))
}

// Window returns the system prompt followed by the last text turns of the
// conversation. Tool traffic and blank turns are left out.
func (t *Transcripts) Window(ctx context.Context, conversationID, systemPrompt string) ([]*schema.Message, error) {
	history, err := t.repo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	out := []*schema.Message{schema.SystemMessage(systemPrompt)}
	for _, m := range history.Tail(t.window) {
		if isTextTurn(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func isTextTurn(m *schema.Message) bool {
	if m == nil || strings.TrimSpace(m.Content) == "" {
		return false
	}
	return m.Role == schema.User || m.Role == schema.Assistant
}
