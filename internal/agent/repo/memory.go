package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/synapse-ia/salesagent/internal/agent/model"
)

type memoryConversation struct {
	messages  []*schema.Message
	expiresAt time.Time
}

// MemoryConversationRepository keeps transcripts in process memory. It is used
// when no Redis URL is configured and in tests.
type MemoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*memoryConversation
	ttl           time.Duration
	now           func() time.Time
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		conversations: make(map[string]*memoryConversation),
		ttl:           ttl,
		now:           time.Now,
	}
}

// live returns the conversation if present and not expired. Callers hold mu.
func (r *MemoryConversationRepository) live(conversationID string) (*memoryConversation, bool) {
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, false
	}
	if r.ttl > 0 && r.now().After(c.expiresAt) {
		return nil, false
	}
	return c, true
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	if message == nil {
		return errors.New("message is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.live(conversationID)
	if !ok {
		c = &memoryConversation{}
		r.conversations[conversationID] = c
	}
	c.messages = append(c.messages, message)
	if over := len(c.messages) - MaxStoredMessages; over > 0 {
		c.messages = append([]*schema.Message(nil), c.messages[over:]...)
	}
	if r.ttl > 0 {
		c.expiresAt = r.now().Add(r.ttl)
	}
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h := &model.ConversationHistory{ConversationID: conversationID, Messages: []*schema.Message{}}
	if c, ok := r.live(conversationID); ok {
		h.Messages = append(h.Messages, c.messages...)
	}
	return h, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.live(conversationID); ok {
		return len(c.messages), nil
	}
	return 0, nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
