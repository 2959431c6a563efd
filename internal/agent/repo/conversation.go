package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/synapse-ia/salesagent/internal/agent/model"
	errx "github.com/synapse-ia/salesagent/internal/core/error"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// MaxStoredMessages caps each transcript; older turns are dropped on append.
const MaxStoredMessages = 200

const conversationKeyPrefix = "whatsapp:conversation:"

// storedTurn is the persisted form of one chat turn. Only text turns are kept;
// tool round trips live in graph state for a single run.
type storedTurn struct {
	Role    schema.RoleType `json:"role"`
	Content string          `json:"content"`
	At      time.Time       `json:"at"`
}

func (t storedTurn) message() *schema.Message {
	return &schema.Message{Role: t.Role, Content: t.Content}
}

// RedisConversationRepository stores each transcript as a capped Redis list
// whose TTL is refreshed on every append.
type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

func conversationKey(conversationID string) string {
	return conversationKeyPrefix + conversationID
}

func (r *RedisConversationRepository) AddMessage(ctx context.Context, conversationID string, message *schema.Message) error {
	if message == nil {
		return errors.New("message is nil")
	}
	b, err := json.Marshal(storedTurn{Role: message.Role, Content: message.Content, At: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := conversationKey(conversationID)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, b)
		pipe.LTrim(ctx, key, -MaxStoredMessages, -1)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("Failed to append conversation turn")
		return errx.WrapRedis(err)
	}
	return nil
}

// LoadHistory returns the stored turns oldest first. Entries that no longer
// decode are skipped so one bad write does not end the conversation.
func (r *RedisConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	key := conversationKey(conversationID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("Failed to load conversation")
		return nil, errx.WrapRedis(err)
	}

	history := &model.ConversationHistory{
		ConversationID: conversationID,
		Messages:       make([]*schema.Message, 0, len(rows)),
	}
	for i, row := range rows {
		var turn storedTurn
		if err := json.Unmarshal([]byte(row), &turn); err != nil || turn.Role == "" {
			logx.Warn().Err(err).Str("key", key).Int("index", i).Msg("Skipping undecodable conversation turn")
			continue
		}
		history.Messages = append(history.Messages, turn.message())
	}
	return history, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	if err := r.rdb.Del(ctx, conversationKey(conversationID)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	n, err := r.rdb.LLen(ctx, conversationKey(conversationID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
