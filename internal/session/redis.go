// Package session persists per-conversation state between chat turns.
package session

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/partpilot/server/internal/agent/model"
	errx "github.com/partpilot/server/internal/core/error"
	logx "github.com/partpilot/server/pkg/logger"
)

// RedisStore keeps each conversation as a single JSON blob with a rolling
// TTL, so idle conversations expire on their own.
type RedisStore struct {
	rdb redis.Cmdable
	cfg model.SessionConfig
}

func NewRedisStore(rdb redis.Cmdable, cfg model.SessionConfig) *RedisStore {
	return &RedisStore{rdb: rdb, cfg: cfg}
}

func (r *RedisStore) conversationKey(conversationID string) string {
	return fmt.Sprintf("%s:%s", r.cfg.KeyPrefix, conversationID)
}

// Load fetches the stored state. An unknown conversation is (nil, nil).
func (r *RedisStore) Load(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	key := r.conversationKey(conversationID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation state from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.ConversationState
	if err := sonic.Unmarshal(raw, &state); err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to unmarshal conversation state")
		return nil, fmt.Errorf("unmarshal conversation state: %w", err)
	}
	return &state, nil
}

// Save stores the state and resets the TTL.
func (r *RedisStore) Save(ctx context.Context, state *model.ConversationState) error {
	b, err := sonic.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("conversationID", state.ConversationID).Msg("failed to marshal conversation state")
		return fmt.Errorf("marshal conversation state: %w", err)
	}
	key := r.conversationKey(state.ConversationID)

	if err := r.rdb.Set(ctx, key, b, r.cfg.TTL).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save conversation state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// Delete removes a conversation.
func (r *RedisStore) Delete(ctx context.Context, conversationID string) error {
	key := r.conversationKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// Ping verifies the store is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionStore = (*RedisStore)(nil)
