package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryLimit is the number of messages kept per conversation.
const HistoryLimit = 20

// HistoryStore keeps the recent chat messages of each user.
type HistoryStore interface {
	Load(ctx context.Context, userID int64) ([]Message, error)
	Append(ctx context.Context, userID int64, msgs ...Message) error
	Clear(ctx context.Context, userID int64) error
}

// MemoryHistory keeps conversations in process memory.
type MemoryHistory struct {
	mu    sync.Mutex
	convs map[int64][]Message
}

// NewMemoryHistory returns an empty in-memory store.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{convs: make(map[int64][]Message)}
}

// Load implements HistoryStore.
func (h *MemoryHistory) Load(_ context.Context, userID int64) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.convs[userID]...), nil
}

// Append implements HistoryStore.
func (h *MemoryHistory) Append(_ context.Context, userID int64, msgs ...Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	conv := append(h.convs[userID], msgs...)
	if len(conv) > HistoryLimit {
		conv = append([]Message(nil), conv[len(conv)-HistoryLimit:]...)
	}
	h.convs[userID] = conv
	return nil
}

// Clear implements HistoryStore.
func (h *MemoryHistory) Clear(_ context.Context, userID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.convs, userID)
	return nil
}

// RedisHistory keeps conversations in Redis lists that expire after TTL.
type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisHistory returns a Redis backed store.
func NewRedisHistory(client *redis.Client, ttl time.Duration) *RedisHistory {
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisHistory{client: client, ttl: ttl}
}

func historyKey(userID int64) string {
	return fmt.Sprintf("ifrit:chat:%d", userID)
}

// Load implements HistoryStore.
func (h *RedisHistory) Load(ctx context.Context, userID int64) ([]Message, error) {
	raw, err := h.client.LRange(ctx, historyKey(userID), -HistoryLimit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	msgs := make([]Message, 0, len(raw))
	for _, s := range raw {
		var m Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Append implements HistoryStore.
func (h *RedisHistory) Append(ctx context.Context, userID int64, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, len(msgs))
	for i, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding chat message: %w", err)
		}
		values[i] = data
	}

	key := historyKey(userID)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -HistoryLimit, -1)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving chat history: %w", err)
	}
	return nil
}

// Clear implements HistoryStore.
func (h *RedisHistory) Clear(ctx context.Context, userID int64) error {
	if err := h.client.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("clearing chat history: %w", err)
	}
	return nil
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}
