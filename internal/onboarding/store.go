package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoDraft is returned by Load when the user has no saved draft.
var ErrNoDraft = errors.New("no onboarding draft")

// DraftStore keeps in-progress drafts between requests.
type DraftStore interface {
	Load(ctx context.Context, userID string) (Draft, error)
	Save(ctx context.Context, d Draft) error
	Clear(ctx context.Context, userID string) error
}

/* ─── Memory ──────────────────────────────────────────────────────────── */

type MemoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

func NewMemoryDrafts() *MemoryDrafts {
	return &MemoryDrafts{drafts: make(map[string]Draft)}
}

func (m *MemoryDrafts) Load(_ context.Context, userID string) (Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[userID]
	if !ok {
		return Draft{}, ErrNoDraft
	}
	return d, nil
}

func (m *MemoryDrafts) Save(_ context.Context, d Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.UserID] = d
	return nil
}

func (m *MemoryDrafts) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
	return nil
}

/* ─── Redis ───────────────────────────────────────────────────────────── */

// RedisDrafts stores each draft as a JSON value that expires after ttl of
// inactivity.
type RedisDrafts struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDrafts(client *redis.Client, ttl time.Duration) *RedisDrafts {
	return &RedisDrafts{client: client, ttl: ttl}
}

func draftKey(userID string) string { return "onboarding:draft:" + userID }

func (r *RedisDrafts) Load(ctx context.Context, userID string) (Draft, error) {
	raw, err := r.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, ErrNoDraft
	}
	if err != nil {
		return Draft{}, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

func (r *RedisDrafts) Save(ctx context.Context, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.client.Set(ctx, draftKey(d.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (r *RedisDrafts) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

// NewRedisClient builds a client from connection settings.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
