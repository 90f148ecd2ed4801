package assessment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL bounds how long an unfinished assessment survives. Re-armed on
// every write; sessions are advisory and not durable across restarts.
const SessionTTL = 30 * time.Minute

// ErrNotFound indicates no session exists for the credential.
var ErrNotFound = errors.New("assessment: session not found")

// Session is the per-user assessment progress.
type Session struct {
	Answers   []string  `json:"answers"`
	Step      int       `json:"step"`
	StartedAt time.Time `json:"started_at"`
}

// Store persists assessment sessions keyed by credential.
type Store interface {
	Get(ctx context.Context, credential string) (*Session, error)
	Put(ctx context.Context, credential string, session *Session) error
	Delete(ctx context.Context, credential string) error
}

// RedisStore is the Redis-backed Store. Keys carry the session TTL; Redis
// eviction bounds total entries.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore over the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// sessionKey hashes the credential so raw bearer tokens never appear in Redis.
func sessionKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return "assessment:session:" + hex.EncodeToString(sum[:16])
}

// Get retrieves the session for a credential, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, credential string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(credential)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to decode assessment session: %w", err)
	}
	return &session, nil
}

// Put stores the session and re-arms its TTL.
func (s *RedisStore) Put(ctx context.Context, credential string, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode assessment session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(credential), data, SessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to store assessment session: %w", err)
	}
	return nil
}

// Delete removes the session for a credential.
func (s *RedisStore) Delete(ctx context.Context, credential string) error {
	if err := s.client.Del(ctx, sessionKey(credential)).Err(); err != nil {
		return fmt.Errorf("failed to delete assessment session: %w", err)
	}
	return nil
}
