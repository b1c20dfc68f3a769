// Package session keeps signed-in sessions in Redis, keyed by the hash of the
// session token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/promptboard/internal/auth"
	"github.com/heartmarshall/promptboard/internal/domain"
)

const keyPrefix = "session:"

// fallbackTTL applies when a record is saved with an expiry in the past.
const fallbackTTL = time.Minute

// record is the data stored per session.
type record struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store implements session storage using Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore connects to redisURL and checks the connection.
func NewStore(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client), nil
}

// NewStoreWithClient creates a store from an existing Redis client.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client, prefix: keyPrefix}
}

func (s *Store) key(tokenHash string) string {
	return s.prefix + tokenHash
}

// Save stores sess under tokenHash until sess.ExpiresAt.
func (s *Store) Save(ctx context.Context, tokenHash string, sess auth.Session) error {
	rec := record{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Role:      sess.Role.String(),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: sess.ExpiresAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		ttl = fallbackTTL
	}

	if err := s.client.Set(ctx, s.key(tokenHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Lookup returns the session stored under tokenHash. Missing or expired
// sessions wrap domain.ErrUnauthorized.
func (s *Store) Lookup(ctx context.Context, tokenHash string) (auth.Session, error) {
	raw, err := s.client.Get(ctx, s.key(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Session{}, fmt.Errorf("session not found or expired: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("lookup session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return auth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return auth.Session{
		ID:        rec.SessionID,
		UserID:    rec.UserID,
		Role:      domain.UserRole(rec.Role),
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Revoke deletes the session. Revoking an unknown session succeeds.
func (s *Store) Revoke(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
