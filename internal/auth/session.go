package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// Session is the server-side record behind an issued token pair. Destroying
// it invalidates every token that references it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps sessions in Redis with a sliding TTL.
type SessionStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewSessionStore(client redis.Cmdable, prefix string, ttl time.Duration) *SessionStore {
	if prefix == "" {
		prefix = "session:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *SessionStore) key(sessionID string) string { return s.prefix + sessionID }

// Create stores a new session and returns it.
func (s *SessionStore) Create(ctx context.Context, userID, role string) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, s.key(sess.ID), payload, s.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a live session and slides its TTL forward.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, err
	}
	// Best effort slide; a failed expire does not invalidate the session.
	_ = s.client.Expire(ctx, s.key(sessionID), s.ttl).Err()
	return &sess, nil
}

// Destroy removes the session. Missing keys are not an error.
func (s *SessionStore) Destroy(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
