package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceUserStore is the user-repository slice presence needs.
type PresenceUserStore interface {
	SetPresence(ctx context.Context, id string, online bool) error
	TouchLastSeen(ctx context.Context, id string) error
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// PresenceService tracks who is online. Redis keys with a TTL carry the
// fast-moving signal; the users table keeps the durable is_online flag that
// list queries join against.
type PresenceService struct {
	client  redis.Cmdable
	users   PresenceUserStore
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

func NewPresenceService(client redis.Cmdable, users PresenceUserStore, prefix string, ttl, timeout time.Duration) *PresenceService {
	if prefix == "" {
		prefix = "presence:"
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &PresenceService{client: client, users: users, prefix: prefix, ttl: ttl, timeout: timeout}
}

func (s *PresenceService) key(userID string) string { return s.prefix + userID }

// Heartbeat refreshes the caller's presence key and last_seen stamp.
func (s *PresenceService) Heartbeat(ctx context.Context, userID string) error {
	if err := s.client.Set(ctx, s.key(userID), "1", s.ttl).Err(); err != nil {
		return err
	}
	return s.users.TouchLastSeen(ctx, userID)
}

// IsOnline checks the fast Redis signal.
func (s *PresenceService) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SweepStale flips is_online off for users whose last_seen fell behind the
// timeout. The presence job calls this on a schedule.
func (s *PresenceService) SweepStale(ctx context.Context) (int64, error) {
	return s.users.MarkStaleOffline(ctx, time.Now().Add(-s.timeout))
}
