package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/infra/security"
)

const defaultRevocationPrefix = "board:revoked"

// RevocationRepository is a RevocationStore shared by every instance through Redis.
// Keys expire on their own at the token's natural expiry, so Sweep has nothing to do.
type RevocationRepository struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewRevocationRepository wires a Redis client into a revocation repository.
func NewRevocationRepository(client *red.Client, keyPrefix string) *RevocationRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}

	return &RevocationRepository{client: client, prefix: prefix, now: time.Now}
}

// WithClock overrides the clock used to derive key TTLs.
func (r *RevocationRepository) WithClock(clock func() time.Time) *RevocationRepository {
	if clock != nil {
		r.now = clock
	}
	return r
}

// Revoke stores the token digest until expiresAt. A token already past its expiry
// is not stored: the codec rejects it as expired on its own.
func (r *RevocationRepository) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	key := r.key(token)
	if key == "" {
		return errors.New("token must not be empty")
	}

	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	if err := r.client.Set(ctx, key, expiresAt.UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token's digest key is present.
func (r *RevocationRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := r.key(token)
	if key == "" {
		return false, nil
	}

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked token: %w", err)
	}
	return n > 0, nil
}

// Sweep is a no-op; Redis expires keys itself.
func (r *RevocationRepository) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (r *RevocationRepository) key(token string) string {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.prefix, security.TokenDigest(trimmed))
}

var _ port.RevocationStore = (*RevocationRepository)(nil)
