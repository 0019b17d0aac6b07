package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// SaveRefreshToken stores a refresh token keyed by its value, expiring
// with the token itself.
func (r *Redis) SaveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return r.Client.Set(ctx, "events:refresh:"+token, userID, ttl).Err()
}

// RefreshTokenUser resolves a refresh token back to its user, empty when
// unknown or expired.
func (r *Redis) RefreshTokenUser(ctx context.Context, token string) (string, error) {
	val, err := r.Client.Get(ctx, "events:refresh:"+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
