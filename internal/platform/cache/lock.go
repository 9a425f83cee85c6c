package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder lease on a Redis key.
type Lock struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewLock constructs a Lock whose leases expire after ttl.
func NewLock(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Lock {
	if ttl <= 0 {
		ttl = 6 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lock{client: client, ttl: ttl, logger: logger}
}

// Acquire takes key if it is free. The returned release func is safe to
// call once the lease has already expired.
func (l *Lock) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("platform/cache: lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("release lock", slog.String("key", key), slog.Any("error", err))
		}
	}
	return release, true, nil
}
