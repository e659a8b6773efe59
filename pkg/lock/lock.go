package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// =====================================================
// PER-ORDER EXCLUSIVE LOCK
// =====================================================
// Redis SET NX lease keyed by order ID. The refund engine holds the
// lock for the whole operation, including the gateway call; the TTL
// must therefore stay above the gateway client timeout.

// ErrNotAcquired means another holder owns the lock.
var ErrNotAcquired = fmt.Errorf("lock not acquired")

// OrderLocker serializes refund-affecting operations per order.
type OrderLocker interface {
	// Acquire takes the order lock and returns a release function.
	// Returns ErrNotAcquired when the order is busy.
	Acquire(ctx context.Context, orderID uuid.UUID) (func(), error)
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// releaseScript deletes the key only when the caller still owns it, so
// a lease that expired and was re-acquired elsewhere is never released
// by the old holder.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

func NewRedisOrderLocker(client *redis.Client, ttl time.Duration) OrderLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Acquire(ctx context.Context, orderID uuid.UUID) (func(), error) {
	key := "refund:lock:order:" + orderID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire order lock: %w", err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	release := func() {
		// Best effort; the TTL collects the lease if this fails.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}

	return release, nil
}
