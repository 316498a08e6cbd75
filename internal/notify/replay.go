package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DeliveryGuard remembers acknowledged deliveries so a retried task does not
// post the same event twice.
type DeliveryGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

func guardKey(endpointID, eventID uuid.UUID) string {
	return "wh:" + endpointID.String() + ":" + eventID.String()
}

// RedisGuard implements DeliveryGuard with SET NX.
type RedisGuard struct {
	R *redis.Client
}

// Acquire claims key for ttl. A nil client always succeeds.
func (g RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if g.R == nil {
		return true, nil
	}
	return g.R.SetNX(ctx, key, "1", ttl).Result()
}

// Release forgets key so the delivery can be attempted again.
func (g RedisGuard) Release(ctx context.Context, key string) error {
	if g.R == nil {
		return nil
	}
	return g.R.Del(ctx, key).Err()
}
