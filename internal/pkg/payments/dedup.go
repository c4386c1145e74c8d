package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MarcoHuebner/TicketPilot/internal/pkg/cache"
)

// DedupTTL bounds ledger storage. Providers do not meaningfully resend a
// delivery after 24 hours, so expiry never enables legitimate reprocessing.
const DedupTTL = 24 * time.Hour

const dedupKeyPrefix = "webhook:dedup:"

// DedupLedger is the idempotency marker store for webhook redelivery. It is
// shared, externally-owned state: background workers in separate processes
// consult the same ledger. It does not guard the webhook-vs-browser race;
// the conditional order update does that.
type DedupLedger interface {
	// Seen reports whether the (event type, provider entity id) pair was
	// already handled.
	Seen(ctx context.Context, eventType, entityID string) (bool, error)
	// Mark records the pair as handled. Called only after the handler
	// transaction commits, so a crash mid-transaction leads to safe
	// reprocessing instead of a lost update.
	Mark(ctx context.Context, eventType, entityID string) error
}

type redisLedger struct {
	client *redis.Client
}

// NewRedisLedger returns the production ledger backed by the shared cache.
func NewRedisLedger() DedupLedger {
	return &redisLedger{client: cache.GetClient()}
}

func dedupKey(eventType, entityID string) string {
	return fmt.Sprintf("%s%s:%s", dedupKeyPrefix, eventType, entityID)
}

func (l *redisLedger) Seen(ctx context.Context, eventType, entityID string) (bool, error) {
	n, err := l.client.Exists(ctx, dedupKey(eventType, entityID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *redisLedger) Mark(ctx context.Context, eventType, entityID string) error {
	// SETNX keeps the TTL clock of the first marking; a concurrent worker
	// re-marking the pair must not extend the window.
	return l.client.SetNX(ctx, dedupKey(eventType, entityID), "1", DedupTTL).Err()
}
