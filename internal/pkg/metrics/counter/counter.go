package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MarcoHuebner/TicketPilot/internal/pkg/cache"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/database"
)

const (
	webhooksReceivedKey    = "payments:counters:webhooks_received"
	dedupHitsKey           = "payments:counters:dedup_hits"
	transitionsRejectedKey = "payments:counters:transitions_rejected"
	handlerFailuresKey     = "payments:counters:handler_failures"
)

// AddWebhookReceived increments the pending webhook counter for a provider in Redis
func AddWebhookReceived(provider string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhooksReceivedKey, provider, 1).Err()
}

// AddDedupHit increments the pending dedup-hit counter for a provider in Redis
func AddDedupHit(provider string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, dedupHitsKey, provider, 1).Err()
}

// AddTransitionRejected increments the rejected-transition counter for a provider in Redis
func AddTransitionRejected(provider string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, transitionsRejectedKey, provider, 1).Err()
}

// AddHandlerFailure increments the handler-failure counter for a provider in Redis
func AddHandlerFailure(provider string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, handlerFailuresKey, provider, 1).Err()
}

// FlushAll flushes all pending counters to the provider_stats table
func FlushAll() error {
	if err := flushHashToColumn(webhooksReceivedKey, "webhooks_received"); err != nil {
		return err
	}
	if err := flushHashToColumn(dedupHitsKey, "dedup_hits"); err != nil {
		return err
	}
	if err := flushHashToColumn(transitionsRejectedKey, "transitions_rejected"); err != nil {
		return err
	}
	return flushHashToColumn(handlerFailuresKey, "handler_failures")
}

// flushHashToColumn drains a Redis hash atomically and applies the batched
// increments to provider_stats. Uses RENAME to a temporary key so in-flight
// increments are not lost during the drain.
func flushHashToColumn(redisKey, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If the key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Batched upsert per provider; column names come from the constant set
	// above, never from user input.
	sql := fmt.Sprintf(
		"INSERT INTO provider_stats (provider, %s, updated_at) VALUES (?, ?, NOW()) "+
			"ON DUPLICATE KEY UPDATE %s = %s + VALUES(%s), updated_at = NOW()",
		column, column, column, column,
	)
	for provider, raw := range data {
		inc, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || inc == 0 {
			continue
		}
		if err := db.Exec(sql, provider, inc).Error; err != nil {
			return err
		}
	}
	return nil
}
