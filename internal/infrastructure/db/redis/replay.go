package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayTTL = time.Hour

// ReplayGuard provides Idempotency-Key replay detection for mutating
// terminal requests, backed by Redis.
// Key format: replay:<card_number>:<operation>:<idempotency_key>
type ReplayGuard struct {
	client *redis.Client
}

// NewReplayGuard creates a ReplayGuard wrapping the given Redis client.
func NewReplayGuard(client *redis.Client) *ReplayGuard {
	return &ReplayGuard{client: client}
}

// Seen reports whether a request with this idempotency key was already
// accepted for the card and operation.
func (g *ReplayGuard) Seen(ctx context.Context, cardNumber, operation, key string) (bool, error) {
	n, err := g.client.Exists(ctx, g.key(cardNumber, operation, key)).Result()
	if err != nil {
		return false, fmt.Errorf("replay check: %w", err)
	}
	return n > 0, nil
}

// Mark records that the request was accepted (expires after replayTTL).
func (g *ReplayGuard) Mark(ctx context.Context, cardNumber, operation, key string) error {
	return g.client.Set(ctx, g.key(cardNumber, operation, key), "1", replayTTL).Err()
}

func (g *ReplayGuard) key(cardNumber, operation, key string) string {
	return fmt.Sprintf("replay:%s:%s:%s", cardNumber, operation, key)
}
