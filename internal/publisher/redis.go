package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "quote:"
	channelPrefix = "quotes."
	snapshotTTL   = 48 * time.Hour
)

// Redis keeps the latest quote per symbol under quote:{SYMBOL} and announces
// it on the quotes.{SYMBOL} channel.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Publish(ctx context.Context, evt QuoteEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	symbol := evt.Observation.Symbol

	pipe := r.client.Pipeline()
	pipe.Set(ctx, keyPrefix+symbol, payload, snapshotTTL)
	pipe.Publish(ctx, channelPrefix+symbol, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline for %s: %w", symbol, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
