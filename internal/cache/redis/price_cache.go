package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// priceTTL bounds staleness for events nobody touches anymore; any
// stake-affecting operation rewrites the hash long before it expires.
const priceTTL = 24 * time.Hour

// PriceCache implements domain.PriceCache using one Redis hash per event:
// key "prices:{eventID}", one field per outcome name holding the latest
// probability, plus a "ts" field with the snapshot time in Unix nanoseconds.
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func priceKey(eventID string) string {
	return "prices:" + eventID
}

// SetPrices replaces the cached per-outcome prices for an event. The hash
// is rewritten wholesale so a shrunken outcome set can never leave stale
// fields behind.
func (pc *PriceCache) SetPrices(ctx context.Context, eventID string, prices map[string]float64, ts time.Time) error {
	key := priceKey(eventID)

	fields := make(map[string]interface{}, len(prices)+1)
	for outcome, price := range prices {
		fields[outcome] = strconv.FormatFloat(price, 'f', -1, 64)
	}
	fields["ts"] = strconv.FormatInt(ts.UnixNano(), 10)

	pipe := pc.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, priceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set prices %s: %w", eventID, err)
	}
	return nil
}

// GetPrices retrieves the cached per-outcome prices for an event. It
// returns domain.ErrNotFound when the event has no cached prices.
func (pc *PriceCache) GetPrices(ctx context.Context, eventID string) (map[string]float64, error) {
	vals, err := pc.rdb.HGetAll(ctx, priceKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get prices %s: %w", eventID, err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}

	prices := make(map[string]float64, len(vals))
	for outcome, raw := range vals {
		if outcome == "ts" {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: parse price %s/%s: %w", eventID, outcome, err)
		}
		prices[outcome] = price
	}
	return prices, nil
}

// Invalidate drops the cached prices for an event, forcing the next read
// to recompute from the stake pool.
func (pc *PriceCache) Invalidate(ctx context.Context, eventID string) error {
	if err := pc.rdb.Del(ctx, priceKey(eventID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate prices %s: %w", eventID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
