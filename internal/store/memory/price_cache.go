package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// PriceCache is an in-memory domain.PriceCache.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]map[string]float64
}

// NewPriceCache creates an empty PriceCache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]map[string]float64)}
}

func (c *PriceCache) SetPrices(ctx context.Context, eventID string, prices map[string]float64, ts time.Time) error {
	cp := make(map[string]float64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[eventID] = cp
	return nil
}

func (c *PriceCache) GetPrices(ctx context.Context, eventID string) (map[string]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prices, ok := c.prices[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := make(map[string]float64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return cp, nil
}

func (c *PriceCache) Invalidate(ctx context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.prices, eventID)
	return nil
}

var _ domain.PriceCache = (*PriceCache)(nil)
