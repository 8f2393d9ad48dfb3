// Package lotsize memoizes contract lot sizes for the lifetime of the panel.
//
// Lot sizes are exchange-fixed for a contract's lifetime, so entries are
// populated lazily and never invalidated within a session.
package lotsize

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"openalgo-scalper/internal/chain"
	"openalgo-scalper/internal/models"
)

// SymbolAPI is the slice of the trading API the cache needs.
type SymbolAPI interface {
	LotSize(ctx context.Context, symbol string, exchange models.Exchange) (int, error)
}

// Cache memoizes lot sizes keyed by underlying:expiry for options and by
// symbol:exchange for everything else.
type Cache struct {
	api    SymbolAPI
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[string]int
}

// NewCache creates an empty lot size cache.
func NewCache(api SymbolAPI, logger zerolog.Logger) *Cache {
	return &Cache{
		api:     api,
		logger:  logger,
		entries: make(map[string]int),
	}
}

// key derives the cache key for a symbol. Options share a lot size across
// all strikes of one underlying+expiry, so they share a cache entry.
func key(symbol string, exchange models.Exchange) string {
	if parsed, ok := chain.ParseOptionSymbol(symbol); ok && parsed.IsOption {
		return parsed.Underlying + ":" + parsed.Expiry
	}
	return symbol + ":" + string(exchange)
}

// Get returns the lot size for a symbol, fetching and caching it on a miss.
// A failed fetch returns 1 without caching so a later call can retry.
func (c *Cache) Get(ctx context.Context, symbol string, exchange models.Exchange) int {
	k := key(symbol, exchange)

	c.mu.Lock()
	if v, ok := c.entries[k]; ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	lotSize, err := c.api.LotSize(ctx, symbol, exchange)
	if err != nil || lotSize <= 0 {
		c.logger.Warn().Str("symbol", symbol).Err(err).Msg("Lot size lookup failed, using 1")
		return 1
	}

	c.mu.Lock()
	c.entries[k] = lotSize
	c.mu.Unlock()
	return lotSize
}

// Cached returns the cached lot size for a symbol without fetching,
// or fallback when absent.
func (c *Cache) Cached(symbol string, exchange models.Exchange, fallback int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key(symbol, exchange)]; ok {
		return v
	}
	if fallback > 0 {
		return fallback
	}
	return 1
}

// Put seeds the cache, used when a symbol resolution already carried the
// lot size so a later /symbol lookup is unnecessary.
func (c *Cache) Put(symbol string, exchange models.Exchange, lotSize int) {
	if lotSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key(symbol, exchange)] = lotSize
}

// Warm prefetches lot sizes for every unique key among the given orders.
// Misses are fetched concurrently; keys already cached are skipped.
func (c *Cache) Warm(ctx context.Context, orders []models.Order) {
	type target struct {
		symbol   string
		exchange models.Exchange
	}

	c.mu.Lock()
	missing := make(map[string]target)
	for _, o := range orders {
		k := key(o.Symbol, o.Exchange)
		if _, ok := c.entries[k]; ok {
			continue
		}
		if _, queued := missing[k]; !queued {
			missing[k] = target{symbol: o.Symbol, exchange: o.Exchange}
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, t := range missing {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			c.Get(ctx, t.symbol, t.exchange)
		}(t)
	}
	wg.Wait()
}
