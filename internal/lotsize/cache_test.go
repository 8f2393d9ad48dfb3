package lotsize

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/models"
)

type fakeLotAPI struct {
	mu    sync.Mutex
	sizes map[string]int
	calls int
	err   error
}

func (f *fakeLotAPI) LotSize(ctx context.Context, symbol string, exchange models.Exchange) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.sizes[symbol], nil
}

func (f *fakeLotAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGetCachesPerUnderlyingExpiry(t *testing.T) {
	api := &fakeLotAPI{sizes: map[string]int{
		"NIFTY07AUG2524500CE": 75,
	}}
	c := NewCache(api, zerolog.Nop())

	if got := c.Get(context.Background(), "NIFTY07AUG2524500CE", models.NFO); got != 75 {
		t.Fatalf("lot size = %d, want 75", got)
	}

	// A different strike of the same underlying+expiry shares the entry.
	if got := c.Get(context.Background(), "NIFTY07AUG2524550CE", models.NFO); got != 75 {
		t.Errorf("sibling strike lot size = %d, want 75 from cache", got)
	}
	if api.callCount() != 1 {
		t.Errorf("api calls = %d, want 1 (second strike served from cache)", api.callCount())
	}
}

func TestGetNonOptionKeyedBySymbolExchange(t *testing.T) {
	api := &fakeLotAPI{sizes: map[string]int{"RELIANCE": 1}}
	c := NewCache(api, zerolog.Nop())

	c.Get(context.Background(), "RELIANCE", models.NSE)
	c.Get(context.Background(), "RELIANCE", models.BSE)

	if api.callCount() != 2 {
		t.Errorf("api calls = %d, want 2 (exchange is part of the key)", api.callCount())
	}
}

func TestGetFailureNotCached(t *testing.T) {
	api := &fakeLotAPI{err: apierrors.NewNetworkError("/symbol", context.DeadlineExceeded)}
	c := NewCache(api, zerolog.Nop())

	if got := c.Get(context.Background(), "NIFTY07AUG2524500CE", models.NFO); got != 1 {
		t.Errorf("failed lookup = %d, want fallback 1", got)
	}

	// Recovered server: the next call retries instead of serving the failure.
	api.mu.Lock()
	api.err = nil
	api.sizes = map[string]int{"NIFTY07AUG2524500CE": 75}
	api.mu.Unlock()

	if got := c.Get(context.Background(), "NIFTY07AUG2524500CE", models.NFO); got != 75 {
		t.Errorf("retry = %d, want 75", got)
	}
}

func TestCachedFallback(t *testing.T) {
	c := NewCache(&fakeLotAPI{}, zerolog.Nop())

	if got := c.Cached("NIFTY07AUG2524500CE", models.NFO, 50); got != 50 {
		t.Errorf("fallback = %d, want 50", got)
	}
	if got := c.Cached("NIFTY07AUG2524500CE", models.NFO, 0); got != 1 {
		t.Errorf("zero fallback = %d, want 1", got)
	}

	c.Put("NIFTY07AUG2524500CE", models.NFO, 75)
	if got := c.Cached("NIFTY07AUG2524550CE", models.NFO, 50); got != 75 {
		t.Errorf("cached = %d, want 75 via shared key", got)
	}
}

func TestWarmFetchesUniqueKeysOnce(t *testing.T) {
	api := &fakeLotAPI{sizes: map[string]int{
		"NIFTY07AUG2524500CE":     75,
		"BANKNIFTY07AUG2552000CE": 15,
	}}
	c := NewCache(api, zerolog.Nop())

	orders := []models.Order{
		{Symbol: "NIFTY07AUG2524500CE", Exchange: models.NFO},
		{Symbol: "NIFTY07AUG2524550CE", Exchange: models.NFO},
		{Symbol: "BANKNIFTY07AUG2552000CE", Exchange: models.NFO},
	}
	c.Warm(context.Background(), orders)

	// Two unique underlying+expiry keys among three orders.
	if api.callCount() != 2 {
		t.Errorf("api calls = %d, want 2", api.callCount())
	}
	if got := c.Cached("NIFTY07AUG2524550CE", models.NFO, 0); got != 75 {
		t.Errorf("warmed lot size = %d, want 75", got)
	}

	// Everything cached: warming again is free.
	c.Warm(context.Background(), orders)
	if api.callCount() != 2 {
		t.Errorf("api calls after rewarm = %d, want still 2", api.callCount())
	}
}
