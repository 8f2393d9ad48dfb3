// Package quotes keeps chain and selection prices in sync with the market.
package quotes

import (
	"context"

	"github.com/rs/zerolog"

	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/openalgo"
)

// MarketAPI is the slice of the trading API the engine needs.
type MarketAPI interface {
	Quote(ctx context.Context, symbol string, exchange models.Exchange) (models.Quote, error)
	MultiQuotes(ctx context.Context, refs []openalgo.SymbolRef) (map[string]models.Quote, error)
	Margin(ctx context.Context, legs []openalgo.MarginLeg) (float64, error)
	Funds(ctx context.Context) (models.Funds, error)
}

// Engine batch-fetches live prices for the chain and reconciles the selected
// rung's price into the order ticket.
type Engine struct {
	api    MarketAPI
	logger zerolog.Logger
}

// NewEngine creates a quote refresh engine.
func NewEngine(api MarketAPI, logger zerolog.Logger) *Engine {
	return &Engine{api: api, logger: logger}
}

// RefreshChain fetches quotes for every rung in one batched request and
// writes LTP/prevClose in place. Rungs absent from the response retain their
// previous values; they are never reset to zero.
func (e *Engine) RefreshChain(ctx context.Context, c *models.StrikeChain) error {
	if c == nil || len(c.Rungs) == 0 {
		return nil
	}
	return e.refresh(ctx, c, c.Rungs)
}

// RefreshRungs fetches quotes for a subset of rungs only, used after an
// extend so the established rungs are not re-fetched.
func (e *Engine) RefreshRungs(ctx context.Context, c *models.StrikeChain, rungs []models.StrikeRung) error {
	if c == nil || len(rungs) == 0 {
		return nil
	}
	return e.refresh(ctx, c, rungs)
}

func (e *Engine) refresh(ctx context.Context, c *models.StrikeChain, rungs []models.StrikeRung) error {
	refs := make([]openalgo.SymbolRef, 0, len(rungs))
	for _, r := range rungs {
		refs = append(refs, openalgo.SymbolRef{Symbol: r.Symbol, Exchange: r.Exchange})
	}

	result, err := e.api.MultiQuotes(ctx, refs)
	if err != nil {
		return err
	}

	updated := 0
	for i := range c.Rungs {
		q, ok := result[c.Rungs[i].Symbol]
		if !ok {
			continue
		}
		c.Rungs[i].LTP = q.LTP
		c.Rungs[i].PrevClose = q.PrevClose
		updated++
	}

	e.logger.Debug().
		Int("requested", len(refs)).
		Int("updated", updated).
		Msg("Chain quotes refreshed")

	return nil
}

// SyncSelection copies the active rung's prices into the selection. For
// MARKET orders (or when force is set) the order-entry price follows the
// LTP; LIMIT/SL prices stay user-controlled. Reports whether the order
// price changed, which callers use to trigger a margin recompute.
func SyncSelection(c *models.StrikeChain, sel *models.SelectionState, force bool) bool {
	if c == nil || sel == nil {
		return false
	}
	rung := c.Rung(sel.Offset)
	if rung == nil {
		return false
	}

	sel.Symbol = rung.Symbol
	sel.Strike = rung.Strike
	sel.OptionLTP = rung.LTP
	sel.OptionPrev = rung.PrevClose

	if sel.OrderType == models.OrderTypeMarket || force {
		if sel.Price != rung.LTP {
			sel.Price = rung.LTP
			return true
		}
	}
	return false
}

// Funds fetches account fund details.
func (e *Engine) Funds(ctx context.Context) (models.Funds, error) {
	return e.api.Funds(ctx)
}

// Underlying fetches the underlying's quote.
func (e *Engine) Underlying(ctx context.Context, sym models.SymbolConfig) (models.Quote, error) {
	return e.api.Quote(ctx, sym.Symbol, sym.Exchange)
}

// Margin estimates margin for a single draft order leg.
func (e *Engine) Margin(ctx context.Context, leg openalgo.MarginLeg) (float64, error) {
	return e.api.Margin(ctx, []openalgo.MarginLeg{leg})
}
