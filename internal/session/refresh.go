package session

import (
	"context"
	"time"

	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/openalgo"
	"openalgo-scalper/internal/quotes"
	"openalgo-scalper/internal/ticks"
)

// bucketTimeout bounds each debounced background fetch.
const bucketTimeout = 8 * time.Second

func bucketContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), bucketTimeout)
}

// refreshStrikeLTPs batch-refreshes every rung's quote. The fetch runs on a
// copy of the chain so readers are never blocked; results are written back
// only when the selection generation is unchanged.
func (s *Session) refreshStrikeLTPs() {
	s.mu.Lock()
	if s.chain == nil {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	snapshot := *s.chain
	snapshot.Rungs = make([]models.StrikeRung, len(s.chain.Rungs))
	copy(snapshot.Rungs, s.chain.Rungs)
	s.mu.Unlock()

	ctx, cancel := bucketContext()
	defer cancel()

	if err := s.engine.RefreshChain(ctx, &snapshot); err != nil {
		s.logger.Warn().Err(err).Msg("Chain quote refresh failed")
		return
	}

	priceChanged := false
	s.mu.Lock()
	if gen != s.generation || s.chain == nil {
		s.mu.Unlock()
		return
	}
	for _, fresh := range snapshot.Rungs {
		if rung := s.chain.RungBySymbol(fresh.Symbol); rung != nil {
			rung.LTP = fresh.LTP
			rung.PrevClose = fresh.PrevClose
		}
	}
	priceChanged = quotes.SyncSelection(s.chain, &s.sel, false)
	s.mu.Unlock()

	s.renderChain()
	if priceChanged {
		s.buckets.Margin.Trigger()
	}
}

// refreshMargin recomputes the margin estimate for the drafted order.
func (s *Session) refreshMargin() {
	s.mu.Lock()
	sel := s.sel
	sym := s.sym
	gen := s.generation
	lotSize := s.cfg.Panel.LotSizeDefault
	if s.chain != nil {
		if rung := s.chain.Rung(sel.Offset); rung != nil {
			lotSize = rung.LotSize
		}
	}
	s.mu.Unlock()

	if sel.Symbol == "" || sel.Lots <= 0 {
		return
	}

	ctx, cancel := bucketContext()
	defer cancel()

	margin, err := s.engine.Margin(ctx, openalgo.MarginLeg{
		Symbol:    sel.Symbol,
		Exchange:  sym.OptionExchange,
		Action:    sel.Action,
		Product:   sym.Product,
		PriceType: sel.OrderType,
		Quantity:  sel.Lots * lotSize,
		Price:     sel.Price,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Margin estimate failed")
		return
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.margin = margin
	s.mu.Unlock()

	if s.view != nil {
		s.view.RenderMargin(margin)
	}
}

// refreshUnderlying fetches the underlying's spot quote.
func (s *Session) refreshUnderlying() {
	s.mu.Lock()
	sym := s.sym
	s.mu.Unlock()

	ctx, cancel := bucketContext()
	defer cancel()

	q, err := s.engine.Underlying(ctx, sym)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Underlying quote failed")
		return
	}

	s.mu.Lock()
	s.underlying = q
	s.mu.Unlock()

	if s.view != nil {
		s.view.RenderUnderlying(q)
	}
}

// refreshFunds fetches account funds.
func (s *Session) refreshFunds() {
	ctx, cancel := bucketContext()
	defer cancel()

	f, err := s.engine.Funds(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Funds fetch failed")
		return
	}

	s.mu.Lock()
	s.funds = f
	s.mu.Unlock()

	if s.view != nil {
		s.view.RenderFunds(f)
	}
}

// refreshPosition reconciles the selected symbol's net position against its
// stop-loss order set.
func (s *Session) refreshPosition() {
	s.mu.Lock()
	sel := s.sel
	sym := s.sym
	gen := s.generation
	lotSize := s.cfg.Panel.LotSizeDefault
	if s.chain != nil {
		if rung := s.chain.Rung(sel.Offset); rung != nil {
			lotSize = rung.LotSize
		}
	}
	s.mu.Unlock()

	if sel.Symbol == "" {
		return
	}

	ctx, cancel := bucketContext()
	defer cancel()

	pos, err := s.recon.FetchOpenPosition(ctx, sel.Symbol, sym.OptionExchange, sym.Product, lotSize)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Open position fetch failed")
		return
	}

	orders, err := s.recon.FetchStopLossOrders(ctx, sel.Symbol, pos.Quantity)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Stop-loss order fetch failed")
		return
	}

	cov := s.recon.ComputeCoverage(pos, orders)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.coverage = cov
	s.mu.Unlock()

	if s.view != nil {
		s.view.RenderPosition(cov)
	}
}

// applyTicks is the tick feed's flush callback: the coalesced underlying and
// strike ticks are folded into panel state in one pass.
func (s *Session) applyTicks(underlying, strike *models.Tick) {
	priceChanged := false

	s.mu.Lock()
	if underlying != nil && underlying.Symbol == s.sym.Symbol {
		s.underlying.LTP = underlying.LTP
	}
	if strike != nil && s.chain != nil {
		if rung := s.chain.RungBySymbol(strike.Symbol); rung != nil {
			rung.LTP = strike.LTP
			priceChanged = quotes.SyncSelection(s.chain, &s.sel, false)
		}
	}
	q := s.underlying
	s.mu.Unlock()

	if underlying != nil && s.view != nil {
		s.view.RenderUnderlying(q)
	}
	if strike != nil {
		s.renderSelection()
	}
	if priceChanged {
		s.buckets.Margin.Trigger()
	}
}

func (s *Session) subscribeUnderlying() {
	if s.feed == nil {
		return
	}
	s.mu.Lock()
	sym := s.sym
	s.mu.Unlock()
	s.feed.Subscribe(ticks.TargetUnderlying, sym.Symbol, sym.Exchange)
}

// subscribeStrike moves the strike feed slot to the currently selected rung.
func (s *Session) subscribeStrike() {
	if s.feed == nil {
		return
	}
	s.mu.Lock()
	symbol := s.sel.Symbol
	exchange := s.sym.OptionExchange
	if s.chain != nil {
		if rung := s.chain.Rung(s.sel.Offset); rung != nil {
			exchange = rung.Exchange
		}
	}
	s.mu.Unlock()

	if symbol == "" {
		return
	}
	s.feed.Subscribe(ticks.TargetStrike, symbol, exchange)
}

// startAutoRefresh runs the periodic refresh loop for the configured areas.
func (s *Session) startAutoRefresh() {
	s.mu.Lock()
	if s.autoStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.autoStop = stop
	s.mu.Unlock()

	interval := time.Duration(s.cfg.Refresh.IntervalSec) * time.Second
	areas := s.cfg.Refresh.Areas

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if areas.Funds {
					s.buckets.Funds.Trigger()
				}
				if areas.Underlying {
					s.buckets.Underlying.Trigger()
				}
				if areas.SelectedStrike {
					s.buckets.StrikeLTPs.Trigger()
					s.buckets.OpenPosition.Trigger()
				}
			}
		}
	}()
}

func (s *Session) stopAutoRefresh() {
	s.mu.Lock()
	if s.autoStop != nil {
		close(s.autoStop)
		s.autoStop = nil
	}
	s.mu.Unlock()
}
