package session

import (
	"context"

	"openalgo-scalper/internal/chain"
	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/notify"
	"openalgo-scalper/internal/openalgo"
	"openalgo-scalper/internal/quotes"
)

// SelectOffset moves the selection to another rung of the chain. The
// generation counter advances so responses still in flight for the previous
// selection are discarded on arrival.
func (s *Session) SelectOffset(offset models.Offset) error {
	s.mu.Lock()
	if s.chain == nil {
		s.mu.Unlock()
		return apierrors.ErrChainNotBuilt
	}
	if s.chain.Rung(offset) == nil {
		s.mu.Unlock()
		return apierrors.NewValidationError("offset", offset, "no such rung in the chain")
	}
	s.sel.Offset = offset
	s.generation++
	quotes.SyncSelection(s.chain, &s.sel, false)
	s.mu.Unlock()

	s.persistSelection()
	s.subscribeStrike()
	s.renderSelection()

	s.buckets.StrikeLTPs.Trigger()
	s.buckets.Margin.Trigger()
	return nil
}

// SetAction flips the order side. Margin depends on the side, so a recompute
// is debounced.
func (s *Session) SetAction(action models.Action) {
	s.mu.Lock()
	changed := s.sel.Action != action
	s.sel.Action = action
	s.mu.Unlock()

	if changed {
		s.persistSelection()
		s.renderSelection()
		s.buckets.Margin.Trigger()
	}
}

// SetOrderType changes the price type. Entering MARKET re-binds the
// order-entry price to the rung's LTP and puts the tick feed into market
// mode; leaving it hands the price back to the user.
func (s *Session) SetOrderType(orderType models.OrderType) {
	s.mu.Lock()
	s.sel.OrderType = orderType
	if orderType == models.OrderTypeMarket && s.chain != nil {
		quotes.SyncSelection(s.chain, &s.sel, true)
	}
	s.mu.Unlock()

	if s.feed != nil {
		s.feed.SetMarketMode(orderType == models.OrderTypeMarket)
	}

	s.persistSelection()
	s.renderSelection()
	s.buckets.Margin.Trigger()
}

// SetPrice sets a user-controlled price for LIMIT/SL order types. Ignored in
// MARKET mode where the price follows the LTP.
func (s *Session) SetPrice(price float64) error {
	if price < 0 {
		return apierrors.NewValidationError("price", price, "must not be negative")
	}

	s.mu.Lock()
	if s.sel.OrderType == models.OrderTypeMarket {
		s.mu.Unlock()
		return nil
	}
	s.sel.Price = price
	s.mu.Unlock()

	s.renderSelection()
	s.buckets.Margin.Trigger()
	return nil
}

// SetLots sets the order quantity in lots.
func (s *Session) SetLots(lots int) error {
	if lots <= 0 {
		return apierrors.NewValidationError("lots", lots, "must be positive")
	}

	s.mu.Lock()
	s.sel.Lots = lots
	s.mu.Unlock()

	s.persistSelection()
	s.renderSelection()
	s.buckets.Margin.Trigger()
	return nil
}

// SwitchOptionType flips the chain between CE and PE. With a cached ladder
// seed this is a pure relabel with no network call; without one it falls
// back to a full rebuild. The selection keeps its offset label, which now
// refers to the mirrored strike.
func (s *Session) SwitchOptionType(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.snapshotChainLocked()
	newType := s.optType.Flip()
	s.optType = newType
	s.mu.Unlock()

	s.persistSetting(settingOptionType, newType)

	switched, err := s.builder.SwitchOptionType(snapshot)
	if err != nil {
		// No seed cached for this underlying+expiry: resolve from scratch.
		return s.RebuildChain(ctx, "option type switched")
	}

	s.mu.Lock()
	s.chain = switched
	s.generation++
	quotes.SyncSelection(s.chain, &s.sel, false)
	s.mu.Unlock()

	s.subscribeStrike()
	s.renderChain()

	s.buckets.StrikeLTPs.Trigger()
	s.buckets.Margin.Trigger()
	return nil
}

// Extend deepens the chain by one level at both ends and fetches quotes for
// just the two new rungs. The rungs are computed and quoted on a detached
// snapshot, then spliced into the live chain under the session mutex; a
// concurrent extend is silently dropped.
func (s *Session) Extend(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.snapshotChainLocked()
	gen := s.generation
	s.mu.Unlock()

	if snapshot == nil {
		return apierrors.ErrChainNotBuilt
	}

	newRungs, err := s.builder.Extend(*snapshot)
	if err != nil {
		if apierrors.Is(err, chain.ErrExtendInFlight) {
			return nil
		}
		return err
	}

	scratch := &models.StrikeChain{Rungs: newRungs}
	if err := s.engine.RefreshRungs(ctx, scratch, newRungs); err != nil {
		s.logger.Warn().Err(err).Msg("New rung quotes unavailable")
	}

	s.mu.Lock()
	if gen != s.generation || s.chain == nil || s.chain.ExtendLevel != snapshot.ExtendLevel {
		s.mu.Unlock()
		return nil
	}
	rungs := make([]models.StrikeRung, 0, len(s.chain.Rungs)+2)
	rungs = append(rungs, newRungs[0])
	rungs = append(rungs, s.chain.Rungs...)
	rungs = append(rungs, newRungs[1])
	s.chain.Rungs = rungs
	s.chain.ExtendLevel = snapshot.ExtendLevel + 1
	s.mu.Unlock()

	s.renderChain()
	return nil
}

// RefreshSelectedStrike re-resolves the selected offset against the server.
// When the resolved symbol or lot size no longer matches the chain's rung
// the underlying has drifted across a strike boundary, so the whole chain is
// rebuilt; otherwise just the rung's quote is refreshed.
func (s *Session) RefreshSelectedStrike(ctx context.Context) error {
	s.mu.Lock()
	if s.chain == nil {
		s.mu.Unlock()
		return apierrors.ErrChainNotBuilt
	}
	sym := s.sym
	expiry := s.expiry
	optType := s.optType
	offset := s.sel.Offset
	gen := s.generation
	rung := s.chain.Rung(offset)
	if rung == nil {
		s.mu.Unlock()
		return apierrors.ErrNoSelection
	}
	currentSymbol := rung.Symbol
	currentLot := rung.LotSize
	s.mu.Unlock()

	resolved, err := s.api.OptionSymbol(ctx, openalgo.OptionSymbolRequest{
		Underlying: sym.Symbol,
		Exchange:   sym.Exchange,
		Expiry:     expiry,
		Offset:     offset,
		OptionType: optType,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return apierrors.ErrStaleResponse
	}
	s.mu.Unlock()

	drifted := resolved.Symbol != currentSymbol
	if resolved.LotSize > 0 && resolved.LotSize != currentLot {
		drifted = true
	}
	if drifted {
		s.builder.InvalidateSeed()
		notify.Info(s.notifier, "Strike drift", "%s now maps to %s", offset, resolved.Symbol)
		return s.RebuildChain(ctx, "strike drift")
	}

	s.buckets.StrikeLTPs.Trigger()
	return nil
}
