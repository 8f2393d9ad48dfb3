package session

import (
	"context"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/logging"
	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/notify"
	"openalgo-scalper/internal/openalgo"
)

// StrikeModeMoneyness places orders by offset via /optionsorder; the server
// resolves the strike at execution time. StrikeModeStrike places against the
// locally derived symbol.
const (
	StrikeModeMoneyness = "moneyness"
	StrikeModeStrike    = "strike"
)

// PlaceOrder places the drafted order for the current selection. The route
// depends on the configured strike mode.
func (s *Session) PlaceOrder(ctx context.Context) (openalgo.OrderResult, error) {
	s.mu.Lock()
	sel := s.sel
	sym := s.sym
	expiry := s.expiry
	optType := s.optType
	lotSize := s.cfg.Panel.LotSizeDefault
	if s.chain != nil {
		if rung := s.chain.Rung(sel.Offset); rung != nil {
			lotSize = rung.LotSize
		}
	}
	mode := s.cfg.Panel.StrikeMode
	s.mu.Unlock()

	if sel.Symbol == "" {
		return openalgo.OrderResult{}, apierrors.ErrNoSelection
	}
	if sel.Lots <= 0 {
		return openalgo.OrderResult{}, apierrors.NewValidationError("lots", sel.Lots, "must be positive")
	}
	if sel.OrderType != models.OrderTypeMarket && sel.Price <= 0 {
		return openalgo.OrderResult{}, apierrors.NewValidationError("price", sel.Price, "must be positive for non-market orders")
	}

	quantity := sel.Lots * lotSize

	var result openalgo.OrderResult
	var err error
	if mode == StrikeModeMoneyness {
		result, err = s.api.PlaceOptionsOrder(ctx, openalgo.OptionsOrderRequest{
			Underlying: sym.Symbol,
			Exchange:   sym.Exchange,
			Expiry:     expiry,
			Offset:     sel.Offset,
			OptionType: optType,
			Action:     sel.Action,
			Product:    sym.Product,
			PriceType:  sel.OrderType,
			Quantity:   quantity,
			Price:      sel.Price,
		})
	} else {
		result, err = s.api.PlaceOrder(ctx, openalgo.OrderRequest{
			Symbol:    sel.Symbol,
			Exchange:  sym.OptionExchange,
			Action:    sel.Action,
			Product:   sym.Product,
			PriceType: sel.OrderType,
			Quantity:  quantity,
			Price:     sel.Price,
		})
	}
	if err != nil {
		notify.Error(s.notifier, "Order failed", "%v", err)
		return openalgo.OrderResult{}, err
	}

	s.journal(result.OrderID, models.Order{
		Symbol:    sel.Symbol,
		Exchange:  sym.OptionExchange,
		Action:    sel.Action,
		Product:   sym.Product,
		PriceType: sel.OrderType,
		Quantity:  quantity,
		Price:     sel.Price,
	})

	logging.LogOrder(s.logger, result.OrderID, sel.Symbol, string(sel.Action), "placed")
	notify.Success(s.notifier, "Order placed", "%s %d x %s (%s)", sel.Action, sel.Lots, sel.Symbol, result.OrderID)

	s.buckets.OpenPosition.Trigger()
	s.buckets.Funds.Trigger()
	return result, nil
}

// Resize brings the net position for the selected symbol to targetLots.
func (s *Session) Resize(ctx context.Context, targetLots int) (openalgo.OrderResult, error) {
	s.mu.Lock()
	sel := s.sel
	sym := s.sym
	cov := s.coverage
	lotSize := s.cfg.Panel.LotSizeDefault
	if s.chain != nil {
		if rung := s.chain.Rung(sel.Offset); rung != nil {
			lotSize = rung.LotSize
		}
	}
	s.mu.Unlock()

	if sel.Symbol == "" {
		return openalgo.OrderResult{}, apierrors.ErrNoSelection
	}

	result, err := s.recon.Resize(ctx, sym, sel.Symbol, cov.Position.Quantity, targetLots, lotSize)
	if err != nil {
		notify.Error(s.notifier, "Resize failed", "%v", err)
		return openalgo.OrderResult{}, err
	}

	notify.Success(s.notifier, "Position resized", "%s to %d lots", sel.Symbol, targetLots)
	s.buckets.OpenPosition.Trigger()
	s.buckets.Funds.Trigger()
	return result, nil
}

// AddStopLoss places a stop-loss order protecting the current position.
func (s *Session) AddStopLoss(ctx context.Context, lots int, triggerPrice, limitPrice float64) (openalgo.OrderResult, error) {
	s.mu.Lock()
	sel := s.sel
	sym := s.sym
	cov := s.coverage
	lotSize := s.cfg.Panel.LotSizeDefault
	if s.chain != nil {
		if rung := s.chain.Rung(sel.Offset); rung != nil {
			lotSize = rung.LotSize
		}
	}
	s.mu.Unlock()

	if sel.Symbol == "" {
		return openalgo.OrderResult{}, apierrors.ErrNoSelection
	}

	result, err := s.recon.AddStopLoss(ctx, sym, sel.Symbol, cov.Position.Quantity, lots, triggerPrice, limitPrice, lotSize)
	if err != nil {
		notify.Error(s.notifier, "Stop-loss failed", "%v", err)
		return openalgo.OrderResult{}, err
	}

	notify.Success(s.notifier, "Stop-loss placed", "%d lots @ %.2f", lots, triggerPrice)
	s.buckets.OpenPosition.Trigger()
	return result, nil
}

// ModifyStopLoss rewrites one of the pending stop-loss orders.
func (s *Session) ModifyStopLoss(ctx context.Context, orderID string, lots int, triggerPrice, limitPrice float64) (openalgo.OrderResult, error) {
	s.mu.Lock()
	cov := s.coverage
	s.mu.Unlock()

	var order *models.Order
	for i := range cov.Orders {
		if cov.Orders[i].OrderID == orderID {
			order = &cov.Orders[i]
			break
		}
	}
	if order == nil {
		return openalgo.OrderResult{}, apierrors.ErrOrderNotFound
	}

	result, err := s.recon.ModifyStopLoss(ctx, *order, lots, triggerPrice, limitPrice)
	if err != nil {
		notify.Error(s.notifier, "Modify failed", "%v", err)
		return openalgo.OrderResult{}, err
	}

	s.buckets.OpenPosition.Trigger()
	return result, nil
}

// ExitAtMarket converts the given stop-loss orders to market orders for an
// immediate exit. Empty orderIDs targets every pending stop-loss.
func (s *Session) ExitAtMarket(ctx context.Context, orderIDs []string) int {
	s.mu.Lock()
	cov := s.coverage
	s.mu.Unlock()

	if len(orderIDs) == 0 {
		for _, o := range cov.Orders {
			orderIDs = append(orderIDs, o.OrderID)
		}
	}

	n := s.recon.ExecuteAtMarket(ctx, cov.Orders, orderIDs)
	if n > 0 {
		notify.Success(s.notifier, "Exit at market", "%d order(s) converted", n)
	}
	s.buckets.OpenPosition.Trigger()
	s.buckets.Funds.Trigger()
	return n
}

// CancelStopLosses cancels the given stop-loss orders. Empty orderIDs cancels
// every pending stop-loss.
func (s *Session) CancelStopLosses(ctx context.Context, orderIDs []string) int {
	s.mu.Lock()
	cov := s.coverage
	s.mu.Unlock()

	if len(orderIDs) == 0 {
		for _, o := range cov.Orders {
			orderIDs = append(orderIDs, o.OrderID)
		}
	}

	n := s.recon.CancelAll(ctx, cov.Orders, orderIDs)
	if n > 0 {
		notify.Info(s.notifier, "Stop-losses cancelled", "%d order(s)", n)
	}
	s.buckets.OpenPosition.Trigger()
	return n
}

// PanicClose cancels every working order and squares off every open position
// for the strategy.
func (s *Session) PanicClose(ctx context.Context) error {
	if err := s.api.CancelAllOrders(ctx); err != nil {
		notify.Error(s.notifier, "Cancel all failed", "%v", err)
		return err
	}
	if err := s.api.CloseAllPositions(ctx); err != nil {
		notify.Error(s.notifier, "Close positions failed", "%v", err)
		return err
	}

	notify.Warn(s.notifier, "Panic close", "all orders cancelled, positions squared off")
	s.buckets.OpenPosition.Trigger()
	s.buckets.Funds.Trigger()
	return nil
}

func (s *Session) journal(orderID string, order models.Order) {
	if s.db == nil {
		return
	}
	go func() {
		if err := s.db.JournalOrder(orderID, order); err != nil {
			s.logger.Warn().Str("order_id", orderID).Err(err).Msg("Order journal write failed")
		}
	}()
}
