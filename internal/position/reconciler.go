// Package position reconciles the net position for the selected derived
// symbol against its pending stop-loss order set.
package position

import (
	"context"

	"github.com/rs/zerolog"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/lotsize"
	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/openalgo"
)

// TradingAPI is the slice of the trading API the reconciler needs.
type TradingAPI interface {
	OpenPosition(ctx context.Context, symbol string, exchange models.Exchange, product models.ProductType) (int, error)
	OrderBook(ctx context.Context) ([]models.Order, error)
	PlaceOrder(ctx context.Context, req openalgo.OrderRequest) (openalgo.OrderResult, error)
	PlaceSmartOrder(ctx context.Context, req openalgo.OrderRequest) (openalgo.OrderResult, error)
	ModifyOrder(ctx context.Context, order models.Order) (openalgo.OrderResult, error)
	CancelOrder(ctx context.Context, orderID, strategy string) error
}

// Coverage is the reconciliation of a net position against its pending
// stop-loss orders.
type Coverage struct {
	Position models.PositionSnapshot
	Orders   []models.Order
	// CoveredLots is the total lots protected by pending opposite-side
	// SL orders: sum of floor(order.quantity / orderLotSize).
	CoveredLots int
	// UncoveredLots is max(0, |positionLots| - CoveredLots), signed per the
	// position direction (negative for SHORT). Never exceeds the position.
	UncoveredLots int
}

// Reconciler derives covered/uncovered lot counts and manages the stop-loss
// order set for the active symbol.
type Reconciler struct {
	api    TradingAPI
	lots   *lotsize.Cache
	logger zerolog.Logger
}

// NewReconciler creates a position reconciler.
func NewReconciler(api TradingAPI, lots *lotsize.Cache, logger zerolog.Logger) *Reconciler {
	return &Reconciler{api: api, lots: lots, logger: logger}
}

// FetchOpenPosition queries the signed net quantity for the symbol.
func (r *Reconciler) FetchOpenPosition(ctx context.Context, symbol string, exchange models.Exchange, product models.ProductType, lotSize int) (models.PositionSnapshot, error) {
	qty, err := r.api.OpenPosition(ctx, symbol, exchange, product)
	if err != nil {
		return models.PositionSnapshot{}, err
	}
	return models.PositionSnapshot{
		Symbol:   symbol,
		Exchange: exchange,
		Product:  product,
		Quantity: qty,
		LotSize:  lotSize,
	}, nil
}

// FetchStopLossOrders returns the pending SL/SL-M orders protecting the
// given position: status pending, symbol matching, action opposite to the
// position's sign. A flat position clears the set without a network call.
// Lot sizes for the matched orders are warmed into the cache.
func (r *Reconciler) FetchStopLossOrders(ctx context.Context, symbol string, currentQty int) ([]models.Order, error) {
	if currentQty == 0 {
		return nil, nil
	}

	slAction := models.ActionSell
	if currentQty < 0 {
		slAction = models.ActionBuy
	}

	orders, err := r.api.OrderBook(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Order, 0)
	for _, o := range orders {
		if !o.IsPending() || !o.PriceType.IsStopLoss() {
			continue
		}
		if o.Symbol != symbol || o.Action != slAction {
			continue
		}
		matched = append(matched, o)
	}

	if len(matched) > 0 {
		r.lots.Warm(ctx, matched)
	}

	return matched, nil
}

// ComputeCoverage reconciles a position against its stop-loss orders.
func (r *Reconciler) ComputeCoverage(pos models.PositionSnapshot, orders []models.Order) Coverage {
	covered := 0
	for _, o := range orders {
		orderLot := r.lots.Cached(o.Symbol, o.Exchange, pos.LotSize)
		if orderLot > 0 {
			covered += o.Quantity / orderLot
		} else {
			covered += o.Quantity
		}
	}

	posLots := pos.Lots()
	absLots := posLots
	if absLots < 0 {
		absLots = -absLots
	}

	uncovered := absLots - covered
	if uncovered < 0 {
		uncovered = 0
	}
	if pos.Quantity < 0 {
		uncovered = -uncovered
	}

	return Coverage{
		Position:      pos,
		Orders:        orders,
		CoveredLots:   covered,
		UncoveredLots: uncovered,
	}
}

// Resize places a smart order instructing the server to bring the net
// quantity to targetLots * lotSize. The quantity magnitude sent is always
// non-negative; the action is inferred from the sign of the current
// position for reference, the server works out the actual delta.
func (r *Reconciler) Resize(ctx context.Context, sym models.SymbolConfig, symbol string, currentQty, targetLots, lotSize int) (openalgo.OrderResult, error) {
	targetQty := targetLots * lotSize

	quantity := targetQty
	if quantity < 0 {
		quantity = -quantity
	}

	action := models.ActionSell
	if currentQty < 0 {
		action = models.ActionBuy
	}

	result, err := r.api.PlaceSmartOrder(ctx, openalgo.OrderRequest{
		Symbol:       symbol,
		Exchange:     sym.OptionExchange,
		Action:       action,
		Product:      sym.Product,
		PriceType:    models.OrderTypeMarket,
		Quantity:     quantity,
		PositionSize: targetQty,
	})
	if err != nil {
		return openalgo.OrderResult{}, err
	}

	r.logger.Info().
		Str("symbol", symbol).
		Int("target_lots", targetLots).
		Str("order_id", result.OrderID).
		Msg("Position resize placed")

	return result, nil
}

// AddStopLoss places a new SL order on the opposite side of the position.
// Preconditions (lots > 0, trigger > 0, open position) are validated before
// any request is sent.
func (r *Reconciler) AddStopLoss(ctx context.Context, sym models.SymbolConfig, symbol string, currentQty, lots int, triggerPrice, limitPrice float64, lotSize int) (openalgo.OrderResult, error) {
	if currentQty == 0 {
		return openalgo.OrderResult{}, apierrors.NewValidationError("position", currentQty, "no open position")
	}
	if lots <= 0 {
		return openalgo.OrderResult{}, apierrors.NewValidationError("lots", lots, "must be positive")
	}
	if triggerPrice <= 0 {
		return openalgo.OrderResult{}, apierrors.NewValidationError("trigger_price", triggerPrice, "must be positive")
	}

	action := models.ActionSell
	if currentQty < 0 {
		action = models.ActionBuy
	}

	result, err := r.api.PlaceOrder(ctx, openalgo.OrderRequest{
		Symbol:       symbol,
		Exchange:     sym.OptionExchange,
		Action:       action,
		Product:      sym.Product,
		PriceType:    models.OrderTypeStopLoss,
		Quantity:     lots * lotSize,
		Price:        limitPrice,
		TriggerPrice: triggerPrice,
	})
	if err != nil {
		return openalgo.OrderResult{}, err
	}

	r.logger.Info().
		Str("symbol", symbol).
		Int("lots", lots).
		Float64("trigger", triggerPrice).
		Str("order_id", result.OrderID).
		Msg("Stop-loss order placed")

	return result, nil
}

// ModifyStopLoss rewrites a pending SL order's lots, trigger and limit price.
func (r *Reconciler) ModifyStopLoss(ctx context.Context, order models.Order, lots int, triggerPrice, limitPrice float64) (openalgo.OrderResult, error) {
	if lots <= 0 {
		return openalgo.OrderResult{}, apierrors.NewValidationError("lots", lots, "must be positive")
	}

	orderLot := r.lots.Cached(order.Symbol, order.Exchange, 1)
	modified := order
	modified.Quantity = lots * orderLot
	modified.Price = limitPrice
	modified.TriggerPrice = triggerPrice

	return r.api.ModifyOrder(ctx, modified)
}

// ExecuteAtMarket converts the given pending SL orders to MARKET for an
// immediate exit. Orders are processed sequentially to avoid broker-side
// rate limits. Returns how many conversions succeeded.
func (r *Reconciler) ExecuteAtMarket(ctx context.Context, orders []models.Order, orderIDs []string) int {
	success := 0
	for _, id := range orderIDs {
		order, ok := findOrder(orders, id)
		if !ok {
			continue
		}

		order.PriceType = models.OrderTypeMarket
		order.Price = 0
		order.TriggerPrice = 0

		if _, err := r.api.ModifyOrder(ctx, order); err != nil {
			r.logger.Warn().Str("order_id", id).Err(err).Msg("Exit at market failed")
			continue
		}
		success++
	}
	return success
}

// CancelAll cancels the given pending SL orders sequentially and returns how
// many cancellations succeeded.
func (r *Reconciler) CancelAll(ctx context.Context, orders []models.Order, orderIDs []string) int {
	success := 0
	for _, id := range orderIDs {
		strategy := ""
		if order, ok := findOrder(orders, id); ok {
			strategy = order.Strategy
		}

		if err := r.api.CancelOrder(ctx, id, strategy); err != nil {
			r.logger.Warn().Str("order_id", id).Err(err).Msg("Cancel failed")
			continue
		}
		success++
	}
	return success
}

func findOrder(orders []models.Order, orderID string) (models.Order, bool) {
	for _, o := range orders {
		if o.OrderID == orderID {
			return o, true
		}
	}
	return models.Order{}, false
}
