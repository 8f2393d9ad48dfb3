package openalgo

import (
	"context"
	"strconv"

	"openalgo-scalper/internal/models"
)

func itoa(v int) string {
	return strconv.Itoa(v)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OrderRequest is a draft order for /placeorder and /placesmartorder.
type OrderRequest struct {
	Symbol       string
	Exchange     models.Exchange
	Action       models.Action
	Product      models.ProductType
	PriceType    models.OrderType
	Quantity     int
	Price        float64
	TriggerPrice float64
	// PositionSize is the signed target net quantity for smart orders.
	PositionSize int
}

// OptionsOrderRequest is a moneyness-based draft order for /optionsorder.
type OptionsOrderRequest struct {
	Underlying   string
	Exchange     models.Exchange
	Expiry       string
	Offset       models.Offset
	OptionType   models.OptionType
	Action       models.Action
	Product      models.ProductType
	PriceType    models.OrderType
	Quantity     int
	Price        float64
	TriggerPrice float64
}

// OrderResult is the outcome of an order placement or modification.
type OrderResult struct {
	OrderID string
	Message string
}

// PlaceOrder places a regular order against a resolved symbol.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	var resp orderResponse
	if err := c.call(ctx, "/placeorder", map[string]interface{}{
		"strategy":           c.strategy,
		"symbol":             req.Symbol,
		"exchange":           string(req.Exchange),
		"action":             string(req.Action),
		"product":            string(req.Product),
		"pricetype":          string(req.PriceType),
		"quantity":           itoa(req.Quantity),
		"price":              ftoa(req.Price),
		"trigger_price":      ftoa(req.TriggerPrice),
		"disclosed_quantity": "0",
	}, &resp); err != nil {
		return OrderResult{}, err
	}
	if err := c.ok("/placeorder", resp.statusResponse); err != nil {
		return OrderResult{}, err
	}
	return OrderResult{OrderID: resp.OrderID, Message: resp.Message}, nil
}

// PlaceSmartOrder places a target-position-size order: the server works out
// the delta needed to bring the net quantity to PositionSize.
func (c *Client) PlaceSmartOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	var resp orderResponse
	if err := c.call(ctx, "/placesmartorder", map[string]interface{}{
		"strategy":      c.strategy,
		"symbol":        req.Symbol,
		"exchange":      string(req.Exchange),
		"action":        string(req.Action),
		"product":       string(req.Product),
		"pricetype":     string(req.PriceType),
		"quantity":      itoa(req.Quantity),
		"position_size": itoa(req.PositionSize),
		"price":         ftoa(req.Price),
		"trigger_price": ftoa(req.TriggerPrice),
	}, &resp); err != nil {
		return OrderResult{}, err
	}
	if err := c.ok("/placesmartorder", resp.statusResponse); err != nil {
		return OrderResult{}, err
	}
	return OrderResult{OrderID: resp.OrderID, Message: resp.Message}, nil
}

// PlaceOptionsOrder places a moneyness-based order; the server resolves the
// offset to a concrete strike at execution time.
func (c *Client) PlaceOptionsOrder(ctx context.Context, req OptionsOrderRequest) (OrderResult, error) {
	var resp orderResponse
	if err := c.call(ctx, "/optionsorder", map[string]interface{}{
		"strategy":      c.strategy,
		"underlying":    req.Underlying,
		"exchange":      string(req.Exchange),
		"expiry_date":   req.Expiry,
		"offset":        string(req.Offset),
		"option_type":   string(req.OptionType),
		"action":        string(req.Action),
		"product":       string(req.Product),
		"pricetype":     string(req.PriceType),
		"quantity":      itoa(req.Quantity),
		"price":         ftoa(req.Price),
		"trigger_price": ftoa(req.TriggerPrice),
	}, &resp); err != nil {
		return OrderResult{}, err
	}
	if err := c.ok("/optionsorder", resp.statusResponse); err != nil {
		return OrderResult{}, err
	}
	return OrderResult{OrderID: resp.OrderID, Message: resp.Message}, nil
}

// ModifyOrder modifies a pending order in place.
func (c *Client) ModifyOrder(ctx context.Context, order models.Order) (OrderResult, error) {
	strategy := order.Strategy
	if strategy == "" {
		strategy = c.strategy
	}
	var resp orderResponse
	if err := c.call(ctx, "/modifyorder", map[string]interface{}{
		"strategy":           strategy,
		"symbol":             order.Symbol,
		"exchange":           string(order.Exchange),
		"action":             string(order.Action),
		"product":            string(order.Product),
		"pricetype":          string(order.PriceType),
		"orderid":            order.OrderID,
		"quantity":           itoa(order.Quantity),
		"price":              ftoa(order.Price),
		"trigger_price":      ftoa(order.TriggerPrice),
		"disclosed_quantity": "0",
	}, &resp); err != nil {
		return OrderResult{}, err
	}
	if err := c.ok("/modifyorder", resp.statusResponse); err != nil {
		return OrderResult{}, err
	}
	return OrderResult{OrderID: resp.OrderID, Message: resp.Message}, nil
}

// CancelOrder cancels a pending order.
func (c *Client) CancelOrder(ctx context.Context, orderID, strategy string) error {
	if strategy == "" {
		strategy = c.strategy
	}
	var resp orderResponse
	if err := c.call(ctx, "/cancelorder", map[string]interface{}{
		"strategy": strategy,
		"orderid":  orderID,
	}, &resp); err != nil {
		return err
	}
	return c.ok("/cancelorder", resp.statusResponse)
}

// CancelAllOrders cancels every pending order for the strategy.
func (c *Client) CancelAllOrders(ctx context.Context) error {
	var resp orderResponse
	if err := c.call(ctx, "/cancelallorder", map[string]interface{}{
		"strategy": c.strategy,
	}, &resp); err != nil {
		return err
	}
	return c.ok("/cancelallorder", resp.statusResponse)
}

// CloseAllPositions squares off every open position for the strategy.
func (c *Client) CloseAllPositions(ctx context.Context) error {
	var resp orderResponse
	if err := c.call(ctx, "/closeposition", map[string]interface{}{
		"strategy": c.strategy,
	}, &resp); err != nil {
		return err
	}
	return c.ok("/closeposition", resp.statusResponse)
}

// OrderBook fetches all orders for the account.
func (c *Client) OrderBook(ctx context.Context) ([]models.Order, error) {
	var resp orderBookResponse
	if err := c.call(ctx, "/orderbook", map[string]interface{}{}, &resp); err != nil {
		return nil, err
	}
	if err := c.ok("/orderbook", resp.statusResponse); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(resp.Data.Orders))
	for _, r := range resp.Data.Orders {
		orders = append(orders, models.Order{
			OrderID:      r.OrderID,
			Symbol:       r.Symbol,
			Exchange:     models.Exchange(r.Exchange),
			Action:       models.Action(r.Action),
			Product:      models.ProductType(r.Product),
			PriceType:    models.OrderType(r.PriceType),
			Quantity:     int(r.Quantity),
			Price:        float64(r.Price),
			TriggerPrice: float64(r.TriggerPrice),
			Status:       r.OrderStatus,
			Strategy:     r.Strategy,
			Timestamp:    r.Timestamp,
		})
	}
	return orders, nil
}

// TradeBook fetches all trades for the account.
func (c *Client) TradeBook(ctx context.Context) ([]models.Trade, error) {
	var resp tradeBookResponse
	if err := c.call(ctx, "/tradebook", map[string]interface{}{}, &resp); err != nil {
		return nil, err
	}
	if err := c.ok("/tradebook", resp.statusResponse); err != nil {
		return nil, err
	}

	trades := make([]models.Trade, 0, len(resp.Data.Trades))
	for _, r := range resp.Data.Trades {
		trades = append(trades, models.Trade{
			OrderID:   r.OrderID,
			Symbol:    r.Symbol,
			Exchange:  models.Exchange(r.Exchange),
			Action:    models.Action(r.Action),
			Product:   models.ProductType(r.Product),
			Quantity:  int(r.Quantity),
			Price:     float64(r.Price),
			Timestamp: r.Timestamp,
		})
	}
	return trades, nil
}

// PositionBook fetches all open positions for the account.
func (c *Client) PositionBook(ctx context.Context) ([]models.PositionSnapshot, error) {
	var resp positionBookResponse
	if err := c.call(ctx, "/positionbook", map[string]interface{}{}, &resp); err != nil {
		return nil, err
	}
	if err := c.ok("/positionbook", resp.statusResponse); err != nil {
		return nil, err
	}

	positions := make([]models.PositionSnapshot, 0, len(resp.Data.Positions))
	for _, r := range resp.Data.Positions {
		positions = append(positions, models.PositionSnapshot{
			Symbol:   r.Symbol,
			Exchange: models.Exchange(r.Exchange),
			Product:  models.ProductType(r.Product),
			Quantity: int(r.Quantity),
		})
	}
	return positions, nil
}
