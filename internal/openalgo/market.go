package openalgo

import (
	"context"

	"openalgo-scalper/internal/models"
)

// SymbolRef identifies one instrument for a batched quote request.
type SymbolRef struct {
	Symbol   string
	Exchange models.Exchange
}

// OptionSymbolRequest asks the server to resolve an offset (ATM, ITM1, ...)
// into a tradable option symbol.
type OptionSymbolRequest struct {
	Underlying string
	Exchange   models.Exchange
	Expiry     string
	Offset     models.Offset
	OptionType models.OptionType
}

// OptionSymbolResult is the resolved symbol with its segment and lot size.
type OptionSymbolResult struct {
	Symbol   string
	Exchange models.Exchange
	LotSize  int
}

// MarginLeg is one draft order leg for a margin estimate.
type MarginLeg struct {
	Symbol    string
	Exchange  models.Exchange
	Action    models.Action
	Product   models.ProductType
	PriceType models.OrderType
	Quantity  int
	Price     float64
}

// Quote fetches a full quote for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string, exchange models.Exchange) (models.Quote, error) {
	var resp quoteResponse
	if err := c.call(ctx, "/quotes", map[string]interface{}{
		"symbol":   symbol,
		"exchange": string(exchange),
	}, &resp); err != nil {
		return models.Quote{}, err
	}
	if err := c.ok("/quotes", resp.statusResponse); err != nil {
		return models.Quote{}, err
	}
	d := resp.Data
	return models.Quote{
		Symbol:    symbol,
		Exchange:  exchange,
		LTP:       float64(d.LTP),
		PrevClose: float64(d.PrevClose),
		Open:      float64(d.Open),
		High:      float64(d.High),
		Low:       float64(d.Low),
		Bid:       float64(d.Bid),
		Ask:       float64(d.Ask),
		Volume:    int64(d.Volume),
		OI:        int64(d.OI),
	}, nil
}

// MultiQuotes fetches quotes for a batch of symbols in one request.
// Symbols missing from the response are simply absent from the result map.
func (c *Client) MultiQuotes(ctx context.Context, refs []SymbolRef) (map[string]models.Quote, error) {
	symbols := make([]map[string]string, 0, len(refs))
	for _, r := range refs {
		symbols = append(symbols, map[string]string{
			"symbol":   r.Symbol,
			"exchange": string(r.Exchange),
		})
	}

	var resp multiQuoteResponse
	if err := c.call(ctx, "/multiquotes", map[string]interface{}{"symbols": symbols}, &resp); err != nil {
		return nil, err
	}
	if err := c.ok("/multiquotes", resp.statusResponse); err != nil {
		return nil, err
	}

	quotes := make(map[string]models.Quote, len(resp.Results))
	for _, r := range resp.Results {
		quotes[r.Symbol] = models.Quote{
			Symbol:    r.Symbol,
			Exchange:  models.Exchange(r.Exchange),
			LTP:       float64(r.Data.LTP),
			PrevClose: float64(r.Data.PrevClose),
		}
	}
	return quotes, nil
}

// OptionSymbol resolves an option offset into a concrete symbol.
func (c *Client) OptionSymbol(ctx context.Context, req OptionSymbolRequest) (OptionSymbolResult, error) {
	var resp optionSymbolResponse
	if err := c.call(ctx, "/optionsymbol", map[string]interface{}{
		"strategy":    c.strategy,
		"underlying":  req.Underlying,
		"exchange":    string(req.Exchange),
		"expiry_date": req.Expiry,
		"offset":      string(req.Offset),
		"option_type": string(req.OptionType),
	}, &resp); err != nil {
		return OptionSymbolResult{}, err
	}
	if err := c.ok("/optionsymbol", resp.statusResponse); err != nil {
		return OptionSymbolResult{}, err
	}
	return OptionSymbolResult{
		Symbol:   resp.Symbol,
		Exchange: models.Exchange(resp.Exchange),
		LotSize:  int(resp.LotSize),
	}, nil
}

// Expiry fetches the expiry date list for an underlying's options.
func (c *Client) Expiry(ctx context.Context, symbol string, exchange models.Exchange) ([]string, error) {
	var resp expiryResponse
	if err := c.call(ctx, "/expiry", map[string]interface{}{
		"symbol":         symbol,
		"exchange":       string(exchange),
		"instrumenttype": "options",
	}, &resp); err != nil {
		return nil, err
	}
	if err := c.ok("/expiry", resp.statusResponse); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Margin estimates the margin required for the given draft order legs.
func (c *Client) Margin(ctx context.Context, legs []MarginLeg) (float64, error) {
	positions := make([]map[string]string, 0, len(legs))
	for _, l := range legs {
		positions = append(positions, map[string]string{
			"symbol":    l.Symbol,
			"exchange":  string(l.Exchange),
			"action":    string(l.Action),
			"product":   string(l.Product),
			"pricetype": string(l.PriceType),
			"quantity":  itoa(l.Quantity),
			"price":     ftoa(l.Price),
		})
	}

	var resp marginResponse
	if err := c.call(ctx, "/margin", map[string]interface{}{"positions": positions}, &resp); err != nil {
		return 0, err
	}
	if err := c.ok("/margin", resp.statusResponse); err != nil {
		return 0, err
	}
	return float64(resp.Data.TotalMarginRequired), nil
}

// Funds fetches account fund details.
func (c *Client) Funds(ctx context.Context) (models.Funds, error) {
	var resp fundsResponse
	if err := c.call(ctx, "/funds", map[string]interface{}{}, &resp); err != nil {
		return models.Funds{}, err
	}
	if err := c.ok("/funds", resp.statusResponse); err != nil {
		return models.Funds{}, err
	}
	return models.Funds{
		AvailableCash: float64(resp.Data.AvailableCash),
		M2MRealized:   float64(resp.Data.M2MRealized),
		M2MUnrealized: float64(resp.Data.M2MUnrealized),
	}, nil
}

// OpenPosition fetches the signed net quantity for one symbol and product.
func (c *Client) OpenPosition(ctx context.Context, symbol string, exchange models.Exchange, product models.ProductType) (int, error) {
	var resp openPositionResponse
	if err := c.call(ctx, "/openposition", map[string]interface{}{
		"strategy": c.strategy,
		"symbol":   symbol,
		"exchange": string(exchange),
		"product":  string(product),
	}, &resp); err != nil {
		return 0, err
	}
	if err := c.ok("/openposition", resp.statusResponse); err != nil {
		return 0, err
	}
	return int(resp.Quantity), nil
}

// LotSize looks up the contract lot size for one symbol.
func (c *Client) LotSize(ctx context.Context, symbol string, exchange models.Exchange) (int, error) {
	var resp symbolResponse
	if err := c.call(ctx, "/symbol", map[string]interface{}{
		"symbol":   symbol,
		"exchange": string(exchange),
	}, &resp); err != nil {
		return 0, err
	}
	if err := c.ok("/symbol", resp.statusResponse); err != nil {
		return 0, err
	}
	return int(resp.Data.LotSize), nil
}
