// Package models provides domain models for the options scalping panel.
package models

import "time"

// Exchange represents a market segment.
type Exchange string

const (
	NSE      Exchange = "NSE"
	BSE      Exchange = "BSE"
	NSEIndex Exchange = "NSE_INDEX"
	BSEIndex Exchange = "BSE_INDEX"
	NFO      Exchange = "NFO" // NSE F&O
	BFO      Exchange = "BFO" // BSE F&O
)

// DeriveOptionExchange maps an underlying's exchange to its derivatives segment.
func DeriveOptionExchange(exchange Exchange) Exchange {
	switch exchange {
	case BSE, BSEIndex:
		return BFO
	default:
		return NFO
	}
}

// Action represents the side of an order.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Opposite returns the other side.
func (a Action) Opposite() Action {
	if a == ActionBuy {
		return ActionSell
	}
	return ActionBuy
}

// OrderType represents the price type of an order.
type OrderType string

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStopLoss  OrderType = "SL"
	OrderTypeStopLossM OrderType = "SL-M"
)

// IsStopLoss reports whether the order type is a stop-loss variant.
func (t OrderType) IsStopLoss() bool {
	return t == OrderTypeStopLoss || t == OrderTypeStopLossM
}

// OptionType represents the option contract type.
type OptionType string

const (
	OptionTypeCall OptionType = "CE"
	OptionTypePut  OptionType = "PE"
)

// Flip returns the other option type.
func (o OptionType) Flip() OptionType {
	if o == OptionTypeCall {
		return OptionTypePut
	}
	return OptionTypeCall
}

// ProductType represents the product type of an order.
type ProductType string

const (
	ProductMIS  ProductType = "MIS"
	ProductCNC  ProductType = "CNC"
	ProductNRML ProductType = "NRML"
)

// Quote represents a market quote.
type Quote struct {
	Symbol    string
	Exchange  Exchange
	LTP       float64
	PrevClose float64
	Open      float64
	High      float64
	Low       float64
	Bid       float64
	Ask       float64
	Volume    int64
	OI        int64
}

// Change returns the absolute and percentage change from previous close.
func (q Quote) Change() (float64, float64) {
	change := q.LTP - q.PrevClose
	if q.PrevClose == 0 {
		return change, 0
	}
	return change, change / q.PrevClose * 100
}

// Tick represents a single live price update from the tick feed.
type Tick struct {
	Symbol    string
	Exchange  Exchange
	LTP       float64
	Timestamp time.Time
}

// Funds represents account fund details.
type Funds struct {
	AvailableCash float64
	M2MRealized   float64
	M2MUnrealized float64
}

// TodayPL returns the combined realized and unrealized P&L for the day.
func (f Funds) TodayPL() float64 {
	return f.M2MRealized + f.M2MUnrealized
}

// SymbolConfig describes one configured underlying. Configuration decoding
// happens on the config package's own types; this is the in-memory shape.
type SymbolConfig struct {
	ID             string
	Symbol         string
	Exchange       Exchange
	OptionExchange Exchange
	Product        ProductType
}
