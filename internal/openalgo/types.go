package openalgo

import (
	"bytes"
	"strconv"
)

// flexFloat decodes a JSON value that brokers deliver as either a number or
// a numeric string ("102500.50").
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexInt decodes a JSON value delivered as either an integer or a string.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*i = 0
		return nil
	}
	*i = flexInt(int(v))
	return nil
}

type quoteData struct {
	LTP       flexFloat `json:"ltp"`
	PrevClose flexFloat `json:"prev_close"`
	Open      flexFloat `json:"open"`
	High      flexFloat `json:"high"`
	Low       flexFloat `json:"low"`
	Bid       flexFloat `json:"bid"`
	Ask       flexFloat `json:"ask"`
	Volume    flexInt   `json:"volume"`
	OI        flexInt   `json:"oi"`
}

type quoteResponse struct {
	statusResponse
	Data quoteData `json:"data"`
}

type multiQuoteResponse struct {
	statusResponse
	Results []struct {
		Symbol   string    `json:"symbol"`
		Exchange string    `json:"exchange"`
		Data     quoteData `json:"data"`
	} `json:"results"`
}

type optionSymbolResponse struct {
	statusResponse
	Symbol   string  `json:"symbol"`
	Exchange string  `json:"exchange"`
	LotSize  flexInt `json:"lotsize"`
}

type expiryResponse struct {
	statusResponse
	Data []string `json:"data"`
}

type marginResponse struct {
	statusResponse
	Data struct {
		TotalMarginRequired flexFloat `json:"total_margin_required"`
	} `json:"data"`
}

type fundsResponse struct {
	statusResponse
	Data struct {
		AvailableCash flexFloat `json:"availablecash"`
		M2MRealized   flexFloat `json:"m2mrealized"`
		M2MUnrealized flexFloat `json:"m2munrealized"`
	} `json:"data"`
}

type openPositionResponse struct {
	statusResponse
	Quantity flexInt `json:"quantity"`
}

type orderRow struct {
	OrderID      string    `json:"orderid"`
	Symbol       string    `json:"symbol"`
	Exchange     string    `json:"exchange"`
	Action       string    `json:"action"`
	Product      string    `json:"product"`
	PriceType    string    `json:"pricetype"`
	Quantity     flexInt   `json:"quantity"`
	Price        flexFloat `json:"price"`
	TriggerPrice flexFloat `json:"trigger_price"`
	OrderStatus  string    `json:"order_status"`
	Strategy     string    `json:"strategy"`
	Timestamp    string    `json:"timestamp"`
}

type orderBookResponse struct {
	statusResponse
	Data struct {
		Orders []orderRow `json:"orders"`
	} `json:"data"`
}

type tradeRow struct {
	OrderID   string    `json:"orderid"`
	Symbol    string    `json:"symbol"`
	Exchange  string    `json:"exchange"`
	Action    string    `json:"action"`
	Product   string    `json:"product"`
	Quantity  flexInt   `json:"quantity"`
	Price     flexFloat `json:"average_price"`
	Timestamp string    `json:"timestamp"`
}

type tradeBookResponse struct {
	statusResponse
	Data struct {
		Trades []tradeRow `json:"trades"`
	} `json:"data"`
}

type positionRow struct {
	Symbol   string    `json:"symbol"`
	Exchange string    `json:"exchange"`
	Product  string    `json:"product"`
	Quantity flexInt   `json:"quantity"`
	AvgPrice flexFloat `json:"average_price"`
	LTP      flexFloat `json:"ltp"`
	PnL      flexFloat `json:"pnl"`
}

type positionBookResponse struct {
	statusResponse
	Data struct {
		Positions []positionRow `json:"positions"`
	} `json:"data"`
}

type orderResponse struct {
	statusResponse
	OrderID string `json:"orderid"`
}

type symbolResponse struct {
	statusResponse
	Data struct {
		LotSize flexInt `json:"lotsize"`
	} `json:"data"`
}
