package models

// Order represents an order row from the order book.
type Order struct {
	OrderID      string
	Symbol       string
	Exchange     Exchange
	Action       Action
	Product      ProductType
	PriceType    OrderType
	Quantity     int
	Price        float64
	TriggerPrice float64
	Status       string
	Strategy     string
	Timestamp    string
}

// Pending order book statuses that still count toward stop-loss coverage.
var pendingOrderStatuses = map[string]bool{
	"open":                   true,
	"trigger pending":        true,
	"validation pending":     true,
	"put order req received": true,
}

// IsPending reports whether the order is still working at the broker.
func (o Order) IsPending() bool {
	return pendingOrderStatuses[normalizeStatus(o.Status)]
}

func normalizeStatus(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// Trade represents a trade book row.
type Trade struct {
	OrderID   string
	Symbol    string
	Exchange  Exchange
	Action    Action
	Product   ProductType
	Quantity  int
	Price     float64
	Timestamp string
}

// PositionDirection classifies a net position.
type PositionDirection string

const (
	PositionLong  PositionDirection = "LONG"
	PositionShort PositionDirection = "SHORT"
	PositionFlat  PositionDirection = "FLAT"
)

// PositionSnapshot is the net quantity for one derived symbol at a point in time.
type PositionSnapshot struct {
	Symbol   string
	Exchange Exchange
	Product  ProductType
	Quantity int // signed, base units
	LotSize  int
}

// Lots returns the signed net position in lots: floor(|qty|/lotSize) * sign(qty).
func (p PositionSnapshot) Lots() int {
	if p.LotSize <= 0 {
		return 0
	}
	qty := p.Quantity
	sign := 1
	if qty < 0 {
		sign = -1
		qty = -qty
	}
	return sign * (qty / p.LotSize)
}

// Direction returns LONG, SHORT or FLAT.
func (p PositionSnapshot) Direction() PositionDirection {
	switch {
	case p.Quantity > 0:
		return PositionLong
	case p.Quantity < 0:
		return PositionShort
	}
	return PositionFlat
}
