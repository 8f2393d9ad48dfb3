package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Offset identifies one rung of a strike chain relative to the money:
// "ITM5".."ITM1", "ATM", "OTM1".."OTM5" and beyond.
type Offset string

// OffsetATM is the at-the-money rung.
const OffsetATM Offset = "ATM"

// ITMOffset returns the in-the-money offset at the given level.
func ITMOffset(level int) Offset {
	return Offset(fmt.Sprintf("ITM%d", level))
}

// OTMOffset returns the out-of-the-money offset at the given level.
func OTMOffset(level int) Offset {
	return Offset(fmt.Sprintf("OTM%d", level))
}

// Rank returns the canonical sort position of an offset:
// negative for ITM, zero for ATM, positive for OTM.
func (o Offset) Rank() int {
	switch {
	case o == OffsetATM:
		return 0
	case strings.HasPrefix(string(o), "ITM"):
		level, _ := strconv.Atoi(strings.TrimPrefix(string(o), "ITM"))
		return -level
	case strings.HasPrefix(string(o), "OTM"):
		level, _ := strconv.Atoi(strings.TrimPrefix(string(o), "OTM"))
		return level
	}
	return 0
}

// Flip swaps ITM and OTM at the same level. ATM is unchanged.
func (o Offset) Flip() Offset {
	switch {
	case strings.HasPrefix(string(o), "ITM"):
		return Offset("OTM" + strings.TrimPrefix(string(o), "ITM"))
	case strings.HasPrefix(string(o), "OTM"):
		return Offset("ITM" + strings.TrimPrefix(string(o), "OTM"))
	}
	return o
}

// StrikeRung is one rung of the strike ladder.
type StrikeRung struct {
	Offset    Offset
	Symbol    string
	Exchange  Exchange
	Strike    int
	LotSize   int
	LTP       float64
	PrevClose float64
}

// StrikeChain is an ordered ladder of rungs (ITMn..ITM1, ATM, OTM1..OTMn)
// for one (underlying, expiry, option type).
type StrikeChain struct {
	Underlying  string
	Expiry      string
	OptionType  OptionType
	ExtendLevel int
	Rungs       []StrikeRung
}

// Rung returns the rung with the given offset, or nil.
func (c *StrikeChain) Rung(offset Offset) *StrikeRung {
	for i := range c.Rungs {
		if c.Rungs[i].Offset == offset {
			return &c.Rungs[i]
		}
	}
	return nil
}

// RungBySymbol returns the rung with the given symbol, or nil.
func (c *StrikeChain) RungBySymbol(symbol string) *StrikeRung {
	for i := range c.Rungs {
		if c.Rungs[i].Symbol == symbol {
			return &c.Rungs[i]
		}
	}
	return nil
}

// SelectionState holds the active rung and its bound order-entry fields.
type SelectionState struct {
	Offset     Offset
	Symbol     string
	Strike     int
	OptionLTP  float64
	OptionPrev float64

	Action    Action
	OrderType OrderType
	Price     float64
	Lots      int
}
