package chain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/openalgo"
)

// SymbolAPI is the slice of the trading API the resolver needs.
type SymbolAPI interface {
	OptionSymbol(ctx context.Context, req openalgo.OptionSymbolRequest) (openalgo.OptionSymbolResult, error)
}

// Seed is the derivation seed for a strike ladder: everything needed to
// synthesize any rung without further network calls.
type Seed struct {
	ATMStrike int
	// Interval is the spacing between adjacent strikes, always non-negative;
	// ladder direction comes from the option type, not from this value.
	Interval  int
	LotSize   int
	ATMSymbol string
	Exchange  models.Exchange
}

// Resolver derives the ladder seed from two concurrent symbol resolutions.
type Resolver struct {
	api         SymbolAPI
	fallbackLot int
	logger      zerolog.Logger
}

// NewResolver creates a resolver. fallbackLot is used when the ATM response
// omits the lot size.
func NewResolver(api SymbolAPI, fallbackLot int, logger zerolog.Logger) *Resolver {
	if fallbackLot <= 0 {
		fallbackLot = 25
	}
	return &Resolver{api: api, fallbackLot: fallbackLot, logger: logger}
}

// Resolve issues the ATM and ITM1 symbol resolutions concurrently, parses the
// strikes out of both symbols and derives the interval. Any request failure or
// unparseable symbol fails the whole resolution with a ResolutionError; no
// partial seed is ever returned.
func (r *Resolver) Resolve(ctx context.Context, underlying string, exchange models.Exchange, expiry string, optType models.OptionType) (Seed, error) {
	type outcome struct {
		result openalgo.OptionSymbolResult
		err    error
	}

	resolve := func(offset models.Offset, ch chan<- outcome) {
		result, err := r.api.OptionSymbol(ctx, openalgo.OptionSymbolRequest{
			Underlying: underlying,
			Exchange:   exchange,
			Expiry:     expiry,
			Offset:     offset,
			OptionType: optType,
		})
		ch <- outcome{result: result, err: err}
	}

	atmCh := make(chan outcome, 1)
	itm1Ch := make(chan outcome, 1)
	go resolve(models.OffsetATM, atmCh)
	go resolve(models.ITMOffset(1), itm1Ch)

	atm, itm1 := <-atmCh, <-itm1Ch
	if atm.err != nil {
		return Seed{}, apierrors.NewResolutionError("", fmt.Sprintf("ATM resolution failed: %v", atm.err))
	}
	if itm1.err != nil {
		return Seed{}, apierrors.NewResolutionError("", fmt.Sprintf("ITM1 resolution failed: %v", itm1.err))
	}

	atmParsed, ok := ParseOptionSymbol(atm.result.Symbol)
	if !ok || !atmParsed.IsOption {
		return Seed{}, apierrors.NewResolutionError(atm.result.Symbol, "cannot parse strike from ATM symbol")
	}
	itm1Parsed, ok := ParseOptionSymbol(itm1.result.Symbol)
	if !ok || !itm1Parsed.IsOption {
		return Seed{}, apierrors.NewResolutionError(itm1.result.Symbol, "cannot parse strike from ITM1 symbol")
	}

	interval := atmParsed.Strike - itm1Parsed.Strike
	if interval < 0 {
		interval = -interval
	}

	lotSize := atm.result.LotSize
	if lotSize <= 0 {
		lotSize = r.fallbackLot
	}

	seed := Seed{
		ATMStrike: atmParsed.Strike,
		Interval:  interval,
		LotSize:   lotSize,
		ATMSymbol: atm.result.Symbol,
		Exchange:  atm.result.Exchange,
	}

	r.logger.Debug().
		Str("underlying", underlying).
		Str("expiry", expiry).
		Int("atm_strike", seed.ATMStrike).
		Int("interval", seed.Interval).
		Int("lot_size", seed.LotSize).
		Msg("Strike ladder seed resolved")

	return seed, nil
}
