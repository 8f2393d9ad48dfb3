package chain

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/models"
)

// Single-flight sentinels: a concurrent build or extend is dropped, not queued.
var (
	ErrBuildInFlight  = errors.New("chain build already in progress")
	ErrExtendInFlight = errors.New("chain extend already in progress")
	ErrNoSeed         = errors.New("no cached ladder seed")
)

// ITMDirection returns the strike direction of the in-the-money side:
// -1 for CE (ITM strikes sit below ATM), +1 for PE.
func ITMDirection(optType models.OptionType) int {
	if optType == models.OptionTypePut {
		return 1
	}
	return -1
}

// Builder constructs and maintains strike chains from a cached ladder seed.
// A full (re)build and an extend are each single-flight: a second concurrent
// invocation is a no-op.
type Builder struct {
	resolver *Resolver
	logger   zerolog.Logger

	mu        sync.Mutex
	building  bool
	extending bool
	seed      *Seed
	seedKey   string
}

// NewBuilder creates a chain builder on top of a resolver.
func NewBuilder(resolver *Resolver, logger zerolog.Logger) *Builder {
	return &Builder{resolver: resolver, logger: logger}
}

// Seed returns the cached ladder seed, if any.
func (b *Builder) Seed() (Seed, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seed == nil {
		return Seed{}, false
	}
	return *b.seed, true
}

// HasSeed reports whether a seed is cached for the given underlying+expiry.
// Switching option type relabels in place only when this holds.
func (b *Builder) HasSeed(underlying, expiry string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seed != nil && b.seedKey == underlying+":"+expiry
}

// InvalidateSeed drops the cached seed. Called on underlying or expiry change.
func (b *Builder) InvalidateSeed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seed = nil
	b.seedKey = ""
}

// Build resolves the ladder seed and constructs a full chain of
// 2*extendLevel+1 rungs. Returns ErrBuildInFlight if a build is already in
// progress. On resolution failure no chain is returned and the caller's
// prior chain state stays untouched.
func (b *Builder) Build(ctx context.Context, sym models.SymbolConfig, expiry string, optType models.OptionType, extendLevel int) (*models.StrikeChain, error) {
	b.mu.Lock()
	if b.building {
		b.mu.Unlock()
		return nil, ErrBuildInFlight
	}
	b.building = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.building = false
		b.mu.Unlock()
	}()

	seed, err := b.resolver.Resolve(ctx, sym.Symbol, sym.Exchange, expiry, optType)
	if err != nil {
		return nil, err
	}
	if seed.Interval == 0 {
		return nil, apierrors.NewResolutionError(seed.ATMSymbol, "zero strike interval would produce duplicate rungs")
	}

	b.mu.Lock()
	b.seed = &seed
	b.seedKey = sym.Symbol + ":" + expiry
	b.mu.Unlock()

	chain := &models.StrikeChain{
		Underlying:  sym.Symbol,
		Expiry:      expiry,
		OptionType:  optType,
		ExtendLevel: extendLevel,
		Rungs:       buildRungs(seed, sym, expiry, optType, extendLevel),
	}

	b.logger.Info().
		Str("underlying", sym.Symbol).
		Str("expiry", expiry).
		Str("option_type", string(optType)).
		Int("rungs", len(chain.Rungs)).
		Msg("Strike chain built")

	return chain, nil
}

// buildRungs synthesizes the full ladder from the seed: ITMn..ITM1, ATM,
// OTM1..OTMn. Only the ATM rung carries the server-resolved symbol.
func buildRungs(seed Seed, sym models.SymbolConfig, expiry string, optType models.OptionType, extendLevel int) []models.StrikeRung {
	itmDir := ITMDirection(optType)
	otmDir := -itmDir

	exchange := seed.Exchange
	if exchange == "" {
		exchange = sym.OptionExchange
	}

	rungs := make([]models.StrikeRung, 0, 2*extendLevel+1)

	for i := extendLevel; i >= 1; i-- {
		strike := seed.ATMStrike + i*seed.Interval*itmDir
		rungs = append(rungs, models.StrikeRung{
			Offset:   models.ITMOffset(i),
			Symbol:   BuildOptionSymbol(sym.Symbol, expiry, strike, optType),
			Exchange: exchange,
			Strike:   strike,
			LotSize:  seed.LotSize,
		})
	}

	rungs = append(rungs, models.StrikeRung{
		Offset:   models.OffsetATM,
		Symbol:   seed.ATMSymbol,
		Exchange: exchange,
		Strike:   seed.ATMStrike,
		LotSize:  seed.LotSize,
	})

	for i := 1; i <= extendLevel; i++ {
		strike := seed.ATMStrike + i*seed.Interval*otmDir
		rungs = append(rungs, models.StrikeRung{
			Offset:   models.OTMOffset(i),
			Symbol:   BuildOptionSymbol(sym.Symbol, expiry, strike, optType),
			Exchange: exchange,
			Strike:   strike,
			LotSize:  seed.LotSize,
		})
	}

	return rungs
}

// SwitchOptionType relabels an existing chain for the flipped option type
// without any network call: ITM_k becomes OTM_k and vice versa at unchanged
// strike values, every symbol is recomputed with the new suffix, and the
// rungs are re-sorted into canonical order. Prices are cleared since every
// rung now refers to a different contract.
//
// Requires a cached seed for the chain's underlying+expiry; callers fall
// back to a full Build otherwise.
func (b *Builder) SwitchOptionType(current *models.StrikeChain) (*models.StrikeChain, error) {
	if current == nil {
		return nil, ErrNoSeed
	}
	if !b.HasSeed(current.Underlying, current.Expiry) {
		return nil, ErrNoSeed
	}

	newType := current.OptionType.Flip()
	rungs := make([]models.StrikeRung, 0, len(current.Rungs))
	for _, r := range current.Rungs {
		rungs = append(rungs, models.StrikeRung{
			Offset:   r.Offset.Flip(),
			Symbol:   BuildOptionSymbol(current.Underlying, current.Expiry, r.Strike, newType),
			Exchange: r.Exchange,
			Strike:   r.Strike,
			LotSize:  r.LotSize,
		})
	}

	sort.SliceStable(rungs, func(i, j int) bool {
		return rungs[i].Offset.Rank() < rungs[j].Offset.Rank()
	})

	return &models.StrikeChain{
		Underlying:  current.Underlying,
		Expiry:      current.Expiry,
		OptionType:  newType,
		ExtendLevel: current.ExtendLevel,
		Rungs:       rungs,
	}, nil
}

// Extend computes the next level's rungs from the cached seed: exactly one
// new ITM rung and one new OTM rung at current.ExtendLevel+1. The chain
// itself is never touched; the caller splices the returned rungs in under
// its own lock. Single-flight: a concurrent extend is a no-op.
func (b *Builder) Extend(current models.StrikeChain) ([]models.StrikeRung, error) {
	b.mu.Lock()
	if b.extending {
		b.mu.Unlock()
		return nil, ErrExtendInFlight
	}
	if b.seed == nil || b.seedKey != current.Underlying+":"+current.Expiry {
		b.mu.Unlock()
		return nil, ErrNoSeed
	}
	seed := *b.seed
	b.extending = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.extending = false
		b.mu.Unlock()
	}()

	level := current.ExtendLevel + 1
	itmDir := ITMDirection(current.OptionType)
	otmDir := -itmDir

	exchange := seed.Exchange
	if exchange == "" && len(current.Rungs) > 0 {
		exchange = current.Rungs[0].Exchange
	}

	itmStrike := seed.ATMStrike + level*seed.Interval*itmDir
	otmStrike := seed.ATMStrike + level*seed.Interval*otmDir

	itmRung := models.StrikeRung{
		Offset:   models.ITMOffset(level),
		Symbol:   BuildOptionSymbol(current.Underlying, current.Expiry, itmStrike, current.OptionType),
		Exchange: exchange,
		Strike:   itmStrike,
		LotSize:  seed.LotSize,
	}
	otmRung := models.StrikeRung{
		Offset:   models.OTMOffset(level),
		Symbol:   BuildOptionSymbol(current.Underlying, current.Expiry, otmStrike, current.OptionType),
		Exchange: exchange,
		Strike:   otmStrike,
		LotSize:  seed.LotSize,
	}

	b.logger.Debug().
		Int("level", level).
		Int("itm_strike", itmStrike).
		Int("otm_strike", otmStrike).
		Msg("Strike chain extension computed")

	return []models.StrikeRung{itmRung, otmRung}, nil
}
