package chain

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/openalgo"
)

// fakeSymbolAPI resolves offsets against a synthetic ladder.
type fakeSymbolAPI struct {
	mu        sync.Mutex
	atmStrike int
	interval  int
	lotSize   int
	calls     int
	block     chan struct{}
	err       error
}

func (f *fakeSymbolAPI) OptionSymbol(ctx context.Context, req openalgo.OptionSymbolRequest) (openalgo.OptionSymbolResult, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return openalgo.OptionSymbolResult{}, f.err
	}

	strike := f.atmStrike
	if req.Offset == models.ITMOffset(1) {
		strike += f.interval * ITMDirection(req.OptionType)
	}
	return openalgo.OptionSymbolResult{
		Symbol:   BuildOptionSymbol(req.Underlying, req.Expiry, strike, req.OptionType),
		Exchange: models.NFO,
		LotSize:  f.lotSize,
	}, nil
}

func (f *fakeSymbolAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func niftyConfig() models.SymbolConfig {
	return models.SymbolConfig{
		ID:             "nifty",
		Symbol:         "NIFTY",
		Exchange:       models.NSEIndex,
		OptionExchange: models.NFO,
		Product:        models.ProductMIS,
	}
}

func newTestBuilder(api *fakeSymbolAPI) *Builder {
	return NewBuilder(NewResolver(api, 25, zerolog.Nop()), zerolog.Nop())
}

func TestBuildCallChain(t *testing.T) {
	api := &fakeSymbolAPI{atmStrike: 24500, interval: 50, lotSize: 75}
	b := newTestBuilder(api)

	c, err := b.Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypeCall, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := api.callCount(); got != 2 {
		t.Errorf("resolution calls = %d, want 2 (ATM and ITM1 only)", got)
	}

	seed, ok := b.Seed()
	if !ok {
		t.Fatal("no seed cached after build")
	}
	if seed.Interval != 50 {
		t.Errorf("interval = %d, want 50", seed.Interval)
	}
	if seed.ATMStrike != 24500 {
		t.Errorf("atm strike = %d, want 24500", seed.ATMStrike)
	}

	// Calls are in the money below ATM, so the ladder ascends in strike.
	wantOffsets := []models.Offset{"ITM2", "ITM1", "ATM", "OTM1", "OTM2"}
	wantStrikes := []int{24400, 24450, 24500, 24550, 24600}
	if len(c.Rungs) != len(wantOffsets) {
		t.Fatalf("rungs = %d, want %d", len(c.Rungs), len(wantOffsets))
	}
	for i, r := range c.Rungs {
		if r.Offset != wantOffsets[i] {
			t.Errorf("rung %d offset = %s, want %s", i, r.Offset, wantOffsets[i])
		}
		if r.Strike != wantStrikes[i] {
			t.Errorf("rung %d strike = %d, want %d", i, r.Strike, wantStrikes[i])
		}
		if r.LotSize != 75 {
			t.Errorf("rung %d lot size = %d, want 75", i, r.LotSize)
		}
		if r.Exchange != models.NFO {
			t.Errorf("rung %d exchange = %s, want NFO", i, r.Exchange)
		}
		want := BuildOptionSymbol("NIFTY", "07AUG25", r.Strike, models.OptionTypeCall)
		if r.Symbol != want {
			t.Errorf("rung %d symbol = %s, want %s", i, r.Symbol, want)
		}
	}
}

func TestBuildPutChainInverted(t *testing.T) {
	api := &fakeSymbolAPI{atmStrike: 24500, interval: 50, lotSize: 75}
	b := newTestBuilder(api)

	c, err := b.Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypePut, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Puts are in the money above ATM: same offsets, mirrored strikes.
	wantStrikes := []int{24600, 24550, 24500, 24450, 24400}
	for i, r := range c.Rungs {
		if r.Strike != wantStrikes[i] {
			t.Errorf("rung %d (%s) strike = %d, want %d", i, r.Offset, r.Strike, wantStrikes[i])
		}
	}
}

func TestBuildZeroIntervalFails(t *testing.T) {
	api := &fakeSymbolAPI{atmStrike: 24500, interval: 0, lotSize: 75}
	b := newTestBuilder(api)

	_, err := b.Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypeCall, 2)
	var resErr *apierrors.ResolutionError
	if !apierrors.As(err, &resErr) {
		t.Fatalf("err = %v, want ResolutionError", err)
	}
}

func TestBuildResolutionFailureLeavesNoSeed(t *testing.T) {
	api := &fakeSymbolAPI{err: context.DeadlineExceeded}
	b := newTestBuilder(api)

	if _, err := b.Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypeCall, 2); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := b.Seed(); ok {
		t.Error("seed cached despite failed build")
	}
}

func TestBuildSingleFlight(t *testing.T) {
	api := &fakeSymbolAPI{atmStrike: 24500, interval: 50, lotSize: 75, block: make(chan struct{})}
	b := newTestBuilder(api)

	done := make(chan error, 1)
	go func() {
		_, err := b.Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypeCall, 2)
		done <- err
	}()

	// Wait for the first build to reach the resolver.
	for api.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	if _, err := b.Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypeCall, 2); err != ErrBuildInFlight {
		t.Errorf("concurrent build err = %v, want ErrBuildInFlight", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("first build: %v", err)
	}
}

func TestSwitchOptionTypeRelabels(t *testing.T) {
	api := &fakeSymbolAPI{atmStrike: 24500, interval: 50, lotSize: 75}
	b := newTestBuilder(api)

	ce, err := b.Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypeCall, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ce.Rungs[2].LTP = 104.5 // simulate a fetched price

	calls := api.callCount()
	pe, err := b.SwitchOptionType(ce)
	if err != nil {
		t.Fatalf("SwitchOptionType: %v", err)
	}
	if api.callCount() != calls {
		t.Error("switch made a network call")
	}

	if pe.OptionType != models.OptionTypePut {
		t.Errorf("option type = %s, want PE", pe.OptionType)
	}

	// Same strikes, relabelled: the CE ITM2 strike is now the PE OTM2.
	wantOffsets := []models.Offset{"ITM2", "ITM1", "ATM", "OTM1", "OTM2"}
	wantStrikes := []int{24600, 24550, 24500, 24450, 24400}
	for i, r := range pe.Rungs {
		if r.Offset != wantOffsets[i] {
			t.Errorf("rung %d offset = %s, want %s", i, r.Offset, wantOffsets[i])
		}
		if r.Strike != wantStrikes[i] {
			t.Errorf("rung %d strike = %d, want %d", i, r.Strike, wantStrikes[i])
		}
		if r.LTP != 0 || r.PrevClose != 0 {
			t.Errorf("rung %d prices not cleared", i)
		}
		want := BuildOptionSymbol("NIFTY", "07AUG25", r.Strike, models.OptionTypePut)
		if r.Symbol != want {
			t.Errorf("rung %d symbol = %s, want %s", i, r.Symbol, want)
		}
	}

	// Switching twice restores the original labelling.
	back, err := b.SwitchOptionType(pe)
	if err != nil {
		t.Fatalf("second switch: %v", err)
	}
	for i, r := range back.Rungs {
		if r.Offset != ce.Rungs[i].Offset || r.Strike != ce.Rungs[i].Strike || r.Symbol != ce.Rungs[i].Symbol {
			t.Errorf("rung %d not restored: got %s/%d/%s", i, r.Offset, r.Strike, r.Symbol)
		}
	}
}

func TestSwitchWithoutSeed(t *testing.T) {
	b := newTestBuilder(&fakeSymbolAPI{})
	c := &models.StrikeChain{Underlying: "NIFTY", Expiry: "07AUG25", OptionType: models.OptionTypeCall}
	if _, err := b.SwitchOptionType(c); err != ErrNoSeed {
		t.Errorf("err = %v, want ErrNoSeed", err)
	}
}

func TestExtendMatchesDirectBuild(t *testing.T) {
	api := &fakeSymbolAPI{atmStrike: 24500, interval: 50, lotSize: 75}
	b := newTestBuilder(api)

	built, err := b.Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypeCall, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	newRungs, err := b.Extend(*built)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if len(newRungs) != 2 {
		t.Fatalf("new rungs = %d, want 2", len(newRungs))
	}
	if newRungs[0].Offset != models.ITMOffset(3) || newRungs[0].Strike != 24350 {
		t.Errorf("itm rung = %s/%d, want ITM3/24350", newRungs[0].Offset, newRungs[0].Strike)
	}
	if newRungs[1].Offset != models.OTMOffset(3) || newRungs[1].Strike != 24650 {
		t.Errorf("otm rung = %s/%d, want OTM3/24650", newRungs[1].Offset, newRungs[1].Strike)
	}

	// The input chain is never touched: the caller owns the splice.
	if built.ExtendLevel != 2 || len(built.Rungs) != 5 {
		t.Errorf("input chain mutated: level %d, %d rungs", built.ExtendLevel, len(built.Rungs))
	}

	// Splicing the new rungs in reproduces a chain built at the deeper
	// level directly.
	extended := append([]models.StrikeRung{newRungs[0]}, built.Rungs...)
	extended = append(extended, newRungs[1])

	api2 := &fakeSymbolAPI{atmStrike: 24500, interval: 50, lotSize: 75}
	direct, err := newTestBuilder(api2).Build(context.Background(), niftyConfig(), "07AUG25", models.OptionTypeCall, 3)
	if err != nil {
		t.Fatalf("direct build: %v", err)
	}
	if len(extended) != len(direct.Rungs) {
		t.Fatalf("rungs = %d, want %d", len(extended), len(direct.Rungs))
	}
	for i := range direct.Rungs {
		if extended[i].Offset != direct.Rungs[i].Offset ||
			extended[i].Strike != direct.Rungs[i].Strike ||
			extended[i].Symbol != direct.Rungs[i].Symbol {
			t.Errorf("rung %d differs: %+v vs %+v", i, extended[i], direct.Rungs[i])
		}
	}
}

func TestExtendWithoutSeed(t *testing.T) {
	b := newTestBuilder(&fakeSymbolAPI{})
	c := models.StrikeChain{Underlying: "NIFTY", Expiry: "07AUG25", OptionType: models.OptionTypeCall}
	if _, err := b.Extend(c); err != ErrNoSeed {
		t.Errorf("err = %v, want ErrNoSeed", err)
	}
}
