// Package session orchestrates the trading panel: it owns the active symbol,
// expiry, strike chain and order-entry selection, and coordinates the chain
// builder, quote engine, position reconciler and tick feed behind a single
// lock.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"openalgo-scalper/internal/chain"
	"openalgo-scalper/internal/config"
	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/logging"
	"openalgo-scalper/internal/lotsize"
	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/notify"
	"openalgo-scalper/internal/openalgo"
	"openalgo-scalper/internal/position"
	"openalgo-scalper/internal/quotes"
	"openalgo-scalper/internal/store"
	"openalgo-scalper/internal/ticks"
)

// View receives state projections for rendering. The session calls it from
// multiple goroutines; implementations serialize internally.
type View interface {
	RenderChain(c models.StrikeChain, sel models.SelectionState)
	RenderSelection(sel models.SelectionState)
	RenderUnderlying(q models.Quote)
	RenderFunds(f models.Funds)
	RenderMargin(margin float64)
	RenderPosition(cov position.Coverage)
	// ChainRebuilt signals that the chain was replaced wholesale (symbol or
	// expiry change, ATM drift) and any in-progress edit should be dropped.
	ChainRebuilt(reason string)
}

// Settings keys persisted across restarts.
const (
	settingSelection  = "selection"
	settingExpiry     = "expiry"
	settingOptionType = "option_type"
)

// Session is the panel's state machine. One mutex guards all mutable state;
// a generation counter marks the current selection so slow responses for a
// superseded selection are discarded instead of applied.
type Session struct {
	cfg      *config.Config
	api      *openalgo.Client
	builder  *chain.Builder
	engine   *quotes.Engine
	lots     *lotsize.Cache
	recon    *position.Reconciler
	feed     *ticks.Integrator
	db       *store.SQLiteStore
	notifier notify.Notifier
	view     View
	logger   zerolog.Logger

	mu         sync.Mutex
	sym        models.SymbolConfig
	expiries   []string
	expiry     string
	optType    models.OptionType
	chain      *models.StrikeChain
	sel        models.SelectionState
	generation uint64
	coverage   position.Coverage
	funds      models.Funds
	underlying models.Quote
	margin     float64

	buckets  *quotes.RefreshBuckets
	autoStop chan struct{}
}

// Options bundles the collaborators a Session needs.
type Options struct {
	Config   *config.Config
	API      *openalgo.Client
	Store    *store.SQLiteStore
	Notifier notify.Notifier
	View     View
	Logger   zerolog.Logger
}

// New wires up a Session and its collaborators.
func New(opts Options) (*Session, error) {
	sym, ok := opts.Config.ActiveSymbol()
	if !ok {
		return nil, apierrors.ErrNoActiveSymbol
	}

	resolver := chain.NewResolver(opts.API, opts.Config.Panel.LotSizeDefault, logging.WithComponent(opts.Logger, "chain"))
	builder := chain.NewBuilder(resolver, logging.WithComponent(opts.Logger, "chain"))
	engine := quotes.NewEngine(opts.API, logging.WithComponent(opts.Logger, "quotes"))
	lots := lotsize.NewCache(opts.API, logging.WithComponent(opts.Logger, "lotsize"))
	recon := position.NewReconciler(opts.API, lots, logging.WithComponent(opts.Logger, "position"))

	s := &Session{
		cfg:      opts.Config,
		api:      opts.API,
		builder:  builder,
		engine:   engine,
		lots:     lots,
		recon:    recon,
		db:       opts.Store,
		notifier: opts.Notifier,
		view:     opts.View,
		logger:   logging.WithSymbol(logging.WithComponent(opts.Logger, "session"), sym.Symbol),
		sym:      sym,
		optType:  models.OptionTypeCall,
	}

	s.buckets = quotes.NewRefreshBuckets(quotes.BucketActions{
		Margin:       s.refreshMargin,
		Underlying:   s.refreshUnderlying,
		Funds:        s.refreshFunds,
		OpenPosition: s.refreshPosition,
		StrikeLTPs:   s.refreshStrikeLTPs,
	})

	if opts.Config.Feed.Enabled && opts.Config.Feed.URL != "" {
		s.feed = ticks.NewIntegrator(opts.Config.Feed.URL, opts.Config.Server.APIKey, s.applyTicks, logging.WithComponent(opts.Logger, "ticks"))
	}

	s.sel = models.SelectionState{
		Offset:    models.OffsetATM,
		Action:    models.ActionBuy,
		OrderType: models.OrderTypeMarket,
		Lots:      1,
	}
	s.restoreSettings()

	return s, nil
}

// Start brings the session up: resolves the expiry, builds the initial chain
// and kicks off the refresh machinery.
func (s *Session) Start(ctx context.Context) error {
	if err := s.FetchExpiry(ctx); err != nil {
		return err
	}

	if s.feed != nil {
		s.feed.SetMarketMode(s.OrderType() == models.OrderTypeMarket)
		s.feed.Enable()
		s.subscribeUnderlying()
	}

	s.buckets.Funds.Trigger()
	s.buckets.Underlying.Trigger()
	s.buckets.OpenPosition.Trigger()

	if s.cfg.Refresh.Mode == config.RefreshAuto {
		s.startAutoRefresh()
	}
	return nil
}

// Stop tears the session down.
func (s *Session) Stop() {
	s.stopAutoRefresh()
	s.buckets.CancelAll()
	if s.feed != nil {
		s.feed.Disable()
	}
}

// ActiveSymbol returns the configured underlying the session trades.
func (s *Session) ActiveSymbol() models.SymbolConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sym
}

// Expiry returns the selected expiry date.
func (s *Session) Expiry() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiry
}

// Expiries returns the fetched expiry list.
func (s *Session) Expiries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.expiries))
	copy(out, s.expiries)
	return out
}

// Chain returns a copy of the current strike chain.
func (s *Session) Chain() (models.StrikeChain, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.snapshotChainLocked()
	if c == nil {
		return models.StrikeChain{}, false
	}
	return *c, true
}

// snapshotChainLocked deep-copies the chain so callers can hand it to slower
// collaborators without holding the session mutex. Caller holds s.mu.
func (s *Session) snapshotChainLocked() *models.StrikeChain {
	if s.chain == nil {
		return nil
	}
	c := *s.chain
	c.Rungs = make([]models.StrikeRung, len(s.chain.Rungs))
	copy(c.Rungs, s.chain.Rungs)
	return &c
}

// Selection returns the current order-entry selection.
func (s *Session) Selection() models.SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// OrderType returns the selection's price type.
func (s *Session) OrderType() models.OrderType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.OrderType
}

// OptionType returns the chain's current option type.
func (s *Session) OptionType() models.OptionType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optType
}

// Funds returns the last fetched account funds.
func (s *Session) Funds() models.Funds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.funds
}

// Underlying returns the last fetched underlying quote.
func (s *Session) Underlying() models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.underlying
}

// Margin returns the last computed margin estimate.
func (s *Session) Margin() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.margin
}

// Coverage returns the last position reconciliation.
func (s *Session) Coverage() position.Coverage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coverage
}

// FetchExpiry loads the expiry list for the active underlying, normalizes the
// dates and selects the nearest one, then builds the chain for it. A
// previously persisted expiry still present in the list is preferred.
func (s *Session) FetchExpiry(ctx context.Context) error {
	s.mu.Lock()
	sym := s.sym
	persisted := s.expiry
	s.mu.Unlock()

	raw, err := s.api.Expiry(ctx, sym.Symbol, sym.Exchange)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return apierrors.ErrNoExpiry
	}

	expiries := make([]string, 0, len(raw))
	for _, e := range raw {
		expiries = append(expiries, chain.NormalizeExpiry(e))
	}

	selected := expiries[0]
	for _, e := range expiries {
		if e == persisted {
			selected = e
			break
		}
	}

	s.mu.Lock()
	s.expiries = expiries
	s.expiry = selected
	s.mu.Unlock()

	s.persistSetting(settingExpiry, selected)
	return s.RebuildChain(ctx, "expiry resolved")
}

// SelectExpiry switches to a different expiry from the fetched list and
// rebuilds the chain.
func (s *Session) SelectExpiry(ctx context.Context, expiry string) error {
	expiry = chain.NormalizeExpiry(expiry)

	s.mu.Lock()
	found := false
	for _, e := range s.expiries {
		if e == expiry {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return apierrors.NewValidationError("expiry", expiry, "not in fetched expiry list")
	}
	if s.expiry == expiry {
		s.mu.Unlock()
		return nil
	}
	s.expiry = expiry
	s.mu.Unlock()

	s.builder.InvalidateSeed()
	s.persistSetting(settingExpiry, expiry)
	return s.RebuildChain(ctx, "expiry changed")
}

// RebuildChain performs a full seed resolution and chain build, replacing the
// current chain. On failure the prior chain stays in place.
func (s *Session) RebuildChain(ctx context.Context, reason string) error {
	s.mu.Lock()
	sym := s.sym
	expiry := s.expiry
	optType := s.optType
	extendLevel := s.cfg.Panel.ExtendLevel
	if s.chain != nil {
		extendLevel = s.chain.ExtendLevel
	}
	s.mu.Unlock()

	built, err := s.builder.Build(ctx, sym, expiry, optType, extendLevel)
	if err != nil {
		if apierrors.Is(err, chain.ErrBuildInFlight) {
			return nil
		}
		notify.Error(s.notifier, "Chain build failed", "%v", err)
		return err
	}

	for i := range built.Rungs {
		s.lots.Put(built.Rungs[i].Symbol, built.Rungs[i].Exchange, built.Rungs[i].LotSize)
	}

	s.mu.Lock()
	s.chain = built
	s.generation++
	quotes.SyncSelection(s.chain, &s.sel, false)
	s.mu.Unlock()

	if s.view != nil {
		s.view.ChainRebuilt(reason)
	}
	s.renderChain()
	s.subscribeStrike()

	s.buckets.StrikeLTPs.Trigger()
	s.buckets.Margin.Trigger()
	s.buckets.OpenPosition.Trigger()
	return nil
}

// ManualRefresh re-fetches every panel area at once, used by the refresh
// button and by manual refresh mode.
func (s *Session) ManualRefresh() {
	s.buckets.Funds.Trigger()
	s.buckets.Underlying.Trigger()
	s.buckets.StrikeLTPs.Trigger()
	s.buckets.OpenPosition.Trigger()
	s.buckets.Margin.Trigger()
}

func (s *Session) renderChain() {
	if s.view == nil {
		return
	}
	c, ok := s.Chain()
	if !ok {
		return
	}
	s.view.RenderChain(c, s.Selection())
}

func (s *Session) renderSelection() {
	if s.view == nil {
		return
	}
	s.view.RenderSelection(s.Selection())
}

// restoreSettings loads the persisted selection and expiry, tolerating an
// absent or unreadable store.
func (s *Session) restoreSettings() {
	if s.db == nil {
		return
	}

	var sel models.SelectionState
	if err := s.db.GetSetting(settingSelection, &sel); err == nil {
		if sel.Lots > 0 {
			s.sel.Lots = sel.Lots
		}
		if sel.Action != "" {
			s.sel.Action = sel.Action
		}
		if sel.OrderType != "" {
			s.sel.OrderType = sel.OrderType
		}
		s.sel.Offset = sel.Offset
	}

	var expiry string
	if err := s.db.GetSetting(settingExpiry, &expiry); err == nil {
		s.expiry = expiry
	}

	var optType models.OptionType
	if err := s.db.GetSetting(settingOptionType, &optType); err == nil {
		if optType == models.OptionTypeCall || optType == models.OptionTypePut {
			s.optType = optType
		}
	}
}

func (s *Session) persistSetting(key string, value interface{}) {
	if s.db == nil {
		return
	}
	go func() {
		if err := s.db.SetSetting(key, value); err != nil {
			s.logger.Warn().Str("key", key).Err(err).Msg("Failed to persist setting")
		}
	}()
}

func (s *Session) persistSelection() {
	s.mu.Lock()
	sel := s.sel
	s.mu.Unlock()
	s.persistSetting(settingSelection, sel)
}
