// Package ticks streams live prices over a websocket feed and coalesces them
// into batched UI updates.
package ticks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"openalgo-scalper/internal/models"
)

// Target identifies one of the two exclusive feed slots. Each slot holds at
// most one subscription at a time: subscribing a new symbol to a slot
// unsubscribes the previous one.
type Target int

const (
	// TargetUnderlying streams the active underlying's spot price.
	TargetUnderlying Target = iota
	// TargetStrike streams the selected strike's option price.
	TargetStrike
)

func (t Target) String() string {
	if t == TargetStrike {
		return "strike"
	}
	return "underlying"
}

// FlushInterval is the coalescing window. Ticks arriving within one window
// overwrite the pending slot; only the latest value per target reaches the
// flush callback.
const FlushInterval = 100 * time.Millisecond

// ReconnectDelay is the fixed delay between reconnection attempts while the
// feed is enabled.
const ReconnectDelay = 5 * time.Second

// Subscription is one symbol bound to a feed slot.
type Subscription struct {
	Symbol   string
	Exchange models.Exchange
}

// FlushFunc receives the coalesced pending ticks. Either argument may be nil
// when no tick for that target arrived during the window.
type FlushFunc func(underlying, strike *models.Tick)

type outboundFrame struct {
	Action   string `json:"action"`
	APIKey   string `json:"api_key,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Mode     int    `json:"mode,omitempty"`
}

type inboundFrame struct {
	Type string `json:"type"`
	Data struct {
		Symbol string  `json:"symbol"`
		LTP    float64 `json:"ltp"`
	} `json:"data"`
}

// Integrator maintains the websocket feed: authentication, the two exclusive
// subscriptions, single-slot pending buffers, and a fixed-delay reconnect
// loop. All exported methods are safe for concurrent use.
type Integrator struct {
	url            string
	apiKey         string
	onFlush        FlushFunc
	logger         zerolog.Logger
	reconnectDelay time.Duration

	mu         sync.Mutex
	enabled    bool
	conn       *websocket.Conn
	subs       map[Target]Subscription
	marketMode bool

	pendingUnderlying *models.Tick
	pendingStrike     *models.Tick
	flushTimer        *time.Timer
	reconnectTimer    *time.Timer
}

// NewIntegrator creates a tick integrator. The feed stays disconnected until
// Enable is called.
func NewIntegrator(url, apiKey string, onFlush FlushFunc, logger zerolog.Logger) *Integrator {
	return &Integrator{
		url:            url,
		apiKey:         apiKey,
		onFlush:        onFlush,
		logger:         logger,
		reconnectDelay: ReconnectDelay,
		subs:           make(map[Target]Subscription),
	}
}

// SetMarketMode controls whether strike ticks are buffered. Outside MARKET
// mode the order-entry price is user-controlled, so strike ticks are dropped
// on arrival rather than flushed into the panel.
func (i *Integrator) SetMarketMode(on bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.marketMode = on
	if !on {
		i.pendingStrike = nil
	}
}

// Enabled reports whether the feed is switched on.
func (i *Integrator) Enabled() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.enabled
}

// Enable switches the feed on and connects. While enabled, a dropped
// connection schedules a reconnect every ReconnectDelay.
func (i *Integrator) Enable() {
	i.mu.Lock()
	if i.enabled {
		i.mu.Unlock()
		return
	}
	i.enabled = true
	i.mu.Unlock()

	i.connect()
}

// Disable switches the feed off: the connection is closed, any scheduled
// reconnect is cancelled, and pending buffers are dropped.
func (i *Integrator) Disable() {
	i.mu.Lock()
	i.enabled = false
	if i.reconnectTimer != nil {
		i.reconnectTimer.Stop()
		i.reconnectTimer = nil
	}
	if i.flushTimer != nil {
		i.flushTimer.Stop()
		i.flushTimer = nil
	}
	i.pendingUnderlying = nil
	i.pendingStrike = nil
	conn := i.conn
	i.conn = nil
	i.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	i.logger.Info().Msg("Tick feed disabled")
}

// Subscribe binds a symbol to a feed slot. The slot's previous symbol, if
// different, is unsubscribed first. A no-op when the slot already streams
// this symbol.
func (i *Integrator) Subscribe(target Target, symbol string, exchange models.Exchange) {
	i.mu.Lock()
	prev, had := i.subs[target]
	if had && prev.Symbol == symbol && prev.Exchange == exchange {
		i.mu.Unlock()
		return
	}
	i.subs[target] = Subscription{Symbol: symbol, Exchange: exchange}
	if target == TargetUnderlying {
		i.pendingUnderlying = nil
	} else {
		i.pendingStrike = nil
	}
	conn := i.conn
	i.mu.Unlock()

	if conn == nil {
		return
	}
	if had {
		i.send(conn, outboundFrame{Action: "unsubscribe", Symbol: prev.Symbol, Exchange: string(prev.Exchange), Mode: 1})
	}
	i.send(conn, outboundFrame{Action: "subscribe", Symbol: symbol, Exchange: string(exchange), Mode: 1})

	i.logger.Debug().
		Str("target", target.String()).
		Str("symbol", symbol).
		Msg("Feed subscription switched")
}

// Unsubscribe releases a feed slot.
func (i *Integrator) Unsubscribe(target Target) {
	i.mu.Lock()
	prev, had := i.subs[target]
	delete(i.subs, target)
	if target == TargetUnderlying {
		i.pendingUnderlying = nil
	} else {
		i.pendingStrike = nil
	}
	conn := i.conn
	i.mu.Unlock()

	if had && conn != nil {
		i.send(conn, outboundFrame{Action: "unsubscribe", Symbol: prev.Symbol, Exchange: string(prev.Exchange), Mode: 1})
	}
}

func (i *Integrator) connect() {
	i.mu.Lock()
	if !i.enabled || i.conn != nil {
		i.mu.Unlock()
		return
	}
	url, apiKey := i.url, i.apiKey
	i.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		i.logger.Warn().Err(err).Msg("Tick feed connect failed")
		i.scheduleReconnect()
		return
	}

	if err := conn.WriteJSON(outboundFrame{Action: "authenticate", APIKey: apiKey}); err != nil {
		i.logger.Warn().Err(err).Msg("Tick feed authentication failed")
		conn.Close()
		i.scheduleReconnect()
		return
	}

	i.mu.Lock()
	if !i.enabled {
		i.mu.Unlock()
		conn.Close()
		return
	}
	i.conn = conn
	subs := make(map[Target]Subscription, len(i.subs))
	for t, s := range i.subs {
		subs[t] = s
	}
	i.mu.Unlock()

	// Re-establish both slots after a (re)connect.
	for _, s := range subs {
		i.send(conn, outboundFrame{Action: "subscribe", Symbol: s.Symbol, Exchange: string(s.Exchange), Mode: 1})
	}

	i.logger.Info().Str("url", url).Msg("Tick feed connected")
	go i.readLoop(conn)
}

func (i *Integrator) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			i.mu.Lock()
			lost := i.conn == conn
			if lost {
				i.conn = nil
			}
			enabled := i.enabled
			i.mu.Unlock()

			if lost && enabled {
				i.logger.Warn().Err(err).Msg("Tick feed connection lost")
				i.scheduleReconnect()
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Type != "market_data" {
			continue
		}
		i.handleTick(frame.Data.Symbol, frame.Data.LTP)
	}
}

// handleTick routes an inbound tick to its slot's pending buffer. A newer
// tick overwrites an unflushed one; the flush timer is only armed when no
// flush is already scheduled.
func (i *Integrator) handleTick(symbol string, ltp float64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	tick := &models.Tick{Symbol: symbol, LTP: ltp, Timestamp: time.Now()}

	matched := false
	if s, ok := i.subs[TargetUnderlying]; ok && s.Symbol == symbol {
		i.pendingUnderlying = tick
		matched = true
	}
	if s, ok := i.subs[TargetStrike]; ok && s.Symbol == symbol {
		if i.marketMode {
			i.pendingStrike = tick
			matched = true
		}
	}

	if matched && i.flushTimer == nil {
		i.flushTimer = time.AfterFunc(FlushInterval, i.flush)
	}
}

func (i *Integrator) flush() {
	i.mu.Lock()
	underlying := i.pendingUnderlying
	strike := i.pendingStrike
	i.pendingUnderlying = nil
	i.pendingStrike = nil
	i.flushTimer = nil
	onFlush := i.onFlush
	i.mu.Unlock()

	if onFlush != nil && (underlying != nil || strike != nil) {
		onFlush(underlying, strike)
	}
}

func (i *Integrator) scheduleReconnect() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.enabled || i.reconnectTimer != nil {
		return
	}
	i.reconnectTimer = time.AfterFunc(i.reconnectDelay, func() {
		i.mu.Lock()
		i.reconnectTimer = nil
		i.mu.Unlock()
		i.connect()
	})
}

func (i *Integrator) send(conn *websocket.Conn, frame outboundFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		i.logger.Warn().Str("action", frame.Action).Err(err).Msg("Feed frame send failed")
	}
}

// Run keeps the integrator alive until the context is cancelled, then
// disables the feed. Convenience for callers driving it from a lifecycle
// context rather than explicit Enable/Disable calls.
func (i *Integrator) Run(ctx context.Context) {
	i.Enable()
	<-ctx.Done()
	i.Disable()
}
