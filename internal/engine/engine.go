/*
Engine drives one region-arbitrage strategy instance through a session.

# Module
  - snapshot ingestor: validates each raw tick before anything can mutate
  - evaluator: pure entry/exit decisions over the validated snapshot
  - ledger: open legs, balance, and the closed-trade ROI log

# Flow per tick

	validate -> exit checks on every open leg -> forced liquidation when the
	session is closing -> entry scan when flat

A tick is processed to completion before the next one is accepted. The engine
has no internal concurrency; a host running several sessions uses one engine
per session.
*/
package engine

import (
	"time"

	"main/internal/errors"
	"main/internal/ingest"
	"main/internal/ledger"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/schema"
	"main/internal/strategy"
)

var ErrUniverseTooSmall = errors.New("universe needs a base and at least one satellite")

// Observer receives trade lifecycle events. Observers are notification-only;
// the engine never reads anything back from them.
type Observer interface {
	OnTradeEvent(schema.TradeEvent)
}

// Engine is one strategy instance bound to a session's instrument universe.
type Engine struct {
	params      ops.Params
	instruments []schema.Instrument
	ledger      *ledger.Ledger
	metrics     *obs.Metrics
	observers   []Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches a metrics container.
func WithMetrics(m *obs.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithObserver registers a trade-event observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New builds an engine from validated parameters and an ordered universe with
// the base instrument first.
func New(params ops.Params, instruments []schema.Instrument, opts ...Option) (*Engine, error) {
	if len(instruments) < 2 {
		return nil, ErrUniverseTooSmall
	}
	e := &Engine{
		params:      params,
		instruments: instruments,
		ledger:      ledger.New(params.InitialBalance),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// OnTick processes one market tick. A malformed tick is rejected before any
// state changes and the engine stays usable for the next tick.
func (e *Engine) OnTick(timestamp time.Time, returns, prices []float64) error {
	start := time.Now()

	snapshot, err := ingest.ValidateAndBuild(timestamp, returns, prices, e.instruments)
	if err != nil {
		e.metrics.IncSnapshotRejected()
		return err
	}

	closing := strategy.SessionClosing(timestamp, e.params.SessionCloseCutoff)

	// Entry scanning is gated on being flat at the start of the tick: legs
	// closed during this tick do not free the engine to re-enter until the
	// next one.
	if e.ledger.InTrade() {
		if err := e.checkExits(snapshot); err != nil {
			return err
		}
		if closing && e.ledger.InTrade() {
			if err := e.forceClose(snapshot); err != nil {
				return err
			}
		}
	} else if !closing {
		if err := e.scanAndOpen(snapshot); err != nil {
			return err
		}
	}

	e.metrics.ObserveTick(time.Since(start))
	return nil
}

// checkExits evaluates every open leg independently, in universe order. A
// take-profit on one leg never skips the stop-loss check of a sibling.
func (e *Engine) checkExits(snapshot schema.Snapshot) error {
	for _, q := range snapshot.Quotes {
		leg, ok := e.ledger.Leg(q.Instrument)
		if !ok {
			continue
		}
		reason := strategy.ShouldExit(leg, q.Return, q.Price, snapshot.BasePrice,
			e.params.TriggerRange, e.params.StopLossFraction)
		if reason == schema.ExitNone {
			continue
		}

		closed, roi, err := e.ledger.Close(q.Instrument, q.Price, snapshot.BasePrice)
		if err != nil {
			return err
		}
		e.metrics.IncClose(reason)
		e.emit(closeEvent(schema.TradeEventClose, snapshot, closed, reason, roi, e.ledger.Balance()))
	}
	return nil
}

func (e *Engine) forceClose(snapshot schema.Snapshot) error {
	trades, err := e.ledger.ForceCloseAll(snapshot)
	for _, trade := range trades {
		e.metrics.IncClose(schema.ExitSessionClose)
		e.emit(closeEvent(schema.TradeEventForceClose, snapshot, trade.Leg,
			schema.ExitSessionClose, trade.ROI, e.ledger.Balance()))
	}
	return err
}

func (e *Engine) scanAndOpen(snapshot schema.Snapshot) error {
	candidates := strategy.ScanEntries(snapshot, e.params.MinDeviation)
	if len(candidates) == 0 {
		return nil
	}

	legs, err := e.ledger.Open(candidates, snapshot,
		e.params.TradeSize, e.params.TradeSizeAsPercent)
	if err != nil {
		return err
	}
	e.metrics.IncLegsOpened(len(legs))
	for _, leg := range legs {
		e.emit(schema.TradeEvent{
			Type:       schema.TradeEventOpen,
			Timestamp:  snapshot.Timestamp,
			Instrument: leg.Instrument,
			Base:       snapshot.Base,
			SatShares:  leg.SatShares,
			BaseShares: leg.BaseShares,
			Price:      leg.EntryPrice,
			BasePrice:  leg.EntryBasePrice,
			Balance:    e.ledger.Balance(),
		})
	}
	return nil
}

func (e *Engine) emit(event schema.TradeEvent) {
	for _, o := range e.observers {
		o.OnTradeEvent(event)
	}
}

func closeEvent(kind schema.TradeEventType, snapshot schema.Snapshot, leg schema.Leg, reason schema.ExitReason, roi, balance float64) schema.TradeEvent {
	price := leg.EntryPrice
	if q, ok := snapshot.Quote(leg.Instrument); ok {
		price = q.Price
	}
	return schema.TradeEvent{
		Type:       kind,
		Timestamp:  snapshot.Timestamp,
		Instrument: leg.Instrument,
		Base:       snapshot.Base,
		SatShares:  leg.SatShares,
		BaseShares: leg.BaseShares,
		Price:      price,
		BasePrice:  snapshot.BasePrice,
		Reason:     reason,
		ROI:        roi,
		Balance:    balance,
	}
}

// Balance returns the current cash balance.
func (e *Engine) Balance() float64 { return e.ledger.Balance() }

// InTrade reports whether any leg is open.
func (e *Engine) InTrade() bool { return e.ledger.InTrade() }

// OpenLegs returns the currently open legs.
func (e *Engine) OpenLegs() []schema.Leg { return e.ledger.OpenLegs() }

// Trades returns the closed-trade ROI log.
func (e *Engine) Trades() []float64 { return e.ledger.Trades() }

// Instruments returns the session universe, base first.
func (e *Engine) Instruments() []schema.Instrument { return e.instruments }
