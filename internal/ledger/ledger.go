// Package ledger owns the money: open position legs, the running balance, and
// the closed-trade log. All arithmetic of opening and closing legs lives here.
package ledger

import (
	"main/internal/errors"
	"main/internal/schema"
)

var (
	ErrNoCandidates = errors.New("open called with zero candidates")
	ErrUnknownLeg   = errors.New("no open leg for instrument")
	ErrDuplicateLeg = errors.New("leg already open for instrument")
)

// Ledger tracks open legs keyed by instrument, the cash balance, and the
// realized ROI of every closed trade. At most one leg per instrument.
type Ledger struct {
	balance float64
	legs    map[schema.Instrument]schema.Leg
	order   []schema.Instrument
	trades  []float64
}

// New creates a ledger with the given starting balance.
func New(initialBalance float64) *Ledger {
	return &Ledger{
		balance: initialBalance,
		legs:    make(map[schema.Instrument]schema.Leg),
	}
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 { return l.balance }

// InTrade reports whether any leg is open.
func (l *Ledger) InTrade() bool { return len(l.legs) > 0 }

// OpenCount returns the number of open legs.
func (l *Ledger) OpenCount() int { return len(l.legs) }

// Leg returns the open leg for an instrument, if any.
func (l *Ledger) Leg(instrument schema.Instrument) (schema.Leg, bool) {
	leg, ok := l.legs[instrument]
	return leg, ok
}

// OpenLegs returns the open legs in the order they were opened.
func (l *Ledger) OpenLegs() []schema.Leg {
	legs := make([]schema.Leg, 0, len(l.order))
	for _, instrument := range l.order {
		if leg, ok := l.legs[instrument]; ok {
			legs = append(legs, leg)
		}
	}
	return legs
}

// Trades returns the realized ROI log, one entry per closed leg, oldest first.
func (l *Ledger) Trades() []float64 {
	out := make([]float64, len(l.trades))
	copy(out, l.trades)
	return out
}

// Open sizes and records one leg per candidate, funding each evenly from the
// configured trade size. tradeSize is interpreted as a fraction of the current
// balance when asPercent is set. Opening is notional-neutral: the satellite and
// base legs carry equal and opposite notional, so the balance does not move
// until close.
func (l *Ledger) Open(candidates []schema.Candidate, snapshot schema.Snapshot, tradeSize float64, asPercent bool) ([]schema.Leg, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	size := tradeSize
	if asPercent {
		size = tradeSize * l.balance
	}
	// Two legs per candidate share the same allocation, hence the factor of two.
	perLegNotional := size / float64(len(candidates)) * 2

	opened := make([]schema.Leg, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := l.legs[c.Instrument]; ok {
			return opened, errors.Wrapf(ErrDuplicateLeg, "instrument %s", c.Instrument)
		}

		sign := 1.0
		if c.Direction == schema.DirectionShortSatellite {
			sign = -1.0
		}
		leg := schema.Leg{
			Instrument:     c.Instrument,
			SatShares:      perLegNotional / c.Price * sign,
			BaseShares:     perLegNotional / snapshot.BasePrice * -sign,
			EntryPrice:     c.Price,
			EntryBasePrice: snapshot.BasePrice,
			Notional:       perLegNotional,
			OpenedAt:       snapshot.Timestamp,
		}
		l.legs[c.Instrument] = leg
		l.order = append(l.order, c.Instrument)
		opened = append(opened, leg)
	}
	return opened, nil
}

// Close realizes one leg at the given prices, credits the balance, appends the
// trade's ROI to the log, and removes the leg. ROI is measured against the
// balance immediately before this close, so each trade is a local measurement
// rather than a session-level return.
func (l *Ledger) Close(instrument schema.Instrument, currentPrice, currentBasePrice float64) (schema.Leg, float64, error) {
	leg, ok := l.legs[instrument]
	if !ok {
		return schema.Leg{}, 0, errors.Wrapf(ErrUnknownLeg, "instrument %s", instrument)
	}

	before := l.balance
	l.balance += -(leg.BaseShares * currentBasePrice) - (leg.SatShares * currentPrice)
	roi := l.balance/before - 1

	delete(l.legs, instrument)
	l.trades = append(l.trades, roi)
	if len(l.legs) == 0 {
		l.order = l.order[:0]
	}
	return leg, roi, nil
}

// ClosedTrade pairs a destroyed leg with the ROI it realized.
type ClosedTrade struct {
	Leg schema.Leg
	ROI float64
}

// ForceCloseAll closes every open leg at the snapshot's prices, in the
// snapshot's universe order, regardless of exit conditions. Used only for
// end-of-session liquidation.
func (l *Ledger) ForceCloseAll(snapshot schema.Snapshot) ([]ClosedTrade, error) {
	closed := make([]ClosedTrade, 0, len(l.legs))
	for _, q := range snapshot.Quotes {
		if _, ok := l.legs[q.Instrument]; !ok {
			continue
		}
		leg, roi, err := l.Close(q.Instrument, q.Price, snapshot.BasePrice)
		if err != nil {
			return closed, err
		}
		closed = append(closed, ClosedTrade{Leg: leg, ROI: roi})
	}
	if len(l.legs) != 0 {
		return closed, errors.Wrapf(ErrUnknownLeg, "%d legs missing from snapshot", len(l.legs))
	}
	return closed, nil
}
