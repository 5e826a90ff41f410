// Package strategy holds the pure decision logic of the region-arbitrage
// engine: which instruments qualify for entry on a tick, and whether an open
// leg should be closed. Nothing here mutates state or performs IO.
package strategy

import (
	"time"

	"main/internal/schema"
)

// ScanEntries returns the instruments qualifying for entry on this snapshot,
// in snapshot order.
//
// An instrument qualifies only when its return exceeds minDeviation. Returns
// below the negative threshold never qualify; this asymmetry is intentional
// behavior carried over from the production strategy and must not be widened
// to abs(return) without a product decision.
func ScanEntries(snapshot schema.Snapshot, minDeviation float64) []schema.Candidate {
	candidates := make([]schema.Candidate, 0, len(snapshot.Quotes))
	for _, q := range snapshot.Quotes {
		if q.Return <= minDeviation {
			continue
		}
		direction := schema.DirectionShortSatellite
		if q.Return > 0 {
			direction = schema.DirectionLongSatellite
		}
		candidates = append(candidates, schema.Candidate{
			Instrument: q.Instrument,
			Price:      q.Price,
			Direction:  direction,
		})
	}
	return candidates
}

// ShouldExit decides whether one open leg closes on this tick.
//
// Take-profit fires when the return has reverted into the neutral band
// [-triggerRange, triggerRange], boundaries inclusive. It is checked before
// stop-loss; at most one reason is signaled per leg per tick. Stop-loss fires
// when the leg's mark-to-market value has fallen below -stopLossFraction of
// the notional allocated to the leg at entry. Every open leg is evaluated
// independently; a take-profit on one leg never suppresses checks on another.
func ShouldExit(leg schema.Leg, currentReturn, currentPrice, currentBasePrice, triggerRange, stopLossFraction float64) schema.ExitReason {
	if currentReturn >= -triggerRange && currentReturn <= triggerRange {
		return schema.ExitTakeProfit
	}

	markToMarket := leg.SatShares*currentPrice + leg.BaseShares*currentBasePrice
	if markToMarket < -stopLossFraction*leg.Notional {
		return schema.ExitStopLoss
	}

	return schema.ExitNone
}

// SessionClosing reports whether the tick timestamp is strictly past the
// session cutoff. This is the sole trigger for forced liquidation.
func SessionClosing(timestamp time.Time, cutoff schema.TimeOfDay) bool {
	return schema.TimeOfDayOf(timestamp).After(cutoff)
}
