package schema

import "time"

// Instrument identifies a tradeable symbol within a session.
type Instrument string

// Direction describes which way the satellite leg of a pair trade points.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	DirectionLongSatellite
	DirectionShortSatellite
)

func (d Direction) String() string {
	switch d {
	case DirectionLongSatellite:
		return "long_satellite"
	case DirectionShortSatellite:
		return "short_satellite"
	default:
		return "unknown"
	}
}

// ExitReason describes why a leg was closed.
type ExitReason uint8

const (
	ExitNone ExitReason = iota
	ExitTakeProfit
	ExitStopLoss
	ExitSessionClose
)

func (r ExitReason) String() string {
	switch r {
	case ExitTakeProfit:
		return "take_profit"
	case ExitStopLoss:
		return "stop_loss"
	case ExitSessionClose:
		return "session_close"
	default:
		return "none"
	}
}

// Quote is one non-base instrument's state within a snapshot: its return
// normalized against the base instrument, and its price.
type Quote struct {
	Instrument Instrument
	Return     float64
	Price      float64
}

// Snapshot is one validated market tick. Quotes keep the universe order of the
// tick that produced them; the base instrument never appears as a quote.
type Snapshot struct {
	Timestamp time.Time
	Base      Instrument
	BasePrice float64
	Quotes    []Quote
}

// Quote returns the quote for an instrument, if present in this snapshot.
func (s Snapshot) Quote(instrument Instrument) (Quote, bool) {
	for _, q := range s.Quotes {
		if q.Instrument == instrument {
			return q, true
		}
	}
	return Quote{}, false
}

// Leg is one open pair trade: a satellite position and its offsetting base
// position. Legs are created by the ledger on entry and destroyed on close;
// they are never mutated in between.
type Leg struct {
	Instrument     Instrument
	SatShares      float64
	BaseShares     float64
	EntryPrice     float64
	EntryBasePrice float64
	Notional       float64
	OpenedAt       time.Time
}

// Candidate is an instrument that qualified for entry on the current tick.
type Candidate struct {
	Instrument Instrument
	Price      float64
	Direction  Direction
}
