package schema

import "time"

// TradeEventType categorizes trade lifecycle notifications.
type TradeEventType uint8

const (
	TradeEventUnknown TradeEventType = iota
	TradeEventOpen
	TradeEventClose
	TradeEventForceClose
)

func (t TradeEventType) String() string {
	switch t {
	case TradeEventOpen:
		return "open"
	case TradeEventClose:
		return "close"
	case TradeEventForceClose:
		return "force_close"
	default:
		return "unknown"
	}
}

// TradeEvent is one trade lifecycle notification emitted by the engine.
// Events are observational only; the engine's own decisions never read them.
type TradeEvent struct {
	Type       TradeEventType
	Timestamp  time.Time
	Instrument Instrument
	Base       Instrument
	SatShares  float64
	BaseShares float64
	Price      float64
	BasePrice  float64
	Reason     ExitReason
	ROI        float64
	Balance    float64
}
