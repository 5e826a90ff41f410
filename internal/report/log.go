// Package report turns engine trade events into operator-facing output: a
// structured log stream, and optionally a Postgres trade history.
package report

import (
	"github.com/yanun0323/logs"

	"main/internal/engine"
	"main/internal/schema"
)

var (
	_ engine.Observer = LogSink{}
	_ engine.Observer = (*Store)(nil)
)

// LogSink logs every trade event. It is safe to attach to any engine; it
// holds no state.
type LogSink struct{}

func (LogSink) OnTradeEvent(e schema.TradeEvent) {
	switch e.Type {
	case schema.TradeEventOpen:
		logs.Infof("open trade %s: sat %.4f @%.4f, base(%s) %.4f @%.4f, balance %.2f",
			e.Instrument, e.SatShares, e.Price, e.Base, e.BaseShares, e.BasePrice, e.Balance)
	case schema.TradeEventClose, schema.TradeEventForceClose:
		logs.Infof("%s trade %s: reason %s, roi %.4f%%, balance %.2f",
			e.Type, e.Instrument, e.Reason, e.ROI*100, e.Balance)
	default:
		logs.Errorf("unknown trade event type: %d", e.Type)
	}
}
