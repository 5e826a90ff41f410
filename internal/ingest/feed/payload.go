package feed

import (
	"strconv"

	"github.com/yanun0323/decimal"
)

// BinanceMiniTicker is the '24hrMiniTicker' stream payload.
type BinanceMiniTicker struct {
	EventType string          `json:"e"`
	EventTime int64           `json:"E"` // epoch millis
	Symbol    string          `json:"s"`
	Close     decimal.Decimal `json:"c"`
	Open      decimal.Decimal `json:"o"`
	High      decimal.Decimal `json:"h"`
	Low       decimal.Decimal `json:"l"`
	Volume    decimal.Decimal `json:"v"`
	Quote     decimal.Decimal `json:"q"`
}

// Price returns the last price as a float, false when the payload carries no
// parseable close.
func (t BinanceMiniTicker) Price() (float64, bool) {
	p, err := strconv.ParseFloat(t.Close.String(), 64)
	if err != nil || p <= 0 {
		return 0, false
	}
	return p, true
}
