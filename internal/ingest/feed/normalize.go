package feed

import (
	"time"

	"main/internal/ingest"
	"main/internal/schema"
)

// Normalizer folds per-symbol price updates into whole-universe ticks. The
// first price seen for a symbol becomes its session open; a symbol's return is
// its move off that open, measured relative to the base instrument's own move.
type Normalizer struct {
	instruments []schema.Instrument
	open        map[schema.Instrument]float64
	last        map[schema.Instrument]float64
}

// NewNormalizer creates a normalizer for the ordered universe, base first.
func NewNormalizer(instruments []schema.Instrument) *Normalizer {
	return &Normalizer{
		instruments: instruments,
		open:        make(map[schema.Instrument]float64, len(instruments)),
		last:        make(map[schema.Instrument]float64, len(instruments)),
	}
}

// Apply records one price update. Once every instrument in the universe has
// traded at least once, each update yields a complete tick.
func (n *Normalizer) Apply(instrument schema.Instrument, price float64, ts time.Time) (ingest.Tick, bool) {
	if price <= 0 {
		return ingest.Tick{}, false
	}
	if _, seen := n.open[instrument]; !seen {
		n.open[instrument] = price
	}
	n.last[instrument] = price

	if len(n.last) < len(n.instruments) {
		return ingest.Tick{}, false
	}

	base := n.instruments[0]
	baseMove := n.last[base]/n.open[base] - 1

	returns := make([]float64, 0, len(n.instruments)-1)
	prices := make([]float64, 0, len(n.instruments))
	prices = append(prices, n.last[base])
	for _, sat := range n.instruments[1:] {
		satMove := n.last[sat]/n.open[sat] - 1
		returns = append(returns, satMove-baseMove)
		prices = append(prices, n.last[sat])
	}

	return ingest.Tick{Timestamp: ts, Returns: returns, Prices: prices}, true
}
