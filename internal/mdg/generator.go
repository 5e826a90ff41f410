// Package mdg generates synthetic market data for paper runs and replay
// fixtures. Output is deterministic for a given seed.
package mdg

import (
	"math/rand"
	"time"

	"main/internal/errors"
	"main/internal/ingest"
)

const defaultBasePrice = 100

// Generator produces a random-walk tick stream for a fixed universe. Satellite
// returns drift around the base; prices follow the accumulated returns.
type Generator struct {
	rng       *rand.Rand
	step      time.Duration
	clock     time.Time
	basePrice float64
	satOpen   []float64
	satReturn []float64
	stepDev   float64
}

// NewGenerator creates a generator for a universe of the given size (base
// included). basePrice seeds the base instrument's open; satellite opens are
// spread around it.
func NewGenerator(universeSize int, seed int64, basePrice float64) (*Generator, error) {
	if universeSize < 2 {
		return nil, errors.New("universe needs a base and at least one satellite")
	}
	if basePrice <= 0 {
		basePrice = defaultBasePrice
	}

	rng := rand.New(rand.NewSource(seed))
	satellites := universeSize - 1
	satOpen := make([]float64, satellites)
	for i := range satOpen {
		satOpen[i] = basePrice * (0.5 + rng.Float64())
	}

	return &Generator{
		rng:       rng,
		step:      time.Minute,
		clock:     time.Date(0, time.January, 1, 9, 30, 0, 0, time.UTC),
		basePrice: basePrice,
		satOpen:   satOpen,
		satReturn: make([]float64, satellites),
		stepDev:   0.01,
	}, nil
}

// Next produces the next tick in the session.
func (g *Generator) Next() ingest.Tick {
	returns := make([]float64, len(g.satReturn))
	prices := make([]float64, len(g.satReturn)+1)
	prices[0] = g.basePrice
	for i := range g.satReturn {
		g.satReturn[i] += g.rng.NormFloat64() * g.stepDev
		returns[i] = g.satReturn[i]
		prices[i+1] = g.satOpen[i] * (1 + g.satReturn[i])
	}

	tick := ingest.Tick{
		Timestamp: g.clock,
		Returns:   returns,
		Prices:    prices,
	}
	g.clock = g.clock.Add(g.step)
	return tick
}

// Take produces n consecutive ticks.
func (g *Generator) Take(n int) []ingest.Tick {
	ticks := make([]ingest.Tick, 0, n)
	for i := 0; i < n; i++ {
		ticks = append(ticks, g.Next())
	}
	return ticks
}
