package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/obs"
	"main/internal/ops"
	"main/internal/schema"
)

var universe = []schema.Instrument{"BASE", "A", "B"}

func testParams() ops.Params {
	return ops.Params{
		InitialBalance:     100000,
		MinDeviation:       0.02,
		StopLossFraction:   0.05,
		TriggerRange:       0.01,
		TradeSize:          1000,
		SessionCloseCutoff: schema.NewTimeOfDay(16, 29, 0),
	}
}

func at(h, m int) time.Time {
	return time.Date(2024, time.March, 4, h, m, 0, 0, time.UTC)
}

type captureObserver struct {
	events []schema.TradeEvent
}

func (c *captureObserver) OnTradeEvent(e schema.TradeEvent) {
	c.events = append(c.events, e)
}

func TestEntryThenTakeProfit(t *testing.T) {
	capture := &captureObserver{}
	eng, err := New(testParams(), universe, WithObserver(capture))
	require.NoError(t, err)

	// A deviates above threshold, B below: only A opens, long satellite.
	require.NoError(t, eng.OnTick(at(10, 0), []float64{0.03, -0.01}, []float64{100, 50, 20}))

	require.True(t, eng.InTrade())
	legs := eng.OpenLegs()
	require.Len(t, legs, 1)
	assert.Equal(t, schema.Instrument("A"), legs[0].Instrument)
	assert.InDelta(t, 40, legs[0].SatShares, 1e-9)
	assert.InDelta(t, -20, legs[0].BaseShares, 1e-9)

	// A's return reverts into the neutral band: take-profit.
	require.NoError(t, eng.OnTick(at(10, 1), []float64{0.005, -0.01}, []float64{100, 50, 20}))

	assert.False(t, eng.InTrade())
	assert.Empty(t, eng.OpenLegs())
	assert.Len(t, eng.Trades(), 1)
	assert.InDelta(t, 100000, eng.Balance(), 1e-6)

	require.Len(t, capture.events, 2)
	assert.Equal(t, schema.TradeEventOpen, capture.events[0].Type)
	assert.Equal(t, schema.TradeEventClose, capture.events[1].Type)
	assert.Equal(t, schema.ExitTakeProfit, capture.events[1].Reason)
}

func TestStopLoss(t *testing.T) {
	metrics := obs.NewMetrics()
	eng, err := New(testParams(), universe, WithMetrics(metrics))
	require.NoError(t, err)

	require.NoError(t, eng.OnTick(at(10, 0), []float64{0.03, 0}, []float64{100, 50, 20}))
	require.True(t, eng.InTrade())

	// Leg A holds 40 sat / -20 base on 2000 notional. At price 47 the mark is
	// 40*47 - 20*100 = -120, past the -100 stop. Return stays outside the band.
	require.NoError(t, eng.OnTick(at(10, 1), []float64{0.05, 0}, []float64{100, 47, 20}))

	assert.False(t, eng.InTrade())
	assert.Len(t, eng.Trades(), 1)
	assert.Equal(t, uint64(1), metrics.Snapshot().CloseCounts[schema.ExitStopLoss])
}

func TestExitChecksDoNotShortCircuit(t *testing.T) {
	metrics := obs.NewMetrics()
	eng, err := New(testParams(), universe, WithMetrics(metrics))
	require.NoError(t, err)

	// Both satellites qualify: 1000 split across two legs, 1000 notional each.
	require.NoError(t, eng.OnTick(at(10, 0), []float64{0.03, 0.04}, []float64{100, 50, 20}))
	require.Equal(t, 2, len(eng.OpenLegs()))

	// A take-profits while B breaches its stop on the same tick. Both must
	// close; the take-profit on A cannot skip B's stop-loss check.
	// B: 50 sat / -10 base, mark at 18 = 50*18 - 10*100 = -100... use 17.
	require.NoError(t, eng.OnTick(at(10, 1), []float64{0.0, 0.05}, []float64{100, 50, 17}))

	assert.False(t, eng.InTrade())
	assert.Len(t, eng.Trades(), 2)
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CloseCounts[schema.ExitTakeProfit])
	assert.Equal(t, uint64(1), snap.CloseCounts[schema.ExitStopLoss])
}

func TestForcedLiquidationAtSessionClose(t *testing.T) {
	capture := &captureObserver{}
	eng, err := New(testParams(), universe, WithObserver(capture))
	require.NoError(t, err)

	require.NoError(t, eng.OnTick(at(10, 0), []float64{0.03, 0.04}, []float64{100, 50, 20}))
	require.True(t, eng.InTrade())

	// Past the 16:29 cutoff, both legs are liquidated regardless of their
	// exit conditions.
	require.NoError(t, eng.OnTick(at(16, 30), []float64{0.03, 0.04}, []float64{100, 50, 20}))

	assert.False(t, eng.InTrade())
	assert.Len(t, eng.Trades(), 2)

	forced := 0
	for _, e := range capture.events {
		if e.Type == schema.TradeEventForceClose {
			forced++
			assert.Equal(t, schema.ExitSessionClose, e.Reason)
		}
	}
	assert.Equal(t, 2, forced)
}

func TestNoEntriesWhileSessionClosing(t *testing.T) {
	eng, err := New(testParams(), universe)
	require.NoError(t, err)

	require.NoError(t, eng.OnTick(at(16, 30), []float64{0.03, 0.04}, []float64{100, 50, 20}))

	assert.False(t, eng.InTrade())
	assert.Empty(t, eng.Trades())
}

func TestNoReentryOnTheClosingTick(t *testing.T) {
	eng, err := New(testParams(), universe)
	require.NoError(t, err)

	require.NoError(t, eng.OnTick(at(10, 0), []float64{0.03, -0.01}, []float64{100, 50, 20}))
	require.True(t, eng.InTrade())

	// A take-profits while B now qualifies for entry. Entry scanning is gated
	// on being flat at tick start, so B must not open until the next tick.
	require.NoError(t, eng.OnTick(at(10, 1), []float64{0.0, 0.04}, []float64{100, 50, 20}))
	assert.False(t, eng.InTrade())

	require.NoError(t, eng.OnTick(at(10, 2), []float64{0.0, 0.04}, []float64{100, 50, 20}))
	assert.True(t, eng.InTrade())
	legs := eng.OpenLegs()
	require.Len(t, legs, 1)
	assert.Equal(t, schema.Instrument("B"), legs[0].Instrument)
}

func TestMalformedTickLeavesStateUntouched(t *testing.T) {
	metrics := obs.NewMetrics()
	eng, err := New(testParams(), universe, WithMetrics(metrics))
	require.NoError(t, err)

	require.NoError(t, eng.OnTick(at(10, 0), []float64{0.03, -0.01}, []float64{100, 50, 20}))
	balance := eng.Balance()
	openBefore := len(eng.OpenLegs())

	err = eng.OnTick(at(10, 1), []float64{0.03}, []float64{100, 50, 20})
	require.Error(t, err)

	assert.Equal(t, balance, eng.Balance())
	assert.Equal(t, openBefore, len(eng.OpenLegs()))
	assert.True(t, eng.InTrade())
	assert.Equal(t, uint64(1), metrics.Snapshot().SnapshotsRejected)

	// The instance stays usable for the next tick.
	require.NoError(t, eng.OnTick(at(10, 2), []float64{0.005, -0.01}, []float64{100, 50, 20}))
	assert.False(t, eng.InTrade())
}

func TestStateCoherenceAfterEveryTick(t *testing.T) {
	eng, err := New(testParams(), universe)
	require.NoError(t, err)

	ticks := []struct {
		ts      time.Time
		returns []float64
		prices  []float64
	}{
		{at(10, 0), []float64{0.01, -0.01}, []float64{100, 50, 20}},
		{at(10, 1), []float64{0.03, -0.01}, []float64{100, 50, 20}},
		{at(10, 2), []float64{0.02, -0.01}, []float64{100, 49, 20}},
		{at(10, 3), []float64{0.004, -0.01}, []float64{100, 50.2, 20}},
		{at(16, 30), []float64{0.05, 0.05}, []float64{100, 50, 20}},
	}
	for _, tick := range ticks {
		require.NoError(t, eng.OnTick(tick.ts, tick.returns, tick.prices))
		assert.Equal(t, eng.InTrade(), len(eng.OpenLegs()) > 0)
	}
}

func TestNewRejectsTinyUniverse(t *testing.T) {
	_, err := New(testParams(), []schema.Instrument{"BASE"})
	assert.Error(t, err)
}

func TestPercentSizedEntry(t *testing.T) {
	params := testParams()
	params.TradeSize = 0.01
	params.TradeSizeAsPercent = true
	eng, err := New(params, universe)
	require.NoError(t, err)

	require.NoError(t, eng.OnTick(at(10, 0), []float64{0.03, -0.01}, []float64{100, 50, 20}))
	legs := eng.OpenLegs()
	require.Len(t, legs, 1)
	assert.InDelta(t, 2000, legs[0].Notional, 1e-9)
}
