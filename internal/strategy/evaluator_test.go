package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func snapshot(quotes ...schema.Quote) schema.Snapshot {
	return schema.Snapshot{
		Timestamp: time.Date(0, time.January, 1, 10, 0, 0, 0, time.UTC),
		Base:      "SPY",
		BasePrice: 100,
		Quotes:    quotes,
	}
}

func TestScanEntriesPositiveDeviationOnly(t *testing.T) {
	snap := snapshot(
		schema.Quote{Instrument: "AAPL", Return: 0.03, Price: 50},
		schema.Quote{Instrument: "MSFT", Return: -0.03, Price: 20},
		schema.Quote{Instrument: "GOOG", Return: 0.01, Price: 80},
	)

	candidates := ScanEntries(snap, 0.02)
	require.Len(t, candidates, 1)
	assert.Equal(t, schema.Instrument("AAPL"), candidates[0].Instrument)
	assert.Equal(t, schema.DirectionLongSatellite, candidates[0].Direction)
	assert.Equal(t, 50.0, candidates[0].Price)
}

func TestScanEntriesThresholdIsStrict(t *testing.T) {
	snap := snapshot(schema.Quote{Instrument: "AAPL", Return: 0.02, Price: 50})
	assert.Empty(t, ScanEntries(snap, 0.02))
}

func TestScanEntriesKeepsSnapshotOrder(t *testing.T) {
	snap := snapshot(
		schema.Quote{Instrument: "MSFT", Return: 0.04, Price: 20},
		schema.Quote{Instrument: "AAPL", Return: 0.03, Price: 50},
	)

	candidates := ScanEntries(snap, 0.02)
	require.Len(t, candidates, 2)
	assert.Equal(t, schema.Instrument("MSFT"), candidates[0].Instrument)
	assert.Equal(t, schema.Instrument("AAPL"), candidates[1].Instrument)
}

func TestScanEntriesNoCandidates(t *testing.T) {
	snap := snapshot(schema.Quote{Instrument: "AAPL", Return: 0.005, Price: 50})
	assert.Empty(t, ScanEntries(snap, 0.02))
}

func longLeg() schema.Leg {
	return schema.Leg{
		Instrument:     "AAPL",
		SatShares:      40,
		BaseShares:     -20,
		EntryPrice:     50,
		EntryBasePrice: 100,
		Notional:       2000,
	}
}

func TestShouldExitTakeProfitInclusiveBoundary(t *testing.T) {
	leg := longLeg()

	assert.Equal(t, schema.ExitTakeProfit, ShouldExit(leg, 0.01, 50, 100, 0.01, 0.05))
	assert.Equal(t, schema.ExitTakeProfit, ShouldExit(leg, -0.01, 50, 100, 0.01, 0.05))
	assert.Equal(t, schema.ExitTakeProfit, ShouldExit(leg, 0, 50, 100, 0.01, 0.05))
	assert.Equal(t, schema.ExitNone, ShouldExit(leg, 0.0101, 50, 100, 0.01, 0.05))
}

func TestShouldExitStopLoss(t *testing.T) {
	leg := longLeg()

	// mark-to-market: 40*p - 20*100; threshold -0.05*2000 = -100.
	assert.Equal(t, schema.ExitStopLoss, ShouldExit(leg, 0.05, 47, 100, 0.01, 0.05))
	assert.Equal(t, schema.ExitNone, ShouldExit(leg, 0.05, 47.5, 100, 0.01, 0.05))
}

func TestShouldExitTakeProfitWinsOverStopLoss(t *testing.T) {
	leg := longLeg()

	// Return inside the neutral band while the mark is deep under water:
	// take-profit is checked first and stop-loss never evaluated.
	assert.Equal(t, schema.ExitTakeProfit, ShouldExit(leg, 0.005, 40, 100, 0.01, 0.05))
}

func TestSessionClosingStrictlyAfterCutoff(t *testing.T) {
	cutoff := schema.NewTimeOfDay(16, 29, 0)

	at := func(h, m, s int) time.Time {
		return time.Date(2024, time.March, 4, h, m, s, 0, time.UTC)
	}
	assert.False(t, SessionClosing(at(16, 29, 0), cutoff), "cutoff itself is not closing")
	assert.True(t, SessionClosing(at(16, 29, 1), cutoff))
	assert.False(t, SessionClosing(at(9, 30, 0), cutoff))
}
