package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const maxExitReason = int(schema.ExitSessionClose)

// Metrics collects lightweight counters for one engine run.
type Metrics struct {
	ticksProcessed    uint64
	snapshotsRejected uint64
	legsOpened        uint64
	closeCounts       [maxExitReason + 1]uint64

	tickLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	TicksProcessed    uint64
	SnapshotsRejected uint64
	LegsOpened        uint64
	CloseCounts       map[schema.ExitReason]uint64
	TickLatency       LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveTick records one processed tick and its processing duration.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ticksProcessed, 1)
	m.tickLatency.Observe(d)
}

// IncSnapshotRejected records a malformed tick.
func (m *Metrics) IncSnapshotRejected() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.snapshotsRejected, 1)
}

// IncLegsOpened records newly opened legs.
func (m *Metrics) IncLegsOpened(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.legsOpened, uint64(n))
}

// IncClose records a leg close by exit reason.
func (m *Metrics) IncClose(reason schema.ExitReason) {
	if m == nil {
		return
	}
	idx := int(reason)
	if idx >= 0 && idx < len(m.closeCounts) {
		atomic.AddUint64(&m.closeCounts[idx], 1)
	}
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	closes := make(map[schema.ExitReason]uint64)
	for i := range m.closeCounts {
		if v := atomic.LoadUint64(&m.closeCounts[i]); v > 0 {
			closes[schema.ExitReason(i)] = v
		}
	}
	return Snapshot{
		TicksProcessed:    atomic.LoadUint64(&m.ticksProcessed),
		SnapshotsRejected: atomic.LoadUint64(&m.snapshotsRejected),
		LegsOpened:        atomic.LoadUint64(&m.legsOpened),
		CloseCounts:       closes,
		TickLatency:       m.tickLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
