package events

import "sync/atomic"

// Metrics tracks bus-wide counters using sequentially-consistent atomics so that
// Snapshot returns a coherent view across fields.
type Metrics struct {
	published         atomic.Uint64
	dropped           atomic.Uint64
	failed            atomic.Uint64
	activeSubscribers atomic.Int64
	peakSubscribers   atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Published         uint64
	Dropped           uint64
	Failed            uint64
	ActiveSubscribers int64
	PeakSubscribers   int64
}

// TotalEvents returns published + failed, the total publish attempts observed.
func (s MetricsSnapshot) TotalEvents() uint64 { return s.Published + s.Failed }

// SuccessRate returns the fraction of publish attempts that succeeded, or 1.0 when
// no attempts have been made.
func (s MetricsSnapshot) SuccessRate() float64 {
	total := s.TotalEvents()
	if total == 0 {
		return 1.0
	}
	return float64(s.Published) / float64(total)
}

func (m *Metrics) incrementPublished() { m.published.Add(1) }
func (m *Metrics) incrementDropped()   { m.dropped.Add(1) }
func (m *Metrics) incrementFailed()    { m.failed.Add(1) }

func (m *Metrics) updateSubscriberCount(n int) {
	m.activeSubscribers.Store(int64(n))
	for {
		peak := m.peakSubscribers.Load()
		if int64(n) <= peak {
			return
		}
		if m.peakSubscribers.CompareAndSwap(peak, int64(n)) {
			return
		}
	}
}

// Snapshot returns a coherent point-in-time view of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Published:         m.published.Load(),
		Dropped:           m.dropped.Load(),
		Failed:            m.failed.Load(),
		ActiveSubscribers: m.activeSubscribers.Load(),
		PeakSubscribers:   m.peakSubscribers.Load(),
	}
}
