package events

import (
	"sync"
	"sync/atomic"
)

// Bus is a broadcast pub/sub of CrawlEvent backed by a single shared ring buffer,
// mirroring a broadcast channel: every event is written once; each subscriber
// tracks its own read cursor into the ring, and a subscriber that falls more than
// Capacity events behind observes a LaggedError instead of silently missing data.
type Bus struct {
	config Config
	metrics *Metrics

	mu   sync.Mutex
	ring []CrawlEvent
	next uint64 // next sequence number to be written

	subs   map[uint64]*cursor
	nextID uint64

	notifyMu sync.Mutex
	notifyCh chan struct{}

	consecutiveTimeouts atomic.Int64
	sendLock            sync.Mutex // serializes check-and-send in Error and Block modes

	refcount atomic.Int64
	shutdown atomic.Bool
}

type cursor struct {
	pos uint64
}

// New creates a Bus with the given configuration. The returned Bus starts with a
// reference count of 1.
func New(cfg Config) *Bus {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	b := &Bus{
		config:   cfg,
		metrics:  &Metrics{},
		ring:     make([]CrawlEvent, cfg.Capacity),
		subs:     make(map[uint64]*cursor),
		notifyCh: make(chan struct{}),
	}
	b.refcount.Store(1)
	return b
}

// NewDefault creates a Bus using DefaultConfig.
func NewDefault() *Bus { return New(DefaultConfig()) }

// Clone increments the bus's reference count and returns the same Bus, mirroring
// a shared-sender handle. The bus only shuts down when the last clone is Closed.
func (b *Bus) Clone() *Bus {
	b.refcount.Add(1)
	return b
}

// Close releases one reference to the bus. When the last reference is released,
// the bus transitions to shutdown.
func (b *Bus) Close() {
	if b.refcount.Add(-1) == 0 {
		b.Shutdown()
	}
}

// IsShutdown reports whether the bus has been shut down.
func (b *Bus) IsShutdown() bool { return b.shutdown.Load() }

func (b *Bus) wake() {
	b.notifyMu.Lock()
	old := b.notifyCh
	b.notifyCh = make(chan struct{})
	b.notifyMu.Unlock()
	close(old)
}

func (b *Bus) waitChan() chan struct{} {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()
	return b.notifyCh
}

// subscriberCountLocked returns the number of currently registered subscribers. Callers
// must hold b.mu.
func (b *Bus) subscriberCountLocked() int { return len(b.subs) }

// occupiedLocked returns the number of ring slots currently unread by at least
// one active subscriber. Callers must hold b.mu.
func (b *Bus) occupiedLocked() int {
	if len(b.subs) == 0 {
		return 0
	}
	slowest := b.next
	for _, c := range b.subs {
		if c.pos < slowest {
			slowest = c.pos
		}
	}
	n := int(b.next - slowest)
	if n > len(b.ring) {
		n = len(b.ring)
	}
	return n
}

// writeLocked appends event to the ring and advances next. Callers must hold b.mu.
func (b *Bus) writeLocked(event CrawlEvent) int {
	b.ring[b.next%uint64(len(b.ring))] = event
	b.next++
	return b.subscriberCountLocked()
}
