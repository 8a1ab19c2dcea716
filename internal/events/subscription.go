package events

import "context"

// Receiver is a subscription handle returned by Bus.Subscribe. Every event
// published after subscription is delivered, in order, unless the receiver falls
// more than Capacity events behind, in which case the next Recv returns a
// LaggedError reporting how many events were skipped.
type Receiver struct {
	bus *Bus
	id  uint64
	cur *cursor
}

// Subscribe registers a new receiver starting at the current write position;
// only events published after this call are visible to it.
func (b *Bus) Subscribe() *Receiver {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	c := &cursor{pos: b.next}
	b.subs[id] = c
	count := b.subscriberCountLocked()
	b.mu.Unlock()

	if b.config.EnableMetrics {
		b.metrics.updateSubscriberCount(count)
	}

	return &Receiver{bus: b, id: id, cur: c}
}

// Close unregisters the receiver. Subsequent Recv calls return ErrShutdown.
func (r *Receiver) Close() {
	r.bus.mu.Lock()
	delete(r.bus.subs, r.id)
	count := r.bus.subscriberCountLocked()
	r.bus.mu.Unlock()

	if r.bus.config.EnableMetrics {
		r.bus.metrics.updateSubscriberCount(count)
	}
}

// Recv blocks until an event is available, the bus shuts down, or ctx is done.
func (r *Receiver) Recv(ctx context.Context) (CrawlEvent, error) {
	for {
		event, ok, lagged, err := r.tryTake()
		if err != nil {
			return CrawlEvent{}, err
		}
		if lagged > 0 {
			return CrawlEvent{}, &LaggedError{N: lagged}
		}
		if ok {
			return event, nil
		}

		wait := r.bus.waitChan()
		select {
		case <-ctx.Done():
			return CrawlEvent{}, ctx.Err()
		case <-wait:
		}
	}
}

// TryRecv returns immediately with ErrNoEvent if nothing is currently available.
func (r *Receiver) TryRecv() (CrawlEvent, error) {
	event, ok, lagged, err := r.tryTake()
	if err != nil {
		return CrawlEvent{}, err
	}
	if lagged > 0 {
		return CrawlEvent{}, &LaggedError{N: lagged}
	}
	if !ok {
		return CrawlEvent{}, ErrNoEvent
	}
	return event, nil
}

// tryTake attempts to advance the receiver's cursor by one event.
func (r *Receiver) tryTake() (event CrawlEvent, ok bool, lagged uint64, err error) {
	b := r.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, registered := b.subs[r.id]; !registered {
		return CrawlEvent{}, false, 0, ErrShutdown
	}
	if b.IsShutdown() && r.cur.pos >= b.next {
		return CrawlEvent{}, false, 0, ErrShutdown
	}

	oldest := uint64(0)
	if b.next > uint64(len(b.ring)) {
		oldest = b.next - uint64(len(b.ring))
	}
	if r.cur.pos < oldest {
		skipped := oldest - r.cur.pos
		r.cur.pos = oldest
		return CrawlEvent{}, false, skipped, nil
	}

	if r.cur.pos >= b.next {
		return CrawlEvent{}, false, 0, nil
	}

	event = b.ring[r.cur.pos%uint64(len(b.ring))]
	r.cur.pos++
	return event, true, 0, nil
}
