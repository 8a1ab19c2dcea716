package events

import "context"

// FilteredReceiver wraps a Receiver with a predicate: non-matching events are
// drained internally rather than handed back to the caller, so backlog is
// absorbed transparently instead of being visible as noise.
type FilteredReceiver struct {
	recv      *Receiver
	predicate func(CrawlEvent) bool
}

// NewFilteredReceiver wraps recv so only events matching predicate are surfaced.
func NewFilteredReceiver(recv *Receiver, predicate func(CrawlEvent) bool) *FilteredReceiver {
	return &FilteredReceiver{recv: recv, predicate: predicate}
}

// Recv blocks until a matching event is available, draining non-matching events
// as it goes.
func (f *FilteredReceiver) Recv(ctx context.Context) (CrawlEvent, error) {
	for {
		event, err := f.recv.Recv(ctx)
		if err != nil {
			return CrawlEvent{}, err
		}
		if f.predicate(event) {
			return event, nil
		}
	}
}

// TryRecv drains non-matching buffered events and returns the first match, or
// ErrNoEvent if nothing currently matches.
func (f *FilteredReceiver) TryRecv() (CrawlEvent, error) {
	for {
		event, err := f.recv.TryRecv()
		if err != nil {
			return CrawlEvent{}, err
		}
		if f.predicate(event) {
			return event, nil
		}
	}
}

// WouldReceive reports whether event matches this receiver's predicate, without
// consuming anything.
func (f *FilteredReceiver) WouldReceive(event CrawlEvent) bool {
	return f.predicate(event)
}

// Close unregisters the underlying receiver.
func (f *FilteredReceiver) Close() { f.recv.Close() }
