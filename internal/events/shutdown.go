package events

import (
	"context"
	"time"
)

// Shutdown marks the bus as shut down and wakes every blocked receiver and
// publisher. It is idempotent.
func (b *Bus) Shutdown() {
	if !b.shutdown.CompareAndSwap(false, true) {
		return
	}
	b.wake()
}

// ShutdownGracefully performs the four-phase drain: set the shutdown flag,
// publish a final Shutdown event so active subscribers observe the reason, sleep
// to give them a window to process buffered events, then wake any remaining
// waiters.
func (b *Bus) ShutdownGracefully(ctx context.Context, reason ShutdownReasonKind, message string) error {
	if !b.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	_, _ = b.Publish(NewShutdownEvent(reason, message))

	select {
	case <-ctx.Done():
		b.wake()
		return ErrDrainTimeout
	case <-time.After(gracefulDrainDuration):
	}

	b.wake()
	return nil
}

// Snapshot returns a coherent point-in-time view of the bus's metrics.
func (b *Bus) Snapshot() MetricsSnapshot { return b.metrics.Snapshot() }
