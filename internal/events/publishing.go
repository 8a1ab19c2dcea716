package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/cyrup-ai/citescrape-go/internal/metrics"
)

const (
	publishTimeout        = 30 * time.Second
	capacityPollInterval  = 5 * time.Millisecond
	circuitBreakerThresh  = 10
	gracefulDrainDuration = 500 * time.Millisecond
)

// Publish writes event to all subscribers without blocking. It is the fast path:
// in DropOldest mode, PublishWithBackpressure delegates straight to this method.
func (b *Bus) Publish(event CrawlEvent) (int, error) {
	b.mu.Lock()
	count := b.writeLocked(event)
	b.mu.Unlock()
	b.wake()

	if count == 0 {
		if b.config.EnableMetrics {
			b.metrics.incrementFailed()
			b.metrics.incrementDropped()
			slog.Debug("published event but no active subscribers")
		}
		metrics.RecordBusEvent("broadcast", "no_subscribers")
		return 0, ErrNoSubscribers
	}

	if b.config.EnableMetrics {
		b.metrics.incrementPublished()
		b.metrics.updateSubscriberCount(count)
	}
	metrics.RecordBusEvent("broadcast", "published")
	return count, nil
}

// PublishWithBackpressure publishes event honoring the bus's configured
// BackpressureMode.
func (b *Bus) PublishWithBackpressure(ctx context.Context, event CrawlEvent) (int, error) {
	switch b.config.BackpressureMode {
	case DropOldest:
		return b.Publish(event)

	case Block:
		return b.publishBlocking(ctx, event)

	case Error:
		return b.publishError(event)

	default:
		return b.Publish(event)
	}
}

func (b *Bus) publishBlocking(ctx context.Context, event CrawlEvent) (int, error) {
	if n := b.consecutiveTimeouts.Load(); n >= circuitBreakerThresh {
		slog.Warn("event bus circuit breaker opened, falling back to drop-oldest", "consecutive_timeouts", n)
		return b.Publish(event)
	}

	deadline := time.Now().Add(publishTimeout)
	for {
		// sendLock keeps the capacity check and the write together, so
		// concurrent Block-mode publishers cannot overrun the ring.
		b.sendLock.Lock()
		b.mu.Lock()
		occupied := b.occupiedLocked()
		hasSpace := occupied < b.config.Capacity
		b.mu.Unlock()

		if hasSpace {
			count, err := b.Publish(event)
			b.sendLock.Unlock()
			b.consecutiveTimeouts.Store(0)
			return count, err
		}
		b.sendLock.Unlock()
		if b.IsShutdown() {
			return 0, ErrShutdown
		}
		if time.Now().After(deadline) {
			newCount := b.consecutiveTimeouts.Add(1)
			if newCount >= circuitBreakerThresh {
				slog.Error("publish timeout: circuit breaker will open on next attempt", "timeout_number", newCount)
			} else {
				slog.Warn("publish timeout after 30s waiting for channel capacity", "timeout_number", newCount)
			}
			metrics.RecordBusEvent("block", "timeout")
			return 0, ErrPublishTimeout
		}

		wait := b.waitChan()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-wait:
		case <-time.After(capacityPollInterval):
		}
	}
}

func (b *Bus) publishError(event CrawlEvent) (int, error) {
	b.sendLock.Lock()
	defer b.sendLock.Unlock()

	b.mu.Lock()
	if b.occupiedLocked() >= b.config.Capacity {
		b.mu.Unlock()
		metrics.RecordBusEvent("error", "channel_full")
		return 0, ErrChannelFull
	}
	count := b.writeLocked(event)
	b.mu.Unlock()
	b.wake()

	if count == 0 {
		if b.config.EnableMetrics {
			b.metrics.incrementFailed()
			b.metrics.incrementDropped()
		}
		metrics.RecordBusEvent("error", "no_subscribers")
		return 0, ErrNoSubscribers
	}

	if b.config.EnableMetrics {
		b.metrics.incrementPublished()
		b.metrics.updateSubscriberCount(count)
	}
	metrics.RecordBusEvent("error", "published")
	return count, nil
}

// PublishBatch publishes every event in events independently; individual
// failures (typically no active subscribers) do not stop the remaining events.
func (b *Bus) PublishBatch(events []CrawlEvent) BatchPublishResult {
	result := BatchPublishResult{Total: len(events)}

	for _, event := range events {
		count, err := b.Publish(event)
		if err == nil {
			result.Published++
			if count > result.MaxSubscribers {
				result.MaxSubscribers = count
			}
			continue
		}
		result.Failed++
	}

	return result
}
