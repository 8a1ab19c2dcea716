package events

import (
	"errors"
	"fmt"
)

// Sentinel errors mirroring the original's EventBusError variants.
var (
	ErrNoSubscribers  = errors.New("events: no active subscribers")
	ErrShutdown       = errors.New("events: bus is shutdown")
	ErrChannelFull    = errors.New("events: channel at capacity")
	ErrPublishTimeout = errors.New("events: publish timed out waiting for capacity")
	ErrDrainTimeout   = errors.New("events: graceful shutdown drain timed out")
	ErrNoEvent        = errors.New("events: no event currently available")
)

// LaggedError reports that a receiver fell behind and skipped n events.
type LaggedError struct {
	N uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("events: receiver lagged, skipped %d events", e.N)
}
