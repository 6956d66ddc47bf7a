package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrClosed = errors.New("bus is closed")

type InprocOptions struct {
	MaxInFlight int
}

// Inproc is a single-consumer, in-process event stream backed by a buffered
// channel. Publish blocks while the buffer is full.
type Inproc struct {
	mu     sync.RWMutex
	closed bool
	events chan Event
}

func NewInproc(opts InprocOptions) (*Inproc, error) {
	if opts.MaxInFlight <= 0 {
		return nil, fmt.Errorf("max_in_flight must be > 0")
	}
	return &Inproc{events: make(chan Event, opts.MaxInFlight)}, nil
}

func (b *Inproc) Publish(ctx context.Context, ev Event) error {
	if b == nil {
		return fmt.Errorf("bus is nil")
	}
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is closed after Close once all buffered events are drained.
func (b *Inproc) Events() <-chan Event {
	return b.events
}

func (b *Inproc) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.events)
}
