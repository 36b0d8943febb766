// Package broadcast implements the bounded, multi-consumer broadcast bus
// described in §4.2: every session mutation produces exactly one event,
// delivered to every subscriber in publication order unless it lags more
// than the bus's capacity behind the publisher, in which case it
// observes a recoverable Lagged skip count and resumes from the oldest
// event still buffered.
//
// No library in the retrieval pack implements this (Rust's tokio
// broadcast channel, which the specification's "lagged(n)" vocabulary is
// modeled on, has no direct Go equivalent); grounded instead on the
// publish/subscribe shape of the nugget-thane-ai-agent event bus found in
// the retrieval pack (non-blocking publish, per-subscriber view, mutex-
// guarded shared state), generalized into a ring buffer so skipped events
// can be counted instead of merely dropped.
package broadcast

import (
	"context"
	"errors"
	"sync"

	"headterm/internal/event"
)

// Capacity is the bus's fixed ring-buffer size (§4.2).
const Capacity = 1024

// ErrClosed is returned by Recv once a subscriber has drained every
// event published before the bus was closed.
var ErrClosed = errors.New("broadcast: closed")

// ErrLagged is returned by Recv when a subscriber fell more than the
// bus's capacity behind the publisher. The skipped return value reports
// how many events were unrecoverably missed; the subscriber's cursor is
// advanced to the oldest event still buffered so it can keep receiving.
var ErrLagged = errors.New("broadcast: lagged")

// Bus is a bounded multi-consumer broadcast channel. The zero value is
// not usable; construct with New.
type Bus struct {
	mu      sync.Mutex
	buf     []event.Event
	cap     int
	nextSeq uint64
	closed  bool
	wake    chan struct{}
}

// New creates a Bus with the given ring-buffer capacity.
func New(capacity int) *Bus {
	return &Bus{
		buf:  make([]event.Event, capacity),
		cap:  capacity,
		wake: make(chan struct{}),
	}
}

// Publish places e on the bus for delivery to every current subscriber.
// Never blocks and never fails: a subscriber that cannot keep up simply
// loses visibility into the oldest entries, which Recv reports as a lag.
func (b *Bus) Publish(e event.Event) {
	b.mu.Lock()
	idx := int(b.nextSeq % uint64(b.cap))
	b.buf[idx] = e
	b.nextSeq++
	old := b.wake
	b.wake = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// Close marks the bus closed. Subscribers observe ErrClosed from Recv
// only after draining every event published before Close was called.
// Closing an already-closed bus is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	old := b.wake
	b.wake = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// Subscriber is one consumer's read cursor into the bus. Dropping a
// Subscriber (simply ceasing to call Recv) unsubscribes it; there is no
// explicit close, matching §4.2's "dropping the last receiver does not
// affect the publisher."
type Subscriber struct {
	bus  *Bus
	next uint64
}

// Subscribe returns a cursor positioned at the next future event: it
// will not redeliver anything published before this call.
func (b *Bus) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Subscriber{bus: b, next: b.nextSeq}
}

// Recv blocks until the next event, a lag, bus closure, or ctx
// cancellation. On ErrLagged, skipped is the number of events this
// subscriber missed; the cursor has already been advanced past them, so
// the next Recv call resumes from the oldest event still buffered.
func (s *Subscriber) Recv(ctx context.Context) (ev event.Event, skipped int, err error) {
	b := s.bus
	for {
		b.mu.Lock()
		if s.next < b.nextSeq {
			oldest := uint64(0)
			if b.nextSeq > uint64(b.cap) {
				oldest = b.nextSeq - uint64(b.cap)
			}
			if s.next < oldest {
				skippedCount := oldest - s.next
				s.next = oldest
				b.mu.Unlock()
				return event.Event{}, int(skippedCount), ErrLagged
			}
			idx := int(s.next % uint64(b.cap))
			e := b.buf[idx]
			s.next++
			b.mu.Unlock()
			return e, 0, nil
		}
		if b.closed {
			b.mu.Unlock()
			return event.Event{}, 0, ErrClosed
		}
		wake := b.wake
		b.mu.Unlock()
		select {
		case <-wake:
		case <-ctx.Done():
			return event.Event{}, 0, ctx.Err()
		}
	}
}
