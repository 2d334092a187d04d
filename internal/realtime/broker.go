package realtime

import (
	"sync"

	"restobar-be/internal/metrics"
)

// Broker fans change events out to subscribers. Delivery never blocks the
// publisher: a subscriber whose buffer is full already has a pending re-fetch,
// so the extra event is dropped.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool

	published *metrics.Counter
	delivered *metrics.Counter
	dropped   *metrics.Counter
}

func NewBroker(buffer int, counters *metrics.Set) *Broker {
	if buffer <= 0 {
		buffer = 1
	}
	if counters == nil {
		counters = metrics.NewSet()
	}
	return &Broker{
		subs:      make(map[*Subscription]struct{}),
		buffer:    buffer,
		published: counters.Counter("realtime_published"),
		delivered: counters.Counter("realtime_delivered"),
		dropped:   counters.Counter("realtime_dropped"),
	}
}

// Subscribe registers interest in the given tables. A nil filter accepts every
// event on those tables. Resync events always pass.
func (b *Broker) Subscribe(filter Filter, tables ...string) *Subscription {
	s := &Subscription{
		broker: b,
		ch:     make(chan Event, b.buffer),
		tables: make(map[string]bool, len(tables)),
		filter: filter,
	}
	for _, t := range tables {
		s.tables[t] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.closed = true
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

func (b *Broker) Publish(e Event) {
	b.published.Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subs {
		if !s.wants(e) {
			continue
		}
		select {
		case s.ch <- e:
			b.delivered.Inc()
		default:
			b.dropped.Inc()
		}
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for s := range b.subs {
		s.closeLocked()
	}
	b.subs = map[*Subscription]struct{}{}
}

type Subscription struct {
	broker *Broker
	ch     chan Event
	tables map[string]bool
	filter Filter
	closed bool
}

// Events is closed when the subscription or the broker is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) wants(e Event) bool {
	if e.Resync {
		return true
	}
	if len(s.tables) > 0 && !s.tables[e.Table] {
		return false
	}
	return s.filter == nil || s.filter(e)
}

// Close unsubscribes. Calling it more than once is harmless.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	delete(s.broker.subs, s)
	s.closeLocked()
}

// closeLocked requires the broker lock.
func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
