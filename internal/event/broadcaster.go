package event

import (
	"sync"

	"disaster-platform/internal/metrics"
)

// subscriberBuffer bounds how far an observer may lag before it starts
// losing events. A publish never blocks on a slow observer.
const subscriberBuffer = 64

// Subscriber is one connected observer. Read events from C until it is
// closed, then stop; no backlog is owed after disconnect.
type Subscriber struct {
	C  <-chan Event
	ch chan Event
}

// Broadcaster fans every published event out to all current subscribers.
//
// Constructed once per process and injected into every component that
// publishes or subscribes. Membership may change concurrently with a
// publish; each publish delivers to the subscriber set as of publish time.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new observer. Subscribing after Close returns a
// subscriber whose channel is already closed.
func (b *Broadcaster) Subscribe() *Subscriber {
	ch := make(chan Event, subscriberBuffer)
	s := &Subscriber{C: ch, ch: ch}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return s
	}
	b.subs[s] = struct{}{}
	metrics.SubscribersGauge.Set(float64(len(b.subs)))
	return s
}

// Unsubscribe removes an observer and closes its channel. Safe to call for
// an already-removed subscriber.
func (b *Broadcaster) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.ch)
	metrics.SubscribersGauge.Set(float64(len(b.subs)))
}

// Publish delivers e to every current subscriber in registration-set order.
// Fire-and-forget: zero subscribers is fine, and a subscriber whose buffer
// is full drops the event instead of blocking the publisher.
//
// Delivery happens under the membership lock, so a publish can never race a
// concurrent Unsubscribe into sending on a closed channel, and events from a
// single publisher reach each subscriber in publish order.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(e.Kind)).Inc()
	for s := range b.subs {
		select {
		case s.ch <- e:
		default:
			metrics.EventsDroppedTotal.Inc()
		}
	}
}

// Close terminates all subscribers and rejects further publishes.
// Called once at process shutdown.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
	metrics.SubscribersGauge.Set(0)
}
