package realtime

import (
	"context"
	"runtime/debug"
	"sync"

	"couple-journal-backend/internal/observability"

	"github.com/rs/zerolog/log"
)

// Broker is the in-process change feed. It fans events out to subscribers.
type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscription
}

type subscription struct {
	broker  *Broker
	id      uint64
	filter  Filter
	handler func(Event)
	once    sync.Once
}

// NewBroker creates a new in-process broker
func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]*subscription)}
}

// Subscribe registers handler for events matching filter
func (b *Broker) Subscribe(filter Filter, handler func(Event)) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{broker: b, id: b.nextID, filter: filter, handler: handler}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the subscription from its broker
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s.id)
		s.broker.mu.Unlock()
	})
}

// Publish delivers event to every matching subscriber
func (b *Broker) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	var matched []*subscription
	for _, sub := range b.subs {
		if sub.filter.Matches(event) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	observability.ChangeEventsTotal.WithLabelValues(string(event.Collection), string(event.Op)).Inc()

	for _, sub := range matched {
		deliver(sub, event)
	}
	return nil
}

// Len returns the number of active subscriptions
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func deliver(sub *subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("collection", string(event.Collection)).
				Str("stack", string(debug.Stack())).
				Msg("PANIC in change feed handler")
		}
	}()
	sub.handler(event)
}
