// Package eventbus provides a typed, in-process publish/subscribe bus.
//
// Delivery is synchronous and follows registration order. There is no replay:
// a subscriber only sees events published while it is registered.
package eventbus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Handler receives events for a topic.
type Handler func(Event)

// FaultHandler is told about a listener that panicked during Publish.
type FaultHandler func(topic Topic, recovered any)

// Subscriber is anything handlers can be registered with.
type Subscriber interface {
	Subscribe(topic Topic, handler Handler) *Subscription
}

// Subscription is a single registration of a handler under a topic.
type Subscription struct {
	topic   Topic
	id      uint64
	handler Handler
	active  atomic.Bool
	bus     *Bus
}

// Topic returns the topic the subscription listens on.
func (s *Subscription) Topic() Topic {
	return s.topic
}

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

// Unsubscribe removes the registration. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active.Load() || s.bus == nil {
		return
	}
	s.bus.Unsubscribe(s.topic, s)
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for delivery traces and listener faults.
func WithLogger(logger hclog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithFaultHandler registers a callback for listeners that panic.
func WithFaultHandler(fn FaultHandler) Option {
	return func(b *Bus) {
		b.onFault = fn
	}
}

// Bus is a registry of topics to ordered handler lists.
type Bus struct {
	mu       sync.RWMutex
	subs     map[Topic][]*Subscription
	nextID   uint64
	disposed bool

	logger  hclog.Logger
	onFault FaultHandler
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[Topic][]*Subscription),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler under topic. Registering the same handler twice
// yields two subscriptions and two invocations per publish. After Dispose the
// returned subscription is inactive.
func (b *Bus) Subscribe(topic Topic, handler Handler) *Subscription {
	sub := &Subscription{topic: topic, handler: handler, bus: b}
	if handler == nil {
		return sub
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	sub.active.Store(true)
	b.subs[topic] = append(b.subs[topic], sub)
	b.logger.Trace("subscribed", "topic", topic, "id", sub.id)
	return sub
}

// On registers a handler typed to one event variant. The topic is taken from
// E's zero value, so E must be one of the event struct types.
func On[E Event](s Subscriber, fn func(E)) *Subscription {
	var zero E
	return s.Subscribe(zero.Topic(), func(e Event) {
		if typed, ok := e.(E); ok {
			fn(typed)
		}
	})
}

// Unsubscribe removes the given subscriptions from topic. With no
// subscriptions it removes every registration for topic.
func (b *Bus) Unsubscribe(topic Topic, subs ...*Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subs[topic]
	if len(subs) == 0 {
		for _, sub := range current {
			sub.active.Store(false)
		}
		delete(b.subs, topic)
		b.logger.Trace("cleared topic", "topic", topic, "removed", len(current))
		return
	}

	remove := make(map[*Subscription]struct{}, len(subs))
	for _, sub := range subs {
		if sub != nil && sub.topic == topic {
			remove[sub] = struct{}{}
		}
	}

	kept := make([]*Subscription, 0, len(current))
	for _, sub := range current {
		if _, ok := remove[sub]; ok {
			sub.active.Store(false)
			continue
		}
		kept = append(kept, sub)
	}
	if len(kept) == 0 {
		delete(b.subs, topic)
	} else {
		b.subs[topic] = kept
	}
}

// Publish delivers e to every handler registered for its topic at the time
// of the call, in registration order, and returns how many ran. Handlers
// removed while the fan-out is in progress are skipped. A panicking handler
// is recovered and reported; the remaining handlers still run.
func (b *Bus) Publish(e Event) int {
	if e == nil {
		return 0
	}
	topic := e.Topic()

	b.mu.RLock()
	if b.disposed {
		b.mu.RUnlock()
		return 0
	}
	handlers := append([]*Subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range handlers {
		if !sub.active.Load() {
			continue
		}
		b.deliver(sub, e)
		delivered++
	}

	b.logger.Trace("published", "topic", topic, "delivered", delivered)
	return delivered
}

func (b *Bus) deliver(sub *Subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked", "topic", sub.topic, "id", sub.id, "panic", fmt.Sprint(r))
			if b.onFault != nil {
				b.onFault(sub.topic, r)
			}
		}
	}()
	sub.handler(e)
}

// Len returns the number of active registrations for topic.
func (b *Bus) Len(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Dispose removes every registration. The bus accepts no new subscriptions
// and Publish becomes a no-op.
func (b *Bus) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subs {
		for _, sub := range subs {
			sub.active.Store(false)
		}
		delete(b.subs, topic)
	}
	b.disposed = true
	b.logger.Debug("event bus disposed")
}

// NewScope returns a Scope bound to this bus.
func (b *Bus) NewScope() *Scope {
	return &Scope{bus: b}
}
