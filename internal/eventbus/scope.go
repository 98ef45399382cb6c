package eventbus

import "sync"

// Scope groups the subscriptions owned by one component so they can be
// released together on teardown. Once Close returns, publishes still in
// flight skip the scope's handlers.
type Scope struct {
	bus *Bus

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// Subscribe registers handler on the underlying bus and tracks it.
func (s *Scope) Subscribe(topic Topic, handler Handler) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &Subscription{topic: topic}
	}
	sub := s.bus.Subscribe(topic, handler)
	if sub.Active() {
		s.subs = append(s.subs, sub)
	}
	return sub
}

// Alive reports whether the scope is still open.
func (s *Scope) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close releases every subscription made through the scope.
func (s *Scope) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
