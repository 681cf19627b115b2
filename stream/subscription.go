package stream

import "sync"

// Subscription is the cancellation token for one subscriber. It owns an
// ordered list of cleanup functions and optionally a parent subscription
// further upstream.
//
// Unsubscribe runs the cleanups once, in registration order, then
// unsubscribes the parent. Later calls do nothing. Cleanups added after
// Unsubscribe run immediately.
type Subscription struct {
	mu       sync.Mutex
	closed   bool
	cleanups []func()
	parent   *Subscription
}

// NewSubscription creates an active subscription.
func NewSubscription() *Subscription {
	return &Subscription{}
}

// Active reports whether Unsubscribe has not yet been called.
func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Add registers a cleanup function.
func (s *Subscription) Add(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// SetParent links the upstream subscription released after this one.
// If this subscription is already closed the parent is released at once.
func (s *Subscription) SetParent(parent *Subscription) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		parent.Unsubscribe()
		return
	}
	s.parent = parent
	s.mu.Unlock()
}

// Unsubscribe releases the subscription and everything upstream of it.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cleanups := s.cleanups
	s.cleanups = nil
	parent := s.parent
	s.mu.Unlock()

	for _, fn := range cleanups {
		fn()
	}
	if parent != nil {
		parent.Unsubscribe()
	}
}
