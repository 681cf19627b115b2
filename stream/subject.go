package stream

import "sync"

// Subject is a hot stream driven by method calls. Subscribers receive only
// the signals sent after they subscribe, in subscription order. A subscriber
// arriving after termination receives the terminal signal at once.
type Subject[T any] struct {
	mu        sync.Mutex
	observers []*subjectObserver[T]
	done      bool
	err       error
}

type subjectObserver[T any] struct {
	observer Observer[T]
	sub      *Subscription
}

// NewSubject creates a Subject with no subscribers.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Stream returns the subscribable view of the subject.
func (s *Subject[T]) Stream() *Stream[T] {
	return New(s.subscribe)
}

func (s *Subject[T]) subscribe(o Observer[T], sub *Subscription) {
	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			o.OnError(err)
		} else {
			o.OnComplete()
		}
		sub.Unsubscribe()
		return
	}
	entry := &subjectObserver[T]{observer: o, sub: sub}
	s.observers = append(s.observers, entry)
	s.mu.Unlock()

	sub.Add(func() { s.remove(entry) })
}

func (s *Subject[T]) remove(entry *subjectObserver[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == entry {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// snapshot returns the current subscribers. With terminal set, it also marks
// the subject done and detaches them.
func (s *Subject[T]) snapshot(terminal bool, err error) ([]*subjectObserver[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, false
	}
	observers := append([]*subjectObserver[T](nil), s.observers...)
	if terminal {
		s.done = true
		s.err = err
		s.observers = nil
	}
	return observers, true
}

// Next delivers v to every current subscriber. It reports false once the
// subject has terminated.
func (s *Subject[T]) Next(v T) bool {
	observers, ok := s.snapshot(false, nil)
	for _, o := range observers {
		if o.sub.Active() {
			o.observer.OnNext(v)
		}
	}
	return ok
}

// Error terminates every subscriber with err. It reports false if the
// subject had already terminated.
func (s *Subject[T]) Error(err error) bool {
	observers, ok := s.snapshot(true, err)
	for _, o := range observers {
		if o.sub.Active() {
			o.observer.OnError(err)
			o.sub.Unsubscribe()
		}
	}
	return ok
}

// Complete terminates every subscriber normally. It reports false if the
// subject had already terminated.
func (s *Subject[T]) Complete() bool {
	observers, ok := s.snapshot(true, nil)
	for _, o := range observers {
		if o.sub.Active() {
			o.observer.OnComplete()
			o.sub.Unsubscribe()
		}
	}
	return ok
}

// Subscribers returns the number of active subscribers.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// Terminated reports whether Complete or Error has been called.
func (s *Subject[T]) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
