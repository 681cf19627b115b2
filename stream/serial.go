package stream

import "sync"

type signalKind int

const (
	signalNext signalKind = iota
	signalError
	signalComplete
)

type signal[T any] struct {
	kind  signalKind
	value T
	err   error
}

// serial delivers signals to one downstream observer one at a time, in the
// order they were queued, whichever goroutine queued them. Nothing queued
// after a terminal signal is delivered.
//
// Operators with their own state lock queue under that lock, so the queue
// order matches the state changes, and drain after releasing it. A drain
// that finds another delivery in progress returns at once; the goroutine
// already delivering picks up the queued signals, which also makes
// reentrant emission from inside a downstream observer safe.
type serial[T any] struct {
	o Observer[T]

	mu       sync.Mutex
	queue    []signal[T]
	draining bool
	done     bool
}

func newSerial[T any](o Observer[T]) *serial[T] {
	return &serial[T]{o: o}
}

func (s *serial[T]) push(sig signal[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	if sig.kind != signalNext {
		s.done = true
	}
	s.queue = append(s.queue, sig)
	return true
}

// next queues v unless a terminal signal is already queued.
func (s *serial[T]) next(v T) {
	s.push(signal[T]{kind: signalNext, value: v})
}

// fail queues err and reports whether it is the first terminal signal.
func (s *serial[T]) fail(err error) bool {
	return s.push(signal[T]{kind: signalError, err: err})
}

// complete queues completion and reports whether it is the first terminal signal.
func (s *serial[T]) complete() bool {
	return s.push(signal[T]{kind: signalComplete})
}

func (s *serial[T]) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.queue) > 0 {
		sig := s.queue[0]
		s.queue[0] = signal[T]{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		switch sig.kind {
		case signalNext:
			s.o.OnNext(sig.value)
		case signalError:
			s.o.OnError(sig.err)
		case signalComplete:
			s.o.OnComplete()
		}

		s.mu.Lock()
	}
	s.queue = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *serial[T]) OnNext(v T) {
	s.next(v)
	s.drain()
}

func (s *serial[T]) OnError(err error) {
	s.fail(err)
	s.drain()
}

func (s *serial[T]) OnComplete() {
	s.complete()
	s.drain()
}
