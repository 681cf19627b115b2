package stream

import "sync"

// lift builds an operator stream. op receives the downstream observer and
// subscription and returns the observer subscribed upstream. The upstream
// subscription is released whenever the downstream one is.
func lift[I, O any](s *Stream[I], op func(o Observer[O], sub *Subscription) Observer[I]) *Stream[O] {
	return New(func(o Observer[O], sub *Subscription) {
		up := NewSubscription()
		sub.SetParent(up)
		s.SubscribeWith(op(o, sub), up)
	})
}

// gate tracks whether an operator has already terminated its downstream.
type gate struct {
	mu     sync.Mutex
	closed bool
}

// close marks the gate closed and reports whether this call closed it.
func (g *gate) close() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.closed = true
	return true
}

func (g *gate) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Map transforms each value with fn. An error from fn terminates the stream
// with that error and releases upstream.
func Map[I, O any](s *Stream[I], fn func(I) (O, error)) *Stream[O] {
	return lift(s, func(o Observer[O], sub *Subscription) Observer[I] {
		var g gate
		return ObserverFuncs[I]{
			Next: func(v I) {
				if g.isClosed() {
					return
				}
				out, err := fn(v)
				if err != nil {
					if g.close() {
						o.OnError(err)
						sub.Unsubscribe()
					}
					return
				}
				o.OnNext(out)
			},
			Error: func(err error) {
				if g.close() {
					o.OnError(err)
				}
			},
			Complete: func() {
				if g.close() {
					o.OnComplete()
				}
			},
		}
	})
}

// Filter passes through only values for which keep returns true.
func Filter[T any](s *Stream[T], keep func(T) bool) *Stream[T] {
	return lift(s, func(o Observer[T], _ *Subscription) Observer[T] {
		return ObserverFuncs[T]{
			Next: func(v T) {
				if keep(v) {
					o.OnNext(v)
				}
			},
			Error:    o.OnError,
			Complete: o.OnComplete,
		}
	})
}

// Tap calls fn for each value before passing it on unchanged.
func Tap[T any](s *Stream[T], fn func(T)) *Stream[T] {
	return lift(s, func(o Observer[T], _ *Subscription) Observer[T] {
		return ObserverFuncs[T]{
			Next: func(v T) {
				fn(v)
				o.OnNext(v)
			},
			Error:    o.OnError,
			Complete: o.OnComplete,
		}
	})
}

// Take emits the first n values, then completes and releases upstream so
// producers such as Interval stop.
func Take[T any](s *Stream[T], n int) *Stream[T] {
	if n <= 0 {
		return New(func(o Observer[T], sub *Subscription) {
			o.OnComplete()
			sub.Unsubscribe()
		})
	}
	return lift(s, func(o Observer[T], sub *Subscription) Observer[T] {
		var g gate
		count := 0
		return ObserverFuncs[T]{
			Next: func(v T) {
				if g.isClosed() {
					return
				}
				count++
				o.OnNext(v)
				if count >= n && g.close() {
					o.OnComplete()
					sub.Unsubscribe()
				}
			},
			Error: func(err error) {
				if g.close() {
					o.OnError(err)
				}
			},
			Complete: func() {
				if g.close() {
					o.OnComplete()
				}
			},
		}
	})
}

// Merge interleaves the values of all streams. It completes when every
// stream has completed and fails on the first error, releasing the rest.
func Merge[T any](streams ...*Stream[T]) *Stream[T] {
	return New(func(o Observer[T], sub *Subscription) {
		if len(streams) == 0 {
			o.OnComplete()
			sub.Unsubscribe()
			return
		}

		var mu sync.Mutex
		remaining := len(streams)
		out := newSerial(o)

		inner := ObserverFuncs[T]{
			Next: out.OnNext,
			Error: func(err error) {
				first := out.fail(err)
				out.drain()
				if first {
					sub.Unsubscribe()
				}
			},
			Complete: func() {
				mu.Lock()
				remaining--
				last := remaining == 0
				mu.Unlock()
				if last && out.complete() {
					out.drain()
					sub.Unsubscribe()
				}
			},
		}

		for _, s := range streams {
			up := NewSubscription()
			sub.Add(up.Unsubscribe)
			s.SubscribeWith(inner, up)
			if !sub.Active() {
				return
			}
		}
	})
}
