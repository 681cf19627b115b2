package stream

import "sync"

// Emitter is the producer side handed to Create. It drops signals once the
// stream has terminated or the subscriber has gone away.
type Emitter[T any] interface {
	// Next delivers v and reports whether the subscriber still listens.
	Next(v T) bool
	Error(err error)
	Complete()
	// Subscription is the subscriber's token; register producer cleanups on it.
	Subscription() *Subscription
}

// Create builds a cold stream from a producer function run once per subscriber.
//
//	ticks := stream.Create(func(e stream.Emitter[int]) {
//	    h := sched.SchedulePeriodic(0, time.Second, func() { e.Next(1) })
//	    e.Subscription().Add(h.Cancel)
//	})
func Create[T any](produce func(e Emitter[T])) *Stream[T] {
	return New(func(o Observer[T], sub *Subscription) {
		produce(&emitter[T]{observer: o, sub: sub})
	})
}

type emitter[T any] struct {
	observer Observer[T]
	sub      *Subscription

	mu   sync.Mutex
	done bool
}

func (e *emitter[T]) Subscription() *Subscription { return e.sub }

func (e *emitter[T]) live() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.done && e.sub.Active()
}

// terminate marks the emitter done and reports whether it was still live.
func (e *emitter[T]) terminate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done || !e.sub.Active() {
		return false
	}
	e.done = true
	return true
}

func (e *emitter[T]) Next(v T) bool {
	if !e.live() {
		return false
	}
	e.observer.OnNext(v)
	return e.live()
}

func (e *emitter[T]) Error(err error) {
	if e.terminate() {
		e.observer.OnError(err)
		e.sub.Unsubscribe()
	}
}

func (e *emitter[T]) Complete() {
	if e.terminate() {
		e.observer.OnComplete()
		e.sub.Unsubscribe()
	}
}
