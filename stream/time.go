package stream

import (
	"sync"
	"time"

	"github.com/kbukum/rxscenario/clock"
)

// tracker owns the scheduler handles of one subscription, so they can all
// be cancelled when it is released.
type tracker struct {
	sched clock.Scheduler

	mu      sync.Mutex
	handles map[clock.Handle]struct{}
	closed  bool
}

func newTracker(sched clock.Scheduler, sub *Subscription) *tracker {
	t := &tracker{sched: sched, handles: make(map[clock.Handle]struct{})}
	sub.Add(t.cancelAll)
	return t
}

// schedule runs fn after delay unless the tracker is cancelled first.
// The lock is held across Schedule so a worker cannot run the action
// before its handle is registered.
func (t *tracker) schedule(delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	var h clock.Handle
	h = t.sched.Schedule(delay, func() {
		t.mu.Lock()
		delete(t.handles, h)
		closed := t.closed
		t.mu.Unlock()
		if !closed {
			fn()
		}
	})
	t.handles[h] = struct{}{}
}

func (t *tracker) cancelAll() {
	t.mu.Lock()
	t.closed = true
	handles := t.handles
	t.handles = make(map[clock.Handle]struct{})
	t.mu.Unlock()
	for h := range handles {
		h.Cancel()
	}
}

// Delay shifts every value and the completion later by d. Errors are
// delivered immediately and drop values still in flight.
func Delay[T any](s *Stream[T], d time.Duration, sched clock.Scheduler) *Stream[T] {
	return lift(s, func(o Observer[T], sub *Subscription) Observer[T] {
		t := newTracker(sched, sub)
		out := newSerial(o)
		return ObserverFuncs[T]{
			Next: func(v T) {
				t.schedule(d, func() { out.OnNext(v) })
			},
			Error: func(err error) {
				if out.fail(err) {
					t.cancelAll()
				}
				out.drain()
			},
			Complete: func() {
				t.schedule(d, out.OnComplete)
			},
		}
	})
}

// ObserveOn re-delivers every signal through sched, preserving order.
// With a real scheduler downstream observers run on its worker goroutine.
func ObserveOn[T any](s *Stream[T], sched clock.Scheduler) *Stream[T] {
	return lift(s, func(o Observer[T], sub *Subscription) Observer[T] {
		t := newTracker(sched, sub)
		out := newSerial(o)
		return ObserverFuncs[T]{
			Next:     func(v T) { t.schedule(0, func() { out.OnNext(v) }) },
			Error:    func(err error) { t.schedule(0, func() { out.OnError(err) }) },
			Complete: func() { t.schedule(0, out.OnComplete) },
		}
	})
}

// Sample emits the most recent value seen in each period, skipping periods
// with no new value. On completion a pending value is emitted first.
func Sample[T any](s *Stream[T], period time.Duration, sched clock.Scheduler) *Stream[T] {
	return New(func(o Observer[T], sub *Subscription) {
		up := NewSubscription()
		sub.SetParent(up)

		var (
			mu     sync.Mutex
			latest T
			has    bool
		)
		out := newSerial(o)
		// flush queues the pending value; mu must be held.
		flush := func() {
			if has {
				out.next(latest)
				has = false
			}
		}

		tick := sched.SchedulePeriodic(period, period, func() {
			mu.Lock()
			flush()
			mu.Unlock()
			out.drain()
		})
		sub.Add(tick.Cancel)

		s.SubscribeWith(ObserverFuncs[T]{
			Next: func(v T) {
				mu.Lock()
				latest, has = v, true
				mu.Unlock()
			},
			Error: func(err error) {
				mu.Lock()
				has = false
				out.fail(err)
				mu.Unlock()
				tick.Cancel()
				out.drain()
			},
			Complete: func() {
				mu.Lock()
				flush()
				out.complete()
				mu.Unlock()
				tick.Cancel()
				out.drain()
			},
		}, up)
	})
}

// Debounce emits a value only after d has passed without another value.
// On completion a pending value is emitted first.
func Debounce[T any](s *Stream[T], d time.Duration, sched clock.Scheduler) *Stream[T] {
	return lift(s, func(o Observer[T], sub *Subscription) Observer[T] {
		var (
			mu      sync.Mutex
			latest  T
			has     bool
			gen     uint64
			pending clock.Handle
		)
		out := newSerial(o)
		cancelPending := func() {
			if pending != nil {
				pending.Cancel()
				pending = nil
			}
		}
		sub.Add(func() {
			mu.Lock()
			defer mu.Unlock()
			cancelPending()
			has = false
		})

		return ObserverFuncs[T]{
			Next: func(v T) {
				mu.Lock()
				defer mu.Unlock()
				cancelPending()
				gen++
				mine := gen
				latest, has = v, true
				pending = sched.Schedule(d, func() {
					mu.Lock()
					if mine != gen || !has {
						mu.Unlock()
						return
					}
					out.next(latest)
					has = false
					pending = nil
					mu.Unlock()
					out.drain()
				})
			},
			Error: func(err error) {
				mu.Lock()
				cancelPending()
				has = false
				out.fail(err)
				mu.Unlock()
				out.drain()
			},
			Complete: func() {
				mu.Lock()
				cancelPending()
				if has {
					out.next(latest)
					has = false
				}
				out.complete()
				mu.Unlock()
				out.drain()
			},
		}
	})
}

// Throttle emits the first value, then drops values until d has passed.
func Throttle[T any](s *Stream[T], d time.Duration, sched clock.Scheduler) *Stream[T] {
	return lift(s, func(o Observer[T], _ *Subscription) Observer[T] {
		var (
			mu      sync.Mutex
			until   time.Time
			started bool
		)
		return ObserverFuncs[T]{
			Next: func(v T) {
				now := sched.Now()
				mu.Lock()
				if started && now.Before(until) {
					mu.Unlock()
					return
				}
				started = true
				until = now.Add(d)
				mu.Unlock()
				o.OnNext(v)
			},
			Error:    o.OnError,
			Complete: o.OnComplete,
		}
	})
}

// Interval emits 0, 1, 2, ... first after initial and then every period.
// Each subscriber gets its own timer, cancelled when it unsubscribes.
func Interval(initial, period time.Duration, sched clock.Scheduler) *Stream[int64] {
	return Create(func(e Emitter[int64]) {
		var n int64
		h := sched.SchedulePeriodic(initial, period, func() {
			v := n
			n++
			e.Next(v)
		})
		e.Subscription().Add(h.Cancel)
	})
}
