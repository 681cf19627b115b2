package stream

import (
	"sync"
	"time"

	"github.com/kbukum/rxscenario/clock"
)

// BufferCount groups values into slices of size. On completion a partial
// final slice is emitted if non-empty. Size below 1 is treated as 1.
func BufferCount[T any](s *Stream[T], size int) *Stream[[]T] {
	if size < 1 {
		size = 1
	}
	return lift(s, func(o Observer[[]T], _ *Subscription) Observer[T] {
		var buf []T
		return ObserverFuncs[T]{
			Next: func(v T) {
				buf = append(buf, v)
				if len(buf) >= size {
					out := buf
					buf = nil
					o.OnNext(out)
				}
			},
			Error: func(err error) {
				buf = nil
				o.OnError(err)
			},
			Complete: func() {
				if len(buf) > 0 {
					out := buf
					buf = nil
					o.OnNext(out)
				}
				o.OnComplete()
			},
		}
	})
}

// BufferTime emits the values collected during each span, including empty
// slices for spans with no values. On completion the pending values are
// emitted if non-empty.
func BufferTime[T any](s *Stream[T], span time.Duration, sched clock.Scheduler) *Stream[[]T] {
	return BufferTimeOrSize(s, span, 0, sched)
}

// BufferTimeOrSize emits a slice every span, and additionally as soon as it
// holds size values. The two triggers are independent: a size flush does
// not restart the span, so a tick right after one may emit an empty slice.
//
// size=0 means flush on time only. span=0 means flush on size only. Both
// zero defaults to size=1.
func BufferTimeOrSize[T any](s *Stream[T], span time.Duration, size int, sched clock.Scheduler) *Stream[[]T] {
	if span <= 0 {
		if size <= 0 {
			size = 1
		}
		return BufferCount(s, size)
	}
	return New(func(o Observer[[]T], sub *Subscription) {
		up := NewSubscription()
		sub.SetParent(up)

		var (
			mu   sync.Mutex
			buf  []T
			done bool
		)
		out := newSerial(o)
		// flush queues the pending slice, never nil, and resets the buffer.
		// mu must be held.
		flush := func() {
			pending := buf
			buf = nil
			if pending == nil {
				pending = []T{}
			}
			out.next(pending)
		}

		tick := sched.SchedulePeriodic(span, span, func() {
			mu.Lock()
			if !done {
				flush()
			}
			mu.Unlock()
			out.drain()
		})
		sub.Add(tick.Cancel)

		s.SubscribeWith(ObserverFuncs[T]{
			Next: func(v T) {
				mu.Lock()
				if !done {
					buf = append(buf, v)
					if size > 0 && len(buf) >= size {
						flush()
					}
				}
				mu.Unlock()
				out.drain()
			},
			Error: func(err error) {
				mu.Lock()
				if !done {
					done = true
					buf = nil
					out.fail(err)
				}
				mu.Unlock()
				tick.Cancel()
				out.drain()
			},
			Complete: func() {
				mu.Lock()
				if !done {
					done = true
					if len(buf) > 0 {
						flush()
					}
					out.complete()
				}
				mu.Unlock()
				tick.Cancel()
				out.drain()
			},
		}, up)
	})
}
