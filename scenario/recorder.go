package scenario

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/rxscenario/clock"
	"github.com/kbukum/rxscenario/errors"
	"github.com/kbukum/rxscenario/stream"
)

// Recorder is a stream.Observer that keeps an ordered log of every signal it
// receives. It is safe to append from a scheduler goroutine while the test
// goroutine reads.
//
// Nothing is appended after a Complete or Error record. Signals arriving
// later are counted as violations, and a late Complete still counts toward
// CompletedCount so that a pipeline completing twice is visible.
type Recorder[T any] struct {
	virtual  *clock.Virtual
	onRecord func(Kind)

	mu         sync.Mutex
	events     []Event[T]
	nexts      int
	completed  int
	errored    int
	err        error
	terminal   bool
	violations int
	changed    chan struct{}
}

var _ stream.Observer[int] = (*Recorder[int])(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*recorderOptions)

type recorderOptions struct {
	virtual  *clock.Virtual
	onRecord func(Kind)
}

// WithVirtualClock stamps each event with the clock's elapsed time.
func WithVirtualClock(v *clock.Virtual) RecorderOption {
	return func(o *recorderOptions) { o.virtual = v }
}

// OnRecord registers a hook called after each signal is handled, including
// late ones.
func OnRecord(fn func(Kind)) RecorderOption {
	return func(o *recorderOptions) { o.onRecord = fn }
}

// NewRecorder creates an empty recorder.
func NewRecorder[T any](opts ...RecorderOption) *Recorder[T] {
	var o recorderOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Recorder[T]{
		virtual:  o.virtual,
		onRecord: o.onRecord,
		changed:  make(chan struct{}),
	}
}

func (r *Recorder[T]) OnNext(v T) {
	r.record(Event[T]{Kind: KindNext, Value: v})
}

func (r *Recorder[T]) OnError(err error) {
	r.record(Event[T]{Kind: KindError, Err: err})
}

func (r *Recorder[T]) OnComplete() {
	r.record(Event[T]{Kind: KindComplete})
}

func (r *Recorder[T]) record(e Event[T]) {
	if r.virtual != nil {
		e.At = r.virtual.Elapsed()
		e.Timed = true
	}

	r.mu.Lock()
	if r.terminal {
		r.violations++
		switch e.Kind {
		case KindComplete:
			r.completed++
		case KindError:
			r.errored++
		}
		r.mu.Unlock()
		r.notify(e.Kind)
		return
	}

	e.Seq = len(r.events)
	r.events = append(r.events, e)
	switch e.Kind {
	case KindNext:
		r.nexts++
	case KindComplete:
		r.completed++
		r.terminal = true
	case KindError:
		r.errored++
		r.err = e.Err
		r.terminal = true
	}
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()
	r.notify(e.Kind)
}

func (r *Recorder[T]) notify(k Kind) {
	if r.onRecord != nil {
		r.onRecord(k)
	}
}

// EventCount returns the number of values (Next records) received.
func (r *Recorder[T]) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nexts
}

// Len returns the number of records, values and terminal signal together.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Event returns the i-th value received.
func (r *Recorder[T]) Event(i int) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= r.nexts {
		var zero T
		return zero, errors.OutOfRange(i, r.nexts)
	}
	// Values always precede the single terminal record.
	return r.events[i].Value, nil
}

// Events returns a snapshot of the recording.
func (r *Recorder[T]) Events() []Event[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event[T](nil), r.events...)
}

// Values returns a snapshot of the values received.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	values := make([]T, 0, r.nexts)
	for _, e := range r.events[:r.nexts] {
		values = append(values, e.Value)
	}
	return values
}

// CompletedCount returns how many Complete signals arrived, including late ones.
func (r *Recorder[T]) CompletedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// ErrorCount returns how many Error signals arrived, including late ones.
func (r *Recorder[T]) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errored
}

// Err returns the recorded error, or nil.
func (r *Recorder[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Terminated reports whether a Complete or Error record exists.
func (r *Recorder[T]) Terminated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminal
}

// Violations returns how many signals arrived after the terminal record.
func (r *Recorder[T]) Violations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.violations
}

// WaitForEvents blocks until at least n values have been received. It fails
// early if the stream terminates with fewer, and with TIMEOUT when ctx is
// done first.
func (r *Recorder[T]) WaitForEvents(ctx context.Context, n int) error {
	op := fmt.Sprintf("waitForEvents(%d)", n)
	start := time.Now()
	for {
		r.mu.Lock()
		got, terminal, changed := r.nexts, r.terminal, r.changed
		r.mu.Unlock()

		if got >= n {
			return nil
		}
		if terminal {
			return errors.AssertionFailed("eventCount", fmt.Sprintf("at least %d", n), got).
				WithDetail("reason", "the stream terminated before enough events arrived")
		}

		select {
		case <-changed:
		case <-ctx.Done():
			waited := time.Since(start)
			if deadline, ok := ctx.Deadline(); ok {
				waited = max(deadline.Sub(start), 0)
			}
			return errors.Timeout(op, waited.Round(time.Millisecond)).
				WithCause(ctx.Err()).
				WithDetail("received", got)
		}
	}
}

// WaitForEventsTimeout is WaitForEvents bounded by timeout.
func (r *Recorder[T]) WaitForEventsTimeout(n int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.WaitForEvents(ctx, n)
}

// Rendered returns the rendered form of the recording.
func (r *Recorder[T]) Rendered(render Renderer[T], sep string) string {
	return Render(r.Events(), render, sep)
}
