package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/rxscenario/component"
	"github.com/kbukum/rxscenario/logger"
)

// Real runs scheduled actions at wall-clock deadlines on one background
// worker goroutine. Actions run one at a time, so tasks with equal deadlines
// keep submission order. Tasks scheduled before Start wait until it is called.
type Real struct {
	name string
	log  *logger.Logger

	mu      sync.Mutex
	queue   queue
	running bool
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

var _ Scheduler = (*Real)(nil)
var _ component.Component = (*Real)(nil)

// NewReal creates a stopped real-time scheduler. A nil log uses the global logger.
func NewReal(log *logger.Logger) *Real {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Real{
		name: "clock.real",
		log:  log.WithComponent("clock.real"),
		wake: make(chan struct{}, 1),
	}
}

func (r *Real) Name() string { return r.name }

func (r *Real) Now() time.Time { return time.Now() }

func (r *Real) Schedule(delay time.Duration, action func()) Handle {
	return r.SchedulePeriodic(delay, 0, action)
}

func (r *Real) SchedulePeriodic(initial, period time.Duration, action func()) Handle {
	r.mu.Lock()
	t := newTask(time.Now().Add(clampDelay(initial)), period, action, r.cancel)
	r.queue.push(t)
	r.mu.Unlock()
	r.signal()
	return t
}

func (r *Real) cancel(t *task) {
	r.mu.Lock()
	r.queue.remove(t)
	r.mu.Unlock()
	r.signal()
}

func (r *Real) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker goroutine. Starting a running scheduler is a no-op.
func (r *Real) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(r.stop, r.done)
	r.log.Debug("Real-time scheduler started")
	return nil
}

// Stop cancels all queued tasks and waits for the worker to exit, or for ctx
// to be done. An action that is running when Stop is called finishes first.
func (r *Real) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stop)
	pending := r.queue.drain()
	done := r.done
	r.mu.Unlock()

	for _, t := range pending {
		t.cancelled.Store(true)
	}

	select {
	case <-done:
		r.log.Debug("Real-time scheduler stopped", logger.Fields("cancelled", len(pending)))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("clock.real stop: %w", ctx.Err())
	}
}

// Health reports whether the worker is running.
func (r *Real) Health(context.Context) component.Health {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return component.Health{Name: r.name, Status: component.StatusHealthy}
	}
	return component.Health{Name: r.name, Status: component.StatusStopped}
}

// Pending returns the number of queued tasks.
func (r *Real) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.len()
}

func (r *Real) loop(stop, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		r.mu.Lock()
		next := r.queue.peek()
		if next != nil && !next.fireAt.After(time.Now()) {
			r.queue.pop()
			if next.periodic() {
				r.queue.rearm(next)
			}
			r.mu.Unlock()
			if !next.Cancelled() {
				r.run(next)
			}
			continue
		}
		var due <-chan time.Time
		if next != nil {
			timer.Reset(time.Until(next.fireAt))
			due = timer.C
		}
		r.mu.Unlock()

		select {
		case <-stop:
			return
		case <-r.wake:
		case <-due:
		}
		timer.Stop()
	}
}

// run executes an action, keeping the worker alive if it panics.
func (r *Real) run(t *task) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Scheduled action panicked", logger.Fields("panic", fmt.Sprint(p)))
		}
	}()
	t.action()
}
