package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/rxscenario/errors"
	"github.com/kbukum/rxscenario/logger"
)

// Virtual is a manually advanced clock. Time starts at the configured start
// instant and moves only through AdvanceBy and AdvanceTo, which run every
// task that falls due, in deadline order, on the calling goroutine.
type Virtual struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	queue queue
	log   *logger.Logger
}

// VirtualOption configures a Virtual clock.
type VirtualOption func(*Virtual)

// WithStart sets the instant the clock starts at.
func WithStart(t time.Time) VirtualOption {
	return func(v *Virtual) { v.start = t }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *logger.Logger) VirtualOption {
	return func(v *Virtual) { v.log = l }
}

// NewVirtual creates a Virtual clock at Epoch unless WithStart is given.
func NewVirtual(opts ...VirtualOption) *Virtual {
	v := &Virtual{start: Epoch}
	for _, opt := range opts {
		opt(v)
	}
	if v.log == nil {
		v.log = logger.GetGlobalLogger()
	}
	v.log = v.log.WithComponent("clock.virtual")
	v.now = v.start
	return v
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Elapsed returns how far the clock has advanced since it was created.
func (v *Virtual) Elapsed() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now.Sub(v.start)
}

// Pending returns the number of queued tasks.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.queue.len()
}

func (v *Virtual) Schedule(delay time.Duration, action func()) Handle {
	return v.SchedulePeriodic(delay, 0, action)
}

func (v *Virtual) SchedulePeriodic(initial, period time.Duration, action func()) Handle {
	v.mu.Lock()
	defer v.mu.Unlock()
	t := newTask(v.now.Add(clampDelay(initial)), period, action, v.cancel)
	v.queue.push(t)
	return t
}

func (v *Virtual) cancel(t *task) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue.remove(t)
}

// AdvanceBy moves time forward by d, running every task due on the way.
// A negative d is rejected and leaves the clock untouched.
func (v *Virtual) AdvanceBy(d time.Duration) error {
	if d < 0 {
		return errors.ProtocolViolation("advanceBy", fmt.Sprintf("virtual time cannot move backwards (%s)", d))
	}
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()
	v.runUntil(target)
	return nil
}

// AdvanceTo moves time forward to t. Times before Now are rejected.
func (v *Virtual) AdvanceTo(t time.Time) error {
	v.mu.Lock()
	now := v.now
	v.mu.Unlock()
	if t.Before(now) {
		return errors.ProtocolViolation("advanceTo", fmt.Sprintf("virtual time cannot move backwards (%s before %s)", t, now))
	}
	v.runUntil(t)
	return nil
}

// TriggerActions runs tasks that are already due without moving time.
func (v *Virtual) TriggerActions() {
	v.runUntil(v.Now())
}

// runUntil fires due tasks one at a time. The lock is released while an
// action runs so it may schedule or cancel; newly scheduled tasks that fall
// inside the window run in the same call.
func (v *Virtual) runUntil(target time.Time) {
	fired := 0
	for {
		v.mu.Lock()
		next := v.queue.peek()
		if next == nil || next.fireAt.After(target) {
			// An action may have advanced the clock past target itself.
			if target.After(v.now) {
				v.now = target
			}
			v.mu.Unlock()
			break
		}
		v.queue.pop()
		if next.fireAt.After(v.now) {
			v.now = next.fireAt
		}
		if next.periodic() {
			v.queue.rearm(next)
		}
		v.mu.Unlock()

		if next.Cancelled() {
			continue
		}
		fired++
		next.action()
	}

	v.log.Debug("Virtual time advanced", logger.Fields(
		logger.FieldVirtualNow, v.Elapsed().String(),
		"fired", fired,
	))
}
