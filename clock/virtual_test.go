package clock

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/rxscenario/errors"
	"github.com/kbukum/rxscenario/logger"
)

func newTestVirtual(t *testing.T) *Virtual {
	return NewVirtual(WithLogger(logger.NewForTest(t, nil)))
}

func TestVirtualStartsAtEpoch(t *testing.T) {
	v := newTestVirtual(t)
	if !v.Now().Equal(Epoch) {
		t.Errorf("expected %v, got %v", Epoch, v.Now())
	}
	if v.Elapsed() != 0 {
		t.Errorf("expected zero elapsed, got %v", v.Elapsed())
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v2 := NewVirtual(WithStart(start))
	if !v2.Now().Equal(start) {
		t.Errorf("expected %v, got %v", start, v2.Now())
	}
}

func TestVirtualScheduleFiresAtDeadline(t *testing.T) {
	v := newTestVirtual(t)
	var firedAt []time.Duration
	v.Schedule(10*time.Second, func() { firedAt = append(firedAt, v.Elapsed()) })

	v.AdvanceBy(9 * time.Second)
	if len(firedAt) != 0 {
		t.Fatalf("expected nothing fired before deadline, got %v", firedAt)
	}
	v.AdvanceBy(time.Second)
	if len(firedAt) != 1 || firedAt[0] != 10*time.Second {
		t.Fatalf("expected one firing at 10s, got %v", firedAt)
	}
	if v.Pending() != 0 {
		t.Errorf("expected empty queue, got %d", v.Pending())
	}
}

func TestVirtualOrdersByDeadlineThenSubmission(t *testing.T) {
	v := newTestVirtual(t)
	var order []string
	record := func(name string) func() { return func() { order = append(order, name) } }

	v.Schedule(3*time.Second, record("c"))
	v.Schedule(time.Second, record("a1"))
	v.Schedule(time.Second, record("a2"))
	v.Schedule(2*time.Second, record("b"))
	v.Schedule(time.Second, record("a3"))

	v.AdvanceBy(5 * time.Second)
	if got := strings.Join(order, ","); got != "a1,a2,a3,b,c" {
		t.Errorf("unexpected firing order %s", got)
	}
}

func TestVirtualPeriodicFiresAcrossWindow(t *testing.T) {
	v := newTestVirtual(t)
	var ticks []time.Duration
	v.SchedulePeriodic(time.Second, 2*time.Second, func() { ticks = append(ticks, v.Elapsed()) })

	v.AdvanceBy(6 * time.Second)
	want := []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}
	if fmt.Sprint(ticks) != fmt.Sprint(want) {
		t.Errorf("expected ticks %v, got %v", want, ticks)
	}
	if v.Pending() != 1 {
		t.Errorf("expected periodic task to remain queued, got %d", v.Pending())
	}
}

func TestVirtualNonPositivePeriodIsOneShot(t *testing.T) {
	v := newTestVirtual(t)
	count := 0
	v.SchedulePeriodic(time.Second, 0, func() { count++ })
	v.AdvanceBy(10 * time.Second)
	if count != 1 {
		t.Errorf("expected a single run, got %d", count)
	}
}

func TestVirtualNegativeDelayClamped(t *testing.T) {
	v := newTestVirtual(t)
	fired := false
	v.Schedule(-time.Second, func() { fired = true })
	v.TriggerActions()
	if !fired {
		t.Error("expected negative delay to run at the current instant")
	}
	if v.Elapsed() != 0 {
		t.Errorf("TriggerActions must not move time, elapsed %v", v.Elapsed())
	}
}

func TestVirtualAdvanceIsAssociative(t *testing.T) {
	run := func(steps ...time.Duration) string {
		v := NewVirtual()
		var log []string
		for i, d := range []time.Duration{500 * time.Millisecond, time.Second, 1500 * time.Millisecond, 3 * time.Second} {
			name := fmt.Sprintf("t%d", i)
			v.Schedule(d, func() { log = append(log, fmt.Sprintf("%s@%s", name, v.Elapsed())) })
		}
		v.SchedulePeriodic(time.Second, time.Second, func() { log = append(log, fmt.Sprintf("p@%s", v.Elapsed())) })
		for _, s := range steps {
			if err := v.AdvanceBy(s); err != nil {
				t.Fatalf("AdvanceBy failed: %v", err)
			}
		}
		return strings.Join(log, " ")
	}

	whole := run(4 * time.Second)
	split := run(1200*time.Millisecond, 2800*time.Millisecond)
	steps := run(time.Second, time.Second, time.Second, time.Second)
	if whole != split || whole != steps {
		t.Errorf("advance results differ:\nwhole: %s\nsplit: %s\nsteps: %s", whole, split, steps)
	}
}

func TestVirtualTasksScheduledDuringAdvanceRunInWindow(t *testing.T) {
	v := newTestVirtual(t)
	var order []string
	v.Schedule(time.Second, func() {
		order = append(order, "outer")
		v.Schedule(time.Second, func() { order = append(order, "inner") })
	})
	v.AdvanceBy(3 * time.Second)
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("expected nested task to run in the same advance, got %v", order)
	}
}

func TestVirtualCancel(t *testing.T) {
	v := newTestVirtual(t)
	count := 0
	h := v.Schedule(time.Second, func() { count++ })
	h.Cancel()
	h.Cancel()
	if !h.Cancelled() {
		t.Error("expected handle to report cancelled")
	}
	if v.Pending() != 0 {
		t.Errorf("expected cancelled task removed, got %d pending", v.Pending())
	}
	v.AdvanceBy(2 * time.Second)
	if count != 0 {
		t.Errorf("expected cancelled task not to run, ran %d times", count)
	}
}

func TestVirtualPeriodicCancelFromAction(t *testing.T) {
	v := newTestVirtual(t)
	count := 0
	var h Handle
	h = v.SchedulePeriodic(time.Second, time.Second, func() {
		count++
		if count == 2 {
			h.Cancel()
		}
	})
	v.AdvanceBy(10 * time.Second)
	if count != 2 {
		t.Errorf("expected periodic task to stop after cancel, ran %d times", count)
	}
}

func TestVirtualRejectsBackwardsTime(t *testing.T) {
	v := newTestVirtual(t)
	v.AdvanceBy(5 * time.Second)

	err := v.AdvanceBy(-time.Second)
	if !errors.HasCode(err, errors.ErrCodeProtocolViolation) {
		t.Errorf("expected PROTOCOL_VIOLATION, got %v", err)
	}
	err = v.AdvanceTo(Epoch)
	if !errors.HasCode(err, errors.ErrCodeProtocolViolation) {
		t.Errorf("expected PROTOCOL_VIOLATION, got %v", err)
	}
	if v.Elapsed() != 5*time.Second {
		t.Errorf("expected time unchanged at 5s, got %v", v.Elapsed())
	}
}

func TestVirtualAdvanceTo(t *testing.T) {
	v := newTestVirtual(t)
	fired := false
	v.Schedule(3*time.Second, func() { fired = true })
	if err := v.AdvanceTo(Epoch.Add(3 * time.Second)); err != nil {
		t.Fatalf("AdvanceTo failed: %v", err)
	}
	if !fired {
		t.Error("expected task due exactly at the target to fire")
	}
}

func TestVirtualNowDuringActionIsDeadline(t *testing.T) {
	v := newTestVirtual(t)
	var seen time.Duration
	v.Schedule(1500*time.Millisecond, func() { seen = v.Elapsed() })
	v.AdvanceBy(10 * time.Second)
	if seen != 1500*time.Millisecond {
		t.Errorf("expected Now to equal the deadline while running, got %v", seen)
	}
	if v.Elapsed() != 10*time.Second {
		t.Errorf("expected clock at target after advance, got %v", v.Elapsed())
	}
}

func TestVirtualNestedAdvanceNeverMovesBack(t *testing.T) {
	v := newTestVirtual(t)
	var seen []time.Duration
	v.Schedule(time.Second, func() {
		if err := v.AdvanceBy(10 * time.Second); err != nil {
			t.Errorf("nested AdvanceBy failed: %v", err)
		}
	})
	v.Schedule(5*time.Second, func() { seen = append(seen, v.Elapsed()) })

	if err := v.AdvanceBy(2 * time.Second); err != nil {
		t.Fatalf("AdvanceBy failed: %v", err)
	}
	if v.Elapsed() != 11*time.Second {
		t.Errorf("expected clock at 11s, got %v", v.Elapsed())
	}
	if len(seen) != 1 || seen[0] != 5*time.Second {
		t.Errorf("expected the 5s task to fire inside the nested advance, got %v", seen)
	}
}
