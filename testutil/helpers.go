package testutil

import (
	"context"
	"time"

	"github.com/kbukum/rxscenario/component"
)

// TB is the subset of testing.TB the helpers need. Both *testing.T and *FakeT satisfy it.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(fn func())
}

// StopTimeout bounds the Stop call registered by Start.
const StopTimeout = 5 * time.Second

// Start starts c and registers its Stop as a test cleanup.
//
//	sched := clock.NewReal(nil)
//	testutil.Start(t, sched)
func Start(t TB, c component.Component) {
	t.Helper()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("failed to start %s: %v", c.Name(), err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
		defer cancel()
		_ = c.Stop(ctx)
	})
}

// Eventually polls cond every tick until it returns true or timeout elapses.
// It reports whether cond became true.
func Eventually(cond func() bool, timeout, tick time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(tick)
	}
}
