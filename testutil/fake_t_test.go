package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/rxscenario/component"
)

func TestRunStopsAtFatalf(t *testing.T) {
	reached := false
	ft := Run("fatal", func(ft *FakeT) {
		ft.Fatalf("boom %d", 1)
		reached = true
	})
	if reached {
		t.Error("expected Fatalf to stop the function")
	}
	if !ft.Failed() || !ft.Fatal() {
		t.Error("expected FakeT to be failed and fatal")
	}
	if ft.Output() != "boom 1" {
		t.Errorf("unexpected output %q", ft.Output())
	}
}

func TestErrorfContinues(t *testing.T) {
	reached := false
	ft := Run("error", func(ft *FakeT) {
		ft.Errorf("first")
		ft.Errorf("second")
		reached = true
	})
	if !reached {
		t.Error("expected Errorf not to stop the function")
	}
	if ft.Fatal() {
		t.Error("expected non-fatal failure")
	}
	if got := ft.Messages(); len(got) != 2 || got[1] != "second" {
		t.Errorf("unexpected messages %v", got)
	}
}

func TestCleanupsRunInReverseAfterFatal(t *testing.T) {
	var order []string
	Run("cleanup", func(ft *FakeT) {
		ft.Cleanup(func() { order = append(order, "first") })
		ft.Cleanup(func() { order = append(order, "second") })
		ft.Fatalf("stop")
	})
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("expected reverse cleanup order, got %v", order)
	}
}

func TestLogf(t *testing.T) {
	ft := Run("log", func(ft *FakeT) { ft.Logf("hello %s", "world") })
	if ft.Failed() {
		t.Error("logging must not fail the test")
	}
	if logs := ft.Logs(); len(logs) != 1 || logs[0] != "hello world" {
		t.Errorf("unexpected logs %v", logs)
	}
}

func TestStartRegistersStop(t *testing.T) {
	stopped := false
	c := component.FromFuncs("svc", nil, func(context.Context) error {
		stopped = true
		return nil
	})
	Run("start", func(ft *FakeT) {
		Start(ft, c)
		if stopped {
			ft.Errorf("stopped too early")
		}
	})
	if !stopped {
		t.Error("expected cleanup to stop the component")
	}
}

func TestStartFailure(t *testing.T) {
	c := component.FromFuncs("svc", func(context.Context) error { return fmt.Errorf("nope") }, nil)
	ft := Run("start", func(ft *FakeT) { Start(ft, c) })
	if !ft.Fatal() || !strings.Contains(ft.Output(), "failed to start svc") {
		t.Errorf("expected fatal start failure, got %q", ft.Output())
	}
}

func TestEventually(t *testing.T) {
	n := 0
	if !Eventually(func() bool { n++; return n >= 3 }, time.Second, time.Millisecond) {
		t.Error("expected condition to become true")
	}
	if Eventually(func() bool { return false }, 5*time.Millisecond, time.Millisecond) {
		t.Error("expected timeout")
	}
}
