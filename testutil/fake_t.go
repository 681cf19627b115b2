package testutil

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// FakeT is a stand-in for *testing.T that records failures instead of
// failing the enclosing test. Use Run to execute code against it, so that
// Fatalf can stop the function the same way testing.T does.
type FakeT struct {
	name string

	mu       sync.Mutex
	failed   bool
	fatal    bool
	messages []string
	logs     []string
	cleanups []func()
}

// NewFakeT creates a FakeT with the given name.
func NewFakeT(name string) *FakeT {
	return &FakeT{name: name}
}

// Run executes fn on a fresh goroutine against a new FakeT, waits for it to
// return or call Fatalf, then runs registered cleanups in reverse order.
func Run(name string, fn func(t *FakeT)) *FakeT {
	ft := NewFakeT(name)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ft)
	}()
	<-done
	ft.RunCleanups()
	return ft
}

func (f *FakeT) Helper() {}

func (f *FakeT) Name() string { return f.name }

func (f *FakeT) Logf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, fmt.Sprintf(format, args...))
}

func (f *FakeT) Errorf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = true
	f.messages = append(f.messages, fmt.Sprintf(format, args...))
}

// Fatalf records the failure and stops the calling goroutine.
// It must be called from the goroutine started by Run.
func (f *FakeT) Fatalf(format string, args ...any) {
	f.mu.Lock()
	f.failed = true
	f.fatal = true
	f.messages = append(f.messages, fmt.Sprintf(format, args...))
	f.mu.Unlock()
	runtime.Goexit()
}

// Cleanup registers fn to run when RunCleanups is called.
func (f *FakeT) Cleanup(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, fn)
}

// RunCleanups runs registered cleanups, last registered first. Each runs once.
func (f *FakeT) RunCleanups() {
	for {
		f.mu.Lock()
		n := len(f.cleanups)
		if n == 0 {
			f.mu.Unlock()
			return
		}
		fn := f.cleanups[n-1]
		f.cleanups = f.cleanups[:n-1]
		f.mu.Unlock()
		fn()
	}
}

// Failed reports whether Errorf or Fatalf was called.
func (f *FakeT) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}

// Fatal reports whether Fatalf was called.
func (f *FakeT) Fatal() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fatal
}

// Messages returns the recorded failure messages.
func (f *FakeT) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// Logs returns the recorded log lines.
func (f *FakeT) Logs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.logs...)
}

// Output joins failure messages with newlines.
func (f *FakeT) Output() string {
	return strings.Join(f.Messages(), "\n")
}
