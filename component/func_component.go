package component

import (
	"context"
	"sync"
)

// funcComponent adapts plain start/stop functions to Component.
type funcComponent struct {
	name  string
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error

	mu      sync.Mutex
	running bool
}

// FromFuncs builds a Component from start and stop functions. Either may be nil.
// Stop is a no-op unless Start succeeded, and runs at most once per Start.
func FromFuncs(name string, start, stop func(ctx context.Context) error) Component {
	return &funcComponent{name: name, start: start, stop: stop}
}

// OnStop builds a Component that only has teardown work, such as releasing a subscription.
func OnStop(name string, stop func()) Component {
	return FromFuncs(name, nil, func(context.Context) error {
		stop()
		return nil
	})
}

func (f *funcComponent) Name() string { return f.name }

func (f *funcComponent) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return nil
	}
	if f.start != nil {
		if err := f.start(ctx); err != nil {
			return err
		}
	}
	f.running = true
	return nil
}

func (f *funcComponent) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil
	}
	f.running = false
	if f.stop != nil {
		return f.stop(ctx)
	}
	return nil
}

func (f *funcComponent) Health(context.Context) Health {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return Health{Name: f.name, Status: StatusHealthy}
	}
	return Health{Name: f.name, Status: StatusStopped}
}
