package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/kbukum/rxscenario/component"
)

// Telemetry bundles the tracer, the harness instruments and the shutdown of
// any exporters. It is a component so a scenario can flush it on cleanup.
type Telemetry struct {
	tracer      trace.Tracer
	instruments *Instruments
	shutdown    []func(context.Context) error
}

var _ component.Component = (*Telemetry)(nil)

// Setup builds Telemetry from cfg. When export is disabled it returns
// no-op telemetry and installs nothing globally.
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}

	tp, err := InitTracer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	tel, err := New(tp, mp)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	tel.shutdown = append(tel.shutdown, tp.Shutdown, mp.Shutdown)
	return tel, nil
}

// New builds Telemetry on the given providers. The caller owns their shutdown.
func New(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	instruments, err := NewInstruments(mp.Meter(TracerName))
	if err != nil {
		return nil, err
	}
	return &Telemetry{
		tracer:      tp.Tracer(TracerName),
		instruments: instruments,
	}, nil
}

// Noop returns telemetry that records nothing.
func Noop() *Telemetry {
	tel, _ := New(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	return tel
}

// Tracer returns the harness tracer.
func (t *Telemetry) Tracer() trace.Tracer { return t.tracer }

// Instruments returns the harness metric instruments.
func (t *Telemetry) Instruments() *Instruments { return t.instruments }

func (t *Telemetry) Name() string { return "observability" }

func (t *Telemetry) Start(context.Context) error { return nil }

// Stop flushes and shuts down exporters created by Setup.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdown = nil
	return errors.Join(errs...)
}
