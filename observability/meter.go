package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/rxscenario/logger"
)

// InitMeter creates a meter provider exporting over OTLP HTTP and installs
// it globally. The provider should be shut down when the run ends.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Metric names.
const (
	MetricEvents       = "scenario.events"
	MetricTimeouts     = "scenario.timeouts"
	MetricWaitDuration = "scenario.wait.duration"
)

// Instruments holds the harness metric instruments.
type Instruments struct {
	events       metric.Int64Counter
	timeouts     metric.Int64Counter
	waitDuration metric.Float64Histogram
}

// NewInstruments creates the harness instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	events, err := meter.Int64Counter(MetricEvents,
		metric.WithDescription("Signals recorded by scenario subscribers, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricEvents, err)
	}

	timeouts, err := meter.Int64Counter(MetricTimeouts,
		metric.WithDescription("Waits that gave up before enough events arrived"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricTimeouts, err)
	}

	waitDuration, err := meter.Float64Histogram(MetricWaitDuration,
		metric.WithDescription("Time spent waiting for asynchronous events"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricWaitDuration, err)
	}

	return &Instruments{
		events:       events,
		timeouts:     timeouts,
		waitDuration: waitDuration,
	}, nil
}

// RecordEvent counts one recorded signal of the given kind.
func (i *Instruments) RecordEvent(ctx context.Context, kind string) {
	i.events.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrKind, kind)))
}

// RecordWait records how long a wait took and whether it timed out.
func (i *Instruments) RecordWait(ctx context.Context, d time.Duration, timedOut bool) {
	outcome := "ok"
	if timedOut {
		outcome = "timeout"
		i.timeouts.Add(ctx, 1)
	}
	i.waitDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}
