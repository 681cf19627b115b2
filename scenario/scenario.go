package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/rxscenario/clock"
	"github.com/kbukum/rxscenario/component"
	"github.com/kbukum/rxscenario/errors"
	"github.com/kbukum/rxscenario/logger"
	"github.com/kbukum/rxscenario/observability"
	"github.com/kbukum/rxscenario/stream"
)

// TB is the part of testing.TB a scenario uses. Failures are reported with
// Fatalf and resources are released through Cleanup.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(fn func())
}

type phase int

const (
	phaseNew phase = iota
	phaseGiven
	phaseWhen
	phaseThen
)

func (p phase) String() string {
	switch p {
	case phaseNew:
		return "new"
	case phaseGiven:
		return "given"
	case phaseWhen:
		return "when"
	case phaseThen:
		return "then"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Scenario is one Given/When/Then run feeding values of type I into a
// pipeline producing values of type O.
type Scenario[I, O any] struct {
	t    TB
	id   string
	name string
	cfg  Config
	log  *logger.Logger
	tel  *observability.Telemetry

	ctx       context.Context
	root      trace.Span
	phaseCtx  context.Context
	phaseSpan trace.Span
	phase     phase

	source   *Source[I]
	factory  func(*stream.Stream[I], clock.Scheduler) *stream.Stream[O]
	renderer Renderer[O]
	realTime bool

	virtual    *clock.Virtual
	real       *clock.Real
	pipeline   *stream.Stream[O]
	recorder   *Recorder[O]
	sub        *stream.Subscription
	components *component.Registry
}

// Option configures a Scenario.
type Option func(*options)

type options struct {
	cfg       *Config
	name      string
	log       *logger.Logger
	telemetry *observability.Telemetry
}

// WithConfig replaces DefaultConfig for this scenario.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithName names the scenario in logs and spans. Defaults to the test name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger. Defaults to one writing through t.Logf.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTelemetry sets the telemetry used for spans and metrics. Without it,
// telemetry is built from Config.Telemetry and shut down on cleanup.
func WithTelemetry(tel *observability.Telemetry) Option {
	return func(o *options) { o.telemetry = tel }
}

// New creates a scenario bound to t. Resources it acquires are released when
// the test's cleanups run.
func New[I, O any](t TB, opts ...Option) *Scenario[I, O] {
	t.Helper()
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Scenario[I, O]{
		t:        t,
		id:       uuid.NewString(),
		name:     o.name,
		source:   NewSource[I](),
		renderer: DefaultRenderer[O],
		ctx:      context.Background(),
	}
	if o.cfg != nil {
		s.cfg = *o.cfg
	}
	s.cfg.ApplyDefaults()
	if s.name == "" {
		if named, ok := t.(interface{ Name() string }); ok {
			s.name = named.Name()
		}
	}

	base := o.log
	if base == nil {
		base = logger.NewForTest(t, &s.cfg.Logging)
	}
	s.log = base.WithComponent("scenario").WithFields(logger.Fields(logger.FieldScenarioID, s.id))
	s.components = component.NewRegistry(s.log)
	s.tel = observability.Noop()
	t.Cleanup(s.cleanup)

	if err := s.cfg.Validate(); err != nil {
		s.fail(err)
		return s
	}

	if o.telemetry != nil {
		s.tel = o.telemetry
	} else if s.cfg.Telemetry.Enabled {
		tel, err := observability.Setup(s.ctx, s.cfg.Telemetry)
		if err != nil {
			s.fail(errors.Wrap(err))
			return s
		}
		s.tel = tel
		s.own(tel)
	}

	s.ctx, s.root = s.tel.Tracer().Start(s.ctx, observability.SpanScenario, trace.WithAttributes(
		attribute.String(observability.AttrScenarioID, s.id),
		attribute.String(observability.AttrScenarioName, s.name),
	))
	s.log.Debug("Scenario created", logger.Fields("name", s.name))
	return s
}

// ID returns the scenario's unique identifier.
func (s *Scenario[I, O]) ID() string { return s.id }

// Source returns the controllable source.
func (s *Scenario[I, O]) Source() *Source[I] { return s.source }

// Recorder returns the recording subscriber, or nil before When.
func (s *Scenario[I, O]) Recorder() *Recorder[O] { return s.recorder }

// Given enters the Given phase.
func (s *Scenario[I, O]) Given() *Given[I, O] {
	s.t.Helper()
	s.advance(phaseNew, phaseGiven, "given")
	return &Given[I, O]{s: s}
}

// advance moves from one phase to the next, failing if the scenario is
// not in from. Each phase gets its own span under the scenario span.
func (s *Scenario[I, O]) advance(from, to phase, action string) {
	s.t.Helper()
	if s.phase != from {
		s.fail(errors.ProtocolViolation(action, fmt.Sprintf("the scenario is in the %s phase, not %s", s.phase, from)))
		return
	}
	s.endPhaseSpan()
	s.phase = to
	spanName := map[phase]string{
		phaseGiven: observability.SpanGiven,
		phaseWhen:  observability.SpanWhen,
		phaseThen:  observability.SpanThen,
	}[to]
	s.phaseCtx, s.phaseSpan = s.tel.Tracer().Start(s.ctx, spanName)
	s.log.Debug("Phase entered", logger.Fields(logger.FieldPhase, to.String()))
}

// require fails unless the scenario is in p, which rejects calls on
// builders left over from an earlier phase.
func (s *Scenario[I, O]) require(p phase, action string) bool {
	s.t.Helper()
	if s.phase != p {
		s.fail(errors.ProtocolViolation(action, fmt.Sprintf("it belongs to the %s phase but the scenario is in the %s phase", p, s.phase)))
		return false
	}
	return true
}

// action records a When step as a span event and a debug log line.
func (s *Scenario[I, O]) action(name string, attrs ...attribute.KeyValue) {
	if s.phaseSpan != nil {
		s.phaseSpan.AddEvent(name, trace.WithAttributes(append(attrs, attribute.String(observability.AttrAction, name))...))
	}
	fields := logger.Fields(logger.FieldPhase, s.phase.String(), logger.FieldAction, name)
	if s.virtual != nil {
		fields[logger.FieldVirtualNow] = s.virtual.Elapsed().String()
	}
	s.log.Debug("Action", fields)
}

// fail reports err through t.Fatalf.
func (s *Scenario[I, O]) fail(err error) {
	s.t.Helper()
	ctx := s.ctx
	if s.phaseCtx != nil {
		ctx = s.phaseCtx
	}
	observability.SetSpanError(ctx, err)
	s.log.WithError(err).Debug("Scenario failed", logger.Fields(logger.FieldPhase, s.phase.String()))
	if s.name != "" {
		s.t.Fatalf("scenario %q: %v", s.name, err)
		return
	}
	s.t.Fatalf("scenario: %v", err)
}

// own registers a resource released on cleanup, in reverse registration order.
func (s *Scenario[I, O]) own(c component.Component) {
	s.t.Helper()
	if err := s.components.Register(c); err != nil {
		s.fail(errors.Internal(err))
		return
	}
	if err := s.components.StartAll(s.ctx); err != nil {
		s.fail(errors.Internal(err))
	}
}

func (s *Scenario[I, O]) endPhaseSpan() {
	if s.phaseSpan != nil {
		s.phaseSpan.End()
		s.phaseSpan = nil
		s.phaseCtx = nil
	}
}

func (s *Scenario[I, O]) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), component.DefaultStopTimeout)
	defer cancel()

	s.endPhaseSpan()
	if s.root != nil {
		if s.recorder != nil {
			s.root.SetAttributes(
				attribute.Int("events", s.recorder.EventCount()),
				attribute.Int("violations", s.recorder.Violations()),
			)
		}
		s.root.End()
	}
	if err := s.components.StopAll(ctx); err != nil {
		s.log.Warn("Scenario cleanup failed", logger.ErrorFields("cleanup", err))
	}
	s.log.Debug("Scenario released")
}

// waitTimeout is the bound on WaitsForEvents.
func (s *Scenario[I, O]) waitTimeout() time.Duration {
	return s.cfg.AsyncTimeout
}
