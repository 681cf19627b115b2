package scenario

import (
	"time"

	"github.com/kbukum/rxscenario/clock"
	"github.com/kbukum/rxscenario/errors"
	"github.com/kbukum/rxscenario/logger"
	"github.com/kbukum/rxscenario/stream"
	"github.com/kbukum/rxscenario/validation"
)

// Given configures the pipeline under test and how it is observed.
type Given[I, O any] struct {
	s *Scenario[I, O]
}

// TheStreamUnderTest sets the pipeline factory. It is called once, when
// When is entered, with the scenario's source stream.
func (g *Given[I, O]) TheStreamUnderTest(f func(*stream.Stream[I]) *stream.Stream[O]) *Given[I, O] {
	g.s.t.Helper()
	if g.s.require(phaseGiven, "theStreamUnderTest") {
		g.s.factory = func(in *stream.Stream[I], _ clock.Scheduler) *stream.Stream[O] { return f(in) }
	}
	return g
}

// TheTimedStreamUnderTest sets a pipeline factory that also receives the
// scenario's scheduler, virtual unless RealTime is set.
func (g *Given[I, O]) TheTimedStreamUnderTest(f func(*stream.Stream[I], clock.Scheduler) *stream.Stream[O]) *Given[I, O] {
	g.s.t.Helper()
	if g.s.require(phaseGiven, "theTimedStreamUnderTest") {
		g.s.factory = f
	}
	return g
}

// TheRenderer sets how values appear inside the brackets of the rendered stream.
func (g *Given[I, O]) TheRenderer(r Renderer[O]) *Given[I, O] {
	g.s.t.Helper()
	if g.s.require(phaseGiven, "theRenderer") {
		g.s.renderer = r
	}
	return g
}

// TheSeparator sets the string between rendered tokens.
func (g *Given[I, O]) TheSeparator(sep string) *Given[I, O] {
	g.s.t.Helper()
	if g.s.require(phaseGiven, "theSeparator") {
		g.s.cfg.Separator = sep
	}
	return g
}

// AsyncTimeout bounds WaitsForEvents.
func (g *Given[I, O]) AsyncTimeout(d time.Duration) *Given[I, O] {
	g.s.t.Helper()
	if !g.s.require(phaseGiven, "asyncTimeout") {
		return g
	}
	if err := validation.New().Positive("async_timeout", d).Validate(); err != nil {
		g.s.fail(err)
		return g
	}
	g.s.cfg.AsyncTimeout = d
	return g
}

// RealTime runs the pipeline on a wall-clock scheduler with its own worker
// goroutine instead of a virtual clock.
func (g *Given[I, O]) RealTime() *Given[I, O] {
	g.s.t.Helper()
	if g.s.require(phaseGiven, "realTime") {
		g.s.realTime = true
	}
	return g
}

// When builds the pipeline and enters the When phase.
func (g *Given[I, O]) When() *When[I, O] {
	s := g.s
	s.t.Helper()
	s.advance(phaseGiven, phaseWhen, "when")
	if s.factory == nil {
		s.fail(errors.ProtocolViolation("when", "no stream under test was given"))
		return &When[I, O]{s: s}
	}

	var sched clock.Scheduler
	recorderOpts := []RecorderOption{
		OnRecord(func(k Kind) { s.tel.Instruments().RecordEvent(s.ctx, k.String()) }),
	}
	if s.realTime {
		s.real = clock.NewReal(s.log)
		s.own(s.real)
		sched = s.real
	} else {
		s.virtual = clock.NewVirtual(clock.WithStart(s.cfg.StartTime()), clock.WithLogger(s.log))
		sched = s.virtual
		recorderOpts = append(recorderOpts, WithVirtualClock(s.virtual))
	}

	s.pipeline = s.factory(s.source.Stream(), sched)
	if s.pipeline == nil {
		s.fail(errors.ProtocolViolation("when", "the stream factory returned nil"))
		return &When[I, O]{s: s}
	}
	s.recorder = NewRecorder[O](recorderOpts...)
	s.log.Debug("Pipeline built", logger.Fields("real_time", s.realTime))
	return &When[I, O]{s: s}
}
