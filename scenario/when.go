package scenario

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/rxscenario/component"
	"github.com/kbukum/rxscenario/errors"
	"github.com/kbukum/rxscenario/logger"
)

// When issues actions against the source, the subscriber and time.
// Actions run synchronously in the order they are called.
type When[I, O any] struct {
	s *Scenario[I, O]
}

// WhenSubscriber acts as the recording subscriber.
type WhenSubscriber[I, O any] struct {
	w *When[I, O]
}

// WhenSource drives the controllable source.
type WhenSource[I, O any] struct {
	w *When[I, O]
}

// WhenTime moves the virtual clock.
type WhenTime[I, O any] struct {
	w *When[I, O]
}

// TheSubscriber selects subscriber actions.
func (w *When[I, O]) TheSubscriber() *WhenSubscriber[I, O] {
	return &WhenSubscriber[I, O]{w: w}
}

// TheSource selects source actions.
func (w *When[I, O]) TheSource() *WhenSource[I, O] {
	return &WhenSource[I, O]{w: w}
}

// Time selects clock actions. Only virtual-time scenarios control time.
func (w *When[I, O]) Time() *WhenTime[I, O] {
	s := w.s
	s.t.Helper()
	if s.require(phaseWhen, "time") && s.realTime {
		s.fail(errors.ProtocolViolation("time", "time can only be controlled in virtual-time scenarios"))
	}
	return &WhenTime[I, O]{w: w}
}

// Then enters the Then phase.
func (w *When[I, O]) Then() *Then[I, O] {
	w.s.t.Helper()
	w.s.advance(phaseWhen, phaseThen, "then")
	return &Then[I, O]{s: w.s}
}

// Subscribes subscribes the recorder to the pipeline.
func (ws *WhenSubscriber[I, O]) Subscribes() *When[I, O] {
	s := ws.w.s
	s.t.Helper()
	if !s.require(phaseWhen, "subscribes") {
		return ws.w
	}
	if s.sub != nil {
		s.fail(errors.ProtocolViolation("subscribes", "the subscriber has already subscribed"))
		return ws.w
	}
	s.action("subscribes")
	s.sub = s.pipeline.Subscribe(s.recorder)
	s.own(component.OnStop("subscription", s.sub.Unsubscribe))
	return ws.w
}

// Unsubscribes releases the subscription and everything upstream of it.
// Unsubscribing again has no further effect.
func (ws *WhenSubscriber[I, O]) Unsubscribes() *When[I, O] {
	s := ws.w.s
	s.t.Helper()
	if !s.require(phaseWhen, "unsubscribes") {
		return ws.w
	}
	if s.sub == nil {
		s.fail(errors.ProtocolViolation("unsubscribes", "the subscriber never subscribed"))
		return ws.w
	}
	s.action("unsubscribes")
	s.sub.Unsubscribe()
	return ws.w
}

// WaitsForEvents blocks until the subscriber has received n values, failing
// with TIMEOUT after the async timeout. On a virtual clock nothing can arrive
// without an action, so due tasks are run and the count is checked at once.
func (ws *WhenSubscriber[I, O]) WaitsForEvents(n int) *When[I, O] {
	s := ws.w.s
	s.t.Helper()
	if !s.require(phaseWhen, "waitsForEvents") {
		return ws.w
	}
	s.action("waitsForEvents", attribute.Int("n", n))

	timeout := s.waitTimeout()
	if s.virtual != nil {
		s.virtual.TriggerActions()
		timeout = 0
	}
	start := time.Now()
	err := s.recorder.WaitForEventsTimeout(n, timeout)
	waited := time.Since(start)
	s.tel.Instruments().RecordWait(s.ctx, waited, errors.HasCode(err, errors.ErrCodeTimeout))
	s.log.Debug("Wait finished", logger.DurationFields("waitForEvents", waited))
	if err != nil {
		s.fail(err)
	}
	return ws.w
}

// Emits sends v from the source.
func (wsrc *WhenSource[I, O]) Emits(v I) *When[I, O] {
	s := wsrc.w.s
	s.t.Helper()
	if !s.require(phaseWhen, "emits") {
		return wsrc.w
	}
	s.action("emits", attribute.String("value", fmt.Sprint(v)))
	if err := s.source.Emit(v); err != nil {
		s.fail(err)
	}
	return wsrc.w
}

// EmitsAll sends each value in order.
func (wsrc *WhenSource[I, O]) EmitsAll(values ...I) *When[I, O] {
	wsrc.w.s.t.Helper()
	for _, v := range values {
		wsrc.Emits(v)
	}
	return wsrc.w
}

// Completes terminates the source normally.
func (wsrc *WhenSource[I, O]) Completes() *When[I, O] {
	s := wsrc.w.s
	s.t.Helper()
	if !s.require(phaseWhen, "completes") {
		return wsrc.w
	}
	s.action("completes")
	if err := s.source.Complete(); err != nil {
		s.fail(err)
	}
	return wsrc.w
}

// Errors terminates the source with err.
func (wsrc *WhenSource[I, O]) Errors(err error) *When[I, O] {
	s := wsrc.w.s
	s.t.Helper()
	if !s.require(phaseWhen, "errors") {
		return wsrc.w
	}
	s.action("errors", attribute.String("error", fmt.Sprint(err)))
	if ferr := s.source.Fail(err); ferr != nil {
		s.fail(ferr)
	}
	return wsrc.w
}

// AdvancesBy moves virtual time forward by d, running every task that falls due.
func (wt *WhenTime[I, O]) AdvancesBy(d time.Duration) *When[I, O] {
	s := wt.w.s
	s.t.Helper()
	if !s.require(phaseWhen, "advancesBy") || s.virtual == nil {
		return wt.w
	}
	s.action("advancesBy", attribute.String("by", d.String()))
	if err := s.virtual.AdvanceBy(d); err != nil {
		s.fail(err)
	}
	return wt.w
}
