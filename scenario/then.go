package scenario

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/kbukum/rxscenario/errors"
)

// Then asserts on what the subscriber recorded.
type Then[I, O any] struct {
	s *Scenario[I, O]
}

// ThenSubscriber holds assertions about the recording subscriber. Each
// assertion fails the test at once and otherwise returns the subscriber so
// assertions chain.
type ThenSubscriber[I, O any] struct {
	s *Scenario[I, O]
}

// CountAssertion compares one counter of the recording.
type CountAssertion[I, O any] struct {
	ts     *ThenSubscriber[I, O]
	field  string
	actual int
}

// EventAssertion compares the value at one index.
type EventAssertion[I, O any] struct {
	ts    *ThenSubscriber[I, O]
	index int
}

// ValuesAssertion compares all recorded values.
type ValuesAssertion[I, O any] struct {
	ts *ThenSubscriber[I, O]
}

// ErrorAssertion inspects the terminal error.
type ErrorAssertion[I, O any] struct {
	ts *ThenSubscriber[I, O]
}

// RenderedAssertion compares the rendered stream.
type RenderedAssertion[I, O any] struct {
	ts *ThenSubscriber[I, O]
}

// TheSubscriber selects subscriber assertions.
func (th *Then[I, O]) TheSubscriber() *ThenSubscriber[I, O] {
	th.s.t.Helper()
	th.s.require(phaseThen, "theSubscriber")
	return &ThenSubscriber[I, O]{s: th.s}
}

func (ts *ThenSubscriber[I, O]) count(field string, actual func(*Recorder[O]) int) *CountAssertion[I, O] {
	ts.s.t.Helper()
	if !ts.s.require(phaseThen, field) {
		return &CountAssertion[I, O]{ts: ts, field: field}
	}
	return &CountAssertion[I, O]{ts: ts, field: field, actual: actual(ts.s.recorder)}
}

// EventCount is the number of values received.
func (ts *ThenSubscriber[I, O]) EventCount() *CountAssertion[I, O] {
	ts.s.t.Helper()
	return ts.count("eventCount", (*Recorder[O]).EventCount)
}

// RecordCount is the number of records, values and terminal signals together.
func (ts *ThenSubscriber[I, O]) RecordCount() *CountAssertion[I, O] {
	ts.s.t.Helper()
	return ts.count("recordCount", (*Recorder[O]).Len)
}

// CompletedCount is the number of completion signals received.
func (ts *ThenSubscriber[I, O]) CompletedCount() *CountAssertion[I, O] {
	ts.s.t.Helper()
	return ts.count("completedCount", (*Recorder[O]).CompletedCount)
}

// ErrorCount is the number of error signals received.
func (ts *ThenSubscriber[I, O]) ErrorCount() *CountAssertion[I, O] {
	ts.s.t.Helper()
	return ts.count("errorCount", (*Recorder[O]).ErrorCount)
}

// Violations is the number of signals received after a terminal one.
func (ts *ThenSubscriber[I, O]) Violations() *CountAssertion[I, O] {
	ts.s.t.Helper()
	return ts.count("violations", (*Recorder[O]).Violations)
}

// IsEqualTo fails unless the counter equals n.
func (c *CountAssertion[I, O]) IsEqualTo(n int) *ThenSubscriber[I, O] {
	c.ts.s.t.Helper()
	if c.actual != n {
		c.ts.s.fail(errors.AssertionFailed(c.field, n, c.actual))
	}
	return c.ts
}

// Event selects the i-th received value, counting from zero.
func (ts *ThenSubscriber[I, O]) Event(i int) *EventAssertion[I, O] {
	return &EventAssertion[I, O]{ts: ts, index: i}
}

// IsEqualTo fails if there is no value at the index or it differs from want.
func (e *EventAssertion[I, O]) IsEqualTo(want O) *ThenSubscriber[I, O] {
	s := e.ts.s
	s.t.Helper()
	if !s.require(phaseThen, "event") {
		return e.ts
	}
	got, err := s.recorder.Event(e.index)
	if err != nil {
		s.fail(err)
		return e.ts
	}
	if !reflect.DeepEqual(got, want) {
		s.fail(errors.AssertionFailed(fmt.Sprintf("event(%d)", e.index), want, got).WithDetail("index", e.index))
	}
	return e.ts
}

// Values selects every received value in order.
func (ts *ThenSubscriber[I, O]) Values() *ValuesAssertion[I, O] {
	return &ValuesAssertion[I, O]{ts: ts}
}

// AreEqualTo fails unless the received values are exactly want.
func (va *ValuesAssertion[I, O]) AreEqualTo(want ...O) *ThenSubscriber[I, O] {
	s := va.ts.s
	s.t.Helper()
	if !s.require(phaseThen, "values") {
		return va.ts
	}
	got := s.recorder.Values()
	if len(got) == 0 && len(want) == 0 {
		return va.ts
	}
	if !reflect.DeepEqual(got, want) {
		s.fail(errors.AssertionFailed("values", want, got))
	}
	return va.ts
}

// Error selects the terminal error.
func (ts *ThenSubscriber[I, O]) Error() *ErrorAssertion[I, O] {
	return &ErrorAssertion[I, O]{ts: ts}
}

// received returns the terminal error, failing when there is none.
func (ea *ErrorAssertion[I, O]) received() error {
	s := ea.ts.s
	s.t.Helper()
	if !s.require(phaseThen, "error") {
		return nil
	}
	err := s.recorder.Err()
	if err == nil {
		s.fail(errors.AssertionFailed("error", "an error", "none"))
	}
	return err
}

// Is fails unless the terminal error matches target under errors.Is.
func (ea *ErrorAssertion[I, O]) Is(target error) *ThenSubscriber[I, O] {
	ea.ts.s.t.Helper()
	if err := ea.received(); err != nil && !stderrors.Is(err, target) {
		ea.ts.s.fail(errors.AssertionFailed("error", target, err))
	}
	return ea.ts
}

// Matches fails unless the terminal error's message contains substr.
func (ea *ErrorAssertion[I, O]) Matches(substr string) *ThenSubscriber[I, O] {
	ea.ts.s.t.Helper()
	if err := ea.received(); err != nil && !strings.Contains(err.Error(), substr) {
		ea.ts.s.fail(errors.AssertionFailed("error", "message containing "+substr, err.Error()))
	}
	return ea.ts
}

// IsAbsent fails if the subscriber received an error.
func (ea *ErrorAssertion[I, O]) IsAbsent() *ThenSubscriber[I, O] {
	s := ea.ts.s
	s.t.Helper()
	if s.require(phaseThen, "error") {
		if err := s.recorder.Err(); err != nil {
			s.fail(errors.AssertionFailed("error", "none", err))
		}
	}
	return ea.ts
}

// RenderedStream selects the recording rendered with the scenario's renderer
// and separator.
func (ts *ThenSubscriber[I, O]) RenderedStream() *RenderedAssertion[I, O] {
	return &RenderedAssertion[I, O]{ts: ts}
}

// IsEqualTo fails unless the rendered stream equals want.
func (ra *RenderedAssertion[I, O]) IsEqualTo(want string) *ThenSubscriber[I, O] {
	s := ra.ts.s
	s.t.Helper()
	if !s.require(phaseThen, "renderedStream") {
		return ra.ts
	}
	if got := ra.String(); got != want {
		s.fail(errors.AssertionFailed("renderedStream", want, got))
	}
	return ra.ts
}

// String returns the rendered stream.
func (ra *RenderedAssertion[I, O]) String() string {
	s := ra.ts.s
	return s.recorder.Rendered(s.renderer, s.cfg.Separator)
}
