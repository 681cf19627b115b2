// Package clock provides the time source that timed pipelines schedule work on.
//
// Pipeline code depends only on the Scheduler interface. Tests drive a
// Virtual clock, where time moves only when AdvanceBy is called and due
// tasks run synchronously on the caller's goroutine. Real runs tasks on a
// background worker at wall-clock deadlines and is started and stopped as a
// component.Component.
//
// Both implementations order tasks by deadline, breaking ties by submission
// order.
package clock
