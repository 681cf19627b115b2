package clock

import "time"

// Epoch is the instant a Virtual clock starts at unless configured otherwise.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Scheduler runs actions after a delay or periodically.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// Schedule runs action once, delay after Now. Negative delays run as soon as possible.
	Schedule(delay time.Duration, action func()) Handle

	// SchedulePeriodic runs action first after initial, then every period.
	// A non-positive period schedules a single run.
	SchedulePeriodic(initial, period time.Duration, action func()) Handle
}

// Handle is a cancellation handle for a scheduled action.
type Handle interface {
	// Cancel prevents any future run of the action. Safe to call more than once.
	Cancel()
	Cancelled() bool
}
