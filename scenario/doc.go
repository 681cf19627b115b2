// Package scenario is a Given/When/Then harness for testing push-based
// stream pipelines.
//
// A scenario feeds a controllable source into the pipeline under test,
// records every signal the subscriber observes and asserts against the
// recording, including a rendered text form such as "[a]-[b]-|".
//
//	scenario.New[string, int](t).
//	    Given().TheStreamUnderTest(func(in *stream.Stream[string]) *stream.Stream[int] {
//	        return stream.Map(in, parseAndIncrement)
//	    }).
//	    When().
//	        TheSubscriber().Subscribes().
//	        TheSource().Emits("1").
//	        TheSource().Emits("2").
//	        TheSource().Completes().
//	    Then().TheSubscriber().
//	        EventCount().IsEqualTo(2).
//	        Event(0).IsEqualTo(2).
//	        RenderedStream().IsEqualTo("[2]-[3]-|")
//
// Timed pipelines receive a clock.Scheduler. By default it is a virtual
// clock moved with Time().AdvancesBy; RealTime switches to a wall-clock
// scheduler and WaitsForEvents blocks, bounded by the async timeout.
//
// Misuse of the builder, such as emitting after completion or calling a
// builder from an earlier phase, fails the test with a PROTOCOL_VIOLATION.
package scenario
