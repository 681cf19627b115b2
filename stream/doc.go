// Package stream is a small push-based stream vocabulary: a cold Stream that
// delivers Next, Error and Complete signals to an Observer, a Subscription
// that releases resources when the consumer stops listening, and the handful
// of operators needed to build pipelines under test.
//
// Streams are cold. Each Subscribe runs the producer again, so two
// subscribers get independent deliveries.
//
//	s := stream.Map(stream.Just("1", "2"), strconv.Atoi)
//	sub := s.Subscribe(stream.ObserverFuncs[int]{
//	    Next: func(v int) { fmt.Println(v) },
//	})
//	defer sub.Unsubscribe()
//
// Time-based operators take a clock.Scheduler, so tests can drive them on a
// virtual clock.
package stream
