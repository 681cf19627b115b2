// Package observability wires OpenTelemetry tracing and metrics into the
// harness.
//
// Each scenario runs under a "scenario" span with one child span per phase
// (scenario.given, scenario.when, scenario.then); When actions are span
// events. Metrics count recorded signals by kind and time asynchronous waits.
//
// Export is opt-in:
//
//	tel, err := observability.Setup(ctx, observability.Config{
//	    Enabled:     true,
//	    ServiceName: "checkout-tests",
//	    Endpoint:    "localhost:4318",
//	})
//	defer tel.Stop(ctx)
//
// Tests can build Telemetry on in-memory providers with New.
package observability
