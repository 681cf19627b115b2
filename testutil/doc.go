// Package testutil provides helpers for testing the harness itself.
//
// FakeT records failures instead of failing the enclosing test, so tests can
// assert that a scenario fails with the expected message:
//
//	ft := testutil.Run("emit after complete", func(t *testutil.FakeT) {
//	    scenario.New[string, string](t)...
//	})
//	if !ft.Fatal() {
//	    t.Fatal("expected the scenario to fail")
//	}
//
// Start runs a component for the duration of a test:
//
//	testutil.Start(t, clock.NewReal(nil))
package testutil
