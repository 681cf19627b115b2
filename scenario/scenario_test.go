package scenario

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/rxscenario/clock"
	"github.com/kbukum/rxscenario/component"
	"github.com/kbukum/rxscenario/config"
	"github.com/kbukum/rxscenario/observability"
	"github.com/kbukum/rxscenario/stream"
	"github.com/kbukum/rxscenario/testutil"
)

func parsePlusOne(in *stream.Stream[string]) *stream.Stream[int] {
	return stream.Map(in, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return n + 1, nil
	})
}

func identity[T any](in *stream.Stream[T]) *stream.Stream[T] { return in }

// runFailing runs fn against a FakeT and requires it to fail with a message
// containing want.
func runFailing(t *testing.T, want string, fn func(ft *testutil.FakeT)) *testutil.FakeT {
	t.Helper()
	ft := testutil.Run(t.Name(), fn)
	if !ft.Fatal() {
		t.Fatalf("expected the scenario to fail with %q", want)
	}
	if !strings.Contains(ft.Output(), want) {
		t.Fatalf("expected failure containing %q, got %q", want, ft.Output())
	}
	return ft
}

func TestParseIntPlusOne(t *testing.T) {
	New[string, int](t).
		Given().TheStreamUnderTest(parsePlusOne).
		When().
		TheSubscriber().Subscribes().
		TheSource().Emits("1").
		TheSource().Emits("2").
		TheSource().Completes().
		Then().TheSubscriber().
		EventCount().IsEqualTo(2).
		Event(0).IsEqualTo(2).
		Event(1).IsEqualTo(3).
		Values().AreEqualTo(2, 3).
		CompletedCount().IsEqualTo(1).
		ErrorCount().IsEqualTo(0).
		RecordCount().IsEqualTo(3).
		Error().IsAbsent().
		RenderedStream().IsEqualTo("[2]-[3]-|")
}

func TestParseErrorIsRecorded(t *testing.T) {
	New[string, int](t).
		Given().TheStreamUnderTest(parsePlusOne).
		When().
		TheSubscriber().Subscribes().
		TheSource().EmitsAll("1", "x", "3").
		Then().TheSubscriber().
		EventCount().IsEqualTo(1).
		ErrorCount().IsEqualTo(1).
		Error().Is(strconv.ErrSyntax).
		Error().Matches("invalid syntax").
		RenderedStream().IsEqualTo("[2]-#")
}

func TestBufferTimeOnVirtualClock(t *testing.T) {
	New[string, []string](t).
		Given().TheTimedStreamUnderTest(func(in *stream.Stream[string], sched clock.Scheduler) *stream.Stream[[]string] {
			return stream.BufferTime(in, 10*time.Second, sched)
		}).
		When().
		TheSubscriber().Subscribes().
		TheSource().EmitsAll("1a", "1b", "1c").
		Time().AdvancesBy(11*time.Second).
		TheSource().EmitsAll("2a", "2b").
		TheSource().Completes().
		Then().TheSubscriber().
		EventCount().IsEqualTo(2).
		Event(0).IsEqualTo([]string{"1a", "1b", "1c"}).
		Event(1).IsEqualTo([]string{"2a", "2b"}).
		CompletedCount().IsEqualTo(1).
		RenderedStream().IsEqualTo("[[1a 1b 1c]]-[[2a 2b]]-|")
}

func TestVirtualEventsCarryTime(t *testing.T) {
	s := New[string, string](t)
	s.Given().TheTimedStreamUnderTest(func(in *stream.Stream[string], sched clock.Scheduler) *stream.Stream[string] {
		return stream.Delay(in, 3*time.Second, sched)
	}).
		When().
		TheSubscriber().Subscribes().
		TheSource().Emits("a").
		TheSubscriber().WaitsForEvents(0).
		Time().AdvancesBy(3*time.Second).
		TheSubscriber().WaitsForEvents(1)

	events := s.Recorder().Events()
	if len(events) != 1 || events[0].At != 3*time.Second {
		t.Fatalf("expected one event at 3s, got %v", events)
	}
}

func TestDelayInRealTime(t *testing.T) {
	New[string, string](t).
		Given().TheTimedStreamUnderTest(func(in *stream.Stream[string], sched clock.Scheduler) *stream.Stream[string] {
			return stream.Delay(stream.ObserveOn(in, sched), time.Second, sched)
		}).
		AsyncTimeout(2*time.Second).
		RealTime().
		When().
		TheSubscriber().Subscribes().
		TheSource().Emits("a").
		TheSource().Emits("b").
		TheSubscriber().WaitsForEvents(2).
		Then().TheSubscriber().
		EventCount().IsEqualTo(2).
		RenderedStream().IsEqualTo("[a]-[b]")
}

func TestCustomRendererAndSeparator(t *testing.T) {
	New[string, string](t).
		Given().TheStreamUnderTest(func(in *stream.Stream[string]) *stream.Stream[string] {
			first := true
			return stream.Map(in, func(s string) (string, error) {
				if first {
					first = false
					return s, nil
				}
				return strings.ToUpper(s), nil
			})
		}).
		TheRenderer(func(s string) string { return "'" + s + "'" }).
		When().
		TheSubscriber().Subscribes().
		TheSource().EmitsAll("a", "b").
		TheSource().Completes().
		Then().TheSubscriber().
		RenderedStream().IsEqualTo("['a']-['B']-|")

	New[int, int](t).
		Given().TheStreamUnderTest(identity[int]).TheSeparator(" ").
		When().
		TheSubscriber().Subscribes().
		TheSource().EmitsAll(1, 2).
		Then().TheSubscriber().
		RenderedStream().IsEqualTo("[1] [2]")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := New[int, int](t)
	s.Given().TheStreamUnderTest(identity[int]).
		When().
		TheSubscriber().Subscribes().
		TheSource().Emits(1).
		TheSubscriber().Unsubscribes().
		TheSubscriber().Unsubscribes().
		TheSource().Emits(2).
		Then().TheSubscriber().
		EventCount().IsEqualTo(1).
		Violations().IsEqualTo(0)

	if s.Source().Subscribers() != 0 {
		t.Errorf("expected the source to have no subscribers, got %d", s.Source().Subscribers())
	}
}

func TestEmitAfterCompleteFails(t *testing.T) {
	var s *Scenario[int, int]
	runFailing(t, "PROTOCOL_VIOLATION", func(ft *testutil.FakeT) {
		s = New[int, int](ft)
		s.Given().TheStreamUnderTest(identity[int]).
			When().
			TheSubscriber().Subscribes().
			TheSource().Completes().
			TheSource().Emits(1)
	})
	if s.Recorder().Len() != 1 {
		t.Errorf("expected only the completion record, got %d", s.Recorder().Len())
	}
}

func TestFailureReports(t *testing.T) {
	tests := []struct {
		name string
		want string
		run  func(ft *testutil.FakeT)
	}{
		{
			name: "event count mismatch",
			want: "ASSERTION_FAILED",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().TheSubscriber().Subscribes().TheSource().Emits(1).
					Then().TheSubscriber().EventCount().IsEqualTo(2)
			},
		},
		{
			name: "event value mismatch",
			want: "event(0)",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().TheSubscriber().Subscribes().TheSource().Emits(1).
					Then().TheSubscriber().Event(0).IsEqualTo(7)
			},
		},
		{
			name: "event out of range",
			want: "OUT_OF_RANGE",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().TheSubscriber().Subscribes().TheSource().Emits(1).
					Then().TheSubscriber().Event(5).IsEqualTo(1)
			},
		},
		{
			name: "rendered mismatch",
			want: "renderedStream",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().TheSubscriber().Subscribes().TheSource().Emits(1).
					Then().TheSubscriber().RenderedStream().IsEqualTo("[1]-|")
			},
		},
		{
			name: "error expected but absent",
			want: "ASSERTION_FAILED",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().TheSubscriber().Subscribes().TheSource().Completes().
					Then().TheSubscriber().Error().Is(stderrors.New("x"))
			},
		},
		{
			name: "wait times out in real time",
			want: "TIMEOUT",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					AsyncTimeout(50*time.Millisecond).RealTime().
					When().TheSubscriber().Subscribes().TheSource().Emits(1).
					TheSubscriber().WaitsForEvents(2)
			},
		},
		{
			name: "wait on virtual clock does not block",
			want: "TIMEOUT",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheTimedStreamUnderTest(func(in *stream.Stream[int], sched clock.Scheduler) *stream.Stream[int] {
					return stream.Delay(in, time.Minute, sched)
				}).
					When().TheSubscriber().Subscribes().TheSource().Emits(1).
					TheSubscriber().WaitsForEvents(1)
			},
		},
		{
			name: "wait fails when the stream ends short",
			want: "expected at least 2",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().TheSubscriber().Subscribes().TheSource().Emits(1).TheSource().Completes().
					TheSubscriber().WaitsForEvents(2)
			},
		},
		{
			name: "time control in real time",
			want: "PROTOCOL_VIOLATION",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).RealTime().
					When().Time().AdvancesBy(time.Second)
			},
		},
		{
			name: "negative time advance",
			want: "PROTOCOL_VIOLATION",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().Time().AdvancesBy(-time.Second)
			},
		},
		{
			name: "missing stream under test",
			want: "no stream under test",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().When()
			},
		},
		{
			name: "nil pipeline",
			want: "returned nil",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().
					TheStreamUnderTest(func(*stream.Stream[int]) *stream.Stream[int] { return nil }).
					When()
			},
		},
		{
			name: "double subscribe",
			want: "already subscribed",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().TheSubscriber().Subscribes().TheSubscriber().Subscribes()
			},
		},
		{
			name: "unsubscribe before subscribe",
			want: "never subscribed",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().TheStreamUnderTest(identity[int]).
					When().TheSubscriber().Unsubscribes()
			},
		},
		{
			name: "non-positive async timeout",
			want: "INVALID_CONFIG",
			run: func(ft *testutil.FakeT) {
				New[int, int](ft).Given().AsyncTimeout(0)
			},
		},
		{
			name: "invalid config",
			want: "INVALID_CONFIG",
			run: func(ft *testutil.FakeT) {
				cfg := DefaultConfig()
				cfg.Logging.Level = "loud"
				New[int, int](ft, WithConfig(cfg))
			},
		},
		{
			name: "given twice",
			want: "PROTOCOL_VIOLATION",
			run: func(ft *testutil.FakeT) {
				s := New[int, int](ft)
				s.Given()
				s.Given()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runFailing(t, tt.want, tt.run)
		})
	}
}

func TestStaleBuilderIsRejected(t *testing.T) {
	runFailing(t, "belongs to the given phase", func(ft *testutil.FakeT) {
		given := New[int, int](ft).Given().TheStreamUnderTest(identity[int])
		given.When()
		given.RealTime()
	})

	runFailing(t, "belongs to the when phase", func(ft *testutil.FakeT) {
		when := New[int, int](ft).Given().TheStreamUnderTest(identity[int]).When()
		sub := when.TheSubscriber()
		when.Then()
		sub.Subscribes()
	})
}

func TestFailureMessageNamesScenario(t *testing.T) {
	ft := runFailing(t, "ASSERTION_FAILED", func(ft *testutil.FakeT) {
		New[int, int](ft, WithName("counts")).Given().TheStreamUnderTest(identity[int]).
			When().
			Then().TheSubscriber().EventCount().IsEqualTo(1)
	})
	if !strings.HasPrefix(ft.Messages()[0], `scenario "counts"`) {
		t.Errorf("expected the scenario name in %q", ft.Messages()[0])
	}
}

func TestRealTimeSchedulerStoppedOnCleanup(t *testing.T) {
	var s *Scenario[int, int64]
	ft := testutil.Run(t.Name(), func(ft *testutil.FakeT) {
		s = New[int, int64](ft)
		s.Given().TheTimedStreamUnderTest(func(_ *stream.Stream[int], sched clock.Scheduler) *stream.Stream[int64] {
			return stream.Interval(time.Millisecond, time.Millisecond, sched)
		}).
			RealTime().
			When().
			TheSubscriber().Subscribes().
			TheSubscriber().WaitsForEvents(3)
	})
	if ft.Failed() {
		t.Fatalf("scenario failed: %s", ft.Output())
	}
	if s.real.Pending() != 0 {
		t.Errorf("expected no pending tasks after cleanup, got %d", s.real.Pending())
	}
	health := s.real.Health(t.Context())
	if health.Status != component.StatusStopped {
		t.Errorf("expected stopped scheduler, got %s", health.Status)
	}

	count := s.Recorder().EventCount()
	time.Sleep(20 * time.Millisecond)
	if s.Recorder().EventCount() != count {
		t.Error("expected no events after cleanup")
	}
}

func TestScenarioTelemetry(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	tel, err := observability.New(tp, mp)
	if err != nil {
		t.Fatalf("observability.New failed: %v", err)
	}

	ft := testutil.Run(t.Name(), func(ft *testutil.FakeT) {
		New[int, int](ft, WithTelemetry(tel)).
			Given().TheStreamUnderTest(identity[int]).
			When().
			TheSubscriber().Subscribes().
			TheSource().EmitsAll(1, 2).
			TheSource().Completes().
			Then().TheSubscriber().EventCount().IsEqualTo(2)
	})
	if ft.Failed() {
		t.Fatalf("scenario failed: %s", ft.Output())
	}

	names := map[string]int{}
	var whenEvents int
	for _, span := range spans.Ended() {
		names[span.Name()]++
		if span.Name() == observability.SpanWhen {
			whenEvents = len(span.Events())
		}
	}
	for _, name := range []string{observability.SpanScenario, observability.SpanGiven, observability.SpanWhen, observability.SpanThen} {
		if names[name] != 1 {
			t.Errorf("expected one %s span, got %d", name, names[name])
		}
	}
	// subscribes, two emits, completes
	if whenEvents != 4 {
		t.Errorf("expected 4 action events on the when span, got %d", whenEvents)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(t.Context(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	var recorded int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != observability.MetricEvents {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					recorded += dp.Value
				}
			}
		}
	}
	if recorded != 3 {
		t.Errorf("expected 3 recorded signals, got %d", recorded)
	}
}

func TestFailedAssertionMarksPhaseSpan(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	tel, err := observability.New(tp, sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("observability.New failed: %v", err)
	}

	ft := testutil.Run(t.Name(), func(ft *testutil.FakeT) {
		New[int, int](ft, WithTelemetry(tel)).
			Given().TheStreamUnderTest(identity[int]).
			When().
			TheSubscriber().Subscribes().
			TheSource().Emits(1).
			Then().TheSubscriber().EventCount().IsEqualTo(2)
	})
	if !ft.Fatal() {
		t.Fatalf("expected the scenario to fail, got %q", ft.Output())
	}

	var found bool
	for _, span := range spans.Ended() {
		if span.Name() != observability.SpanThen {
			continue
		}
		found = true
		if span.Status().Code != codes.Error {
			t.Errorf("expected an error status on the then span, got %v", span.Status())
		}
		if len(span.Events()) == 0 || span.Events()[len(span.Events())-1].Name != "exception" {
			t.Errorf("expected the failure recorded as an exception event, got %v", span.Events())
		}
	}
	if !found {
		t.Fatal("expected an ended then span")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rxscenario.yml")
	content := `
async_timeout: 3s
separator: ","
virtual_start: "2024-05-01T12:00:00Z"
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RXSCENARIO_SEPARATOR", "|")

	cfg, err := LoadConfig(config.WithConfigFile(path))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.AsyncTimeout != 3*time.Second {
		t.Errorf("expected async_timeout 3s, got %v", cfg.AsyncTimeout)
	}
	if cfg.Separator != "|" {
		t.Errorf("expected env override of separator, got %q", cfg.Separator)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug logging, got %q", cfg.Logging.Level)
	}
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if !cfg.StartTime().Equal(want) {
		t.Errorf("expected start %v, got %v", want, cfg.StartTime())
	}
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AsyncTimeout != time.Second || cfg.Separator != DefaultSeparator {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !cfg.StartTime().Equal(clock.Epoch) {
		t.Errorf("expected epoch start, got %v", cfg.StartTime())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative timeout", func(c *Config) { c.AsyncTimeout = -time.Second }},
		{"bad start", func(c *Config) { c.VirtualStart = "yesterday" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"bad sample rate", func(c *Config) { rate := 2.0; c.Telemetry.SampleRate = &rate }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestVirtualStartFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VirtualStart = "2030-01-01T00:00:00Z"
	var seen time.Time
	New[int, int](t, WithConfig(cfg)).
		Given().TheTimedStreamUnderTest(func(in *stream.Stream[int], sched clock.Scheduler) *stream.Stream[int] {
			return stream.Tap(in, func(int) { seen = sched.Now() })
		}).
		When().
		TheSubscriber().Subscribes().
		Time().AdvancesBy(time.Hour).
		TheSource().Emits(1)

	want := time.Date(2030, 1, 1, 1, 0, 0, 0, time.UTC)
	if !seen.Equal(want) {
		t.Errorf("expected %v, got %v", want, seen)
	}
}

func ExampleScenario() {
	ft := testutil.Run("example", func(ft *testutil.FakeT) {
		New[string, int](ft).
			Given().TheStreamUnderTest(parsePlusOne).
			When().
			TheSubscriber().Subscribes().
			TheSource().EmitsAll("1", "2").
			TheSource().Completes().
			Then().TheSubscriber().
			RenderedStream().IsEqualTo("[2]-[3]-|")
	})
	fmt.Println(ft.Failed())
	// Output: false
}
