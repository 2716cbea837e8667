package observers_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/anggasct/formo"
	"github.com/anggasct/formo/pkg/observers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCycleMachine(t *testing.T, observer formo.Observer) formo.Machine {
	t.Helper()

	definition := formo.NewMachine().
		State("idle").Initial().
		To("running").On("start").
		State("running").
		To("stopped").On("stop").
		State("stopped").
		To("idle").On("reset").
		Build()

	machine := definition.CreateInstance()
	machine.AddObserver(observer)
	require.NoError(t, machine.Start())
	return machine
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	machine := newCycleMachine(t, observers.NewLoggingObserver(logger))
	machine.HandleEvent("start", nil)
	machine.HandleEvent("bogus", nil)

	output := buf.String()
	assert.Contains(t, output, "machine started")
	assert.Contains(t, output, "msg=transition")
	assert.Contains(t, output, "from=idle")
	assert.Contains(t, output, "to=running")
	assert.Contains(t, output, "event rejected")
}

func TestLoggingObserverDefaultsLogger(t *testing.T) {
	observer := observers.NewLoggingObserver(nil)
	assert.NotNil(t, observer)
}

func TestMetricsObserver(t *testing.T) {
	metrics := observers.NewMetricsObserver()
	machine := newCycleMachine(t, metrics)

	machine.HandleEvent("start", nil)
	machine.HandleEvent("stop", nil)
	machine.HandleEvent("bogus", nil)

	t.Run("Counts visits and transitions", func(t *testing.T) {
		visits := metrics.GetStateVisitCounts()
		assert.Equal(t, 1, visits["idle"])
		assert.Equal(t, 1, visits["running"])
		assert.Equal(t, 1, visits["stopped"])

		transitions := metrics.GetTransitionCounts()
		assert.Equal(t, 1, transitions["idle->running"])
		assert.Equal(t, 1, transitions["running->stopped"])

		events := metrics.GetEventCounts()
		assert.Equal(t, 1, events["start"])
		assert.Equal(t, 1, events["stop"])
	})

	t.Run("Counts rejections", func(t *testing.T) {
		assert.Equal(t, 1, metrics.GetRejectionCount())
	})

	t.Run("Accumulates time spent", func(t *testing.T) {
		timeSpent := metrics.GetStateTimeSpent()
		assert.Contains(t, timeSpent, "idle")
		assert.Contains(t, timeSpent, "running")
	})

	t.Run("Reset clears everything", func(t *testing.T) {
		metrics.Reset()
		assert.Empty(t, metrics.GetStateVisitCounts())
		assert.Empty(t, metrics.GetTransitionCounts())
		assert.Zero(t, metrics.GetRejectionCount())
	})
}

func TestMetricsObserverInvocations(t *testing.T) {
	metrics := observers.NewMetricsObserver()

	release := make(chan struct{})
	definition := formo.NewMachine().
		State("loading").Initial().
		Invoke(func(ctx formo.Context) (any, error) {
			<-release
			return nil, errors.New("fetch failed")
		}).
		To("ready").OnDone().
		To("failed").OnError().
		State("ready").
		State("failed").
		Build()

	machine := definition.CreateInstance()
	machine.AddObserver(metrics)
	require.NoError(t, machine.Start())

	invocation := machine.PendingInvocation()
	require.NotNil(t, invocation)
	close(release)
	_, err := invocation.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "failed", machine.CurrentState())
	started, failed := metrics.GetInvocationCounts()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, failed)
}

func TestConformanceObserver(t *testing.T) {
	conformance := observers.NewConformanceObserver()
	conformance.ExpectState("stopped")
	conformance.ExpectState("idle")
	conformance.AllowTransition("idle", "stopped")

	machine := newCycleMachine(t, conformance)
	machine.HandleEvent("start", nil)

	t.Run("Unexpected transitions become violations", func(t *testing.T) {
		assert.True(t, conformance.HasViolations())
		violations := conformance.GetViolations()
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "unexpected transition from 'idle' to 'running'")
	})

	t.Run("Unreached states are reported", func(t *testing.T) {
		assert.Contains(t, conformance.GetUnvisitedStates(), "stopped")
		assert.NotContains(t, conformance.GetUnvisitedStates(), "idle")
	})

	t.Run("Reset keeps expectations", func(t *testing.T) {
		conformance.Reset()
		assert.False(t, conformance.HasViolations())
		assert.Contains(t, conformance.GetUnvisitedStates(), "idle")
	})
}
