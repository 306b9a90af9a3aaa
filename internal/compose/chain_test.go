package compose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryStrategiesStopsAtFirstVerified(t *testing.T) {
	var ran []string
	step := func(name string, err error) strategyFn {
		return strategyFn{name, func(context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	verified := false
	name, err := tryStrategies(context.Background(), "test",
		[]strategyFn{
			step("specific", errors.New("selector missing")),
			step("general", nil),
			step("last-resort", nil),
		},
		func(context.Context) bool {
			verified = true
			return true
		})

	require.NoError(t, err)
	assert.Equal(t, "general", name)
	assert.Equal(t, []string{"specific", "general"}, ran, "later strategies must not run after a verified success")
	assert.True(t, verified)
}

func TestTryStrategiesRequiresObservation(t *testing.T) {
	// A strategy that "succeeds" without observable effect is not success.
	name, err := tryStrategies(context.Background(), "recipient injection",
		[]strategyFn{
			{"silent-noop", func(context.Context) error { return nil }},
			{"works", func(context.Context) error { return nil }},
		},
		func() func(context.Context) bool {
			calls := 0
			return func(context.Context) bool {
				calls++
				return calls > 1
			}
		}())

	require.NoError(t, err)
	assert.Equal(t, "works", name)
}

func TestTryStrategiesExhausted(t *testing.T) {
	_, err := tryStrategies(context.Background(), "body injection",
		[]strategyFn{
			{"a", func(context.Context) error { return errors.New("nope") }},
			{"b", func(context.Context) error { return nil }},
		},
		func(context.Context) bool { return false })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "body injection")
	assert.Contains(t, err.Error(), "a: nope")
	assert.Contains(t, err.Error(), "b: not observed")
}

func TestTryStrategiesHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tryStrategies(ctx, "test",
		[]strategyFn{{"never", func(context.Context) error {
			t.Fatal("must not run after cancellation")
			return nil
		}}},
		func(context.Context) bool { return true })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitSignal(t *testing.T) {
	t.Run("immediate", func(t *testing.T) {
		ok := waitSignal(context.Background(), 100*time.Millisecond, 10*time.Millisecond,
			func() bool { return true })
		assert.True(t, ok)
	})

	t.Run("eventually", func(t *testing.T) {
		calls := 0
		ok := waitSignal(context.Background(), time.Second, 5*time.Millisecond, func() bool {
			calls++
			return calls >= 3
		})
		assert.True(t, ok)
	})

	t.Run("window elapses", func(t *testing.T) {
		start := time.Now()
		ok := waitSignal(context.Background(), 50*time.Millisecond, 5*time.Millisecond,
			func() bool { return false })
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ok := waitSignal(ctx, time.Minute, time.Millisecond, func() bool { return false })
		assert.False(t, ok)
	})
}
