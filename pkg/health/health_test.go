package health_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/autoslug/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()

		report := health.Run(context.Background(), nil)
		assert.Equal(t, health.StatusHealthy, report.Status)
		require.NoError(t, report.Err())
	})

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()

		report := health.Run(context.Background(), health.Checks{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return nil },
		})
		assert.Equal(t, health.StatusHealthy, report.Status)
		assert.Len(t, report.Checks, 2)
		require.NoError(t, report.Err())
	})

	t.Run("failure does not cancel others", func(t *testing.T) {
		t.Parallel()

		var ran atomic.Int32
		report := health.Run(context.Background(), health.Checks{
			"a": func(context.Context) error { ran.Add(1); return errors.New("down") },
			"b": func(context.Context) error { time.Sleep(20 * time.Millisecond); ran.Add(1); return nil },
		})

		assert.Equal(t, int32(2), ran.Load())
		assert.Equal(t, health.StatusUnhealthy, report.Status)
		assert.Equal(t, health.StatusHealthy, report.Checks["b"].Status)
		assert.Equal(t, "down", report.Checks["a"].Error)

		err := report.Err()
		require.ErrorIs(t, err, health.ErrCheckFailed)
		assert.Contains(t, err.Error(), "a: down")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		report := health.Run(context.Background(), health.Checks{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}, health.WithTimeout(10*time.Millisecond))

		assert.Equal(t, health.StatusUnhealthy, report.Status)
		assert.Contains(t, report.Checks["slow"].Error, "deadline exceeded")
	})

	t.Run("concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		check := func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		}

		report := health.Run(context.Background(), health.Checks{
			"a": check, "b": check, "c": check, "d": check,
		}, health.WithConcurrency(1))

		assert.Equal(t, health.StatusHealthy, report.Status)
		assert.Equal(t, int32(1), peak.Load())
	})
}
