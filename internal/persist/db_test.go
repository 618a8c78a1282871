package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPingWithRetry(t *testing.T) {
	down := errors.New("connection refused")
	fast := func() retry.Backoff {
		return retry.WithMaxRetries(connectAttempts-1, retry.NewConstant(time.Millisecond))
	}

	t.Run("recovers", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		calls := 0
		ping := func(context.Context) error {
			calls++
			if calls < 3 {
				return down
			}
			return nil
		}
		attempts, err := pingWithRetry(context.Background(), ping, fast(), zap.New(core))
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, 2, logs.FilterMessage("database not ready").Len())
	})

	t.Run("gives up", func(t *testing.T) {
		ping := func(context.Context) error { return down }
		attempts, err := pingWithRetry(context.Background(), ping, fast(), zap.NewNop())
		assert.ErrorIs(t, err, down)
		assert.Equal(t, connectAttempts, attempts)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		attempts, err := pingWithRetry(ctx, func(context.Context) error { return nil }, fast(), zap.NewNop())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, attempts)
	})
}
