package utils

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func quietLogger() *Logger {
	return NewLoggerWith(LoggerOptions{Writer: &bytes.Buffer{}, Level: slog.LevelDebug})
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	rec := &recordedSleeps{}
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: 15 * time.Second, Logger: quietLogger(), Sleep: rec.sleep}

	calls := 0
	err := cfg.Do(context.Background(), "navigate", func() error {
		calls++
		if calls < 3 {
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{15 * time.Second, 15 * time.Second}, rec.delays)
}

func TestRetryBackoffDoubles(t *testing.T) {
	rec := &recordedSleeps{}
	cfg := RetryConfig{MaxAttempts: 4, BaseDelay: time.Second, Backoff: true, Sleep: rec.sleep}

	boom := errors.New("connection refused")
	err := cfg.Do(context.Background(), "ping", func() error { return boom })

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recordedSleeps{}
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Sleep: rec.sleep}

	calls := 0
	err := cfg.Do(ctx, "navigate", func() error {
		calls++
		return errors.New("timeout")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	cfg := RetryConfig{}
	calls := 0
	_ = cfg.Do(context.Background(), "once", func() error {
		calls++
		return errors.New("fail")
	})
	assert.Equal(t, 1, calls)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
}
