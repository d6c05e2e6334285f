package utils

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomBetweenStaysInBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := RandomBetween(3*time.Second, 8*time.Second)
		if d < 3*time.Second || d > 8*time.Second {
			t.Fatalf("RandomBetween out of bounds: %v", d)
		}
	}
	assert.Equal(t, 5*time.Second, RandomBetween(5*time.Second, 2*time.Second))
}

func TestPacerDelayUsesInjectedSleep(t *testing.T) {
	var got time.Duration
	p := NewPacerWithSleep(quietLogger(), func(_ context.Context, d time.Duration) error {
		got = d
		return nil
	})

	require.NoError(t, p.Delay(context.Background(), 8*time.Second, 45*time.Second))
	assert.GreaterOrEqual(t, got, 8*time.Second)
	assert.LessOrEqual(t, got, 45*time.Second)
}

func TestNextIdentityIsBrowserLike(t *testing.T) {
	p := NewHumanPacer(nil)
	for i := 0; i < 20; i++ {
		id := p.NextIdentity()
		assert.True(t, strings.HasPrefix(id.UserAgent, "Mozilla/5.0"), id.UserAgent)
		assert.Positive(t, id.Width)
		assert.Positive(t, id.Height)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWith(LoggerOptions{Writer: &buf, Level: ParseLevel("warn")})

	log.Info("[test] hidden %d", 1)
	log.Warn("[test] shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
