package utils

import (
	"context"
	"math/rand"
	"time"
)

// Identity is the browser-like fingerprint presented for one retrieval.
type Identity struct {
	UserAgent string
	Width     int
	Height    int
}

// Pacer hands out randomized identities and human-like delays. It is passed explicitly
// to every fetcher and adapter.
type Pacer interface {
	NextIdentity() Identity
	Delay(ctx context.Context, min, max time.Duration) error
}

var userAgents = []string{
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

var viewports = [][2]int{{1366, 768}, {1920, 1080}, {1440, 900}}

// HumanPacer is the default Pacer. It holds no mutable state.
type HumanPacer struct {
	logger *Logger
	sleep  SleepFunc
}

// NewHumanPacer creates a pacer that really sleeps.
func NewHumanPacer(logger *Logger) *HumanPacer {
	return &HumanPacer{logger: logger, sleep: Sleep}
}

// NewPacerWithSleep creates a pacer with a custom sleep, used by tests to skip waiting.
func NewPacerWithSleep(logger *Logger, sleep SleepFunc) *HumanPacer {
	return &HumanPacer{logger: logger, sleep: sleep}
}

func (p *HumanPacer) NextIdentity() Identity {
	vp := viewports[rand.Intn(len(viewports))]
	return Identity{
		UserAgent: userAgents[rand.Intn(len(userAgents))],
		Width:     vp[0],
		Height:    vp[1],
	}
}

// Delay waits a uniformly random duration in [min, max].
func (p *HumanPacer) Delay(ctx context.Context, min, max time.Duration) error {
	d := RandomBetween(min, max)
	if p.logger != nil {
		p.logger.Debug("[pacer] Human-like delay: %.2f seconds", d.Seconds())
	}
	return p.sleep(ctx, d)
}

// RandomBetween returns a uniformly random duration in [min, max].
func RandomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}
