package fetch

import (
	"context"
	"fmt"
	"time"

	"teatrade-scraper/utils"
)

// Browser is the minimal surface of a controllable browser tab.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	ReadyState(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	HasElement(ctx context.Context, selector string) (bool, error)
	// ChooseOption selects the first option of the select control whose visible text
	// contains target, case-insensitively. It reports whether an option matched.
	ChooseOption(ctx context.Context, selector, target string) (bool, error)
	Close() error
}

// BrowserFactory starts a browser presenting the given identity.
type BrowserFactory func(ctx context.Context, id utils.Identity) (Browser, error)

// DrivenOptions configures navigation timing.
type DrivenOptions struct {
	ReadyTimeout      time.Duration
	PollInterval      time.Duration
	PauseMin          time.Duration
	PauseMax          time.Duration
	RetryDelay        time.Duration
	NavigationTimeout time.Duration
	SelectWait        time.Duration
	Sleep             utils.SleepFunc
}

func (o DrivenOptions) withDefaults() DrivenOptions {
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 20 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.PauseMin <= 0 {
		o.PauseMin = 3 * time.Second
	}
	if o.PauseMax < o.PauseMin {
		o.PauseMax = o.PauseMin + 5*time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 15 * time.Second
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 60 * time.Second
	}
	if o.SelectWait <= 0 {
		o.SelectWait = 5 * time.Second
	}
	if o.Sleep == nil {
		o.Sleep = utils.Sleep
	}
	return o
}

// DrivenFetcher retrieves pages through a fresh browser session per call.
type DrivenFetcher struct {
	factory BrowserFactory
	pacer   utils.Pacer
	logger  *utils.Logger
	opts    DrivenOptions
}

// NewDrivenFetcher creates a DrivenFetcher.
func NewDrivenFetcher(factory BrowserFactory, pacer utils.Pacer, logger *utils.Logger, opts DrivenOptions) *DrivenFetcher {
	return &DrivenFetcher{factory: factory, pacer: pacer, logger: logger, opts: opts.withDefaults()}
}

// WithSession acquires a browser, hands it to fn and releases it afterwards, also when
// fn returns an error or panics.
func (f *DrivenFetcher) WithSession(ctx context.Context, fn func(*Session) error) error {
	id := f.pacer.NextIdentity()
	browser, err := f.factory(ctx, id)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			f.logger.Debug("[fetch] browser close: %v", cerr)
		}
	}()

	f.logger.Debug("[fetch] Browser session started (%dx%d)", id.Width, id.Height)
	return fn(&Session{browser: browser, pacer: f.pacer, logger: f.logger, opts: f.opts})
}

// Fetch navigates to url in a new session and returns the rendered markup.
func (f *DrivenFetcher) Fetch(ctx context.Context, url string, maxRetries int) (*Document, error) {
	var doc *Document
	err := f.WithSession(ctx, func(s *Session) error {
		if err := s.Navigate(ctx, url, maxRetries); err != nil {
			return err
		}
		html, err := s.HTML(ctx)
		if err != nil {
			return err
		}
		doc = &Document{URL: url, HTML: html, Method: MethodDriven, FetchedAt: time.Now()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Session is a live browser owned by a single WithSession call.
type Session struct {
	browser Browser
	pacer   utils.Pacer
	logger  *utils.Logger
	opts    DrivenOptions
}

// Navigate loads url, waits for the document to be complete and then pauses briefly.
// Failures are retried with a fixed delay; exhaustion yields ErrNavigationFailed.
func (s *Session) Navigate(ctx context.Context, url string, maxRetries int) error {
	retry := utils.RetryConfig{
		MaxAttempts: maxRetries,
		BaseDelay:   s.opts.RetryDelay,
		Logger:      s.logger,
		Sleep:       s.opts.Sleep,
	}
	if err := retry.Do(ctx, "navigate "+url, func() error { return s.loadOnce(ctx, url) }); err != nil {
		return fmt.Errorf("%w: %w", ErrNavigationFailed, err)
	}
	return nil
}

func (s *Session) loadOnce(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
	defer cancel()

	if err := s.browser.Navigate(navCtx, url); err != nil {
		return err
	}
	if err := s.waitReady(navCtx); err != nil {
		return err
	}
	return s.pacer.Delay(ctx, s.opts.PauseMin, s.opts.PauseMax)
}

func (s *Session) waitReady(ctx context.Context) error {
	polls := int(s.opts.ReadyTimeout / s.opts.PollInterval)
	if polls < 1 {
		polls = 1
	}
	last := ""
	for i := 0; i < polls; i++ {
		state, err := s.browser.ReadyState(ctx)
		if err != nil {
			return fmt.Errorf("ready state: %w", err)
		}
		if state == "complete" {
			return nil
		}
		last = state
		if err := s.opts.Sleep(ctx, s.opts.PollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("document not ready after %v (state %q)", s.opts.ReadyTimeout, last)
}

// HTML returns the current page markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	html, err := s.browser.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// SelectMatching tries every select control matching one of selectors, in order, within
// the configured wait and chooses the first option whose text contains target. A page
// without a matching control or option is not an error: it reports false.
func (s *Session) SelectMatching(ctx context.Context, selectors []string, target string) (bool, error) {
	polls := int(s.opts.SelectWait / s.opts.PollInterval)
	if polls < 1 {
		polls = 1
	}
	for i := 0; i < polls; i++ {
		sawControl := false
		for _, sel := range selectors {
			found, err := s.browser.HasElement(ctx, sel)
			if err != nil {
				return false, fmt.Errorf("query %s: %w", sel, err)
			}
			if !found {
				continue
			}
			chosen, err := s.browser.ChooseOption(ctx, sel, target)
			if err != nil {
				return false, fmt.Errorf("choose %q in %s: %w", target, sel, err)
			}
			if chosen {
				s.logger.Debug("[fetch] Selected %q via %s", target, sel)
				return true, s.pacer.Delay(ctx, s.opts.PauseMin, s.opts.PauseMax)
			}
			s.logger.Debug("[fetch] No option matching %q in %s", target, sel)
			sawControl = true
		}
		if sawControl {
			return false, nil
		}
		if err := s.opts.Sleep(ctx, s.opts.PollInterval); err != nil {
			return false, err
		}
	}
	return false, nil
}
