package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/chromedp/chromedp"

	"teatrade-scraper/utils"
)

// ChromeOptions configures the chromedp-backed browser.
type ChromeOptions struct {
	ExecPath string
	Headless bool
}

// ChromeFactory returns a BrowserFactory launching a fresh Chrome process per session.
func ChromeFactory(opts ChromeOptions, logger *utils.Logger) BrowserFactory {
	return func(ctx context.Context, id utils.Identity) (Browser, error) {
		chromeBin := opts.ExecPath
		if chromeBin == "" {
			chromeBin = FindChromeBinary()
		}

		flags := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("enable-automation", false),
			chromedp.UserAgent(id.UserAgent),
			chromedp.WindowSize(id.Width, id.Height),
		)
		if chromeBin != "" {
			flags = append(flags, chromedp.ExecPath(chromeBin))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, flags...)
		// Suppress chromedp log noise
		tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

		if err := chromedp.Run(tabCtx); err != nil {
			cancelTab()
			cancelAlloc()
			return nil, fmt.Errorf("launch chrome %q: %w", chromeBin, err)
		}
		logger.Debug("[chrome] Launched %s", chromeBin)

		return &chromeBrowser{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
	}
}

type chromeBrowser struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// run executes actions on the tab, aborting when the caller's ctx is done.
func (b *chromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

func (b *chromeBrowser) ReadyState(ctx context.Context) (string, error) {
	var state string
	err := b.run(ctx, chromedp.Evaluate(`document.readyState`, &state))
	return state, err
}

func (b *chromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (b *chromeBrowser) HasElement(ctx context.Context, selector string) (bool, error) {
	sel, _ := json.Marshal(selector)
	var found bool
	err := b.run(ctx, chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%s) !== null`, sel), &found))
	return found, err
}

const chooseOptionJS = `(function(sel, target) {
	var el = document.querySelector(sel);
	if (!el || !el.options) return false;
	var t = target.toLowerCase();
	for (var i = 0; i < el.options.length; i++) {
		var text = (el.options[i].text || '').toLowerCase();
		if (text.indexOf(t) >= 0) {
			el.selectedIndex = i;
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
	}
	return false;
})(%s, %s)`

func (b *chromeBrowser) ChooseOption(ctx context.Context, selector, target string) (bool, error) {
	sel, _ := json.Marshal(selector)
	tgt, _ := json.Marshal(target)
	var chosen bool
	err := b.run(ctx, chromedp.Evaluate(fmt.Sprintf(chooseOptionJS, sel, tgt), &chosen))
	return chosen, err
}

func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancelTab()
	b.cancelAlloc()
	return err
}

// FindChromeBinary locates a Chrome/Chromium binary.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
