package fetch

import (
	"context"
	"fmt"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"teatrade-scraper/utils"
)

// StaticOptions configures a StaticFetcher.
type StaticOptions struct {
	Timeout time.Duration
	// Stealth wraps the transport with browser-like TLS and header settings.
	Stealth bool
}

// StaticFetcher performs a single GET per page with a randomized identity.
type StaticFetcher struct {
	client *resty.Client
	pacer  utils.Pacer
	logger *utils.Logger
}

// NewStaticFetcher creates a StaticFetcher backed by a resty client.
func NewStaticFetcher(pacer utils.Pacer, logger *utils.Logger, opts StaticOptions) *StaticFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(0)
	if opts.Stealth {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	return &StaticFetcher{client: client, pacer: pacer, logger: logger}
}

// Fetch issues one GET. Transport errors and non-2xx responses are returned immediately.
func (f *StaticFetcher) Fetch(ctx context.Context, url string, _ int) (*Document, error) {
	id := f.pacer.NextIdentity()

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"User-Agent":      id.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
			"Connection":      "keep-alive",
		}).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("static fetch %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode()}
	}

	f.logger.Debug("[fetch] GET %s -> %d (%d bytes)", url, resp.StatusCode(), len(resp.Body()))

	return &Document{
		URL:        url,
		HTML:       resp.String(),
		Method:     MethodStatic,
		StatusCode: resp.StatusCode(),
		FetchedAt:  resp.ReceivedAt(),
	}, nil
}
