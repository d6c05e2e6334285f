// Package fetch retrieves auction pages either with a plain HTTP client or by driving a
// real browser for pages that only render their data through scripts.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Retrieval methods recorded on a Document.
const (
	MethodStatic = "static"
	MethodDriven = "driven"
)

// ErrNavigationFailed is returned once a driven navigation has exhausted its retries.
var ErrNavigationFailed = errors.New("navigation failed")

// StatusError reports a non-2xx response from a static retrieval.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Document is a retrieved page.
type Document struct {
	URL        string
	HTML       string
	Method     string
	StatusCode int
	FetchedAt  time.Time
}

// Parse builds a goquery document from the page markup.
func (d *Document) Parse() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", d.URL, err)
	}
	return doc, nil
}

// Fetcher retrieves a single page. Static implementations ignore maxRetries and fail
// on the first error.
type Fetcher interface {
	Fetch(ctx context.Context, url string, maxRetries int) (*Document, error)
}

// SessionRunner scopes a browser session to fn. The session is released on every
// exit path of fn.
type SessionRunner interface {
	WithSession(ctx context.Context, fn func(*Session) error) error
}
