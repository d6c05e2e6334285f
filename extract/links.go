package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"teatrade-scraper/utils"
)

// Link is an anchor found on a page.
type Link struct {
	URL  string
	Text string
	Type string
}

// Fields returns the JSON-friendly form stored in raw data.
func (l Link) Fields() map[string]any {
	m := map[string]any{"url": l.URL, "text": l.Text}
	if l.Type != "" {
		m["type"] = l.Type
	}
	return m
}

var (
	downloadHref   = regexp.MustCompile(`(?i)\.(pdf|xlsx?|docx?|csv)`)
	reportKeywords = []string{"report", "pdf", "doc"}
	sectionClass   = regexp.MustCompile(`(?i)report|market|content`)
)

// ReportLinks returns up to limit anchors whose href mentions a report or a document.
func ReportLinks(doc *goquery.Document, limit int) []Link {
	return collectLinks(doc, limit, func(href string) (string, bool) {
		lower := strings.ToLower(href)
		for _, kw := range reportKeywords {
			if strings.Contains(lower, kw) {
				return "", true
			}
		}
		return "", false
	})
}

// DownloadLinks returns up to limit anchors pointing at downloadable files, typed by
// their extension.
func DownloadLinks(doc *goquery.Document, limit int) []Link {
	return collectLinks(doc, limit, func(href string) (string, bool) {
		if !downloadHref.MatchString(href) {
			return "", false
		}
		parts := strings.Split(href, ".")
		return strings.ToLower(parts[len(parts)-1]), true
	})
}

func collectLinks(doc *goquery.Document, limit int, match func(href string) (string, bool)) []Link {
	links := make([]Link, 0)
	seen := utils.NewURLSet()
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(links) >= limit {
			return false
		}
		href, _ := a.Attr("href")
		typ, ok := match(href)
		if !ok || !seen.Add(href) {
			return true
		}
		links = append(links, Link{URL: href, Text: CleanText(a.Text()), Type: typ})
		return true
	})
	return links
}

// ReportSections returns the text of the first limit report-like containers that carry
// more than 100 characters.
func ReportSections(doc *goquery.Document, limit int) []string {
	sections := make([]string, 0)
	doc.Find("div, section, article").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return sectionClass.MatchString(class)
	}).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		if text := CleanText(s.Text()); len(text) > 100 {
			sections = append(sections, text)
		}
		return true
	})
	return sections
}

// ResolveURL resolves href against base. Unparseable input is returned unchanged.
func ResolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
