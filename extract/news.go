package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var (
	teaKeyword   = regexp.MustCompile(`(?i)\btea`)
	articleClass = regexp.MustCompile(`(?i)news|article|post`)
)

// Headline is a tea-related heading and the link it points to, if any.
type Headline struct {
	Title string
	URL   string
}

// Headlines returns up to limit h1-h3 headings mentioning tea. Links are resolved
// against base.
func Headlines(doc *goquery.Document, base string, limit int) []Headline {
	out := make([]Headline, 0)
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if len(out) >= limit {
			return false
		}
		title := CleanText(h.Text())
		if title == "" || !teaKeyword.MatchString(title) {
			return true
		}
		href, ok := h.Find("a[href]").First().Attr("href")
		if !ok {
			href, ok = h.Closest("a[href]").Attr("href")
		}
		hl := Headline{Title: title}
		if ok {
			hl.URL = ResolveURL(base, href)
		}
		out = append(out, hl)
		return true
	})
	return out
}

// Articles returns the text, capped at 500 characters, of up to limit article-like
// containers with more than 50 characters.
func Articles(doc *goquery.Document, limit int) []string {
	out := make([]string, 0)
	doc.Find("article, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == "article" {
			return true
		}
		class, _ := s.Attr("class")
		return articleClass.MatchString(class)
	}).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		if text := CleanText(s.Text()); len(text) > 50 {
			out = append(out, truncate(text, 500))
		}
		return true
	})
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
