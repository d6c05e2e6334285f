package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UnitPattern builds a case-insensitive pattern capturing number when it is followed by
// one of units.
func UnitPattern(number string, units ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(` + number + `)\s*(?:` + strings.Join(units, "|") + `)`)
}

var (
	// PricePattern matches "245 cents", "3.10 USD", "2.8$".
	PricePattern = UnitPattern(`\d+\.?\d*`, `cents?`, `USD`, `\$`)
	// VolumePattern matches "12,500 kg", "40 tons".
	VolumePattern = UnitPattern(`\d+(?:,\d{3})*`, `kg`, `tons?`)
)

// NumericCandidates returns every number captured by pattern in text, in order of
// appearance. The result is neither validated nor deduplicated.
func NumericCandidates(text string, pattern *regexp.Regexp) []string {
	out := make([]string, 0)
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 {
			out = append(out, m[1])
		}
	}
	return out
}

// PageTitle returns the trimmed <title> text.
func PageTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// PageText returns all text of the document.
func PageText(doc *goquery.Document) string {
	return doc.Text()
}

// BodyText returns the visible body text with whitespace collapsed.
func BodyText(doc *goquery.Document) string {
	return CleanText(doc.Find("body").Text())
}
