package services

import (
	"strings"
	"time"

	"github.com/antzucaro/matchr"

	"teatrade-scraper/models"
)

// DuplicateTitleSimilarity is the Jaro-Winkler score from which two titles are the same story.
const DuplicateTitleSimilarity = 0.95

// NewsFromResult maps the articles list of a news result into NewsArticles dated on the
// day they were scraped.
func NewsFromResult(r *models.ScrapingResult) []*models.NewsArticle {
	if r == nil || !r.Success {
		return nil
	}
	source, _ := r.RawData["source"].(string)
	if source == "" {
		source = r.AuctionCenter
	}
	country, _ := r.RawData["country"].(string)
	day := r.Timestamp.UTC().Truncate(24 * time.Hour)

	out := make([]*models.NewsArticle, 0)
	for _, item := range articleMaps(r.RawData["articles"]) {
		raw, _ := item["title"].(string)
		title := normaliseText(raw)
		if title == "" {
			continue
		}
		a := &models.NewsArticle{
			Title:       title,
			Source:      source,
			Country:     country,
			Category:    r.DataType,
			PublishDate: day,
		}
		if u, ok := item["url"].(string); ok {
			a.URL = u
		}
		if c, ok := item["country"].(string); ok && c != "" {
			a.Country = c
		}
		out = append(out, a)
	}
	return out
}

func articleMaps(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// DedupeArticles drops articles whose title is near-identical to an earlier one.
func DedupeArticles(articles []*models.NewsArticle) []*models.NewsArticle {
	kept := make([]*models.NewsArticle, 0, len(articles))
	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		title := strings.ToLower(a.Title)
		duplicate := false
		for _, seen := range titles {
			if matchr.JaroWinkler(title, seen, false) >= DuplicateTitleSimilarity {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, a)
		titles = append(titles, title)
	}
	return kept
}
