package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teatrade-scraper/models"
)

func TestNewsFromResult(t *testing.T) {
	at := time.Date(2024, 8, 9, 14, 30, 0, 0, time.UTC)
	r := models.NewSuccess("https://www.teaboard.gov.in/category/news/", "News_India", "news", at, map[string]any{
		"source":  "Tea Board India",
		"country": "India",
		"articles": []map[string]any{
			{"title": "Tea exports climb 8%", "url": "https://www.teaboard.gov.in/n/1", "country": "India"},
			{"title": "  ", "url": "https://www.teaboard.gov.in/n/2"},
			{"url": "https://www.teaboard.gov.in/n/3"},
		},
	})

	articles := NewsFromResult(r)
	require.Len(t, articles, 1)
	assert.Equal(t, &models.NewsArticle{
		Title:       "Tea exports climb 8%",
		Source:      "Tea Board India",
		URL:         "https://www.teaboard.gov.in/n/1",
		Country:     "India",
		Category:    "news",
		PublishDate: time.Date(2024, 8, 9, 0, 0, 0, 0, time.UTC),
	}, articles[0])
}

func TestNewsFromDecodedResult(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"articles": [{"title": "Kenya tea auction opens", "url": "u"}]}`), &raw))
	r := models.NewSuccess("https://x", "News_Kenya", "news", time.Now(), raw)

	articles := NewsFromResult(r)
	require.Len(t, articles, 1)
	assert.Equal(t, "News_Kenya", articles[0].Source)
}

func TestDedupeArticles(t *testing.T) {
	articles := []*models.NewsArticle{
		{Title: "Tea exports climb 8% in July"},
		{Title: "Tea Exports Climb 8% in July."},
		{Title: "Kenya tea auction opens with firm demand"},
	}

	kept := DedupeArticles(articles)
	require.Len(t, kept, 2)
	assert.Equal(t, "Tea exports climb 8% in July", kept[0].Title)
	assert.Equal(t, "Kenya tea auction opens with firm demand", kept[1].Title)
}
