package services

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"intel-feed/models"
)

func score(v float64) *float64 { return &v }

func TestFilterSignal(t *testing.T) {
	items := []models.ContentItem{
		{Title: "a", Signal: "long"},
		{Title: "b", Signal: "short"},
		{Title: "c"},
	}
	got := Filter(items, FilterOptions{Signal: "long"})
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "a", got[0].Title)
}

func TestFilterMinScore(t *testing.T) {
	items := []models.ContentItem{
		{Title: "hoch", AiScore: score(90)},
		{Title: "niedrig", AiScore: score(40)},
		{Title: "ohne"},
	}
	got := Filter(items, FilterOptions{MinScore: 60})
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "hoch", got[0].Title)
}

func TestFilterKeywordOverAllFields(t *testing.T) {
	items := []models.ContentItem{
		{Title: "BTC Ausbruch"},
		{Summary: "btc konsolidiert"},
		{SourceName: "BTC-Desk"},
		{ContentTags: []string{"btc"}},
		{Title: "ohne treffer"},
	}
	got := Filter(items, FilterOptions{Keyword: "BTC"})
	assert.Equal(t, 4, len(got))
}

func TestDedupeFirstWins(t *testing.T) {
	items := []models.ContentItem{
		{Title: "a", SourceURL: "https://x/1", Summary: "erste"},
		{Title: "a", SourceURL: "https://x/1", Summary: "zweite"},
		{Title: "a", SourceURL: "https://x/2"},
	}
	got := Dedupe(items)
	assert.Equal(t, 2, len(got))
	assert.Equal(t, "erste", got[0].Summary)
}

func TestSortByRecency(t *testing.T) {
	items := []models.ContentItem{
		{Title: "alt", PublishedAt: "2023-01-01T00:00:00.000Z"},
		{Title: "kaputt", PublishedAt: "kein datum"},
		{Title: "neu", PublishedAt: "2024-01-01T00:00:00.000Z"},
	}
	got := SortByRecency(items)
	assert.Equal(t, "neu", got[0].Title)
	assert.Equal(t, "alt", got[1].Title)
	assert.Equal(t, "kaputt", got[2].Title)

	// Eingabe bleibt unverändert.
	assert.Equal(t, "alt", items[0].Title)
}

func TestTruncate(t *testing.T) {
	items := []models.ContentItem{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	assert.Equal(t, 2, len(Truncate(items, 2)))
	assert.Equal(t, 3, len(Truncate(items, 0)))
	assert.Equal(t, 3, len(Truncate(items, 10)))
}

func TestAggregateIsIdempotent(t *testing.T) {
	items := []models.ContentItem{
		{Title: "a", SourceURL: "https://x/1", PublishedAt: "2024-01-02T00:00:00.000Z"},
		{Title: "a", SourceURL: "https://x/1", PublishedAt: "2024-01-02T00:00:00.000Z"},
		{Title: "b", SourceURL: "https://x/2", PublishedAt: "2024-01-03T00:00:00.000Z"},
		{Title: "c", SourceURL: "https://x/3", PublishedAt: "2024-01-01T00:00:00.000Z"},
	}

	once := Aggregate(items, FilterOptions{}, 10)
	twice := Aggregate(once, FilterOptions{}, 10)

	assert.Equal(t, once, twice)
	assert.Equal(t, 3, len(once))
	assert.Equal(t, "b", once[0].Title)
}
