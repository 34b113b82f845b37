// Package services enthält die Aggregationsschicht: Filter, Deduplizierung,
// Recency-Sortierung und Limitierung der normalisierten Items. Alle
// Funktionen sind pur und idempotent.
package services

import (
	"sort"
	"strings"

	"intel-feed/models"
	"intel-feed/normalize"
)

// FilterOptions sind die Post-Fetch-Filter, die Upstream nicht unterstützt.
type FilterOptions struct {
	Signal   string
	MinScore float64
	Keyword  string
}

// Filter wendet Signal-Gleichheit, Mindest-Score und Freitext-Suche über
// Titel, Summary, Quellenname und Tags an.
func Filter(items []models.ContentItem, opts FilterOptions) []models.ContentItem {
	keyword := strings.ToLower(strings.TrimSpace(opts.Keyword))

	filtered := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if opts.Signal != "" && item.Signal != opts.Signal {
			continue
		}
		if opts.MinScore > 0 && (item.AiScore == nil || *item.AiScore < opts.MinScore) {
			continue
		}
		if keyword != "" {
			pool := strings.ToLower(item.Title + " " + item.Summary + " " + item.SourceName + " " + strings.Join(item.ContentTags, " "))
			if !strings.Contains(pool, keyword) {
				continue
			}
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// Dedupe entfernt Duplikate über den zusammengesetzten Schlüssel
// sourceUrl|title; das erste Vorkommen gewinnt.
func Dedupe(items []models.ContentItem) []models.ContentItem {
	seen := make(map[string]struct{}, len(items))
	result := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		key := item.SourceURL + "|" + item.Title
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// SortByRecency sortiert nach publishedAt absteigend; unparsbare Daten
// sortieren als Epoche 0 und landen damit am Ende. Die Sortierung ist stabil,
// damit gleichzeitige Items ihre Eingangsreihenfolge behalten.
func SortByRecency(items []models.ContentItem) []models.ContentItem {
	sorted := make([]models.ContentItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return normalize.ToTime(sorted[i].PublishedAt).After(normalize.ToTime(sorted[j].PublishedAt))
	})
	return sorted
}

// Truncate kappt auf das Request-Limit.
func Truncate(items []models.ContentItem, limit int) []models.ContentItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// Aggregate ist die Standard-Kette der Aggregationsschicht.
func Aggregate(items []models.ContentItem, opts FilterOptions, limit int) []models.ContentItem {
	return Truncate(SortByRecency(Dedupe(Filter(items, opts))), limit)
}
