package livenews

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"intel-feed/normalize"
)

func TestNormalizeTopicTables(t *testing.T) {
	item := Normalize(rssItem{Title: "新规发布", Link: "https://news.example.com/a"}, "国家政策")
	assert.Equal(t, "上游", item.IndustryStage)
	assert.Equal(t, topicActions["国家政策"], item.Action)
	assert.Equal(t, []string{"实时新闻", "国家政策"}, item.ContentTags)
}

func TestNormalizeUnknownTopicFallsBack(t *testing.T) {
	item := Normalize(rssItem{Title: "x"}, "加密")
	assert.Equal(t, defaultStage, item.IndustryStage)
	assert.Equal(t, defaultAction, item.Action)
}

func TestNormalizeBadPubDateFallsBackToNow(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	orig := normalize.Now
	normalize.Now = func() time.Time { return fixed }
	defer func() { normalize.Now = orig }()

	item := Normalize(rssItem{Title: "x", PubDate: "kein datum"}, "科技")
	assert.Equal(t, "2024-06-01T12:00:00.000Z", item.PublishedAt)
	assert.Equal(t, "2024-06-01", item.Date)
}

func TestNormalizeSourceNameFallbacks(t *testing.T) {
	withSource := Normalize(rssItem{Title: "x", Source: "示例财经"}, "科技")
	assert.Equal(t, "示例财经", withSource.SourceName)

	fromHost := Normalize(rssItem{Title: "x", Link: "https://www.beispiel.de/artikel"}, "科技")
	assert.Equal(t, "beispiel.de", fromHost.SourceName)

	bare := Normalize(rssItem{Title: "x"}, "科技")
	assert.Equal(t, "Google News", bare.SourceName)
}

func TestNormalizeSummaryFallsBackToTitle(t *testing.T) {
	item := Normalize(rssItem{Title: "nur titel"}, "科技")
	assert.Equal(t, "nur titel", item.Summary)
}
