package livenews

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"intel-feed/config"
	"intel-feed/models"
	"intel-feed/normalize"
	"intel-feed/providers"
)

const maxItemsPerTopic = 20

// DefaultTopics sind die fünf Standard-Kategorien des Live-News-Feeds.
var DefaultTopics = []string{"电商", "国家政策", "经济", "科技", "互联网"}

// Query sind die validierten Request-Parameter für /api/live-news.
type Query struct {
	Limit   int
	Keyword string
	Topics  []string
}

// ParseQuery parst die Parameter; ohne topics greift das Default-Set.
func ParseQuery(values url.Values) Query {
	keyword := strings.TrimSpace(values.Get("q"))
	if len(keyword) > 100 {
		keyword = keyword[:100]
	}

	var topics []string
	for _, topic := range normalize.ParseCsv(values.Get("topics"), 12) {
		runes := []rune(topic)
		if len(runes) > 24 {
			topic = string(runes[:24])
		}
		topics = append(topics, topic)
	}
	if len(topics) == 0 {
		topics = DefaultTopics
	}

	return Query{
		Limit:   normalize.ParsePositiveInt(values.Get("limit"), 80, 150),
		Keyword: keyword,
		Topics:  topics,
	}
}

// Fetcher ist das Gateway für die Google-News-RSS-Aggregation.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger

	// FeedBase ist in Tests überschreibbar.
	FeedBase string
}

// NewFetcher erstellt ein neues Live-News-Gateway.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger, FeedBase: "https://news.google.com"}
}

// Name gibt das Quell-Label zurück.
func (f *Fetcher) Name() string {
	return "google-news-rss"
}

// Fetch implementiert providers.Provider mit dem Default-Themenset.
func (f *Fetcher) Fetch(ctx context.Context, q providers.Query) ([]models.ContentItem, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 80
	}
	return f.FetchTopics(ctx, Query{Limit: limit, Keyword: q.Keyword, Topics: DefaultTopics})
}

// FetchTopics holt alle Themen-Feeds parallel und flacht die Ergebnisse ab.
// Settle-all: ein fehlgeschlagenes Thema liefert null Items, kein Fehler.
func (f *Fetcher) FetchTopics(ctx context.Context, q Query) ([]models.ContentItem, error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var merged []models.ContentItem

	for _, topic := range q.Topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			items, err := f.fetchTopic(ctx, topic, q.Keyword)
			if err != nil {
				f.Logger.Warn("Themen-Feed übersprungen",
					zap.String("topic", topic), zap.Error(err))
				return
			}
			mu.Lock()
			merged = append(merged, items...)
			mu.Unlock()
		}(topic)
	}
	wg.Wait()

	return merged, nil
}

func (f *Fetcher) fetchTopic(ctx context.Context, topic, keyword string) ([]models.ContentItem, error) {
	feedURL := f.feedURL(topic, keyword)

	body, err := providers.GetBody(ctx, feedURL, f.Config.UpstreamTimeout())
	if err != nil {
		return nil, err
	}

	rssItems := parseRssItems(string(body))
	if len(rssItems) > maxItemsPerTopic {
		rssItems = rssItems[:maxItemsPerTopic]
	}

	items := make([]models.ContentItem, 0, len(rssItems))
	for _, item := range rssItems {
		items = append(items, Normalize(item, topic))
	}
	return items, nil
}

func (f *Fetcher) feedURL(topic, keyword string) string {
	tokens := []string{topic}
	if keyword != "" {
		tokens = append(tokens, keyword)
	}
	q := strings.Join(tokens, " ") + " when:1d"
	return f.FeedBase + "/rss/search?q=" + url.QueryEscape(q) + "&hl=zh-CN&gl=CN&ceid=CN:zh-Hans"
}
