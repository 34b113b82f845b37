package xhsfeed

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"intel-feed/config"
	"intel-feed/models"
	"intel-feed/normalize"
	"intel-feed/providers"
	"intel-feed/services"
)

// Quell-Labels der Auflösungskette remote → lokal → statisch.
const (
	SourceRemote   = "xhs-remote-feed"
	SourceLocal    = "xhs-local-feed"
	SourceFallback = "xhs-fallback"
)

// Query sind die validierten Request-Parameter für /api/xhs-feed.
type Query struct {
	Limit   int
	Keyword string
}

// ParseQuery parst limit und das lowercased Freitext-Keyword.
func ParseQuery(values url.Values) Query {
	return Query{
		Limit:   normalize.ParsePositiveInt(values.Get("limit"), 80, 200),
		Keyword: strings.ToLower(strings.TrimSpace(values.Get("q"))),
	}
}

// Payload ist das aufgelöste Feed-Paket inklusive Quell-Label.
type Payload struct {
	Source      string
	GeneratedAt string
	Items       []models.ContentItem
}

type rawPayload struct {
	GeneratedAt string           `json:"generatedAt"`
	Items       []map[string]any `json:"items"`
}

// Fetcher ist das Gateway für den Xiaohongshu-Feed mit der Auflösungskette
// Remote-URL → lokale Datei → statischer Platzhalter.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt ein neues XHS-Feed-Gateway.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt das Quell-Label zurück.
func (f *Fetcher) Name() string {
	return SourceRemote
}

// Fetch implementiert providers.Provider.
func (f *Fetcher) Fetch(ctx context.Context, q providers.Query) ([]models.ContentItem, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 80
	}
	payload := f.Resolve(ctx)
	return FilterItems(payload.Items, strings.ToLower(q.Keyword), limit), nil
}

// Resolve läuft die Auflösungskette ab; die Kette selbst schlägt nie fehl,
// am Ende steht immer mindestens der statische Platzhalter.
func (f *Fetcher) Resolve(ctx context.Context) Payload {
	if remoteURL := normalize.SafeHttpUrl(f.Config.XhsFeedURL); remoteURL != "" {
		if payload, ok := f.fetchRemote(ctx, remoteURL); ok {
			return payload
		}
	}

	if payload, ok := f.readLocal(); ok {
		return payload
	}

	return Payload{
		Source:      SourceFallback,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Items:       fallbackItems(),
	}
}

// FilterItems wendet das Freitext-Keyword über Titel, Summary, Quelle und
// Tags an, dedupliziert, sortiert nach Recency absteigend und kappt erst
// danach auf das Limit, damit die neuesten Items erhalten bleiben. Leere
// Ergebnisse fallen auf den Platzhalter zurück, damit die UI nie leer ist.
func FilterItems(items []models.ContentItem, keyword string, limit int) []models.ContentItem {
	filtered := services.Aggregate(items, services.FilterOptions{Keyword: keyword}, limit)
	if len(filtered) == 0 {
		return fallbackItems()
	}
	return filtered
}

func (f *Fetcher) fetchRemote(ctx context.Context, remoteURL string) (Payload, bool) {
	body, err := providers.GetBody(ctx, remoteURL, f.Config.UpstreamTimeout())
	if err != nil {
		f.Logger.Warn("Remote-XHS-Feed nicht erreichbar, weiter in der Kette", zap.Error(err))
		return Payload{}, false
	}
	payload, err := decodePayload(body, SourceRemote)
	if err != nil {
		f.Logger.Warn("Remote-XHS-Feed unlesbar, weiter in der Kette", zap.Error(err))
		return Payload{}, false
	}
	return payload, true
}

func (f *Fetcher) readLocal() (Payload, bool) {
	body, err := os.ReadFile(f.Config.XhsLocalPath)
	if err != nil {
		return Payload{}, false
	}
	payload, err := decodePayload(body, SourceLocal)
	if err != nil {
		f.Logger.Warn("Lokaler XHS-Feed unlesbar, weiter in der Kette",
			zap.String("path", f.Config.XhsLocalPath), zap.Error(err))
		return Payload{}, false
	}
	return payload, true
}

func decodePayload(body []byte, source string) (Payload, error) {
	var raw rawPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return Payload{}, err
	}

	generatedAt := raw.GeneratedAt
	if generatedAt == "" {
		generatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	items := make([]models.ContentItem, 0, len(raw.Items))
	for _, entry := range raw.Items {
		items = append(items, Normalize(entry))
	}

	return Payload{Source: source, GeneratedAt: generatedAt, Items: items}, nil
}

// fallbackItems liefert den statischen Platzhalter am Ende der Kette.
func fallbackItems() []models.ContentItem {
	now := time.Now().UTC()
	published := now.Format("2006-01-02T15:04:05.000Z07:00")
	return []models.ContentItem{
		{
			Title:           "小红书聚合已启用，等待接入你的监控列表",
			TitleOriginal:   "Xiaohongshu aggregation is enabled. Waiting for your watchlist.",
			TitleZh:         "小红书聚合已启用，等待接入你的监控列表",
			Summary:         "下一步可把你关注的博主或关键词结果写入 data/xhs_feed.json，页面会自动展示。",
			SummaryOriginal: "Next, sync your creator watchlist into data/xhs_feed.json and this page will render it automatically.",
			SummaryZh:       "下一步可把你关注的博主或关键词结果写入 data/xhs_feed.json，页面会自动展示。",
			HasTranslation:  true,
			Platform:        "小红书",
			Region:          "中文社媒",
			IndustryStage:   "下游",
			ContentTags:     []string{"小红书", "聚合"},
			Date:            now.Format("2006-01-02"),
			Action:          "先提供账号名单，我会接成自动聚合流。",
			SourceURL:       profileBase,
			SourceName:      "小红书",
			PublishedAt:     published,
		},
	}
}
