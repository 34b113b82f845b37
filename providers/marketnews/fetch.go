package marketnews

import (
	"context"

	"go.uber.org/zap"

	"intel-feed/config"
	"intel-feed/models"
	"intel-feed/normalize"
	"intel-feed/providers"
)

const searchEndpoint = "/open/news_search"

// Fetcher ist das Gateway für die OpenNews-Market-Intel-API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt ein neues Market-News-Gateway.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt das Quell-Label zurück.
func (f *Fetcher) Name() string {
	return "opennews-6551"
}

// Fetch implementiert providers.Provider für Warm-up und Snapshot.
func (f *Fetcher) Fetch(ctx context.Context, q providers.Query) ([]models.ContentItem, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 80
	}
	items, _, err := f.FetchMarket(ctx, Query{Limit: limit, Keyword: q.Keyword})
	return items, err
}

// FetchMarket ruft die Suche auf und normalisiert das Ergebnis-Set.
// Single-Query-Gateway: jeder Upstream-Fehler ist fatal für den Request.
func (f *Fetcher) FetchMarket(ctx context.Context, q Query) ([]models.ContentItem, int, error) {
	log := f.Logger.With(zap.String("provider", f.Name()))

	body := map[string]any{
		"limit": q.Limit,
		"page":  1,
	}
	if q.Keyword != "" {
		body["q"] = q.Keyword
	}
	if len(q.Coins) > 0 {
		body["coins"] = q.Coins
	}
	if q.HasCoin {
		body["hasCoin"] = true
	}
	if len(q.Engines) > 0 {
		engineTypes := make(map[string][]string, len(q.Engines))
		for _, engine := range q.Engines {
			engineTypes[engine] = []string{}
		}
		body["engineTypes"] = engineTypes
	}

	var payload searchResponse
	err := providers.PostJSON(ctx,
		providers.SafeBase(f.Config.OpennewsAPIBase, "https://ai.6551.io"),
		searchEndpoint,
		f.Config.NewsToken(),
		body,
		f.Config.UpstreamTimeout(),
		&payload,
	)
	if err != nil {
		log.Error("Market-News-Abruf fehlgeschlagen", zap.Error(err))
		return nil, 0, err
	}

	items := make([]models.ContentItem, 0, len(payload.Data))
	for _, row := range payload.Data {
		items = append(items, Normalize(row))
	}

	total := normalize.ToNonNegativeInt(payload.Total)
	if total == 0 {
		total = len(items)
	}

	log.Info("Market-News geliefert", zap.Int("count", len(items)), zap.Int("total", total))
	return items, total, nil
}
