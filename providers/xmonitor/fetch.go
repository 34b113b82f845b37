package xmonitor

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"intel-feed/config"
	"intel-feed/models"
	"intel-feed/providers"
)

const (
	userTweetsEndpoint = "/open/twitter_user_tweets"
	searchEndpoint     = "/open/twitter_search"

	// Default-Suche, wenn weder Keyword noch Watchlist vorliegen.
	defaultKeywords = "bitcoin OR ethereum OR solana OR meme"

	// Produkt-getunte Grenzen der Per-User-Fetch-Größe im Watchlist-Modus.
	perUserMin = 3
	perUserMax = 20
)

// ErrMissingWatchlist wird geliefert, wenn der Watchlist-Modus ohne Usernames läuft.
var ErrMissingWatchlist = errors.New("missing_watchlist_usernames")

// ErrMissingUsername wird geliefert, wenn der User-Modus ohne Username läuft.
var ErrMissingUsername = errors.New("missing_username_for_user_mode")

// Fetcher ist das Gateway für die Twitter-Monitor-API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt ein neues X-Monitor-Gateway.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt das Quell-Label zurück.
func (f *Fetcher) Name() string {
	return "opentwitter-6551"
}

// Fetch implementiert providers.Provider: Watchlist-Modus, wenn Accounts
// konfiguriert sind, sonst Suchmodus.
func (f *Fetcher) Fetch(ctx context.Context, q providers.Query) ([]models.ContentItem, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if watchlist := f.Config.WatchlistUsers(); len(watchlist) > 0 {
		return f.FetchTweets(ctx, Query{Limit: limit, Mode: ModeWatchlist, Watchlist: watchlist})
	}
	return f.FetchTweets(ctx, Query{Limit: limit, Mode: ModeSearch, Keyword: q.Keyword})
}

// FetchTweets ruft je nach Modus user/watchlist/search ab und normalisiert.
func (f *Fetcher) FetchTweets(ctx context.Context, q Query) ([]models.ContentItem, error) {
	var rows []Row
	var err error

	switch q.Mode {
	case ModeWatchlist:
		rows, err = f.fetchWatchlist(ctx, q.Watchlist, q.Limit)
	case ModeUser:
		rows, err = f.fetchUser(ctx, q.Username, q.Limit)
	default:
		rows, err = f.fetchSearch(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, Normalize(row))
	}
	return items, nil
}

// PerUserLimit berechnet die Fetch-Größe pro beobachtetem Account:
// floor(limit/userCount), geklemmt auf [3, 20].
func PerUserLimit(limit, userCount int) int {
	if userCount <= 0 {
		return perUserMin
	}
	size := limit / userCount
	if size < perUserMin {
		return perUserMin
	}
	if size > perUserMax {
		return perUserMax
	}
	return size
}

// fetchWatchlist holt die Timelines aller beobachteten Accounts parallel.
// Settle-all: ein fehlgeschlagener Account liefert null Items, kein Fehler.
func (f *Fetcher) fetchWatchlist(ctx context.Context, users []string, limit int) ([]Row, error) {
	if len(users) == 0 {
		return nil, ErrMissingWatchlist
	}

	perUser := PerUserLimit(limit, len(users))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var merged []Row

	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			rows, err := f.userTweets(ctx, user, perUser)
			if err != nil {
				f.Logger.Warn("Watchlist-Account übersprungen",
					zap.String("username", user), zap.Error(err))
				return
			}
			mu.Lock()
			merged = append(merged, rows...)
			mu.Unlock()
		}(user)
	}
	wg.Wait()

	return merged, nil
}

func (f *Fetcher) fetchUser(ctx context.Context, username string, limit int) ([]Row, error) {
	if username == "" {
		return nil, ErrMissingUsername
	}
	return f.userTweets(ctx, username, limit)
}

func (f *Fetcher) fetchSearch(ctx context.Context, q Query) ([]Row, error) {
	body := map[string]any{
		"keywords":   firstNonEmpty(q.Keyword, defaultKeywords),
		"maxResults": q.Limit,
		"product":    "Latest",
	}
	if q.Hashtag != "" {
		body["hashtag"] = q.Hashtag
	}
	if q.MinLikes > 0 {
		body["minLikes"] = q.MinLikes
	}

	var payload tweetsResponse
	if err := f.call(ctx, searchEndpoint, body, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (f *Fetcher) userTweets(ctx context.Context, username string, maxResults int) ([]Row, error) {
	body := map[string]any{
		"username":        username,
		"maxResults":      maxResults,
		"product":         "Latest",
		"includeReplies":  false,
		"includeRetweets": false,
	}

	var payload tweetsResponse
	if err := f.call(ctx, userTweetsEndpoint, body, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (f *Fetcher) call(ctx context.Context, endpoint string, body any, out any) error {
	return providers.PostJSON(ctx,
		providers.SafeBase(f.Config.TwitterAPIBase, "https://ai.6551.io"),
		endpoint,
		f.Config.TwitterTokenResolved(),
		body,
		f.Config.UpstreamTimeout(),
		out,
	)
}
