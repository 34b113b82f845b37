package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"go.uber.org/zap"

	"intel-feed/cache"
	"intel-feed/config"
	"intel-feed/providers/marketnews"
	"intel-feed/providers/newsfile"
	"intel-feed/providers/xhsfeed"
)

func testRouter(cfg *config.Config) (*gin.Engine, *cache.Cache) {
	gin.SetMode(gin.TestMode)
	logging := zap.NewNop()
	store := cache.New("", logging)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		writeError(c, http.StatusMethodNotAllowed, "method_not_allowed", "仅支持 GET 请求")
	})

	setupMarketNewsRoutes(router, cfg, marketnews.NewFetcher(cfg, logging), store, logging)
	setupXhsFeedRoutes(router, xhsfeed.NewFetcher(cfg, logging), store, logging)
	setupNewsRoutes(router, newsfile.NewFetcher(cfg, logging), store, logging)
	setupVisitRoutes(router, nil, logging)

	return router, store
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := testRouter(&config.Config{UpstreamTimeoutMS: 5000})

	rec := doRequest(router, http.MethodPost, "/api/market-news")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "method_not_allowed", body["error"])
}

func TestMarketNewsMissingToken(t *testing.T) {
	router, _ := testRouter(&config.Config{UpstreamTimeoutMS: 5000})

	rec := doRequest(router, http.MethodGet, "/api/market-news")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, "missing_opennews_token", body["error"])
}

func TestMarketNewsUpstreamFailureIsNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	router, _ := testRouter(&config.Config{
		OpennewsToken:     "token",
		OpennewsAPIBase:   srv.URL,
		UpstreamTimeoutMS: 5000,
	})

	rec := doRequest(router, http.MethodGet, "/api/market-news")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, "market_news_fetch_failed", body["error"])

	// Fehler landen nicht im Cache: der zweite Request trifft wieder den Upstream.
	rec = doRequest(router, http.MethodGet, "/api/market-news")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "", rec.Header().Get("X-Cache"))
}

func TestMarketNewsSuccessAndCacheHit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"data": []map[string]any{
				{"text": "BTC steigt", "ts": 1700000000, "link": "https://example.com/a"},
			},
		})
	}))
	defer srv.Close()

	router, _ := testRouter(&config.Config{
		OpennewsToken:     "token",
		OpennewsAPIBase:   srv.URL,
		UpstreamTimeoutMS: 5000,
	})

	first := doRequest(router, http.MethodGet, "/api/market-news?limit=10")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=45", first.Header().Get("Cache-Control"))

	second := doRequest(router, http.MethodGet, "/api/market-news?limit=10")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	// Hit und Miss sind byte-identisch, inklusive generatedAt.
	assert.Equal(t, first.Body.String(), second.Body.String())

	// Andere Parameter-Reihenfolge, gleicher Schlüssel.
	third := doRequest(router, http.MethodGet, "/api/market-news?limit=10&")
	assert.Equal(t, "HIT", third.Header().Get("X-Cache"))
}

func TestMarketNewsEchoesFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"total": 0, "data": []map[string]any{}})
	}))
	defer srv.Close()

	router, _ := testRouter(&config.Config{
		OpennewsToken:     "token",
		OpennewsAPIBase:   srv.URL,
		UpstreamTimeoutMS: 5000,
	})

	rec := doRequest(router, http.MethodGet, "/api/market-news?q=etf&coins=btc,ETH,doge!&engines=alpha&signal=long&minScore=70&hasCoin=1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	filters := body["filters"].(map[string]any)
	assert.Equal(t, "etf", filters["query"])
	assert.Equal(t, []any{"BTC", "ETH"}, filters["coins"])
	assert.Equal(t, []any{"alpha"}, filters["engines"])
	assert.Equal(t, "long", filters["signal"])
	assert.Equal(t, 70.0, filters["minScore"])
	assert.Equal(t, true, filters["hasCoin"])
}

func TestXhsFeedLimitKeepsNewest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"title": "alt-1", "publishedAt": "2026-07-01T00:00:00Z"},
				{"title": "alt-2", "publishedAt": "2026-07-15T00:00:00Z"},
				{"title": "neuestes", "publishedAt": "2026-08-01T00:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	router, _ := testRouter(&config.Config{
		XhsFeedURL:        srv.URL,
		UpstreamTimeoutMS: 5000,
	})

	rec := doRequest(router, http.MethodGet, "/api/xhs-feed?limit=2")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, 2.0, body["count"])

	// Das Limit kappt nach der Recency-Sortierung, nicht in Feed-Reihenfolge.
	items := body["items"].([]any)
	assert.Equal(t, "neuestes", items[0].(map[string]any)["title"])
	assert.Equal(t, "alt-2", items[1].(map[string]any)["title"])
}

func TestXhsFeedFallbackNeverFails(t *testing.T) {
	router, _ := testRouter(&config.Config{
		XhsLocalPath:      "testdata/gibt-es-nicht.json",
		UpstreamTimeoutMS: 5000,
	})

	rec := doRequest(router, http.MethodGet, "/api/xhs-feed")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "xhs-fallback", body["source"])
	assert.Equal(t, 1.0, body["count"])
}

func TestNewsUnavailable(t *testing.T) {
	router, _ := testRouter(&config.Config{
		NewsLocalPath:     "testdata/gibt-es-nicht.json",
		UpstreamTimeoutMS: 5000,
	})

	rec := doRequest(router, http.MethodGet, "/api/news")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, "news_unavailable", body["error"])
}

func TestVisitsDegradesWithoutDatabase(t *testing.T) {
	router, _ := testRouter(&config.Config{UpstreamTimeoutMS: 5000})

	rec := doRequest(router, http.MethodGet, "/api/visits?path=/news")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["available"])
}

func TestSanitizeVisitPath(t *testing.T) {
	assert.Equal(t, "/news", sanitizeVisitPath("/news?utm=x"))
	assert.Equal(t, "/", sanitizeVisitPath(""))
	assert.Equal(t, "/", sanitizeVisitPath("kein-slash"))
	assert.Equal(t, "/a/b-c_d.html", sanitizeVisitPath("/a/b-c_d.html#frag"))
	assert.Equal(t, "/ab", sanitizeVisitPath("/a!!b"))
}

func TestCacheControlHeader(t *testing.T) {
	assert.Equal(t, "public, max-age=45", cacheControl(marketNewsTTL))
	assert.Equal(t, "public, max-age=180", cacheControl(liveNewsTTL))
}
