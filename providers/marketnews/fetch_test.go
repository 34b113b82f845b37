package marketnews

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"go.uber.org/zap"

	"intel-feed/config"
)

func testConfig(base string) *config.Config {
	return &config.Config{
		OpennewsToken:     "test-token",
		OpennewsAPIBase:   base,
		UpstreamTimeoutMS: 5000,
	}
}

func TestFetchMarketBuildsRequestAndNormalizes(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"total": "137",
			"data": []map[string]any{
				{
					"text":       "BTC springt über 100k",
					"ts":         1700000000,
					"link":       "https://example.com/btc",
					"engineType": "market",
					"aiRating":   map[string]any{"signal": "long", "score": 91},
				},
			},
		})
	}))
	defer srv.Close()

	fetcher := NewFetcher(testConfig(srv.URL), zap.NewNop())
	items, total, err := fetcher.FetchMarket(context.Background(), Query{
		Limit:   25,
		Keyword: "btc",
		Coins:   []string{"BTC"},
		HasCoin: true,
		Engines: []string{"market", "onchain"},
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, 25.0, gotBody["limit"])
	assert.Equal(t, "btc", gotBody["q"])
	assert.Equal(t, true, gotBody["hasCoin"])

	engineTypes := gotBody["engineTypes"].(map[string]any)
	_, hasMarket := engineTypes["market"]
	_, hasOnchain := engineTypes["onchain"]
	assert.Equal(t, true, hasMarket)
	assert.Equal(t, true, hasOnchain)

	assert.Equal(t, 137, total)
	assert.Equal(t, 1, len(items))
	assert.Equal(t, "BTC springt über 100k", items[0].Title)
	assert.Equal(t, "上游", items[0].IndustryStage)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", items[0].PublishedAt)
}

func TestFetchMarketUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	fetcher := NewFetcher(testConfig(srv.URL), zap.NewNop())
	_, _, err := fetcher.FetchMarket(context.Background(), Query{Limit: 10})

	assert.NotEqual(t, nil, err)
	assert.Equal(t, true, strings.HasPrefix(err.Error(), "6551_request_failed:429:"))
}

func TestFetchMarketTotalFallsBackToCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"text": "a"}, {"text": "b"}},
		})
	}))
	defer srv.Close()

	fetcher := NewFetcher(testConfig(srv.URL), zap.NewNop())
	items, total, err := fetcher.FetchMarket(context.Background(), Query{Limit: 10})

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(items))
	assert.Equal(t, 2, total)
}
