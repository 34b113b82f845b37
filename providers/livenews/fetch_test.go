package livenews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"go.uber.org/zap"

	"intel-feed/config"
)

func TestParseQueryDefaults(t *testing.T) {
	q := ParseQuery(url.Values{})
	assert.Equal(t, 80, q.Limit)
	assert.Equal(t, DefaultTopics, q.Topics)
	assert.Equal(t, "", q.Keyword)
}

func TestParseQueryCustomTopics(t *testing.T) {
	values := url.Values{}
	values.Set("topics", "新能源, 半导体")
	q := ParseQuery(values)
	assert.Equal(t, []string{"新能源", "半导体"}, q.Topics)
}

func TestFeedURL(t *testing.T) {
	fetcher := &Fetcher{FeedBase: "https://news.google.com"}
	got := fetcher.feedURL("电商", "直播")

	assert.Equal(t, true, strings.HasPrefix(got, "https://news.google.com/rss/search?q="))
	assert.Equal(t, true, strings.Contains(got, url.QueryEscape("电商 直播 when:1d")))
	assert.Equal(t, true, strings.HasSuffix(got, "&hl=zh-CN&gl=CN&ceid=CN:zh-Hans"))
}

func TestFetchTopicsSettleAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if strings.Contains(query, "经济") {
			http.Error(w, "feed down", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`<rss><channel>
<item><title>` + query + ` 头条</title><link>https://news.example.com/a</link></item>
</channel></rss>`))
	}))
	defer srv.Close()

	fetcher := NewFetcher(&config.Config{UpstreamTimeoutMS: 5000}, zap.NewNop())
	fetcher.FeedBase = srv.URL

	items, err := fetcher.FetchTopics(context.Background(), Query{
		Limit:  50,
		Topics: []string{"电商", "经济", "科技"},
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(items))
}

func TestFetchTopicsCapsItemsPerTopic(t *testing.T) {
	var feed strings.Builder
	feed.WriteString("<rss><channel>")
	for i := 0; i < 30; i++ {
		feed.WriteString("<item><title>eintrag</title><link>https://news.example.com/a</link></item>")
	}
	feed.WriteString("</channel></rss>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed.String()))
	}))
	defer srv.Close()

	fetcher := NewFetcher(&config.Config{UpstreamTimeoutMS: 5000}, zap.NewNop())
	fetcher.FeedBase = srv.URL

	items, err := fetcher.FetchTopics(context.Background(), Query{Limit: 100, Topics: []string{"科技"}})
	assert.Equal(t, nil, err)
	assert.Equal(t, maxItemsPerTopic, len(items))
}
