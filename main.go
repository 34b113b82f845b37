package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"intel-feed/cache"
	"intel-feed/config"
	"intel-feed/models"
	"intel-feed/normalize"
	"intel-feed/providers/livenews"
	"intel-feed/providers/marketnews"
	"intel-feed/providers/newsfile"
	"intel-feed/providers/xhsfeed"
	"intel-feed/providers/xmonitor"
	"intel-feed/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// TTLs pro Quelle; /api/news trägt die TTL im aufgelösten Paket.
const (
	marketNewsTTL = 45 * time.Second
	xMonitorTTL   = 30 * time.Second
	liveNewsTTL   = 180 * time.Second
	xhsFeedTTL    = 180 * time.Second
)

const generatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	upstreamRequestsCounter *prometheus.CounterVec
	cacheLookupsCounter     *prometheus.CounterVec
)

func init() {
	upstreamRequestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_upstream_requests_total",
			Help: "Total number of upstream fetches per source and outcome.",
		},
		[]string{"source", "outcome"},
	)
	cacheLookupsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_lookups_total",
			Help: "Total number of edge cache lookups per result.",
		},
		[]string{"result"},
	)
	prometheus.MustRegister(upstreamRequestsCounter, cacheLookupsCounter)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	store := cache.New(cfg.RedisURL, logging)

	// Besucherzähler-DB ist optional; ohne DSN degradiert /api/visits.
	var visitsDB *gorm.DB
	if cfg.VisitsDSN != "" {
		visitsDB, err = gorm.Open(postgres.Open(cfg.VisitsDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			logging.Fatal("Failed to connect to visits database", zap.Error(err))
		}
		if err := visitsDB.AutoMigrate(&models.PageVisit{}); err != nil {
			logging.Fatal("Visits auto-migration failed", zap.Error(err))
		}
		logging.Info("Successfully connected to visits database.")
	}

	// Setup Providers
	marketFetcher := marketnews.NewFetcher(cfg, logging)
	monitorFetcher := xmonitor.NewFetcher(cfg, logging)
	liveFetcher := livenews.NewFetcher(cfg, logging)
	xhsFetcher := xhsfeed.NewFetcher(cfg, logging)
	newsFetcher := newsfile.NewFetcher(cfg, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		writeError(c, http.StatusMethodNotAllowed, "method_not_allowed", "仅支持 GET 请求")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupMarketNewsRoutes(router, cfg, marketFetcher, store, logging)
	setupXMonitorRoutes(router, cfg, monitorFetcher, store, logging)
	setupLiveNewsRoutes(router, liveFetcher, store, logging)
	setupXhsFeedRoutes(router, xhsFetcher, store, logging)
	setupNewsRoutes(router, newsFetcher, store, logging)
	setupVisitRoutes(router, visitsDB, logging)

	// Setup Cron: Warm-up der Default-Queries, damit die erste Anfrage nach
	// Ablauf der TTL nicht auf den Upstream warten muss.
	if cfg.WarmupEnabled {
		cronScheduler := cron.New()
		_, err := cronScheduler.AddFunc(cfg.WarmupSchedule, func() {
			warmupCache(cfg, marketFetcher, liveFetcher, store, logging)
		})
		if err != nil {
			logging.Fatal("Invalid warm-up schedule", zap.Error(err))
		}
		cronScheduler.Start()
		logging.Info("Cache warm-up scheduled", zap.String("schedule", cfg.WarmupSchedule))
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// serveFromCache liefert den Cache-Treffer unverändert aus; true bei Treffer.
func serveFromCache(c *gin.Context, store *cache.Cache, key string, ttl time.Duration) bool {
	payload, ok := store.Get(c.Request.Context(), key)
	if !ok {
		cacheLookupsCounter.WithLabelValues("miss").Inc()
		return false
	}
	cacheLookupsCounter.WithLabelValues("hit").Inc()
	c.Header("X-Cache", "HIT")
	c.Header("Cache-Control", cacheControl(ttl))
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
	return true
}

// writeSuccess serialisiert die Erfolgsantwort, cacht sie und liefert exakt
// die gecachten Bytes aus, damit Hit und Miss byte-identisch sind.
func writeSuccess(c *gin.Context, store *cache.Cache, key string, ttl time.Duration, envelope models.Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "encoding_failed", err.Error())
		return
	}
	store.Set(c.Request.Context(), key, payload, ttl)
	c.Header("X-Cache", "MISS")
	c.Header("Cache-Control", cacheControl(ttl))
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// writeError liefert die Fehler-Hülle, immer no-store.
func writeError(c *gin.Context, status int, code, message string) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, models.ErrorEnvelope{OK: false, Error: code, Message: message})
}

func cacheControl(ttl time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))
}

func generatedAt() string {
	return time.Now().UTC().Format(generatedAtLayout)
}

func setupMarketNewsRoutes(router *gin.Engine, cfg *config.Config, fetcher *marketnews.Fetcher, store *cache.Cache, log *zap.Logger) {
	router.GET("/api/market-news", func(c *gin.Context) {
		key := cache.Key(c.Request.URL.Path, c.Request.URL.Query())
		if serveFromCache(c, store, key, marketNewsTTL) {
			return
		}

		if cfg.NewsToken() == "" {
			writeError(c, http.StatusInternalServerError, "missing_opennews_token", "缺少 OPENNEWS_TOKEN 配置")
			return
		}

		q := marketnews.ParseQuery(c.Request.URL.Query())
		items, total, err := fetcher.FetchMarket(c.Request.Context(), q)
		if err != nil {
			upstreamRequestsCounter.WithLabelValues(fetcher.Name(), "error").Inc()
			writeError(c, http.StatusBadGateway, "market_news_fetch_failed", err.Error())
			return
		}
		upstreamRequestsCounter.WithLabelValues(fetcher.Name(), "ok").Inc()

		// Signal und minScore sind Post-Fetch-Filter auf den normalisierten Items.
		items = services.Aggregate(items, services.FilterOptions{
			Signal:   q.Signal,
			MinScore: float64(q.MinScore),
		}, q.Limit)

		writeSuccess(c, store, key, marketNewsTTL, models.Envelope{
			OK:          true,
			Source:      fetcher.Name(),
			GeneratedAt: generatedAt(),
			Filters: map[string]any{
				"query":    q.Keyword,
				"coins":    q.Coins,
				"engines":  q.Engines,
				"signal":   q.Signal,
				"minScore": q.MinScore,
				"hasCoin":  q.HasCoin,
			},
			Count: len(items),
			Total: total,
			Items: items,
		})
	})
}

func setupXMonitorRoutes(router *gin.Engine, cfg *config.Config, fetcher *xmonitor.Fetcher, store *cache.Cache, log *zap.Logger) {
	router.GET("/api/x-monitor", func(c *gin.Context) {
		key := cache.Key(c.Request.URL.Path, c.Request.URL.Query())
		if serveFromCache(c, store, key, xMonitorTTL) {
			return
		}

		if cfg.TwitterTokenResolved() == "" {
			writeError(c, http.StatusInternalServerError, "missing_twitter_token", "缺少 TWITTER_TOKEN 配置")
			return
		}

		q := xmonitor.ParseQuery(c.Request.URL.Query(), cfg.WatchlistUsers())
		items, err := fetcher.FetchTweets(c.Request.Context(), q)
		if err != nil {
			upstreamRequestsCounter.WithLabelValues(fetcher.Name(), "error").Inc()
			writeError(c, http.StatusBadGateway, "x_monitor_fetch_failed", err.Error())
			return
		}
		upstreamRequestsCounter.WithLabelValues(fetcher.Name(), "ok").Inc()

		items = services.Aggregate(items, services.FilterOptions{}, q.Limit)

		filters := map[string]any{}
		if q.Username != "" {
			filters["username"] = q.Username
		}
		if len(q.Watchlist) > 0 {
			filters["usernames"] = q.Watchlist
		}
		if q.Hashtag != "" {
			filters["hashtag"] = q.Hashtag
		}
		if q.Keyword != "" {
			filters["q"] = q.Keyword
		}
		if q.MinLikes > 0 {
			filters["minLikes"] = q.MinLikes
		}

		writeSuccess(c, store, key, xMonitorTTL, models.Envelope{
			OK:          true,
			Source:      fetcher.Name(),
			GeneratedAt: generatedAt(),
			Mode:        q.Mode,
			Filters:     filters,
			Count:       len(items),
			Items:       items,
		})
	})
}

func setupLiveNewsRoutes(router *gin.Engine, fetcher *livenews.Fetcher, store *cache.Cache, log *zap.Logger) {
	router.GET("/api/live-news", func(c *gin.Context) {
		key := cache.Key(c.Request.URL.Path, c.Request.URL.Query())
		if serveFromCache(c, store, key, liveNewsTTL) {
			return
		}

		q := livenews.ParseQuery(c.Request.URL.Query())
		items, err := fetcher.FetchTopics(c.Request.Context(), q)
		if err != nil || len(items) == 0 {
			// Settle-all liefert keinen Fehler; alle Themen tot heißt trotzdem 502.
			upstreamRequestsCounter.WithLabelValues(fetcher.Name(), "error").Inc()
			writeError(c, http.StatusBadGateway, "live_news_fetch_failed", "所有主题源均不可用")
			return
		}
		upstreamRequestsCounter.WithLabelValues(fetcher.Name(), "ok").Inc()

		items = services.Aggregate(items, services.FilterOptions{}, q.Limit)

		writeSuccess(c, store, key, liveNewsTTL, models.Envelope{
			OK:          true,
			Source:      fetcher.Name(),
			GeneratedAt: generatedAt(),
			Filters:     map[string]any{"query": q.Keyword, "topics": q.Topics},
			Count:       len(items),
			Items:       items,
		})
	})
}

func setupXhsFeedRoutes(router *gin.Engine, fetcher *xhsfeed.Fetcher, store *cache.Cache, log *zap.Logger) {
	router.GET("/api/xhs-feed", func(c *gin.Context) {
		key := cache.Key(c.Request.URL.Path, c.Request.URL.Query())
		if serveFromCache(c, store, key, xhsFeedTTL) {
			return
		}

		q := xhsfeed.ParseQuery(c.Request.URL.Query())
		payload := fetcher.Resolve(c.Request.Context())
		upstreamRequestsCounter.WithLabelValues(payload.Source, "ok").Inc()

		items := xhsfeed.FilterItems(payload.Items, q.Keyword, q.Limit)

		writeSuccess(c, store, key, xhsFeedTTL, models.Envelope{
			OK:          true,
			Source:      payload.Source,
			GeneratedAt: payload.GeneratedAt,
			Count:       len(items),
			Items:       items,
		})
	})
}

// cachedNews bündelt Quell-Label und Paket-Bytes für den News-Cache, damit
// der x-news-source-Header auch bei Cache-Treffern stimmt.
type cachedNews struct {
	Source string          `json:"source"`
	TTL    int             `json:"ttl"`
	Body   json.RawMessage `json:"body"`
}

func setupNewsRoutes(router *gin.Engine, fetcher *newsfile.Fetcher, store *cache.Cache, log *zap.Logger) {
	router.GET("/api/news", func(c *gin.Context) {
		key := cache.Key(c.Request.URL.Path, c.Request.URL.Query())
		if raw, ok := store.Get(c.Request.Context(), key); ok {
			var cached cachedNews
			if err := json.Unmarshal(raw, &cached); err == nil {
				cacheLookupsCounter.WithLabelValues("hit").Inc()
				c.Header("X-Cache", "HIT")
				c.Header("x-news-source", cached.Source)
				c.Header("Cache-Control", cacheControl(time.Duration(cached.TTL)*time.Second))
				c.Data(http.StatusOK, "application/json; charset=utf-8", cached.Body)
				return
			}
		}
		cacheLookupsCounter.WithLabelValues("miss").Inc()

		payload, err := fetcher.Resolve(c.Request.Context())
		if err != nil {
			upstreamRequestsCounter.WithLabelValues("news-file", "error").Inc()
			writeError(c, http.StatusBadGateway, "news_unavailable", "新闻数据暂不可用")
			return
		}
		upstreamRequestsCounter.WithLabelValues(payload.Source, "ok").Inc()

		body, err := json.Marshal(payload.Body)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "encoding_failed", err.Error())
			return
		}
		if wrapped, err := json.Marshal(cachedNews{
			Source: payload.Source,
			TTL:    int(payload.TTL / time.Second),
			Body:   body,
		}); err == nil {
			store.Set(c.Request.Context(), key, wrapped, payload.TTL)
		}

		c.Header("X-Cache", "MISS")
		c.Header("x-news-source", payload.Source)
		c.Header("Cache-Control", cacheControl(payload.TTL))
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	})
}

var visitPathSanitizer = regexp.MustCompile(`[^A-Za-z0-9/_\-.]`)

// sanitizeVisitPath normalisiert den gezählten Pfad: führender Slash,
// Zeichensatz-Allow-List, maximal 120 Zeichen.
func sanitizeVisitPath(input string) string {
	path := strings.TrimSpace(input)
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	path = visitPathSanitizer.ReplaceAllString(path, "")
	if path == "" || !strings.HasPrefix(path, "/") {
		path = "/"
	}
	if len(path) > 120 {
		path = path[:120]
	}
	return path
}

func setupVisitRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	router.GET("/api/visits", func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		if db == nil {
			c.JSON(http.StatusOK, gin.H{"ok": true, "available": false})
			return
		}

		path := sanitizeVisitPath(c.Query("path"))
		visitDate := time.Now().UTC().Format("2006-01-02")

		if normalize.ParseBoolean(c.Query("record"), true) {
			// Ein Besucher zählt pro Pfad und Tag genau einmal; der Hash hält
			// die Identität pseudonym.
			identity := c.ClientIP() + "|" + c.Request.UserAgent() + "|" + c.GetHeader("Accept-Language")
			digest := sha256.Sum256([]byte(identity))

			visit := models.PageVisit{
				Path:        path,
				VisitDate:   visitDate,
				VisitorHash: hex.EncodeToString(digest[:]),
			}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&visit).Error; err != nil {
				log.Error("Failed to record visit", zap.String("path", path), zap.Error(err))
				c.JSON(http.StatusOK, gin.H{"ok": true, "available": false})
				return
			}
		}

		var today, total int64
		if err := db.Model(&models.PageVisit{}).Where("path = ? AND visit_date = ?", path, visitDate).Count(&today).Error; err != nil {
			log.Error("Failed to count visits", zap.String("path", path), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"ok": true, "available": false})
			return
		}
		db.Model(&models.PageVisit{}).Where("path = ?", path).Count(&total)

		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"available": true,
			"path":      path,
			"date":      visitDate,
			"today":     today,
			"total":     total,
		})
	})
}

// warmupCache füllt die Cache-Einträge der parameterlosen Default-Queries
// für die beiden meistgenutzten Endpunkte neu.
func warmupCache(cfg *config.Config, marketFetcher *marketnews.Fetcher, liveFetcher *livenews.Fetcher, store *cache.Cache, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if cfg.NewsToken() != "" {
		q := marketnews.ParseQuery(url.Values{})
		items, total, err := marketFetcher.FetchMarket(ctx, q)
		if err != nil {
			log.Warn("Market-News-Warm-up fehlgeschlagen", zap.Error(err))
		} else {
			items = services.Aggregate(items, services.FilterOptions{}, q.Limit)
			payload, err := json.Marshal(models.Envelope{
				OK:          true,
				Source:      marketFetcher.Name(),
				GeneratedAt: generatedAt(),
				Count:       len(items),
				Total:       total,
				Items:       items,
			})
			if err == nil {
				store.Set(ctx, cache.Key("/api/market-news", url.Values{}), payload, marketNewsTTL)
			}
		}
	}

	q := livenews.ParseQuery(url.Values{})
	items, err := liveFetcher.FetchTopics(ctx, q)
	if err != nil || len(items) == 0 {
		log.Warn("Live-News-Warm-up fehlgeschlagen", zap.Error(err))
		return
	}
	items = services.Aggregate(items, services.FilterOptions{}, q.Limit)
	payload, err := json.Marshal(models.Envelope{
		OK:          true,
		Source:      liveFetcher.Name(),
		GeneratedAt: generatedAt(),
		Filters:     map[string]any{"topics": q.Topics},
		Count:       len(items),
		Items:       items,
	})
	if err == nil {
		store.Set(ctx, cache.Key("/api/live-news", url.Values{}), payload, liveNewsTTL)
	}
}
