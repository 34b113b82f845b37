package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	// Upstream-Auth: mehrere Legacy-Variablen, siehe NewsToken/TwitterToken.
	OpennewsToken string `envconfig:"OPENNEWS_TOKEN"`
	Token6551     string `envconfig:"TOKEN_6551"`
	TwitterToken  string `envconfig:"TWITTER_TOKEN"`

	OpennewsAPIBase string `envconfig:"OPENNEWS_API_BASE" default:"https://ai.6551.io"`
	TwitterAPIBase  string `envconfig:"TWITTER_API_BASE" default:"https://ai.6551.io"`

	// Standard-Watchlist für den X-Monitor (kommasepariert).
	XMonitorUsers string `envconfig:"X_MONITOR_USERS"`

	XhsFeedURL   string `envconfig:"XHS_FEED_URL"`
	XhsLocalPath string `envconfig:"XHS_LOCAL_PATH" default:"data/xhs_feed.json"`

	NewsRemoteURL string `envconfig:"NEWS_REMOTE_URL" default:"https://raw.githubusercontent.com/cyrus-tt/cyrus-ai-learning-notes/main/data/news.json"`
	NewsLocalPath string `envconfig:"NEWS_LOCAL_PATH" default:"data/news.json"`

	// Edge-Cache: ohne REDIS_URL läuft ein In-Process-Fallback.
	RedisURL string `envconfig:"REDIS_URL"`

	// Besucherzähler ist optional; ohne DSN antwortet /api/visits mit available:false.
	VisitsDSN string `envconfig:"VISITS_DSN"`

	UpstreamTimeoutMS int    `envconfig:"UPSTREAM_TIMEOUT_MS" default:"10000"`
	WarmupSchedule    string `envconfig:"WARMUP_SCHEDULE" default:"*/5 * * * *"`
	WarmupEnabled     bool   `envconfig:"WARMUP_ENABLED" default:"true"`
}

// NewsToken löst den Token für die OpenNews-API über die Fallback-Kette auf.
func (c *Config) NewsToken() string {
	return firstNonEmpty(c.OpennewsToken, c.Token6551, c.TwitterToken)
}

// TwitterTokenResolved löst den Token für die Twitter-API über die Fallback-Kette auf.
func (c *Config) TwitterTokenResolved() string {
	return firstNonEmpty(c.TwitterToken, c.OpennewsToken, c.Token6551)
}

// UpstreamTimeout liefert den Timeout pro Upstream-Aufruf, mit hartem Minimum von 2s.
func (c *Config) UpstreamTimeout() time.Duration {
	timeout := time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
	if timeout < 2*time.Second {
		return 2 * time.Second
	}
	return timeout
}

// WatchlistUsers liefert die Standard-Watchlist aus X_MONITOR_USERS.
func (c *Config) WatchlistUsers() []string {
	var users []string
	for _, part := range strings.Split(c.XMonitorUsers, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			users = append(users, part)
		}
		if len(users) >= 30 {
			break
		}
	}
	return users
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
