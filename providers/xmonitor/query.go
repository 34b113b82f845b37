package xmonitor

import (
	"net/url"
	"regexp"
	"strings"

	"intel-feed/normalize"
)

var (
	handlePattern        = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
	simpleValueSanitizer = regexp.MustCompile(`[^A-Za-z0-9_\-]`)
)

// Abrufmodi des X-Monitors.
const (
	ModeUser      = "user"
	ModeWatchlist = "watchlist"
	ModeSearch    = "search"
)

// Query sind die validierten Request-Parameter für /api/x-monitor.
type Query struct {
	Limit     int
	Mode      string
	Username  string
	Watchlist []string
	Hashtag   string
	Keyword   string
	MinLikes  int
}

// ParseQuery parst und validiert die Parameter; die env-Watchlist wird mit den
// Request-Usernames gemerged, dedupliziert und auf 20 Einträge gekappt.
func ParseQuery(values url.Values, envWatchlist []string) Query {
	username := NormalizeUsername(values.Get("username"))

	var usernames []string
	for _, item := range normalize.ParseCsv(values.Get("usernames"), 20) {
		if normalized := NormalizeUsername(item); normalized != "" {
			usernames = append(usernames, normalized)
		}
	}
	for _, item := range envWatchlist {
		if normalized := NormalizeUsername(item); normalized != "" {
			usernames = append(usernames, normalized)
		}
	}
	watchlist := normalize.Unique(usernames)
	if len(watchlist) > 20 {
		watchlist = watchlist[:20]
	}

	keyword := strings.TrimSpace(values.Get("q"))
	if len(keyword) > 120 {
		keyword = keyword[:120]
	}

	mode := strings.ToLower(strings.TrimSpace(values.Get("mode")))
	if mode != ModeUser && mode != ModeWatchlist && mode != ModeSearch {
		mode = ""
	}
	if mode == "" {
		switch {
		case len(watchlist) > 0:
			mode = ModeWatchlist
		case username != "":
			mode = ModeUser
		default:
			mode = ModeSearch
		}
	}

	return Query{
		Limit:     normalize.ParsePositiveInt(values.Get("limit"), 50, 100),
		Mode:      mode,
		Username:  username,
		Watchlist: watchlist,
		Hashtag:   normalizeSimpleValue(values.Get("hashtag"), 32),
		Keyword:   keyword,
		MinLikes:  normalize.ParsePositiveInt(values.Get("minLikes"), 0, 1000000),
	}
}

// NormalizeUsername entfernt führende @, kappt auf 32 Zeichen und validiert
// gegen den Handle-Zeichensatz; ungültige Handles ergeben "".
func NormalizeUsername(input string) string {
	value := strings.TrimLeft(strings.TrimSpace(input), "@")
	if len(value) > 32 {
		value = value[:32]
	}
	if !handlePattern.MatchString(value) {
		return ""
	}
	return value
}

func normalizeSimpleValue(input string, maxLen int) string {
	value := strings.TrimSpace(input)
	if len(value) > maxLen {
		value = value[:maxLen]
	}
	return simpleValueSanitizer.ReplaceAllString(value, "")
}
