package marketnews

import (
	"net/url"
	"regexp"
	"strings"

	"intel-feed/normalize"
)

var (
	coinPattern   = regexp.MustCompile(`^[A-Z0-9]{2,12}$`)
	enginePattern = regexp.MustCompile(`^[a-z]{3,16}$`)
)

// Query sind die validierten Request-Parameter für /api/market-news.
// Ungültige Werte fallen still auf Defaults zurück.
type Query struct {
	Limit    int
	Keyword  string
	Signal   string
	MinScore int
	HasCoin  bool
	Coins    []string
	Engines  []string
}

// ParseQuery parst und validiert die Query-Parameter gegen die Allow-Lists.
func ParseQuery(values url.Values) Query {
	keyword := strings.TrimSpace(values.Get("q"))
	if len(keyword) > 120 {
		keyword = keyword[:120]
	}

	var coins []string
	for _, coin := range normalize.ParseCsv(values.Get("coins"), 10) {
		coin = strings.ToUpper(coin)
		if coinPattern.MatchString(coin) {
			coins = append(coins, coin)
		}
	}

	var engines []string
	for _, engine := range normalize.ParseCsv(values.Get("engines"), 8) {
		engine = strings.ToLower(engine)
		if enginePattern.MatchString(engine) {
			engines = append(engines, engine)
		}
	}

	return Query{
		Limit:    normalize.ParsePositiveInt(values.Get("limit"), 80, 100),
		Keyword:  keyword,
		Signal:   strings.ToLower(strings.TrimSpace(values.Get("signal"))),
		MinScore: normalize.ParsePositiveInt(values.Get("minScore"), 0, 100),
		HasCoin:  normalize.ParseBoolean(values.Get("hasCoin"), false),
		Coins:    coins,
		Engines:  engines,
	}
}
