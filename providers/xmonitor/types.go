package xmonitor

// tweetsResponse ist die Antwort der Tweet-Endpunkte.
type tweetsResponse struct {
	Data []Row `json:"data"`
}

// Row ist ein roher Tweet-Datensatz. Zähler und IDs kommen je nach
// Upstream-Version als Zahl oder String, Hashtags/URLs als Strings oder Objekte.
type Row struct {
	ID             any    `json:"id"`
	Text           string `json:"text"`
	UserScreenName string `json:"userScreenName"`
	ScreenName     string `json:"screenName"`
	Username       string `json:"username"`
	CreatedAt      any    `json:"createdAt"`
	RetweetCount   any    `json:"retweetCount"`
	FavoriteCount  any    `json:"favoriteCount"`
	ReplyCount     any    `json:"replyCount"`
	Hashtags       []any  `json:"hashtags"`
	Urls           []any  `json:"urls"`
}
