package models

// Metrics enthält die Interaktionszahlen eines Social-Monitor-Items.
type Metrics struct {
	Likes    int `json:"likes"`
	Retweets int `json:"retweets"`
	Replies  int `json:"replies"`
}

// ContentItem ist das kanonische Item, das jeder Adapter erzeugt.
// Die JSON-Keys sind Teil des API-Vertrags und dürfen nicht umbenannt werden.
type ContentItem struct {
	Title           string   `json:"title"`
	TitleOriginal   string   `json:"titleOriginal"`
	TitleZh         string   `json:"titleZh"`
	Summary         string   `json:"summary"`
	SummaryOriginal string   `json:"summaryOriginal"`
	SummaryZh       string   `json:"summaryZh"`
	HasTranslation  bool     `json:"hasTranslation"`
	Platform        string   `json:"platform"`
	Region          string   `json:"region"`
	IndustryStage   string   `json:"industryStage"`
	ContentTags     []string `json:"contentTags"`
	Date            string   `json:"date"`
	Action          string   `json:"action"`
	SourceURL       string   `json:"sourceUrl"`
	SourceName      string   `json:"sourceName"`
	PublishedAt     string   `json:"publishedAt"`

	// Nur Market-Intel:
	AiScore *float64 `json:"aiScore,omitempty"`
	Signal  string   `json:"signal,omitempty"`
	Coins   []string `json:"coins,omitempty"`

	// Nur Social-Monitor:
	Metrics *Metrics `json:"metrics,omitempty"`
}
