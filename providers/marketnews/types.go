package marketnews

// searchResponse ist die Antwort von POST /open/news_search.
type searchResponse struct {
	Data  []Row `json:"data"`
	Total any   `json:"total"`
}

// Row ist ein roher Market-Intel-Datensatz. Zeitstempel und Score kommen je
// nach Upstream-Version als Zahl oder String, daher any.
type Row struct {
	Text       string   `json:"text"`
	Ts         any      `json:"ts"`
	Link       string   `json:"link"`
	EngineType string   `json:"engineType"`
	NewsType   string   `json:"newsType"`
	Coins      []Coin   `json:"coins"`
	AiRating   AiRating `json:"aiRating"`
}

// Coin referenziert ein Asset; Upstream liefert das Symbol unter wechselnden Keys.
type Coin struct {
	Symbol string `json:"symbol"`
	Coin   string `json:"coin"`
	Name   string `json:"name"`
}

// AiRating ist das KI-Bewertungs-Unterobjekt mit zweisprachiger Zusammenfassung.
type AiRating struct {
	Signal    string `json:"signal"`
	Score     any    `json:"score"`
	Summary   string `json:"summary"`
	EnSummary string `json:"enSummary"`
}
