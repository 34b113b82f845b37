package models

// Envelope ist die Erfolgsantwort aller Aggregations-Endpunkte.
type Envelope struct {
	OK          bool          `json:"ok"`
	Source      string        `json:"source"`
	GeneratedAt string        `json:"generatedAt"`
	Mode        string        `json:"mode,omitempty"`
	Filters     any           `json:"filters,omitempty"`
	Count       int           `json:"count"`
	Total       int           `json:"total,omitempty"`
	Items       []ContentItem `json:"items"`
}

// ErrorEnvelope ist die Fehlerantwort; sie wird nie gecacht.
type ErrorEnvelope struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
