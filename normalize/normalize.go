// Package normalize enthält die primitiven Normalisierer der Pipeline.
// Vertrag: jede Funktion ist total — ungültige Eingaben liefern einen
// sicheren Default, niemals einen Fehler oder eine Panic.
package normalize

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// headlineMaxRunes begrenzt Überschriften auf die Breite der UI-Karten.
const headlineMaxRunes = 88

var (
	numericPattern    = regexp.MustCompile(`^\d+$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Now ist austauschbar, damit Tests den "jetzt"-Fallback fixieren können.
var Now = time.Now

// ToIsoDateTime akzeptiert Unix-Timestamps (Sekunden oder Millisekunden,
// unterschieden per Größenordnung: >1e12 gilt als Millisekunden), numerische
// Strings und datumsartige Strings. Unparsbares fällt auf die aktuelle Zeit zurück.
func ToIsoDateTime(input any) string {
	switch v := input.(type) {
	case time.Time:
		return v.UTC().Format(isoLayout)
	case int:
		return unixToIso(float64(v))
	case int64:
		return unixToIso(float64(v))
	case float64:
		return unixToIso(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return unixToIso(f)
		}
	}

	text := SafeText(input)
	if numericPattern.MatchString(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return unixToIso(f)
		}
	}
	if text != "" {
		if parsed, err := dateparse.ParseAny(text); err == nil {
			return parsed.UTC().Format(isoLayout)
		}
	}
	return Now().UTC().Format(isoLayout)
}

func unixToIso(timestamp float64) string {
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) {
		return Now().UTC().Format(isoLayout)
	}
	millis := timestamp
	if timestamp <= 1e12 {
		millis = timestamp * 1000
	}
	return time.UnixMilli(int64(millis)).UTC().Format(isoLayout)
}

// ToTime parst einen ISO-String für Sortierzwecke; unparsbar ergibt Epoche 0,
// damit kaputte Daten ans Ende der Recency-Sortierung fallen.
func ToTime(iso string) time.Time {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(iso))
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return parsed
}

// ToDateOnly schneidet einen ISO-Zeitstempel auf das Datum zu; unparsbar ergibt "".
func ToDateOnly(iso string) string {
	if _, err := time.Parse(time.RFC3339, strings.TrimSpace(iso)); err != nil {
		return ""
	}
	return strings.TrimSpace(iso)[:10]
}

// ToNonNegativeInt parst einen Zähler; negativ oder nicht-numerisch ergibt 0.
func ToNonNegativeInt(input any) int {
	switch v := input.(type) {
	case int:
		if v > 0 {
			return v
		}
		return 0
	case int64:
		if v > 0 {
			return int(v)
		}
		return 0
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return 0
		}
		return int(v)
	}

	text := SafeText(input)
	parsed, err := strconv.Atoi(strings.SplitN(text, ".", 2)[0])
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

// ParsePositiveInt parst einen Query-Parameter; nicht-numerisch oder <=0
// ergibt den Fallback, das Ergebnis wird auf max gekappt.
func ParsePositiveInt(input string, fallback, max int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || parsed <= 0 {
		return fallback
	}
	if parsed > max {
		return max
	}
	return parsed
}

// ParseBoolean erkennt 1/true/yes und 0/false/no, alles andere ergibt den Fallback.
func ParseBoolean(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}

// ParseCsv zerlegt eine kommaseparierte Liste, trimmt, verwirft Leereinträge
// und kappt auf maxLen.
func ParseCsv(input string, maxLen int) []string {
	var parts []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parts = append(parts, part)
		if len(parts) >= maxLen {
			break
		}
	}
	return parts
}

// SafeHttpUrl validiert eine absolute http(s)-URL; alles andere ergibt "".
func SafeHttpUrl(input string) string {
	text := strings.TrimSpace(input)
	if text == "" {
		return ""
	}
	parsed, err := url.Parse(text)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if parsed.Host == "" {
		return ""
	}
	return parsed.String()
}

// Headline nimmt die erste Zeile, kappt auf 88 Zeichen mit Ellipse und fällt
// bei leerem Text auf den quellenspezifischen Platzhalter zurück.
func Headline(text, placeholder string) string {
	firstLine := text
	if idx := strings.IndexAny(text, "\r\n"); idx >= 0 {
		firstLine = text[:idx]
	}
	firstLine = strings.TrimSpace(firstLine)
	if firstLine == "" {
		return placeholder
	}
	runes := []rune(firstLine)
	if len(runes) > headlineMaxRunes {
		return string(runes[:headlineMaxRunes]) + "..."
	}
	return firstLine
}

// SafeText stringifiziert beliebige Werte und trimmt Whitespace.
func SafeText(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return strings.TrimSpace(v.String())
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// CollapseText trimmt und kollabiert Whitespace-Läufe auf ein Leerzeichen.
func CollapseText(input any) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(SafeText(input), " "))
}

// ToFloat koerziert Zahlen und numerische Strings; nicht-endliche Werte ergeben nil.
func ToFloat(input any) *float64 {
	switch v := input.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}
		return nil
	}

	text := SafeText(input)
	if text == "" {
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Unique dedupliziert unter Erhalt der Reihenfolge und verwirft Leerstrings.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
