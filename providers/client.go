package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// httpClient wird für alle Upstream-Anfragen der Gateways verwendet.
// Der harte Timeout ist eine letzte Sicherung; der eigentliche Timeout
// kommt pro Aufruf über den Context.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// MinCallTimeout ist der erzwungene Mindest-Timeout pro Upstream-Aufruf.
const MinCallTimeout = 2 * time.Second

// CallTimeout erzwingt das Timeout-Minimum.
func CallTimeout(configured time.Duration) time.Duration {
	if configured < MinCallTimeout {
		return MinCallTimeout
	}
	return configured
}

// PostJSON ruft einen 6551-Endpunkt mit Bearer-Auth auf und dekodiert die
// JSON-Antwort in out. Non-2xx und Timeouts sind Fehler; es gibt keine Retries.
func PostJSON(ctx context.Context, baseURL, endpoint, token string, body any, timeout time.Duration, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, CallTimeout(timeout))
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("6551_request_failed:%d:%s", resp.StatusCode, string(detail))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// GetBody holt eine Ressource per GET und liefert den Body; non-2xx ist ein Fehler.
func GetBody(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, CallTimeout(timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

// SafeBase validiert eine Basis-URL und fällt bei unbrauchbaren Werten auf
// den Default zurück; nur http(s)-Origins sind erlaubt.
func SafeBase(raw, fallback string) string {
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fallback
	}
	return parsed.Scheme + "://" + parsed.Host
}
