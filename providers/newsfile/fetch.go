// Package newsfile liefert das vor-aggregierte News-Paket: zuerst die
// Remote-JSON (Raw-GitHub), dann die lokale Fallback-Datei. Das Paket wird
// unverändert durchgereicht, nur validiert.
package newsfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"intel-feed/config"
	"intel-feed/normalize"
	"intel-feed/providers"
)

// Quell-Labels der Auflösungskette.
const (
	SourceRemote = "github-raw"
	SourceLocal  = "local-fallback"
)

// ErrUnavailable bedeutet: weder Remote noch lokale Datei lieferbar.
var ErrUnavailable = errors.New("news_unavailable")

// Payload ist das durchgereichte News-Paket samt Quell-Label und TTL.
type Payload struct {
	Body   map[string]any
	Source string
	TTL    time.Duration
}

// Fetcher löst das News-Paket über die Kette remote → lokal auf.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt ein neues News-Datei-Gateway.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Resolve liefert das erste brauchbare Paket der Kette. Brauchbar heißt:
// JSON-Objekt mit items-Array; alles andere zählt als nicht lieferbar.
func (f *Fetcher) Resolve(ctx context.Context) (Payload, error) {
	if remoteURL := normalize.SafeHttpUrl(f.Config.NewsRemoteURL); remoteURL != "" {
		body, err := providers.GetBody(ctx, remoteURL, f.Config.UpstreamTimeout())
		if err == nil {
			if payload, ok := decode(body); ok {
				return Payload{Body: payload, Source: SourceRemote, TTL: 300 * time.Second}, nil
			}
		} else {
			f.Logger.Warn("Remote-News nicht erreichbar, versuche lokale Datei", zap.Error(err))
		}
	}

	body, err := os.ReadFile(f.Config.NewsLocalPath)
	if err == nil {
		if payload, ok := decode(body); ok {
			return Payload{Body: payload, Source: SourceLocal, TTL: 60 * time.Second}, nil
		}
	}

	return Payload{}, ErrUnavailable
}

func decode(body []byte) (map[string]any, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	if _, ok := payload["items"].([]any); !ok {
		return nil, false
	}
	return payload, true
}
