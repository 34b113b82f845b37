package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"intel-feed/config"
	"intel-feed/models"
	"intel-feed/providers"
	"intel-feed/providers/livenews"
	"intel-feed/providers/marketnews"
	"intel-feed/providers/xmonitor"
	"intel-feed/services"
	"intel-feed/storage"
)

const snapshotItemLimit = 80

type SnapshotConfig struct {
	OutputPath string `envconfig:"SNAPSHOT_OUTPUT_PATH" default:"data/news.json"`

	// S3-Upload ist optional; ohne Bucket bleibt der Snapshot lokal.
	S3Bucket    string `envconfig:"SNAPSHOT_S3_BUCKET"`
	S3Endpoint  string `envconfig:"SNAPSHOT_S3_ENDPOINT"`
	S3AccessKey string `envconfig:"SNAPSHOT_S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"SNAPSHOT_S3_SECRET_KEY"`
	S3Region    string `envconfig:"SNAPSHOT_S3_REGION" default:"eu-central-1"`
	S3Prefix    string `envconfig:"SNAPSHOT_S3_PREFIX" default:"snapshots/"`
	KeepCount   int    `envconfig:"SNAPSHOT_KEEP" default:"12"`
}

type snapshotPayload struct {
	OK          bool                 `json:"ok"`
	Source      string               `json:"source"`
	GeneratedAt string               `json:"generatedAt"`
	Count       int                  `json:"count"`
	Items       []models.ContentItem `json:"items"`
}

func main() {
	log.Println("Starte Snapshot-Prozess...")

	var snapCfg SnapshotConfig
	if err := envconfig.Process("", &snapCfg); err != nil {
		log.Fatalf("Fehler beim Laden der Snapshot-Konfiguration: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// 1. Alle Quellen parallel abfragen (settle-all)
	items := collectItems(ctx, buildProviders(cfg, logging), logging)
	if len(items) == 0 {
		log.Fatal("Keine Quelle lieferte Items, Snapshot abgebrochen.")
	}

	items = services.Truncate(services.SortByRecency(services.Dedupe(items)), snapshotItemLimit)

	payload := snapshotPayload{
		OK:          true,
		Source:      "snapshot",
		GeneratedAt: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Count:       len(items),
		Items:       items,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("Fehler beim Serialisieren des Snapshots: %v", err)
	}

	// 2. Snapshot lokal schreiben
	if err := os.MkdirAll(filepath.Dir(snapCfg.OutputPath), 0o755); err != nil {
		log.Fatalf("Fehler beim Anlegen des Ausgabeverzeichnisses: %v", err)
	}
	if err := os.WriteFile(snapCfg.OutputPath, data, 0o644); err != nil {
		log.Fatalf("Fehler beim Schreiben des Snapshots: %v", err)
	}
	log.Printf("Snapshot mit %d Items nach %s geschrieben", len(items), snapCfg.OutputPath)

	// 3. Optional nach S3 hochladen und rotieren
	if snapCfg.S3Bucket == "" {
		log.Println("Kein SNAPSHOT_S3_BUCKET gesetzt, überspringe Upload.")
		return
	}

	opts := storage.S3Options{
		Endpoint:  snapCfg.S3Endpoint,
		Region:    snapCfg.S3Region,
		AccessKey: snapCfg.S3AccessKey,
		SecretKey: snapCfg.S3SecretKey,
	}
	s3Client, err := storage.NewS3Client(opts)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des S3-Clients: %v", err)
	}

	key := snapCfg.S3Prefix + "news-" + time.Now().UTC().Format("2006-01-02T15-04-05Z") + ".json"
	link, err := storage.UploadJSON(ctx, s3Client, opts, snapCfg.S3Bucket, key, data)
	if err != nil {
		log.Fatalf("Fehler beim Hochladen nach S3: %v", err)
	}
	log.Printf("Snapshot erfolgreich hochgeladen: %s", link)

	deleted, err := storage.RotateSnapshots(ctx, s3Client, snapCfg.S3Bucket, snapCfg.S3Prefix, snapCfg.KeepCount)
	if err != nil {
		log.Fatalf("Fehler bei der Rotation alter Snapshots: %v", err)
	}
	for _, key := range deleted {
		log.Printf("Alter Snapshot gelöscht: %s", key)
	}

	log.Println("Snapshot-Prozess erfolgreich abgeschlossen.")
}

func buildProviders(cfg *config.Config, logging *zap.Logger) []providers.Provider {
	list := []providers.Provider{livenews.NewFetcher(cfg, logging)}
	if cfg.NewsToken() != "" {
		list = append(list, marketnews.NewFetcher(cfg, logging))
	}
	if cfg.TwitterTokenResolved() != "" && len(cfg.WatchlistUsers()) > 0 {
		list = append(list, xmonitor.NewFetcher(cfg, logging))
	}
	return list
}

// collectItems fragt alle Quellen parallel ab; eine fehlgeschlagene Quelle
// liefert null Items, kein Abbruch.
func collectItems(ctx context.Context, list []providers.Provider, logging *zap.Logger) []models.ContentItem {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var merged []models.ContentItem

	for _, p := range list {
		wg.Add(1)
		go func(p providers.Provider) {
			defer wg.Done()
			items, err := p.Fetch(ctx, providers.Query{Limit: snapshotItemLimit})
			if err != nil {
				logging.Warn("Quelle im Snapshot übersprungen",
					zap.String("provider", p.Name()), zap.Error(err))
				return
			}
			mu.Lock()
			merged = append(merged, items...)
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	return merged
}
