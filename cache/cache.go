// Package cache implementiert den Edge-Cache-Wrapper: Schlüssel aus Pfad und
// normalisierter Query, Redis als Store, In-Process-Fallback ohne REDIS_URL.
// Es werden ausschließlich Erfolgsantworten gespeichert.
package cache

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "intelfeed:cache:"

// Cache ist der Antwort-Cache der API-Endpunkte.
type Cache struct {
	rdb    *redis.Client
	logger *zap.Logger

	mu  sync.Mutex
	mem map[string]memEntry
}

type memEntry struct {
	payload   []byte
	expiresAt time.Time
}

// New verbindet sich mit Redis, wenn eine URL konfiguriert ist; sonst (oder
// wenn Redis nicht antwortet) läuft der In-Process-Fallback.
func New(redisURL string, logger *zap.Logger) *Cache {
	c := &Cache{logger: logger, mem: make(map[string]memEntry)}

	if redisURL == "" {
		logger.Info("Kein REDIS_URL gesetzt, Edge-Cache läuft in-process.")
		return c
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis nicht erreichbar, Edge-Cache läuft in-process.", zap.Error(err))
		return c
	}

	c.rdb = rdb
	logger.Info("Edge-Cache nutzt Redis.")
	return c
}

// Key bildet den Cache-Schlüssel aus dem Pfad und der normalisierten Query.
// url.Values.Encode sortiert die Parameter, daher ist der Schlüssel
// unabhängig von der Parameter-Reihenfolge des Requests.
func Key(path string, query url.Values) string {
	return keyPrefix + path + "?" + query.Encode()
}

// Get liefert die gespeicherte Antwort unverändert, ohne Re-Validierung.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.rdb != nil {
		payload, err := c.rdb.Get(ctx, key).Bytes()
		if err != nil {
			return nil, false
		}
		return payload, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.mem[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.mem, key)
		return nil, false
	}
	return entry.payload, true
}

// Set speichert eine Erfolgsantwort mit quellenspezifischer TTL.
// Fehlerantworten werden von den Handlern nie hierher gegeben (no-store).
func (c *Cache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
			c.logger.Warn("Cache-Write fehlgeschlagen", zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = memEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
}
