// Package providers bündelt die Quell-Gateways: Request-Aufbau, Auth,
// Timeout und Fan-out pro Upstream-Quelle.
package providers

import (
	"context"

	"intel-feed/models"
)

// Query sind die quellenübergreifenden Abrufparameter für Warm-up und Snapshot.
type Query struct {
	Limit   int
	Keyword string
}

// Provider ist das Interface, das jede Upstream-Quelle implementieren muss.
type Provider interface {
	// Fetch ruft die Quelle mit generischen Parametern ab und liefert
	// bereits normalisierte Content-Items.
	Fetch(ctx context.Context, q Query) ([]models.ContentItem, error)

	// Name gibt das Quell-Label zurück (z.B. "opennews-6551").
	Name() string
}
