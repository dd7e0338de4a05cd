package repository

import (
	"context"

	"CoinPulse/internal/domain/models"
)

// QuoteSource fetches current quotes for a set of assets from an upstream
// provider. Assets the provider does not recognize are absent from the
// result; callers must not assume completeness.
type QuoteSource interface {
	FetchQuotes(ctx context.Context, assets []string) (map[string]models.Quote, error)
}

// ObservationStore is append-only time-series persistence for observations.
type ObservationStore interface {
	// UpsertBatch writes one ingestion cycle as a single logical batch.
	// Malformed records are skipped without dropping the valid remainder.
	UpsertBatch(ctx context.Context, obs []models.Observation) error
	// Latest returns the observation with the maximum FetchedAt for the
	// asset, or ErrNotFound.
	Latest(ctx context.Context, asset string) (models.Observation, error)
	// RecentPrices returns up to limit prices, most-recent-first.
	RecentPrices(ctx context.Context, asset string, limit int) ([]float64, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher hands an observation batch to a message backend for the
// consumer-side writer.
type Publisher interface {
	PublishBatch(ctx context.Context, obs []models.Observation) error
	Close() error
}

// Metrics records operational counters for ingestion and serving.
type Metrics interface {
	RecordCycle(result string)
	RecordObservation(backend, asset string)
	RecordError(kind string)
	RecordLastPrice(asset string, price float64)
	RecordLatency(op string, seconds float64)
}
