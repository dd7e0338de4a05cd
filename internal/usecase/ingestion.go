package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	applogger "CoinPulse/pkg/logger"
)

// IngestionCycle runs one fetch-normalize-write pass and routes the
// resulting batch to the configured backend. A failed or empty fetch never
// produces a write; the next scheduled cycle is the retry.
type IngestionCycle struct {
	source  drepo.QuoteSource
	store   drepo.ObservationStore
	pub     drepo.Publisher
	metrics drepo.Metrics
	l       *applogger.Logger
	assets  []string
	backend string
}

// NewIngestionCycle creates an ingestion cycle over a fixed asset set.
// backend is "clickhouse" (direct store write) or "kafka" (publish for the
// consumer-side writer).
func NewIngestionCycle(
	source drepo.QuoteSource,
	store drepo.ObservationStore,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
	assets []string,
	backend string,
) *IngestionCycle {
	return &IngestionCycle{
		source:  source,
		store:   store,
		pub:     pub,
		metrics: metrics,
		l:       l,
		assets:  assets,
		backend: backend,
	}
}

// Run executes exactly one cycle.
func (c *IngestionCycle) Run(ctx context.Context) error {
	start := time.Now()

	quotes, err := c.source.FetchQuotes(ctx, c.assets)
	if err != nil {
		c.metrics.RecordCycle("fetch_error")
		c.metrics.RecordError("fetch")
		c.l.Error("quote fetch failed", applogger.Error(err))
		return fmt.Errorf("fetch quotes: %w", err)
	}
	if len(quotes) == 0 {
		c.metrics.RecordCycle("empty")
		c.metrics.RecordError("empty_response")
		c.l.Warn("quote fetch returned no data")
		return drepo.ErrEmptyResponse
	}

	// One timestamp for the whole batch keeps the cycle time-cohesive.
	fetchedAt := time.Now().UTC()
	obs := make([]models.Observation, 0, len(quotes))
	for asset, q := range quotes {
		obs = append(obs, models.Observation{
			Asset:     asset,
			Price:     q.Price,
			MarketCap: q.MarketCap,
			Change24h: q.Change24h,
			FetchedAt: fetchedAt,
		})
	}

	switch c.backend {
	case "kafka":
		err = c.pub.PublishBatch(ctx, obs)
	case "clickhouse":
		err = c.store.UpsertBatch(ctx, obs)
	default:
		err = fmt.Errorf("unknown backend: %s", c.backend)
	}
	if err != nil {
		c.metrics.RecordCycle("write_error")
		c.metrics.RecordError("write")
		c.l.Error("observation write failed",
			applogger.String("backend", c.backend),
			applogger.Error(err),
		)
		return fmt.Errorf("write observations: %w", err)
	}

	for _, o := range obs {
		c.metrics.RecordObservation(c.backend, o.Asset)
		c.metrics.RecordLastPrice(o.Asset, o.Price)
	}
	c.metrics.RecordCycle("ok")
	c.metrics.RecordLatency("ingestion_cycle", time.Since(start).Seconds())

	c.l.Info("ingestion cycle complete",
		applogger.Int("observations", len(obs)),
		applogger.String("backend", c.backend),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}
