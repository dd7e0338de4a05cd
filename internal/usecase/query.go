package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/cache"
)

// DefaultDeviationWindow is the recent-price window used when the caller
// does not bound it.
const DefaultDeviationWindow = 100

// QueryService serves the two read queries over the observation store.
// Results are cached for a short TTL; with a multi-hour write cadence the
// cache can never be more stale than the poll interval already allows.
type QueryService struct {
	store    drepo.ObservationStore
	cache    cache.Service
	metrics  drepo.Metrics
	cacheTTL time.Duration
}

// NewQueryService creates a query service. cache may be nil to disable
// caching.
func NewQueryService(store drepo.ObservationStore, c cache.Service, metrics drepo.Metrics, cacheTTL time.Duration) *QueryService {
	return &QueryService{store: store, cache: c, metrics: metrics, cacheTTL: cacheTTL}
}

// GetStats returns the latest observation's price, market cap and 24h
// change for the asset.
func (s *QueryService) GetStats(ctx context.Context, asset string) (models.Stats, error) {
	if asset == "" {
		return models.Stats{}, drepo.ErrInvalidArgument
	}

	key := "stats:" + asset
	var cached models.Stats
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	o, err := s.store.Latest(ctx, asset)
	if err != nil {
		if !errors.Is(err, drepo.ErrNotFound) {
			s.metrics.RecordError("query_stats")
		}
		return models.Stats{}, err
	}
	s.metrics.RecordLatency("query_stats", time.Since(start).Seconds())

	stats := models.Stats{
		Price:     o.Price,
		MarketCap: o.MarketCap,
		Change24h: o.Change24h,
	}
	s.cacheSet(ctx, key, stats)
	return stats, nil
}

// GetDeviation computes the population standard deviation of the most
// recent ≤limit prices for the asset.
func (s *QueryService) GetDeviation(ctx context.Context, asset string, limit int) (models.Deviation, error) {
	if asset == "" {
		return models.Deviation{}, drepo.ErrInvalidArgument
	}
	if limit < 1 {
		limit = DefaultDeviationWindow
	}

	key := fmt.Sprintf("deviation:%s:%d", asset, limit)
	var cached models.Deviation
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	prices, err := s.store.RecentPrices(ctx, asset, limit)
	if err != nil {
		s.metrics.RecordError("query_deviation")
		return models.Deviation{}, err
	}
	if len(prices) == 0 {
		return models.Deviation{}, drepo.ErrNotFound
	}
	s.metrics.RecordLatency("query_deviation", time.Since(start).Seconds())

	dev := models.Deviation{Deviation: populationStdDev(prices)}
	s.cacheSet(ctx, key, dev)
	return dev, nil
}

// populationStdDev computes the dispersion over the whole window
// (denominator = window size).
func populationStdDev(prices []float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(len(prices))

	var variance float64
	for _, p := range prices {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(prices))

	return math.Sqrt(variance)
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.Get(ctx, key, dest) == nil
}

func (s *QueryService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	// cache is best-effort; a miss next time just re-reads the store
	_ = s.cache.Set(ctx, key, value, s.cacheTTL)
}
