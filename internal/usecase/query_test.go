package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/cache"
)

func TestGetStats(t *testing.T) {
	store := &fakeStore{latest: models.Observation{
		Asset: "bitcoin", Price: 110, MarketCap: 2e12, Change24h: 0.9,
		FetchedAt: time.Now(),
	}}
	qs := NewQueryService(store, nil, newFakeMetrics(), 0)

	stats, err := qs.GetStats(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.Price != 110 || stats.MarketCap != 2e12 || stats.Change24h != 0.9 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestGetStatsNotFound(t *testing.T) {
	store := &fakeStore{latestErr: drepo.ErrNotFound}
	qs := NewQueryService(store, nil, newFakeMetrics(), 0)

	if _, err := qs.GetStats(context.Background(), "unknown"); !errors.Is(err, drepo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetStatsEmptyAsset(t *testing.T) {
	qs := NewQueryService(&fakeStore{}, nil, newFakeMetrics(), 0)
	if _, err := qs.GetStats(context.Background(), ""); !errors.Is(err, drepo.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestGetDeviationZeroForConstantPrices(t *testing.T) {
	store := &fakeStore{prices: []float64{100, 100, 100}}
	qs := NewQueryService(store, nil, newFakeMetrics(), 0)

	dev, err := qs.GetDeviation(context.Background(), "bitcoin", 100)
	if err != nil {
		t.Fatalf("get deviation: %v", err)
	}
	if dev.Deviation != 0 {
		t.Fatalf("deviation = %v, want 0", dev.Deviation)
	}
}

func TestGetDeviationPopulation(t *testing.T) {
	// mean=15, variance=(25+25)/2=25, deviation=5
	store := &fakeStore{prices: []float64{10, 20}}
	qs := NewQueryService(store, nil, newFakeMetrics(), 0)

	dev, err := qs.GetDeviation(context.Background(), "bitcoin", 100)
	if err != nil {
		t.Fatalf("get deviation: %v", err)
	}
	if math.Abs(dev.Deviation-5.0) > 1e-9 {
		t.Fatalf("deviation = %v, want 5.0", dev.Deviation)
	}
}

func TestGetDeviationWindowBound(t *testing.T) {
	store := &fakeStore{prices: []float64{3, 2, 1}} // most-recent-first
	qs := NewQueryService(store, nil, newFakeMetrics(), 0)

	// limit=2 keeps [3,2]: mean=2.5, variance=0.25, deviation=0.5
	dev, err := qs.GetDeviation(context.Background(), "bitcoin", 2)
	if err != nil {
		t.Fatalf("get deviation: %v", err)
	}
	if math.Abs(dev.Deviation-0.5) > 1e-9 {
		t.Fatalf("deviation = %v, want 0.5", dev.Deviation)
	}
}

func TestGetDeviationNotFound(t *testing.T) {
	store := &fakeStore{prices: nil}
	qs := NewQueryService(store, nil, newFakeMetrics(), 0)

	if _, err := qs.GetDeviation(context.Background(), "unknown", 100); !errors.Is(err, drepo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetDeviationDefaultsLimit(t *testing.T) {
	store := &fakeStore{prices: []float64{1}}
	qs := NewQueryService(store, nil, newFakeMetrics(), 0)

	if _, err := qs.GetDeviation(context.Background(), "bitcoin", 0); err != nil {
		t.Fatalf("get deviation: %v", err)
	}
}

func TestGetStatsServedFromCache(t *testing.T) {
	store := &fakeStore{latest: models.Observation{Asset: "bitcoin", Price: 100}}
	qs := NewQueryService(store, cache.NewMemoryCache(), newFakeMetrics(), time.Minute)

	if _, err := qs.GetStats(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("get stats: %v", err)
	}

	// Store now errors; the cached value must still be served.
	store.latestErr = errors.New("store down")
	stats, err := qs.GetStats(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("cached get stats: %v", err)
	}
	if stats.Price != 100 {
		t.Fatalf("stats = %+v", stats)
	}
}
