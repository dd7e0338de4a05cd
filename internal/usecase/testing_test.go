package usecase

import (
	"context"

	"CoinPulse/internal/domain/models"
)

// fakeSource returns canned quotes or a canned error.
type fakeSource struct {
	quotes map[string]models.Quote
	err    error
	calls  int
}

func (f *fakeSource) FetchQuotes(_ context.Context, _ []string) (map[string]models.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

// fakeStore records batches in memory, newest batch appended last.
type fakeStore struct {
	batches   [][]models.Observation
	latest    models.Observation
	latestErr error
	prices    []float64
	pricesErr error
	upsertErr error
}

func (f *fakeStore) UpsertBatch(_ context.Context, obs []models.Observation) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.batches = append(f.batches, obs)
	return nil
}

func (f *fakeStore) Latest(_ context.Context, _ string) (models.Observation, error) {
	return f.latest, f.latestErr
}

func (f *fakeStore) RecentPrices(_ context.Context, _ string, limit int) ([]float64, error) {
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	if len(f.prices) > limit {
		return f.prices[:limit], nil
	}
	return f.prices, nil
}

func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

// fakePublisher records published batches.
type fakePublisher struct {
	batches [][]models.Observation
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, obs []models.Observation) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, obs)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// fakeMetrics counts recorded events by key.
type fakeMetrics struct {
	cycles map[string]int
	errs   map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{cycles: make(map[string]int), errs: make(map[string]int)}
}

func (f *fakeMetrics) RecordCycle(result string) { f.cycles[result]++ }

func (f *fakeMetrics) RecordObservation(string, string) {}

func (f *fakeMetrics) RecordError(kind string) { f.errs[kind]++ }

func (f *fakeMetrics) RecordLastPrice(string, float64) {}

func (f *fakeMetrics) RecordLatency(string, float64) {}
