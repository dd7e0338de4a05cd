package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	applogger "CoinPulse/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

var testAssets = []string{"bitcoin", "ethereum"}

func TestRunWritesOneBatch(t *testing.T) {
	src := &fakeSource{quotes: map[string]models.Quote{
		"bitcoin":  {Price: 64000, MarketCap: 1.2e12, Change24h: -1.5},
		"ethereum": {Price: 3100, MarketCap: 3.7e11, Change24h: 2.2},
	}}
	store := &fakeStore{}
	cycle := NewIngestionCycle(src, store, nil, newFakeMetrics(), testLogger(t), testAssets, "clickhouse")

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(store.batches))
	}
	if len(store.batches[0]) != 2 {
		t.Fatalf("observations = %d, want 2", len(store.batches[0]))
	}
}

func TestRunStampsSharedTimestamp(t *testing.T) {
	src := &fakeSource{quotes: map[string]models.Quote{
		"bitcoin":  {Price: 1},
		"ethereum": {Price: 2},
	}}
	store := &fakeStore{}
	cycle := NewIngestionCycle(src, store, nil, newFakeMetrics(), testLogger(t), testAssets, "clickhouse")

	before := time.Now().UTC()
	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	after := time.Now().UTC()

	batch := store.batches[0]
	for _, o := range batch {
		if !o.FetchedAt.Equal(batch[0].FetchedAt) {
			t.Fatalf("timestamps differ within batch: %v vs %v", o.FetchedAt, batch[0].FetchedAt)
		}
		if o.FetchedAt.Before(before) || o.FetchedAt.After(after) {
			t.Fatalf("timestamp %v outside [%v, %v]", o.FetchedAt, before, after)
		}
	}
}

func TestRunNoWriteOnFetchError(t *testing.T) {
	src := &fakeSource{err: drepo.ErrSourceUnavailable}
	store := &fakeStore{}
	m := newFakeMetrics()
	cycle := NewIngestionCycle(src, store, nil, m, testLogger(t), testAssets, "clickhouse")

	if err := cycle.Run(context.Background()); !errors.Is(err, drepo.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if len(store.batches) != 0 {
		t.Fatalf("failed fetch must not write, got %d batches", len(store.batches))
	}
	if m.cycles["fetch_error"] != 1 {
		t.Fatalf("cycles = %v", m.cycles)
	}
}

func TestRunNoWriteOnEmptyResult(t *testing.T) {
	src := &fakeSource{quotes: map[string]models.Quote{}}
	store := &fakeStore{}
	cycle := NewIngestionCycle(src, store, nil, newFakeMetrics(), testLogger(t), testAssets, "clickhouse")

	if err := cycle.Run(context.Background()); !errors.Is(err, drepo.ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
	if len(store.batches) != 0 {
		t.Fatalf("empty fetch must not write")
	}
}

func TestRunStoreFailureIsTerminalForCycle(t *testing.T) {
	src := &fakeSource{quotes: map[string]models.Quote{"bitcoin": {Price: 1}}}
	store := &fakeStore{upsertErr: errors.New("store down")}
	m := newFakeMetrics()
	cycle := NewIngestionCycle(src, store, nil, m, testLogger(t), testAssets, "clickhouse")

	if err := cycle.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	// No inline retry: a single fetch per run.
	if src.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", src.calls)
	}
	if m.cycles["write_error"] != 1 {
		t.Fatalf("cycles = %v", m.cycles)
	}
}

func TestRunKafkaBackendPublishes(t *testing.T) {
	src := &fakeSource{quotes: map[string]models.Quote{"bitcoin": {Price: 1}}}
	store := &fakeStore{}
	pub := &fakePublisher{}
	cycle := NewIngestionCycle(src, store, pub, newFakeMetrics(), testLogger(t), testAssets, "kafka")

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(pub.batches) != 1 {
		t.Fatalf("published batches = %d, want 1", len(pub.batches))
	}
	if len(store.batches) != 0 {
		t.Fatalf("kafka backend must not write the store directly")
	}
}

func TestRunOmittedAssetsAreNotWritten(t *testing.T) {
	// Provider only knows one of the two requested assets.
	src := &fakeSource{quotes: map[string]models.Quote{"bitcoin": {Price: 1}}}
	store := &fakeStore{}
	cycle := NewIngestionCycle(src, store, nil, newFakeMetrics(), testLogger(t), testAssets, "clickhouse")

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.batches[0]) != 1 || store.batches[0][0].Asset != "bitcoin" {
		t.Fatalf("batch = %+v", store.batches[0])
	}
}
