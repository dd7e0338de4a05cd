package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
)

const table = "coinpulse.observations"

func newStore(t *testing.T) (*ClickHouseObservationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewClickHouseObservationStore(db, table), mock
}

func TestUpsertBatch(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO coinpulse.observations").
		WithArgs(
			"bitcoin", 64000.5, 1.2e12, -1.5, now,
			"ethereum", 3100.0, 3.7e11, 2.25, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := store.UpsertBatch(context.Background(), []models.Observation{
		{Asset: "bitcoin", Price: 64000.5, MarketCap: 1.2e12, Change24h: -1.5, FetchedAt: now},
		{Asset: "ethereum", Price: 3100.0, MarketCap: 3.7e11, Change24h: 2.25, FetchedAt: now},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertBatchSkipsMalformedRows(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()

	// Only the valid row reaches the insert.
	mock.ExpectExec("INSERT INTO coinpulse.observations").
		WithArgs("bitcoin", 100.0, 1.0, 0.5, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpsertBatch(context.Background(), []models.Observation{
		{Asset: "", Price: 1, FetchedAt: now},
		{Asset: "bitcoin", Price: 100.0, MarketCap: 1.0, Change24h: 0.5, FetchedAt: now},
		{Asset: "ethereum", Price: 2}, // zero FetchedAt
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertBatchEmpty(t *testing.T) {
	store, mock := newStore(t)
	if err := store.UpsertBatch(context.Background(), nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statements expected: %v", err)
	}
}

func TestLatest(t *testing.T) {
	store, mock := newStore(t)
	fetched := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"asset", "price", "market_cap", "change_24h", "fetched_at"}).
		AddRow("bitcoin", 110.0, 2.0e12, 0.9, fetched)
	mock.ExpectQuery("SELECT asset, price, market_cap, change_24h, fetched_at FROM coinpulse.observations").
		WithArgs("bitcoin").
		WillReturnRows(rows)

	o, err := store.Latest(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if o.Price != 110.0 || !o.FetchedAt.Equal(fetched) {
		t.Fatalf("observation = %+v", o)
	}
}

func TestLatestNotFound(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery("SELECT asset, price, market_cap, change_24h, fetched_at FROM coinpulse.observations").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"asset", "price", "market_cap", "change_24h", "fetched_at"}))

	if _, err := store.Latest(context.Background(), "unknown"); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecentPrices(t *testing.T) {
	store, mock := newStore(t)

	rows := sqlmock.NewRows([]string{"price"}).AddRow(3.0).AddRow(2.0)
	mock.ExpectQuery("SELECT price FROM coinpulse.observations").
		WithArgs("bitcoin", 2).
		WillReturnRows(rows)

	prices, err := store.RecentPrices(context.Background(), "bitcoin", 2)
	if err != nil {
		t.Fatalf("recent prices: %v", err)
	}
	if len(prices) != 2 || prices[0] != 3.0 || prices[1] != 2.0 {
		t.Fatalf("prices = %v, want [3 2]", prices)
	}
}

func TestRecentPricesStoreError(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery("SELECT price FROM coinpulse.observations").
		WithArgs("bitcoin", 100).
		WillReturnError(errors.New("connection reset"))

	if _, err := store.RecentPrices(context.Background(), "bitcoin", 100); err == nil {
		t.Fatalf("expected error")
	}
}
