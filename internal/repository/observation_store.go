package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	applogger "CoinPulse/pkg/logger"
)

// ClickHouseObservationStore implements ObservationStore on ClickHouse.
// The table is append-only; every cycle inserts fresh rows and recency
// queries order by fetched_at.
type ClickHouseObservationStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseObservationStore creates the store over an existing pool.
// table is the fully qualified table name (database.table).
func NewClickHouseObservationStore(db *sql.DB, table string) *ClickHouseObservationStore {
	return &ClickHouseObservationStore{db: db, table: table}
}

// SetLogger injects a structured logger.
func (s *ClickHouseObservationStore) SetLogger(l *applogger.Logger) { s.l = l }

// UpsertBatch writes one ingestion cycle as a single multi-row insert.
// Rows with an empty asset or zero timestamp are skipped; valid rows are
// still written.
func (s *ClickHouseObservationStore) UpsertBatch(ctx context.Context, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	start := time.Now()
	values := make([]string, 0, len(obs))
	args := make([]interface{}, 0, len(obs)*5)
	for _, o := range obs {
		if o.Asset == "" || o.FetchedAt.IsZero() {
			if s.l != nil {
				s.l.Warn("skipping malformed observation", applogger.Any("observation", o))
			}
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, o.Asset, o.Price, o.MarketCap, o.Change24h, o.FetchedAt)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (asset, price, market_cap, change_24h, fetched_at) VALUES %s",
		s.table, strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upsert batch error",
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("upsert batch: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse upsert batch ok",
			applogger.Int("rows", len(values)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Latest returns the most recent observation for the asset.
func (s *ClickHouseObservationStore) Latest(ctx context.Context, asset string) (models.Observation, error) {
	q := fmt.Sprintf(
		"SELECT asset, price, market_cap, change_24h, fetched_at FROM %s WHERE asset = ? ORDER BY fetched_at DESC LIMIT 1",
		s.table,
	)

	var o models.Observation
	err := s.db.QueryRowContext(ctx, q, asset).Scan(&o.Asset, &o.Price, &o.MarketCap, &o.Change24h, &o.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Observation{}, domrepo.ErrNotFound
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest query error",
				applogger.String("asset", asset),
				applogger.Error(err),
			)
		}
		return models.Observation{}, fmt.Errorf("latest: %w", err)
	}
	return o, nil
}

// RecentPrices returns up to limit prices, most-recent-first.
func (s *ClickHouseObservationStore) RecentPrices(ctx context.Context, asset string, limit int) ([]float64, error) {
	q := fmt.Sprintf(
		"SELECT price FROM %s WHERE asset = ? ORDER BY fetched_at DESC LIMIT ?",
		s.table,
	)
	rows, err := s.db.QueryContext(ctx, q, asset, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent prices query error",
				applogger.String("asset", asset),
				applogger.Int("limit", limit),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent prices: %w", err)
	}
	defer rows.Close()

	prices := make([]float64, 0, limit)
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return prices, nil
}

// Health pings the pool.
func (s *ClickHouseObservationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool is owned by pkg/clickhouse.
func (s *ClickHouseObservationStore) Close() error {
	return nil
}

var _ domrepo.ObservationStore = (*ClickHouseObservationStore)(nil)
