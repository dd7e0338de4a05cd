package usecase

import (
	"context"
	"encoding/json"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	pkgkafka "CoinPulse/pkg/kafka"
)

// KafkaObservationsHandler consumes observation messages and writes them to
// the store. It is the write side of the kafka backend.
type KafkaObservationsHandler struct {
	topic   string
	store   domrepo.ObservationStore
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, store domrepo.ObservationStore, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema: {asset, price, marketCap, change24h, fetchedAt(ms)}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Asset     string  `json:"asset"`
		Price     float64 `json:"price"`
		MarketCap float64 `json:"marketCap"`
		Change24h float64 `json:"change24h"`
		FetchedAt int64   `json:"fetchedAt"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	err := h.store.UpsertBatch(ctx, []models.Observation{{
		Asset:     m.Asset,
		Price:     m.Price,
		MarketCap: m.MarketCap,
		Change24h: m.Change24h,
		FetchedAt: time.UnixMilli(m.FetchedAt).UTC(),
	}})
	h.metrics.RecordLatency("consumer_store", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordObservation("clickhouse", m.Asset)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
