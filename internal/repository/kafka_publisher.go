package repository

import (
	"context"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	pkgkafka "CoinPulse/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by
// asset so all observations of one asset land on one partition in order.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{
			Key: []byte(o.Asset),
			Value: map[string]interface{}{
				"asset":     o.Asset,
				"price":     o.Price,
				"marketCap": o.MarketCap,
				"change24h": o.Change24h,
				"fetchedAt": o.FetchedAt.UnixMilli(),
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
