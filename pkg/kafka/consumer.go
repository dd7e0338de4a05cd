package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer wraps a Kafka group reader bound to one handler.
type Consumer struct {
	cfg      *ConsumerConfig
	reader   *kafka.Reader
	handler  MessageHandler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:    "default",
		RetryMax:   3,
		BackoffMin: 50 * time.Millisecond,
		BackoffMax: 2 * time.Second,
		MinBytes:   1,
		MaxBytes:   10e6, // 10MB
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	return &Consumer{cfg: cfg}, nil
}

// RegisterHandler binds the handler whose Topic() the consumer reads.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	c.handler = h
}

// Start begins consuming. It returns when the consumer is stopped or the
// reader fails terminally.
func (c *Consumer) Start() error {
	if c.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		GroupID:  c.cfg.GroupID,
		Topic:    c.handler.Topic(),
		MinBytes: c.cfg.MinBytes,
		MaxBytes: c.cfg.MaxBytes,
	})

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	defer c.wg.Done()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handleWithRetry(ctx, m.Value); err != nil {
			// Exhausted retries: skip the message rather than wedge the
			// partition. The next ingestion cycle re-delivers fresh data.
			log.Printf("kafka consumer: dropping message after retries: %v", err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Printf("kafka consumer: commit error: %v", err)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, value []byte) error {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}
		if err = c.handler.Handle(ctx, value); err == nil {
			return nil
		}
	}
	return err
}

// backoff returns a jittered exponential delay clamped to BackoffMax.
func (c *Consumer) backoff(attempt int) time.Duration {
	d := c.cfg.BackoffMin << uint(attempt-1)
	if d > c.cfg.BackoffMax || d <= 0 {
		d = c.cfg.BackoffMax
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d/2 + jitter
}

// Stop cancels consumption and waits for the read loop to drain.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
			return
		}

		if c.reader != nil {
			err = c.reader.Close()
		}
	})
	return err
}
