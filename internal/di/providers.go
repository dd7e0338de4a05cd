package di

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/internal/domain/repository"
	"CoinPulse/internal/handler/api"
	internalrepo "CoinPulse/internal/repository"
	"CoinPulse/internal/scheduler"
	"CoinPulse/internal/service/coingecko"
	"CoinPulse/internal/usecase"
	"CoinPulse/pkg/cache"
	pkgch "CoinPulse/pkg/clickhouse"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	pkgkafka "CoinPulse/pkg/kafka"
	applogger "CoinPulse/pkg/logger"
	"CoinPulse/pkg/metrics"
	"CoinPulse/pkg/server"
)

// ProvideLogger creates the application logger. Production gets JSON to
// stdout; everything else gets the console writer.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "console", Output: "stdout"}
	if cfg.Environment == "production" {
		lc.Format = "json"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// observations schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database),
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (asset String, price Float64, market_cap Float64, change_24h Float64, fetched_at DateTime64(3)) ENGINE=MergeTree ORDER BY (asset, fetched_at)",
			table,
		),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideObservationStore creates the ClickHouse observation repository.
func ProvideObservationStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.ObservationStore {
	store := internalrepo.NewClickHouseObservationStore(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer creates a Kafka producer for the kafka backend.
// Returns nil with the clickhouse backend.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvidePublisher creates the Kafka publisher repository.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the consumer that drains published
// observations into ClickHouse. Returns nil with the clickhouse backend.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}

	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaObservationsHandler registers the handler for the
// observations topic.
func ProvideKafkaObservationsHandler(store repository.ObservationStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideQuoteSource creates the CoinGecko quote source.
func ProvideQuoteSource(cfg *config.Config) repository.QuoteSource {
	var opts []coingecko.Option
	if cfg.CoinGecko.APIKey != "" {
		opts = append(opts, coingecko.WithAPIKey(cfg.CoinGecko.APIKey))
	}
	return coingecko.New(cfg.CoinGecko.BaseURL, cfg.CoinGecko.Timeout, opts...)
}

// ProvideCache creates the query cache: Redis when configured, otherwise
// an in-process TTL map.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideIngestionCycle creates the fetch-and-write use case.
func ProvideIngestionCycle(
	source repository.QuoteSource,
	store repository.ObservationStore,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.IngestionCycle {
	return usecase.NewIngestionCycle(source, store, pub, m, l, cfg.CoinGecko.Coins, cfg.Backend.Type)
}

// ProvideScheduler creates the fixed-interval scheduler around the cycle.
func ProvideScheduler(cycle *usecase.IngestionCycle, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *scheduler.Scheduler {
	return scheduler.New(cycle, cfg.Ingest.Interval, m, l)
}

// ProvideQueryService creates the read-side query service.
func ProvideQueryService(store repository.ObservationStore, c cache.Service, m repository.Metrics, cfg *config.Config) *usecase.QueryService {
	return usecase.NewQueryService(store, c, m, cfg.Query.CacheTTL)
}

// ProvideMarketHandler creates the HTTP handler for the read endpoints.
func ProvideMarketHandler(l *applogger.Logger, qs *usecase.QueryService, store repository.ObservationStore) xhttp.Handler {
	return api.NewMarketHandler(l, qs, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
	pub repository.Publisher,
) *server.App {
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}
	return server.New(cfg, l, sched, consumer, mh, handler, chClient, cacheSvc, pub)
}
