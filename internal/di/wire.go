//go:build wireinject
// +build wireinject

package di

import (
	"CoinPulse/pkg/config"
	"CoinPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideObservationStore,
		ProvidePublisher,
		ProvideQuoteSource,

		// Use cases
		ProvideIngestionCycle,
		ProvideScheduler,
		ProvideQueryService,
		ProvideKafkaObservationsHandler,

		// HTTP
		ProvideMarketHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
