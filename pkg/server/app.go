package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/internal/scheduler"
	"CoinPulse/pkg/cache"
	pkgch "CoinPulse/pkg/clickhouse"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	pkgkafka "CoinPulse/pkg/kafka"
	applogger "CoinPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle: the ingestion
// scheduler, the optional Kafka consumer and the HTTP read API.
type App struct {
	cfg      *config.Config
	l        *applogger.Logger
	sched    *scheduler.Scheduler
	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler
	handler  xhttp.Handler
	chClient *pkgch.Client
	cache    cache.Service
	pub      drepo.Publisher

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
	pub drepo.Publisher,
) *App {
	return &App{
		cfg:      cfg,
		l:        l,
		sched:    sched,
		consumer: consumer,
		kh:       kh,
		handler:  handler,
		chClient: chClient,
		cache:    cacheSvc,
		pub:      pub,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Cold-start population happens inside the scheduler's first trigger.
	a.sched.Start(ctx)
	a.l.Info("ingestion started",
		applogger.Strings("coins", a.cfg.CoinGecko.Coins),
		applogger.String("backend", a.cfg.Backend.Type),
	)

	// With the kafka backend the consumer drains the topic into ClickHouse.
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops services in reverse dependency order: stop producing new
// work first, then drain, then close clients.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.sched.Stop(shutdownCtx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
