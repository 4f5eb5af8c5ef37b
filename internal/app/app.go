package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/utafrali/cartrecords/internal/config"
	"github.com/utafrali/cartrecords/internal/dispatch"
	"github.com/utafrali/cartrecords/internal/event"
	handler "github.com/utafrali/cartrecords/internal/handler/http"
	"github.com/utafrali/cartrecords/internal/repository"
	memorystore "github.com/utafrali/cartrecords/internal/repository/memory"
	mongostore "github.com/utafrali/cartrecords/internal/repository/mongo"
	"github.com/utafrali/cartrecords/internal/service"
	"github.com/utafrali/cartrecords/pkg/health"
	pkgkafka "github.com/utafrali/cartrecords/pkg/kafka"
	"github.com/utafrali/cartrecords/pkg/tracing"
)

// App wires together all dependencies and runs the cart record service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	mongoClient     *mongodriver.Client
	producer        *pkgkafka.Producer
	pool            *dispatch.WorkerPool
	tracingShutdown func(context.Context) error
	httpServer      *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing.
	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "cartrecords",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Storage.
	var (
		store       repository.CartStore
		mongoClient *mongodriver.Client
	)
	healthHandler := health.NewHandler()

	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		mongoClient = db.Client()

		cartStore := mongostore.NewCartStore(db)
		if err := cartStore.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		store = cartStore

		healthHandler.Register("mongodb", func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		})
		logger.Info("connected to MongoDB",
			slog.String("database", cfg.MongoDatabase),
		)
	case config.StoreDriverMemory:
		store = memorystore.NewCartStore()
		logger.Info("using in-memory cart store")
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.StoreDriver)
	}

	// Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Worker pool shared by the async mutation variants and fake-cart generation.
	pool := dispatch.NewWorkerPool(cfg.WorkerPoolSize, cfg.WorkerQueueSize)
	logger.Info("worker pool started",
		slog.Int("workers", cfg.WorkerPoolSize),
		slog.Int("queue", cfg.WorkerQueueSize),
	)

	// Build the dependency graph.
	eventProducer := event.NewProducer(producer, logger)
	cartService := service.NewCartService(store, pool, eventProducer, logger, service.Config{
		CreateIfMissing: cfg.CreateIfMissing,
	})

	router := handler.NewRouter(cartService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		mongoClient:     mongoClient,
		producer:        producer,
		pool:            pool,
		tracingShutdown: tracingShutdown,
		httpServer:      httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Let queued mutation tasks drain before tearing down their dependencies.
	a.pool.Close()

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
		}
	}

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
