package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"caseprocessor/internal/cases/casereference"
	"caseprocessor/internal/cases/handler"
	casemetrics "caseprocessor/internal/cases/metrics"
	"caseprocessor/internal/cases/models"
	"caseprocessor/internal/cases/service"
	"caseprocessor/internal/cases/store"
	"caseprocessor/internal/platform/config"
	"caseprocessor/internal/platform/exceptionmanager"
	"caseprocessor/internal/platform/httpserver"
	"caseprocessor/internal/platform/kafka/consumer"
	"caseprocessor/internal/platform/kafka/producer"
	"caseprocessor/internal/platform/logger"
	"caseprocessor/internal/platform/metrics"
	"caseprocessor/internal/platform/recovery"
	"caseprocessor/internal/platform/redis"
	"caseprocessor/pkg/platform/outbox"
	"caseprocessor/pkg/platform/tx"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in internal/cases.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	for _, w := range cfg.Warnings {
		log.Warn("configuration", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("case processor stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	caseStore := store.NewPostgresStore(db)
	txRunner := tx.NewRunner(db, cfg.Database.TxTimeout)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	refs, err := referenceGenerator(ctx, cfg.Redis, redisClient, caseStore, log)
	if err != nil {
		return err
	}

	svc, err := service.New(caseStore, txRunner, refs,
		service.WithLogger(log),
		service.WithMetrics(casemetrics.New()),
		service.WithTopics(service.Topics{
			CaseEvents: cfg.Kafka.CaseEventsTopic,
			UacEvents:  cfg.Kafka.UacEventsTopic,
		}),
	)
	if err != nil {
		return err
	}

	prod, err := producer.New(cfg.Kafka.Brokers, log, producer.WithDeadLetterSuffix(cfg.Kafka.DeadLetterSuffix))
	if err != nil {
		return err
	}
	defer prod.Close()

	pipelineMetrics := metrics.New()
	manager, err := exceptionManager(cfg, pipelineMetrics, log)
	if err != nil {
		return err
	}

	consumers := make([]*consumer.Consumer, 0, len(cfg.Kafka.Topics))
	for _, topic := range cfg.Kafka.Topics {
		router, err := handler.NewTopicRouter(topic, svc, log)
		if err != nil {
			return err
		}
		rec, err := recovery.New(router, manager, prod, cfg.ServiceName, log,
			recovery.WithMaxAttempts(cfg.Recovery.MaxAttempts),
			recovery.WithBackoff(cfg.Recovery.Backoff),
			recovery.WithLogMessageBody(cfg.Recovery.LogMessageBody),
			recovery.WithPermanent(func(err error) bool { return errors.Is(err, models.ErrMalformedPayload) }),
			recovery.WithMetrics(pipelineMetrics),
		)
		if err != nil {
			return err
		}
		c, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.GroupPrefix+"."+topic, topic, rec, log,
			consumer.WithWorkers(cfg.Kafka.WorkersPerTopic),
			consumer.WithMetrics(pipelineMetrics),
		)
		if err != nil {
			return err
		}
		consumers = append(consumers, c)
	}

	relay := outbox.NewRelay(outbox.NewPostgresStore(db), txRunner, prod, log,
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithPollInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchTimeout(cfg.Outbox.BatchTimeout),
		outbox.WithMetrics(outbox.NewMetrics()),
	)

	checks := []httpserver.Check{
		{Name: "database", Ping: caseStore.Ping},
		{Name: "kafka", Ping: prod.Ping},
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, httpserver.Check{Name: "redis", Ping: redisClient.Health})
	}
	srv := httpserver.New(cfg.Addr, httpserver.NewOpsRouter(log, checks...))

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		g.Go(func() error { return c.Run(ctx) })
	}
	g.Go(func() error { return relay.Run(ctx) })
	g.Go(func() error {
		log.Info("starting ops server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("case processor started",
		"service", cfg.ServiceName,
		"topics", cfg.Kafka.Topics,
		"workers_per_topic", cfg.Kafka.WorkersPerTopic,
	)
	return g.Wait()
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// referenceGenerator prefers the shared Redis counter. Without Redis the process
// numbers cases itself, continuing from the highest reference already stored, so
// only one instance may run.
func referenceGenerator(ctx context.Context, cfg config.RedisConfig, client *redis.Client, st *store.PostgresStore, log *slog.Logger) (service.ReferenceGenerator, error) {
	if client != nil {
		return casereference.NewRedisGenerator(client, cfg.SequenceKey, cfg.SequenceOffset)
	}
	highest, err := st.MaxCaseRef(ctx)
	if err != nil {
		return nil, err
	}
	log.Warn("REDIS_URL not set, using an in-process case reference sequence; run a single instance only")
	return casereference.NewSequence(max(highest, cfg.SequenceOffset)), nil
}

func exceptionManager(cfg config.Server, m *metrics.Metrics, log *slog.Logger) (recovery.ExceptionManager, error) {
	if cfg.ExceptionManager.URL == "" {
		log.Warn("EXCEPTION_MANAGER_URL not set, exhausted messages are rejected without a report")
		return nil, nil
	}
	client, err := exceptionmanager.New(cfg.ExceptionManager.URL, cfg.ExceptionManager.Timeout,
		exceptionmanager.WithCircuitBreaker(exceptionmanager.NewCircuitBreaker(5, 30*time.Second)),
		exceptionmanager.WithMetrics(m),
		exceptionmanager.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
