package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"stayrate/internal/app/outbox"
	"stayrate/internal/app/policies"
	"stayrate/internal/app/wiring"
	domainpricing "stayrate/internal/domain/pricing"
	rediscache "stayrate/internal/infra/cache/redis"
	"stayrate/internal/infra/broker/kafka"
	"stayrate/internal/infra/config"
	ginserver "stayrate/internal/infra/http/gin"
	"stayrate/internal/infra/obs"
	infraoutbox "stayrate/internal/infra/outbox"
	"stayrate/internal/infra/storage/memory"
	"stayrate/internal/infra/storage/s3"
	"stayrate/internal/infra/validation"
)

const eventSource = "app://stayrate"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	var producer *kafka.Producer
	var publisher memory.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka producer failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = infraoutbox.DirectPublisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix, Source: eventSource}
	}

	store, err := openBackend(ctx, cfg, publisher, logger)
	if err != nil {
		logger.Error("storage unavailable", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store.close(closeCtx, logger)
	}()

	idem := store.idempotency
	if cfg.RedisAddr != "" {
		rdb := rediscache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		idem = rediscache.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)
		store.checks["redis"] = func(ctx context.Context) error { return rediscache.Ping(ctx, rdb) }
	}

	var archive policies.BreakdownArchive
	if cfg.S3Bucket != "" {
		a, err := s3.NewArchive(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
		if err != nil {
			logger.Warn("breakdown archive disabled", "error", err)
		} else {
			archive = a
		}
	}

	cmdBus, queryBus := wiring.Buses(wiring.Deps{
		UoW:         store.uow,
		Outbox:      store.outbox,
		Encoder:     outbox.JSONEventEncoder{Source: eventSource},
		Idempotency: idem,
		Archive:     archive,
		Validator:   validation.New(),
		Engine:      domainpricing.NewEngine(cfg.MinStayBoundary),
		Logger:      logger,
		NewID:       uuid.NewString,
		MaxStay:     cfg.MaxStayDays,
	})

	if err := loadPropertyFixtures(ctx, store.uow, os.Getenv("PROPERTY_FIXTURES"), logger); err != nil {
		logger.Warn("property fixtures load failed", "error", err)
	}

	if store.queue != nil && producer != nil {
		worker := &infraoutbox.Worker{
			Queue:       store.queue,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Source:      eventSource,
			Backoff:     cfg.RetryBackoff,
			Logger:      logger,
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	} else if store.queue != nil {
		logger.Warn("outbox worker disabled, KAFKA_BROKERS not set")
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: store.checks}, ginserver.Handlers{
		Property: ginserver.PropertyHandler{Commands: cmdBus, Queries: queryBus, Logger: logger},
		Rule:     ginserver.RuleHandler{Commands: cmdBus, Queries: queryBus, Logger: logger},
		Booking:  ginserver.BookingHandler{Commands: cmdBus, Queries: queryBus, Logger: logger},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}
