package main

import (
	"context"
	"fmt"
	"log/slog"

	"stayrate/internal/app/middleware"
	appoutbox "stayrate/internal/app/outbox"
	"stayrate/internal/app/uow"
	"stayrate/internal/infra/config"
	"stayrate/internal/infra/db/gormdb"
	mongodb "stayrate/internal/infra/db/mongo"
	"stayrate/internal/infra/obs"
	infraoutbox "stayrate/internal/infra/outbox"
	"stayrate/internal/infra/storage/memory"
)

// backend is the storage selected by STORAGE_DRIVER.
type backend struct {
	uow         uow.UoWFactory
	outbox      appoutbox.Outbox
	queue       infraoutbox.Queue
	idempotency middleware.IdempotencyStore
	checks      map[string]obs.Check
	closers     []func(context.Context) error
}

func (b *backend) close(ctx context.Context, logger *slog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

// openBackend connects the configured store. publisher is used only by the
// in-memory outbox, which has no durable queue for the worker to drain.
func openBackend(ctx context.Context, cfg config.Config, publisher memory.Publisher, logger *slog.Logger) (*backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return &backend{
			uow:         memory.NewFactory(),
			outbox:      memory.NewOutbox(publisher),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			checks:      map[string]obs.Check{},
		}, nil

	case config.DriverMongo:
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		store, err := mongodb.NewOutboxStore(ctx, client.DB)
		if err != nil {
			return nil, fmt.Errorf("mongo outbox: %w", err)
		}
		idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("mongo idempotency: %w", err)
		}
		return &backend{
			uow:         mongodb.NewFactory(client.DB),
			outbox:      store,
			queue:       store,
			idempotency: idem,
			checks:      map[string]obs.Check{"mongo": client.Ping},
			closers:     []func(context.Context) error{client.Close},
		}, nil

	case config.DriverMySQL, config.DriverPostgres:
		db, err := gormdb.Open(cfg.StorageDriver, cfg.SQLDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("%s connect: %w", cfg.StorageDriver, err)
		}
		store := gormdb.NewOutboxStore(db)
		return &backend{
			uow:         gormdb.NewFactory(db),
			outbox:      store,
			queue:       store,
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			checks: map[string]obs.Check{
				cfg.StorageDriver: func(ctx context.Context) error { return gormdb.Ping(ctx, db) },
			},
			closers: []func(context.Context) error{
				func(context.Context) error { return gormdb.Close(db) },
			},
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown STORAGE_DRIVER %q", config.ErrInvalidConfig, cfg.StorageDriver)
}
