// Package app wires configuration into the components shared by the
// binaries under cmd/.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mercabridge/internal/cache"
	"mercabridge/internal/catalog"
	"mercabridge/internal/config"
	"mercabridge/internal/db"
	"mercabridge/internal/observability"
	"mercabridge/internal/repository"
	"mercabridge/internal/supplier"
)

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Supplier *supplier.Client
	Service  *catalog.Service

	// Set only when a database is configured.
	Snapshots *repository.SnapshotRepository
	Recorder  *repository.Recorder

	redis *redis.Client
	sqlDB *sql.DB
	pool  *pgxpool.Pool
}

// New connects the optional cache and database and builds the catalog
// service. Cache and database are only used when their URLs are set; a
// cache that does not answer is skipped.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	observability.Register()

	sup, err := supplier.New(supplier.Options{
		BaseURL:            cfg.Supplier.BaseURL,
		Language:           cfg.Supplier.Language,
		AlgoliaAppID:       cfg.Supplier.AlgoliaAppID,
		AlgoliaAPIKey:      cfg.Supplier.AlgoliaAPIKey,
		AlgoliaURL:         cfg.Supplier.AlgoliaURL,
		Timeout:            cfg.Supplier.Timeout,
		MinRequestInterval: cfg.Supplier.MinRequestInterval,
	}, log.With().Str("component", "supplier").Logger())
	if err != nil {
		return nil, fmt.Errorf("supplier: %w", err)
	}

	a := &App{Config: cfg, Log: log, Supplier: sup}
	opts := catalog.Options{
		DefaultPostcode:   cfg.DefaultPostcode,
		DefaultLimit:      cfg.DefaultLimit,
		FallbackWarehouse: cfg.FallbackWarehouse,
	}

	if cfg.RedisURL != "" {
		a.redis, err = cache.Connect(ctx, cfg.RedisURL)
		switch {
		case errors.Is(err, cache.ErrUnavailable):
			log.Warn().Err(err).Msg("result cache disabled")
		case err != nil:
			a.Close()
			return nil, err
		default:
			opts.Cache = &cache.Store{Client: a.redis, TTL: cfg.CacheTTL}
			log.Info().Dur("ttl", cfg.CacheTTL).Msg("result cache enabled")
		}
	}

	if cfg.DatabaseURL != "" {
		if err := a.openDatabase(ctx, cfg.DatabaseURL); err != nil {
			a.Close()
			return nil, err
		}
		opts.Recorder = a.Recorder
		opts.History = a.Recorder
		log.Info().Msg("price recording enabled")
	}

	a.Service = catalog.NewService(sup, log.With().Str("component", "catalog").Logger(), opts)
	return a, nil
}

func (a *App) openDatabase(ctx context.Context, url string) error {
	var err error
	a.sqlDB, err = db.New(url)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.EnsureSchema(ctx, a.sqlDB); err != nil {
		return err
	}
	a.pool, err = db.NewPool(ctx, url)
	if err != nil {
		return fmt.Errorf("connect database pool: %w", err)
	}

	a.Snapshots = &repository.SnapshotRepository{DB: a.sqlDB}
	a.Recorder = &repository.Recorder{
		Snapshots: a.Snapshots,
		Prices:    &repository.PriceRepository{DB: a.pool},
	}
	return nil
}

// Close releases connections opened by New.
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
}
