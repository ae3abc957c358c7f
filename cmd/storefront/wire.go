package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fjod/shopclassy/internal/catalog"
	"github.com/fjod/shopclassy/internal/config"
	"github.com/fjod/shopclassy/internal/logger"
	"github.com/fjod/shopclassy/internal/storage"
)

const connectTimeout = 10 * time.Second

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

// openCatalog returns the sqlite catalog when CATALOG_DB_PATH is set and the
// embedded catalog otherwise. The returned func releases the database.
func openCatalog(ctx context.Context, cfg *config.Config, log *zap.Logger) (*catalog.Service, func(), error) {
	if cfg.Catalog.DBPath == "" {
		static, err := catalog.Default()
		if err != nil {
			return nil, nil, err
		}
		log.Info("using embedded catalog", zap.Int("products", len(static.ListProducts())))
		return catalog.NewService(static, nil, log), func() {}, nil
	}

	repo, err := prepareSQLCatalog(ctx, cfg.Catalog.DBPath, log)
	if err != nil {
		return nil, nil, err
	}
	static, err := repo.Load(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info("using sqlite catalog",
		zap.String("path", cfg.Catalog.DBPath),
		zap.Int("products", len(static.ListProducts())),
	)

	closeFn := func() {
		if err := repo.Close(); err != nil {
			log.Warn("failed to close catalog database", zap.Error(err))
		}
	}
	return catalog.NewService(static, repo, log), closeFn, nil
}

// prepareSQLCatalog migrates the schema and seeds the embedded catalog into an empty database.
func prepareSQLCatalog(ctx context.Context, path string, log *zap.Logger) (*catalog.SQLRepository, error) {
	repo, err := catalog.NewSQLRepository(path)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(); err != nil {
		_ = repo.Close()
		return nil, err
	}

	products, categories, err := catalog.DefaultProducts()
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	seeded, err := repo.Seed(ctx, products, categories)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	if seeded {
		log.Info("seeded catalog database", zap.Int("products", len(products)))
	}
	return repo, nil
}

// openStorage builds the cart's storage backend. Remote backends are wrapped
// in a circuit breaker.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, func(), error) {
	breaker := storage.BreakerSettings{Name: cfg.Cart.Backend}

	switch cfg.Cart.Backend {
	case config.BackendNone:
		return storage.Noop{}, func() {}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

		closeFn := func() { _ = client.Close() }
		return storage.WithBreaker(storage.NewRedis(client, cfg.Redis.TTL), breaker, log), closeFn, nil

	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		db, err := storage.ConnectMongoDB(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		m := storage.NewMongo(db, cfg.Mongo.Collection)
		if err := m.CreateIndexes(connectCtx); err != nil {
			log.Warn("failed to create mongo indexes", zap.Error(err))
		}
		log.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))

		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			_ = db.Client().Disconnect(disconnectCtx)
		}
		return storage.WithBreaker(m, breaker, log), closeFn, nil

	default:
		return storage.NewMemory(), func() {}, nil
	}
}
