package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"CapStore/internal/access"
	"CapStore/internal/catalog"
	"CapStore/internal/config"
	"CapStore/internal/events"
	"CapStore/pkg/kit"
)

func main() {
	service := "catalog"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		repo    catalog.Repository
		vendors access.VendorDirectory = access.NewMemVendorDirectory()
	)

	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("connect postgres failed", zap.Error(err))
		}
		defer pool.Close()
		repo = catalog.NewPostgresRepository(pool)
		vendors = access.NewPostgresVendorDirectory(pool)
	case cfg.StorefrontURL != "":
		repo = catalog.NewRemoteRepository(cfg.StorefrontURL)
	default:
		log.Warn("no DATABASE_URL or STOREFRONT_URL, serving seeded products")
		repo = catalog.NewSeededMemRepository()
	}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opt)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed, cache will degrade", zap.Error(err))
		}
		repo = catalog.NewCachedRepository(repo, rdb, cfg.CacheTTL, log)
	}

	registry, err := catalog.NewRegistry(repo, cfg.Collections, catalog.StoreOptions{
		Log:          log,
		Metrics:      catalog.NewStoreMetrics(reg),
		FetchTimeout: cfg.FetchTimeout,
		MissingPrice: cfg.MissingPrice,
	})
	if err != nil {
		log.Fatal("build registry failed", zap.Error(err))
	}

	if len(cfg.KafkaBrokers) > 0 {
		consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, registry, log)
		defer func() { _ = consumer.Close() }()
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	s := &catalog.Server{
		Registry: registry,
		Resolver: &access.Resolver{Vendors: vendors},
		Log:      log,
	}
	if len(cfg.JWTSecret) >= 32 {
		s.Tokens = access.NewTokenMaker(cfg.JWTSecret)
	} else {
		log.Warn("JWT_SECRET missing or shorter than 32 chars, reset and destination routes disabled")
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:              log,
		Service:          service,
		Registry:         reg,
		MetricsEnabled:   true,
		MetricsToken:     cfg.MetricsToken,
		QueryLimitPerMin: cfg.QueryLimit,
	})

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
		os.Exit(1)
	}
}
