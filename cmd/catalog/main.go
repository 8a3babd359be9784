package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/config"
	"MiniCatalog/pkg/kit"
)

const service = "catalog"

func main() {
	cfg, err := config.Load(getenv("CONFIG_FILE", config.DefaultFile), config.DefaultEnvFile)
	if err != nil {
		zap.NewExample().Fatal("load config failed", zap.Error(err))
	}

	log, err := kit.NewLogger(service, cfg.Log.Level)
	if err != nil {
		zap.NewExample().Fatal("build logger failed", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("config loaded", zap.Stringer("config", cfg))

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("catalog stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	storage, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := catalog.New(storage, log, catalog.WithMetrics(catalog.NewMetrics(reg)))
	if err := c.Load(ctx); err != nil {
		// Start with whatever is in memory; the next successful save
		// overwrites the unreadable snapshot.
		log.Warn("starting with an empty catalog", zap.Error(err))
	}

	h := catalog.NewHandler(&catalog.Server{Catalog: c, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
		AdminSecret:    cfg.Auth.Secret,
		WriteLimit:     cfg.RateLimit.Limit,
		WriteWindow:    cfg.RateLimit.Window,
		TrustProxy:     cfg.RateLimit.TrustProxy,
	})

	return kit.RunHTTPServer(ctx, kit.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.HeaderTimeout,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
	}, h, log)
}

func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalog.Storage, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := catalog.OpenPostgres(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		pg := catalog.NewPostgresStorage(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("using postgres storage")
		return pg, closeDB(db, log), nil
	case config.DriverMemory:
		log.Info("using memory storage; nothing survives a restart")
		return catalog.NewMemStorage(), func() {}, nil
	case config.DriverFile:
		log.Info("using file storage", zap.String("path", cfg.Storage.Path))
		return catalog.NewFileStorage(cfg.Storage.Path), func() {}, nil
	default:
		return nil, nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func closeDB(db *sql.DB, log *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("close postgres failed", zap.Error(err))
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
