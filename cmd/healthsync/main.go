package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"go.uber.org/zap"

	adapthttp "healthsync/internal/adapter/http"
	"healthsync/internal/adapter/postgres"
	"healthsync/internal/app"
	"healthsync/internal/domain"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	addr := env("ADDR", ":8080")

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	db, err := postgres.Open(connStr)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	catalogSvc := app.NewCatalogService(db)
	if err := catalogSvc.Seed(context.Background()); err != nil {
		logger.Fatal("seed metric catalog", zap.Error(err))
	}

	deviceSvc := app.NewDeviceService(db, db, db, db, catalogSvc, logger)
	healthSvc := app.NewHealthService(catalogSvc, db, db, db, logger)

	// Vendor SDK bindings register source adapters here; without them sync
	// runs still ensure devices and refresh summaries, and ingestion comes in
	// over the HTTP routes.
	var adapters []domain.SourceAdapter

	h := adapthttp.New(catalogSvc, deviceSvc, healthSvc, adapters, logger).Handler()
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
