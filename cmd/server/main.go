package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"laundrypro/internal/catalog"
	"laundrypro/internal/commons"
	"laundrypro/internal/identity"
	"laundrypro/internal/infrastructure/database"
	"laundrypro/internal/infrastructure/logger"
	"laundrypro/internal/infrastructure/metrics"
	"laundrypro/internal/order"
	"laundrypro/internal/report"
	"laundrypro/internal/server"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "internal/config/config.yaml"
	}

	cfg, err := commons.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, dialect, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("autoMigrate", cfg.Database.MigrateOnStart()),
	)

	identitySvc := identity.NewModule(db, dialect, zapLogger)
	catalogMod := catalog.NewModule(db, zapLogger)
	orderCtrl := order.NewModule(db, dialect, cfg.Order, catalogMod.Service, identitySvc, zapLogger)
	reportCtrl := report.NewModule(db, identitySvc, zapLogger)

	router := server.NewRouter(server.Handlers{
		Catalog: catalogMod.Controller,
		Orders:  orderCtrl,
		Reports: reportCtrl,
		Callers: identitySvc,
		Metrics: metrics.NewServerMetrics("laundrypro"),
		DB:      db,
	}, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("server error", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
