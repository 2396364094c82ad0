package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	api "github.com/tideflow/tideflow-server/internal/api/http"
	"github.com/tideflow/tideflow-server/internal/config"
	"github.com/tideflow/tideflow-server/internal/logger"
	"github.com/tideflow/tideflow-server/internal/repository/postgres"
	"github.com/tideflow/tideflow-server/internal/service"
	storage "github.com/tideflow/tideflow-server/internal/storage/minio"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize indexed store", "error", err)
	}
	defer db.Close()

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	docStore, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize document store", "error", err)
	}

	tideRepo := postgres.NewTideRepository(db)
	dualStore := service.NewDualStore(tideRepo, docStore, cfg.Store.BackendTimeout, logger)
	resolver := service.NewResolver(dualStore, logger)
	distributor := service.NewDistributor(resolver, dualStore, logger)
	query := service.NewQuery(tideRepo, docStore, logger)

	handler := api.NewHandler(resolver, distributor, query, logger)
	app := api.NewApp(handler, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf(":%s", cfg.HTTP.Port)
		logger.Info("Starting server on", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
