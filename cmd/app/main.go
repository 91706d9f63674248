package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/pflag"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"superservice/cmd"
	"superservice/internal/adapters/out/postgres"
	"superservice/internal/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	flags := pflag.NewFlagSet("superservice", pflag.ExitOnError)
	envFile := flags.String("env-file", ".env", "dotenv file loaded before reading the environment")
	httpPort := flags.String("http-port", "", "overrides HTTP_PORT")
	storage := flags.String("storage", "", "overrides STORAGE (memory|postgres)")
	migrate := flags.Bool("migrate", false, "create or update the schema before serving")
	_ = flags.Parse(os.Args[1:])

	configs, err := cmd.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if *httpPort != "" {
		configs.HTTPPort = *httpPort
	}
	if *storage != "" {
		configs.Storage = *storage
	}
	if err = configs.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := configs.Logger()

	loc, err := configs.Location()
	if err != nil {
		logger.Warn("falling back to UTC", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     configs.OTelEnabled,
		Endpoint:    configs.OTelEndpoint,
		ServiceName: configs.ServiceName,
	})
	if err != nil {
		log.Fatalf("Error setting up tracing: %v", err)
	}

	gormDB := openDatabase(configs, *migrate)

	app, err := cmd.NewCompositionRoot(configs, gormDB, loc, logger)
	if err != nil {
		log.Fatalf("Error wiring application: %v", err)
	}

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}

	e, err := app.CreateRouter(ctx)
	if err != nil {
		log.Fatalf("Error building router: %v", err)
	}

	go func() {
		logger.Info("http server listening", "port", configs.HTTPPort, "storage", configs.Storage)
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	jobManager.StopAll()
	if err = app.Close(); err != nil {
		logger.Error("close broker", "error", err)
	}
	if err = shutdownTracing(shutdownCtx); err != nil {
		logger.Error("flush traces", "error", err)
	}
}

// openDatabase returns nil for the in-memory storage.
func openDatabase(configs cmd.Config, migrate bool) *gorm.DB {
	if configs.Storage == cmd.StorageMemory {
		return nil
	}

	gormDB, err := gorm.Open(pgdriver.Open(configs.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if migrate {
		if err = postgres.Migrate(gormDB); err != nil {
			log.Fatalf("Error migrating database: %v", err)
		}
	}
	return gormDB
}
