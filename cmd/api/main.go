package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sensor-etl/src/config"
	"sensor-etl/src/grpc_control"
	"sensor-etl/src/interfaces"
	"sensor-etl/src/logger"
	"sensor-etl/src/server"
	"sensor-etl/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Readings store
	db, err := storage.NewDatabase(conf.Source, appLogger.Named("SourceDB"))
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(ctx); err != nil {
		appLogger.Critical("Failed to connect db: %v", err)
	}
	defer db.Close()

	store := storage.NewReadingStore(db)
	if err := store.Migrate(ctx); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}

	// 5. Start Servers
	health := grpc_control.NewHealthServer(conf.GrpcHost, conf.GrpcPort, appLogger.Named("Health"))
	var srv interfaces.IDataExchanger = server.NewReadingsServer(conf.MConfig, store, appLogger.Named("API"))

	go func() {
		if err := health.Start(); err != nil {
			appLogger.Error("gRPC health server failed: %v", err)
		}
	}()
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
			stop()
		}
	}()
	health.SetServing(grpc_control.ServiceReadings)

	// 6. Wait for shutdown
	<-ctx.Done()
	appLogger.Info("Shutting down...")
	health.SetNotServing(grpc_control.ServiceReadings)
	if err := srv.Stop(); err != nil {
		appLogger.Warning("Server shutdown: %v", err)
	}
	health.Stop()
	appLogger.Info("Shutdown complete.")
}
