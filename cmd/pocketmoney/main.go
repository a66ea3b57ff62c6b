package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "time/tzdata"

	"pocketmoney/internal/cli"
	"pocketmoney/internal/config"
	apphttp "pocketmoney/internal/http"
	"pocketmoney/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp, os.Getenv("LOG_FORMAT") == "json")

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	}()
	app.Caches.StartCleanup(ctx, 10*time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Summaries: app.Summaries,
		Chores:    app.Chores,
		Ledger:    app.Ledger,
		Today:     app.Today,
		Ready:     app.Ready,
	}, logger)
	srv.MaxHeaderBytes = 1 << 16

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting pocketmoney server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"ledger_source", cfg.LedgerSource,
		"timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}
