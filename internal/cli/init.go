// Package cli wires configuration, logging, the backend and the services
// shared by cmd/pocketmoney and cmd/pocketctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pocketmoney/internal/allowance"
	"pocketmoney/internal/approval"
	"pocketmoney/internal/backend"
	"pocketmoney/internal/cache"
	"pocketmoney/internal/config"
	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
	"pocketmoney/internal/services"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment and validates the result.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and makes it the slog
// default.
func SetupLogger(cfg *config.Config, component string, json bool) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = cfg.Level()
	lc.Component = component
	lc.JSON = json
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// App holds the wired services of one process.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend *backend.Backend

	Summaries *services.SummaryService
	Chores    *services.ChoreService
	Ledger    *services.LedgerService

	// Caches evicts expired summary projections. It is not started by
	// NewApp; long running processes call StartCleanup.
	Caches   *cache.Manager
	lastGood *cache.LRUCache[allowance.Projection]
}

// NewApp creates the backend selected by cfg and the services on top of it.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	lastGood := cache.NewLRUCache[allowance.Projection](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	caches := cache.NewManager()
	caches.Register(lastGood)

	wf := approval.New(b.Store,
		approval.WithTimeout(cfg.ApprovalTimeout),
		approval.WithConcurrency(cfg.ApprovalConcurrency))

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Backend:   b,
		Caches:    caches,
		lastGood:  lastGood,
		Summaries: services.NewSummaryService(b.Ledger, b.Store, lastGood),
		Ledger:    services.NewLedgerService(b.Store, b.Events),
	}
	a.Chores = services.NewChoreService(b.Store, wf, b.Events, a.Today)
	return a, nil
}

// Today is the current calendar date in the configured timezone.
func (a *App) Today() core.Date {
	return core.DateOf(time.Now(), a.Config.Location())
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ready checks the store when it supports pinging. The memory store is
// always ready.
func (a *App) Ready(ctx context.Context) error {
	if p, ok := a.Backend.Store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close stops cache cleanup and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	return a.Backend.Close()
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
