package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
	"pocketmoney/internal/services"
)

// Deps are the services the API serves.
type Deps struct {
	Summaries *services.SummaryService
	Chores    *services.ChoreService
	Ledger    *services.LedgerService
	// Today returns the current date in the household's timezone.
	Today func() core.Date
	// Ready is an optional readiness check against the store.
	Ready func(ctx context.Context) error
	// WriteLimit caps non-GET requests per client per minute. Zero uses the
	// default of 60.
	WriteLimit int
}

type Server struct {
	http.Server
	summaries   *services.SummaryService
	chores      *services.ChoreService
	ledger      *services.LedgerService
	today       func() core.Date
	ready       func(ctx context.Context) error
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	limit := deps.WriteLimit
	if limit <= 0 {
		limit = 60
	}
	today := deps.Today
	if today == nil {
		today = func() core.Date { return core.DateOf(time.Now(), time.UTC) }
	}

	s := &Server{
		summaries:   deps.Summaries,
		chores:      deps.Chores,
		ledger:      deps.Ledger,
		today:       today,
		ready:       deps.Ready,
		rateLimiter: newRateLimiter(limit, time.Minute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/kids/{kid}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/kids/{kid}/balance", s.handleBalance)
	mux.HandleFunc("GET /api/kids/{kid}/chores", s.handleChores)
	mux.HandleFunc("POST /api/kids/{kid}/chores", s.handleAddChore)
	mux.HandleFunc("GET /api/kids/{kid}/approvals", s.handlePending)
	mux.HandleFunc("POST /api/kids/{kid}/approvals/{date}/approve-all", s.handleApproveAll)
	mux.HandleFunc("POST /api/kids/{kid}/chore-entries", s.handleLogChore)
	mux.HandleFunc("POST /api/kids/{kid}/ledger", s.handleCreateLedgerEntry)
	mux.HandleFunc("GET /api/kids/{kid}/allowance", s.handleGetAllowance)
	mux.HandleFunc("PUT /api/kids/{kid}/allowance", s.handleSetAllowance)

	mux.HandleFunc("POST /api/chore-entries/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /api/chore-entries/{id}/reject", s.handleReject)
	mux.HandleFunc("DELETE /api/chore-entries/{id}", s.handleDeleteChoreEntry)

	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(logger)(s.withAPIHeaders(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
