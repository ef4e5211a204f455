// Package http exposes the JSON API over net/http.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"drinktrack/internal/cache"
	applog "drinktrack/internal/log"
	"drinktrack/internal/services"
)

type Server struct {
	http.Server
	svc         *services.DrinkService
	rateLimiter *rateLimiter

	// statsCache holds rendered statistics responses keyed by request URL.
	// It is cleared wholesale on every mutation, so it can never serve a
	// stale aggregate.
	statsCache *cache.LRUCache[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *services.DrinkService, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		svc:              svc,
		rateLimiter:      newRateLimiter(),
		statsCache:       cache.NewLRUCache[[]byte](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/drinks", s.withRateLimit(s.handleDrinks))
	mux.HandleFunc("/api/drinks/", s.withRateLimit(s.handleDrinkByID))

	mux.HandleFunc("/api/consumptions", s.withRateLimit(s.handleConsumptions))
	mux.HandleFunc("/api/consumptions/decrement", s.withRateLimit(s.handleDecrement))
	mux.HandleFunc("/api/consumptions/today", s.withRateLimit(s.handleResetToday))
	mux.HandleFunc("/api/consumptions/", s.withRateLimit(s.handleConsumptionByID))

	mux.HandleFunc("/api/stats/today", s.handleStatsToday)
	mux.HandleFunc("/api/stats/daily", s.handleStatsDaily)
	mux.HandleFunc("/api/stats/spend", s.handleStatsSpend)
	mux.HandleFunc("/api/stats/by-type", s.handleStatsByType)

	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.withRateLimit(s.handleImport))

	mux.HandleFunc("/api/settings/retention", s.handleRetention)

	s.Handler = applog.RequestLogger(logger)(mux)

	go s.startCacheCleanup()

	return s
}

// startCacheCleanup evicts expired statistics entries periodically
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.statsCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}

		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateStats drops every cached statistics response. Called after any
// write that can change an aggregate.
func (s *Server) invalidateStats() {
	s.statsCache.Clear()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
