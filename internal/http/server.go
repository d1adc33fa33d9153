// Package http exposes the expense API over JSON. It is thin glue: parsing
// and error mapping live here, all semantics live in internal/services.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/middleware/ratelimit"
	"tally/internal/services"
)

type Server struct {
	http.Server

	expenses   *services.ExpenseService
	aggregator *services.Aggregator
	userID     int64

	// Categories are immutable after initialization, so the list is safe to
	// cache. Aggregation results are never cached.
	categoryCache *cache.LRUCache[[]core.Category]
	cacheManager  *cache.Manager

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// userID is the fixed single-user identity attached to every request.
func NewServer(addr string, expenses *services.ExpenseService, aggregator *services.Aggregator, userID int64) *Server {
	mux := http.NewServeMux()
	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: limiter.Middleware(mux),
		},
		expenses:      expenses,
		aggregator:    aggregator,
		userID:        userID,
		categoryCache: cache.NewLRUCache[[]core.Category](1, time.Hour),
		cacheManager:  cache.NewManager(),
		limiter:       limiter,
	}

	s.cacheManager.Register(s.categoryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/categories", s.withMiddleware(s.handleCategories))
	mux.HandleFunc("/api/expenses", s.withMiddleware(s.handleExpenses))
	mux.HandleFunc("/api/expenses/", s.withMiddleware(s.handleExpenseByID))
	mux.HandleFunc("/api/expenses/totals", s.withMiddleware(s.handleCategoryTotals))
	mux.HandleFunc("/api/expenses/summary", s.withMiddleware(s.handlePeriodSummary))

	return s
}

// Shutdown stops the cache cleanup and rate limiter routines, then drains
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request ids, security headers and structured request
// logging around a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request id for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	if cats, found := s.categoryCache.Get("all"); found {
		writeJSON(w, http.StatusOK, cats)
		return
	}

	cats, err := s.expenses.ListCategories(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	s.categoryCache.Set("all", cats)
	writeJSON(w, http.StatusOK, cats)
}
