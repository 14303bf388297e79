// Package http exposes the dues tracker as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"prispevky/internal/export"
	"prispevky/internal/services"
)

type Server struct {
	http.Server

	members  *services.MemberService
	ledger   *services.LedgerService
	stats    *services.StatsService
	exporter *export.CSVExporter

	rateLimiter *rateLimiter
	secMetrics  *securityMetrics

	// ready reports whether the backing store answers; nil means
	// always ready.
	ready func(ctx context.Context) error

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, members *services.MemberService, ledger *services.LedgerService, stats *services.StatsService, exporter *export.CSVExporter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		members:     members,
		ledger:      ledger,
		stats:       stats,
		exporter:    exporter,
		rateLimiter: newRateLimiter(),
		secMetrics:  &securityMetrics{},
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/members", s.withMiddleware(s.handleListMembers))
	mux.HandleFunc("POST /api/members", s.withMiddleware(s.handleCreateMember))
	mux.HandleFunc("POST /api/members/import", s.withMiddleware(s.handleImportMembers))
	mux.HandleFunc("DELETE /api/members/{id}", s.withMiddleware(s.handleDeactivateMember))
	mux.HandleFunc("GET /api/members/{id}/status", s.withMiddleware(s.handleMemberStatus))

	mux.HandleFunc("POST /api/payments/allocate", s.withMiddleware(s.handleAllocate))
	mux.HandleFunc("POST /api/payments/month", s.withMiddleware(s.handlePayMonth))
	mux.HandleFunc("DELETE /api/payments/{id}", s.withMiddleware(s.handleUndoPayment))

	mux.HandleFunc("GET /api/stats", s.withMiddleware(s.handleStats))
	mux.HandleFunc("GET /api/stats/unpaid", s.withMiddleware(s.handleUnpaid))
	mux.HandleFunc("GET /api/export/csv", s.withMiddleware(s.handleExportCSV))

	return s
}

// SetReadyCheck installs the readiness probe backing /readyz.
func (s *Server) SetReadyCheck(check func(ctx context.Context) error) {
	s.ready = check
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request
// logging to a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, s.secMetrics) {
			slog.WarnContext(ctx, "Suspicious request",
				"request_id", requestID,
				"client_ip", clientIP,
				"url", r.URL.Path)
		}

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Mutations are rate limited; reads are not.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.secMetrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Příliš mnoho požadavků")
			return
		}

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
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
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

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
