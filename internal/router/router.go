package router

import (
	"net/http"
	"time"

	"github.com/tokengate/tokengate/internal/auth"
	"github.com/tokengate/tokengate/internal/handler"
	"github.com/tokengate/tokengate/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, sessions *auth.AdminSessions) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints (no auth required)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	// Public token routes (rate limited)
	activateRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  10,
		Window: 1 * time.Minute,
		KeyFn:  middleware.IPKey,
	})

	mux.Handle("POST /api/v1/tokens/activate", activateRateLimit(http.HandlerFunc(h.Activate)))
	mux.HandleFunc("POST /api/v1/tokens/heartbeat", h.Heartbeat)
	mux.HandleFunc("POST /api/v1/tokens/release", h.Release)

	// Admin login (rate limited)
	loginRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  5,
		Window: 15 * time.Minute,
		KeyFn:  middleware.IPKey,
	})
	mux.Handle("POST /api/v1/admin/login", loginRateLimit(http.HandlerFunc(h.AdminLogin)))

	// Admin routes (require admin session)
	adminMw := mw.AdminAuth(sessions)

	mux.Handle("POST /api/v1/admin/tokens", adminMw(http.HandlerFunc(h.IssueToken)))
	mux.Handle("GET /api/v1/admin/tokens", adminMw(http.HandlerFunc(h.ListTokens)))
	mux.Handle("POST /api/v1/admin/tokens/{value}/release", adminMw(http.HandlerFunc(h.ReleaseToken)))
	mux.Handle("DELETE /api/v1/admin/tokens/{value}", adminMw(http.HandlerFunc(h.DeleteToken)))
	mux.Handle("GET /api/v1/admin/backup", adminMw(http.HandlerFunc(h.ExportBackup)))
	mux.Handle("POST /api/v1/admin/backup", adminMw(http.HandlerFunc(h.ImportBackup)))

	// Apply middleware stack
	var root http.Handler = mux

	// Request logging
	root = mw.Logger(root)

	// Request ID
	root = mw.RequestID(root)

	// Panic recovery (outermost)
	root = mw.Recover(root)

	return root
}
