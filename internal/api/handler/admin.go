package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/hszk-dev/clipshare/internal/api/middleware"
)

// AdminTokenHeader carries the shared secret for admin routes.
const AdminTokenHeader = "X-Admin-Token"

// CacheFlusher is satisfied by the invalidation dispatcher. Flush reaches
// every API process sharing the invalidation bus.
type CacheFlusher interface {
	Flush(ctx context.Context)
}

// CacheCounter is satisfied by the cache store.
type CacheCounter interface {
	Len() int
}

type FlushResponse struct {
	Flushed int `json:"flushed"`
}

// AdminHandler exposes cache administration.
type AdminHandler struct {
	flusher CacheFlusher
	counter CacheCounter
	token   string
	logger  *slog.Logger
}

// NewAdminHandler panics on an empty token; the routes must not be mounted
// without one.
func NewAdminHandler(flusher CacheFlusher, counter CacheCounter, token string, logger *slog.Logger) *AdminHandler {
	if token == "" {
		panic("handler: admin token must not be empty")
	}
	return &AdminHandler{flusher: flusher, counter: counter, token: token, logger: logger}
}

// RequireToken rejects requests without the admin token.
func (h *AdminHandler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			Error(w, http.StatusUnauthorized, "unauthorized", "Admin token is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FlushCache handles DELETE /v1/admin/cache
func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	n := h.counter.Len()
	h.flusher.Flush(r.Context())

	h.logger.Info("response cache flushed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.Int("entries", n),
	)
	JSON(w, http.StatusOK, FlushResponse{Flushed: n})
}
