package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/clipshare/internal/infrastructure/metrics"
)

// CacheStatusHeader reports whether a response came from the response cache.
const CacheStatusHeader = "X-Cache"

const (
	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

// ResponseStore is the subset of the cache store used by ResponseCache.
type ResponseStore interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// CacheKey is the request path and raw query joined by '?'. The '?' is always
// present so invalidation patterns can anchor on it.
func CacheKey(r *http.Request) string {
	return r.URL.Path + "?" + r.URL.RawQuery
}

// ResponseCache serves GET requests from store and populates it on a miss.
// Only 200 responses with a JSON content type are stored; everything else is
// passed through untouched. Concurrent misses for the same key run the
// handler once. A ttl <= 0 uses the store default.
func ResponseCache(store ResponseStore, ttl time.Duration) func(http.Handler) http.Handler {
	var group singleflight.Group

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := CacheKey(r)
			if body, ok := store.Get(key); ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(CacheStatusHeader, CacheHit)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}

			v, _, shared := group.Do(key, func() (any, error) {
				// Waiters share this result, so the leader's disconnect must
				// not cancel the work.
				rec := newCaptureWriter()
				next.ServeHTTP(rec, r.WithContext(context.WithoutCancel(r.Context())))
				if rec.cacheable() {
					store.Set(key, rec.body.Bytes(), ttl)
				}
				return rec, nil
			})
			if shared {
				metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
			} else {
				metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
			}

			rec := v.(*captureWriter)
			rec.replay(w)
		})
	}
}

// captureWriter buffers a handler's response so it can be inspected before
// anything reaches the client.
type captureWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header {
	return c.header
}

func (c *captureWriter) WriteHeader(code int) {
	if c.wroteHeader {
		return
	}
	c.status = code
	c.wroteHeader = true
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.body.Write(p)
}

func (c *captureWriter) cacheable() bool {
	return c.status == http.StatusOK && strings.HasPrefix(c.header.Get("Content-Type"), "application/json")
}

// replay copies the captured response to w. It may run once per coalesced
// request, so the buffer is only read.
func (c *captureWriter) replay(w http.ResponseWriter) {
	dst := w.Header()
	for k, vs := range c.header {
		dst[k] = append([]string(nil), vs...)
	}
	if c.cacheable() {
		dst.Set(CacheStatusHeader, CacheMiss)
	}
	w.WriteHeader(c.status)
	_, _ = w.Write(c.body.Bytes())
}
