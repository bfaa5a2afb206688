package cache

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/hszk-dev/clipshare/internal/infrastructure/metrics"
)

const (
	DefaultTTL           = 10 * time.Minute
	DefaultSweepInterval = 2 * time.Minute
)

// ErrMalformedPattern is returned when an invalidation pattern does not compile.
var ErrMalformedPattern = errors.New("malformed invalidation pattern")

// StoreConfig holds configuration for the in-memory response store.
type StoreConfig struct {
	DefaultTTL    time.Duration // TTL for Set calls with ttl <= 0
	SweepInterval time.Duration // How often expired entries are reclaimed
}

// Store is a process-wide TTL cache of serialized responses.
//
// Expired entries are invisible to Get even before the sweep reclaims them.
// Values are stored as given; callers must not mutate a slice after Set or
// after receiving it from Get.
type Store struct {
	items         *ttlcache.Cache[string, []byte]
	defaultTTL    time.Duration
	sweepInterval time.Duration

	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewStore creates a Store. Call Start to enable the background sweep.
func NewStore(cfg StoreConfig) *Store {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	items := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](cfg.DefaultTTL),
		// A hit must not extend the entry's lifetime.
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	items.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, _ *ttlcache.Item[string, []byte]) {
		switch reason {
		case ttlcache.EvictionReasonExpired:
			metrics.CacheEvictionsTotal.WithLabelValues(metrics.EvictionExpired).Inc()
		case ttlcache.EvictionReasonDeleted:
			metrics.CacheEvictionsTotal.WithLabelValues(metrics.EvictionDeleted).Inc()
		}
	})

	return &Store{
		items:         items,
		defaultTTL:    cfg.DefaultTTL,
		sweepInterval: cfg.SweepInterval,
		stop:          make(chan struct{}),
	}
}

// Start runs the expiry sweep in the background until Stop is called.
func (s *Store) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.items.DeleteExpired()
				metrics.CacheEntries.Set(float64(s.items.Len()))
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep and waits for it to exit. Entries are kept.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// Get returns the value stored under key if it has not expired.
func (s *Store) Get(key string) ([]byte, bool) {
	item := s.items.Get(key)
	if item == nil || item.IsExpired() {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeMemory).Inc()
		return nil, false
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeMemory).Inc()
	return item.Value(), true
}

// Set inserts or overwrites key and restarts its expiry timer.
// A ttl <= 0 uses the store default.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.items.Set(key, value, ttl)

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeMemory).Inc()
	metrics.CacheEntries.Set(float64(s.items.Len()))
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) {
	s.items.Delete(key)
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeMemory).Inc()
}

// DeleteMatching removes every key in which pattern finds a match and
// returns how many were removed.
//
// Keys are read once up front. Keys inserted while the deletion runs are not
// examined, so a concurrent Set may leave a stale entry behind until it
// expires.
func (s *Store) DeleteMatching(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpInvalidate, metrics.CacheStatusError, metrics.CacheTypeMemory).Inc()
		return 0, fmt.Errorf("%w %q: %v", ErrMalformedPattern, pattern, err)
	}

	removed := 0
	for _, key := range s.items.Keys() {
		if re.MatchString(key) {
			s.items.Delete(key)
			removed++
		}
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpInvalidate, metrics.CacheStatusSuccess, metrics.CacheTypeMemory).Inc()
	metrics.CacheEntries.Set(float64(s.items.Len()))
	return removed, nil
}

// Flush removes all entries.
func (s *Store) Flush() {
	s.items.DeleteAll()
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpFlush, metrics.CacheStatusSuccess, metrics.CacheTypeMemory).Inc()
	metrics.CacheEntries.Set(0)
}

// Len returns the number of entries held, including expired entries that
// have not been swept yet.
func (s *Store) Len() int {
	return s.items.Len()
}
