package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// ClientConfig sizes the connection pool. Most API reads are served from the
// response cache, so the pool is kept small and sized for cache misses and
// writes rather than for peak request rate.
type ClientConfig struct {
	DSN string
	// AppName is reported as application_name and labels the pool metrics.
	AppName           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultClientConfig returns pool settings for the named process.
func DefaultClientConfig(dsn, appName string) ClientConfig {
	return ClientConfig{
		DSN:               dsn,
		AppName:           appName,
		MaxConns:          10,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   15 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

func (cfg ClientConfig) poolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > poolConfig.MaxConns {
		return nil, fmt.Errorf("min conns %d exceeds max conns %d", cfg.MinConns, poolConfig.MaxConns)
	}
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.AppName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	return poolConfig, nil
}

// Client wraps a PostgreSQL connection pool.
type Client struct {
	pool    *pgxpool.Pool
	appName string
}

// NewClient creates the pool and pings the database once.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	poolConfig, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{pool: pool, appName: cfg.AppName}, nil
}

// Pool returns the underlying connection pool for repositories.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Ping is used by the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// RegisterMetrics exports pool usage as gauges. A cold cache shows up here
// first as acquired connections climb toward the maximum.
func (c *Client) RegisterMetrics(reg prometheus.Registerer) error {
	labels := prometheus.Labels{"app": c.appName}
	gauges := []struct {
		name string
		help string
		fn   func(*pgxpool.Stat) float64
	}{
		{"clipshare_db_pool_acquired_conns", "Connections currently checked out of the pool.",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }},
		{"clipshare_db_pool_idle_conns", "Idle connections held by the pool.",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }},
		{"clipshare_db_pool_max_conns", "Configured pool size.",
			func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }},
		{"clipshare_db_pool_empty_acquires_total", "Acquires that had to wait for a connection.",
			func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }},
	}

	for _, g := range gauges {
		fn := g.fn
		collector := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        g.name,
			Help:        g.help,
			ConstLabels: labels,
		}, func() float64 { return fn(c.pool.Stat()) })
		if err := reg.Register(collector); err != nil {
			return fmt.Errorf("register %s: %w", g.name, err)
		}
	}
	return nil
}

// Close closes all connections in the pool.
func (c *Client) Close() {
	c.pool.Close()
}
