package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server     ServerConfig
	Worker     WorkerConfig
	Database   DatabaseConfig
	MinIO      MinIOConfig
	RabbitMQ   RabbitMQConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Pagination PaginationConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	UploadURLExpiry time.Duration `envconfig:"API_UPLOAD_URL_EXPIRY" default:"15m"`
}

type WorkerConfig struct {
	TempDir         string        `envconfig:"WORKER_TEMP_DIR" default:"/tmp/clipshare"`
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
	// MetricsPort serves /health, /ready and /metrics. 0 disables it.
	MetricsPort int `envconfig:"WORKER_METRICS_PORT" default:"9091"`
}

type DatabaseConfig struct {
	Host          string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port          int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User          string `envconfig:"POSTGRES_USER" default:"clipshare"`
	Password      string `envconfig:"POSTGRES_PASSWORD" default:"clipshare"`
	DBName        string `envconfig:"POSTGRES_DB" default:"clipshare"`
	SSLMode       string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	AutoMigrate   bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	MigrationsDir string `envconfig:"DB_MIGRATIONS_DIR" default:"migrations"`
	MaxConns      int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns      int32  `envconfig:"DB_MIN_CONNS" default:"2"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type MinIOConfig struct {
	Endpoint       string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string `envconfig:"MINIO_BUCKET" default:"videos"`
	UseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"clipshare"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"clipshare"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	// InvalidationChannel is the pub/sub channel carrying cache invalidation events.
	InvalidationChannel string `envconfig:"REDIS_INVALIDATION_CHANNEL" default:"clipshare:invalidation"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	JWTSecret     string        `envconfig:"JWT_SECRET" required:"true"`
	TokenLifetime time.Duration `envconfig:"JWT_EXPIRES_IN" default:"168h"`
	BcryptCost    int           `envconfig:"BCRYPT_COST" default:"10"`
	// AdminToken guards cache administration. Empty disables the admin routes.
	AdminToken string `envconfig:"ADMIN_TOKEN"`
}

// CacheConfig holds the response cache settings.
// Route TTLs reflect how volatile each endpoint is.
type CacheConfig struct {
	DefaultTTL    time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	SweepInterval time.Duration `envconfig:"CACHE_CHECK_PERIOD" default:"2m"`

	VideoListTTL        time.Duration `envconfig:"CACHE_VIDEO_LIST_TTL" default:"5m"`
	VideoDetailTTL      time.Duration `envconfig:"CACHE_VIDEO_DETAIL_TTL" default:"10m"`
	TrendingTTL         time.Duration `envconfig:"CACHE_TRENDING_TTL" default:"5m"`
	FeedTTL             time.Duration `envconfig:"CACHE_FEED_TTL" default:"2m"`
	FollowListTTL       time.Duration `envconfig:"CACHE_FOLLOW_LIST_TTL" default:"2m"`
	CommentListTTL      time.Duration `envconfig:"CACHE_COMMENT_LIST_TTL" default:"2m"`
	LikeListTTL         time.Duration `envconfig:"CACHE_LIKE_LIST_TTL" default:"2m"`
	SearchTTL           time.Duration `envconfig:"CACHE_SEARCH_TTL" default:"3m"`
	HashtagSearchTTL    time.Duration `envconfig:"CACHE_HASHTAG_SEARCH_TTL" default:"5m"`
	TrendingHashtagsTTL time.Duration `envconfig:"CACHE_TRENDING_HASHTAGS_TTL" default:"10m"`
}

// RateLimitConfig holds fixed-window limits per client IP.
type RateLimitConfig struct {
	Enabled      bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	AuthMax      int           `envconfig:"AUTH_RATE_LIMIT" default:"5"`
	AuthWindow   time.Duration `envconfig:"AUTH_RATE_WINDOW" default:"15m"`
	APIMax       int           `envconfig:"API_RATE_LIMIT" default:"100"`
	APIWindow    time.Duration `envconfig:"API_RATE_WINDOW" default:"15m"`
	UploadMax    int           `envconfig:"UPLOAD_RATE_LIMIT" default:"20"`
	UploadWindow time.Duration `envconfig:"UPLOAD_RATE_WINDOW" default:"1h"`
}

type PaginationConfig struct {
	DefaultLimit int `envconfig:"DEFAULT_PAGINATION_LIMIT" default:"10"`
	MaxLimit     int `envconfig:"MAX_PAGINATION_LIMIT" default:"50"`
}

// Load reads configuration from the environment.
// A .env file in the working directory is applied first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
