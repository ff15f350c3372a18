package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgRetry "github.com/qachat/qa-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbedderCfg EmbedderConnectorConfig `envPrefix:"EMBEDDER_"`
	RephraseCfg RephraseConnectorConfig `envPrefix:"REPHRASE_"`

	// Query resolution tuning
	SearchCfg SearchConfig `envPrefix:"SEARCH_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram relay configuration (used by the bot binary only)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// EmbedderConnectorConfig configures the external embedding service client.
type EmbedderConnectorConfig struct {
	HTTPClientConfig
	EmbedEndpoint  string               `env:"EMBED_ENDPOINT" envDefault:"/embed"`
	HealthEndpoint string               `env:"HEALTH_ENDPOINT" envDefault:"/health"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// RephraseConnectorConfig configures the optional answer-rephrasing service.
// When disabled the resolver returns matched answers verbatim.
type RephraseConnectorConfig struct {
	HTTPClientConfig
	Enabled          bool                 `env:"ENABLED" envDefault:"false"`
	RephraseEndpoint string               `env:"ENDPOINT" envDefault:"/rephrase"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// SearchConfig tunes the query resolver.
type SearchConfig struct {
	TopK                int           `env:"TOP_K" envDefault:"5"`
	MaxTopK             int           `env:"MAX_TOP_K" envDefault:"20"`
	SimilarityThreshold float64       `env:"SIMILARITY_THRESHOLD" envDefault:"0.5"`
	QueryCacheTTL       time.Duration `env:"QUERY_CACHE_TTL" envDefault:"5m"`
}

// TelegramConfig holds the Telegram relay configuration.
type TelegramConfig struct {
	BotToken      string `env:"BOT_TOKEN"`
	UpdateTimeout int    `env:"UPDATE_TIMEOUT" envDefault:"30"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// FileUploadConfig holds dataset upload limits.
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"5242880"`    // 5 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB multipart memory cap
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Missing env file is fine: in containerized environments the variables
	// are set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.SearchCfg.TopK < 1 {
		errs = append(errs, fmt.Sprintf("SEARCH_TOP_K must be at least 1, got %d", cfg.SearchCfg.TopK))
	}
	if cfg.SearchCfg.MaxTopK < cfg.SearchCfg.TopK {
		errs = append(errs, fmt.Sprintf("SEARCH_MAX_TOP_K must be >= SEARCH_TOP_K(%d), got %d", cfg.SearchCfg.TopK, cfg.SearchCfg.MaxTopK))
	}
	if cfg.SearchCfg.SimilarityThreshold < 0 || cfg.SearchCfg.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("SEARCH_SIMILARITY_THRESHOLD must be between 0 and 1, got %g", cfg.SearchCfg.SimilarityThreshold))
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if cfg.FileUploadCfg.MaxFileSize < 1 {
		errs = append(errs, fmt.Sprintf("FILE_UPLOAD_MAX_FILE_SIZE must be positive, got %d", cfg.FileUploadCfg.MaxFileSize))
	}

	if !cfg.EnableMocks && cfg.EmbedderCfg.Url == "" {
		errs = append(errs, "EMBEDDER_SERVICE_URL is required unless ENABLE_MOCKS=true")
	}
	if cfg.RephraseCfg.Enabled && !cfg.EnableMocks && cfg.RephraseCfg.Url == "" {
		errs = append(errs, "REPHRASE_SERVICE_URL is required when rephrasing is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
