package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/dominiq/maturity-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration, required only when a postgres backend is selected
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	DBSchema            string        `env:"DB_SCHEMA" envDefault:"public"`
	RunMigrations       bool          `env:"RUN_MIGRATIONS" envDefault:"true"`

	// External service configurations
	LLMConnectorCfg LLMConnectorConfig `envPrefix:"LLM_"`

	// Survey state and catalog storage
	BlobStoreCfg BlobStoreConfig `envPrefix:"BLOB_"`
	CatalogCfg   CatalogConfig   `envPrefix:"CATALOG_"`
	SurveyCfg    SurveyConfig    `envPrefix:"SURVEY_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type LLMProvider string

const (
	LLMProviderSAIA   LLMProvider = "saia"
	LLMProviderOpenAI LLMProvider = "openai"
)

type LLMConnectorConfig struct {
	HTTPClientConfig
	Provider            LLMProvider          `env:"PROVIDER" envDefault:"saia"`
	CompletionsEndpoint string               `env:"COMPLETIONS_ENDPOINT" envDefault:"/chat/completions"`
	Model               string               `env:"MODEL,notEmpty"`
	Revision            int                  `env:"REVISION" envDefault:"1"`
	Retry               pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"10s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

type BlobBackend string

const (
	BlobBackendPostgres BlobBackend = "postgres"
	BlobBackendSQLite   BlobBackend = "sqlite"
	BlobBackendMemory   BlobBackend = "memory"
)

// BlobStoreConfig selects where serialized survey states live
type BlobStoreConfig struct {
	Backend    BlobBackend   `env:"BACKEND" envDefault:"postgres"`
	KeySuffix  string        `env:"KEY_SUFFIX"`
	SQLitePath string        `env:"SQLITE_PATH" envDefault:"data/survey_state.db"`
	Retention  time.Duration `env:"RETENTION" envDefault:"168h"`
}

type CatalogSource string

const (
	CatalogSourcePostgres CatalogSource = "postgres"
	CatalogSourceFile     CatalogSource = "file"
)

type CatalogConfig struct {
	Source   CatalogSource `env:"SOURCE" envDefault:"postgres"`
	FilePath string        `env:"FILE_PATH" envDefault:"internal/config/catalog.yaml"`
}

// SurveyConfig holds the fixed replies the engine uses when it cannot ask the assistant
type SurveyConfig struct {
	ApologyMessage    string `env:"APOLOGY_MESSAGE" envDefault:"I apologize, but I couldn't generate a response at this time. Please try again."`
	CompletionMessage string `env:"COMPLETION_MESSAGE" envDefault:"There are no questions available for this assessment, so the survey is already complete. Thank you!"`
	RecordAnswers     bool   `env:"RECORD_ANSWERS" envDefault:"true"`
	MaxInputLength    int    `env:"MAX_INPUT_LENGTH" envDefault:"4000"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// NeedsDatabase reports whether any selected backend talks to postgres
func (c *Config) NeedsDatabase() bool {
	if c.EnableMocks {
		return c.BlobStoreCfg.Backend == BlobBackendPostgres
	}
	return c.BlobStoreCfg.Backend == BlobBackendPostgres ||
		c.CatalogCfg.Source == CatalogSourcePostgres ||
		c.SurveyCfg.RecordAnswers
}

func validateConfig(cfg *Config) error {
	var errors []string

	switch cfg.LLMConnectorCfg.Provider {
	case LLMProviderSAIA, LLMProviderOpenAI:
	default:
		errors = append(errors, fmt.Sprintf("LLM_PROVIDER must be one of saia, openai, got %q", cfg.LLMConnectorCfg.Provider))
	}

	if cfg.LLMConnectorCfg.Retry.Attempts < 1 || cfg.LLMConnectorCfg.Retry.Attempts > 10 {
		errors = append(errors, fmt.Sprintf("LLM_RETRY_ATTEMPTS must be between 1 and 10, got %d", cfg.LLMConnectorCfg.Retry.Attempts))
	}

	switch cfg.BlobStoreCfg.Backend {
	case BlobBackendPostgres, BlobBackendSQLite, BlobBackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("BLOB_BACKEND must be one of postgres, sqlite, memory, got %q", cfg.BlobStoreCfg.Backend))
	}

	if cfg.BlobStoreCfg.Backend == BlobBackendSQLite && cfg.BlobStoreCfg.SQLitePath == "" {
		errors = append(errors, "BLOB_SQLITE_PATH must be set for the sqlite backend")
	}

	switch cfg.CatalogCfg.Source {
	case CatalogSourcePostgres, CatalogSourceFile:
	default:
		errors = append(errors, fmt.Sprintf("CATALOG_SOURCE must be one of postgres, file, got %q", cfg.CatalogCfg.Source))
	}

	if cfg.NeedsDatabase() && cfg.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL must be set when a postgres backend is used")
	}

	// Validate Database configuration
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
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
