// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (ORACLE_* prefix, plus DATABASE_URL override)
//  2. Config file (~/.oracle/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, generation model, embedder model
//   - Storage: PostgreSQL connection (see storage.go)
//   - Retrieval: top-k, chunking window
//   - Server: listen address, rate limiting, proxy trust
//
// Security: the PostgreSQL password is never logged. Validation lives in
// validation.go and uses sentinel errors for errors.Is() checks.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// Output is truncated to 768 dimensions to match the chunks table schema;
	// see vecstore.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultModelName is the default generation model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultTopK is the default number of passages retrieved per query.
	DefaultTopK = 4

	// MaxTopK bounds retrieval size to keep the generation context window small.
	MaxTopK = 20
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider"`       // "gemini" (default), "ollama", "openai"
	ModelName     string `mapstructure:"model_name"`     // generation model identifier
	EmbedderModel string `mapstructure:"embedder_model"` // embedding model identifier
	OllamaHost    string `mapstructure:"ollama_host"`    // only used when provider is "ollama"

	// Retrieval configuration
	TopK           int `mapstructure:"top_k"`           // passages retrieved per query
	ChunkSentences int `mapstructure:"chunk_sentences"` // sentences per chunk
	ChunkOverlap   int `mapstructure:"chunk_overlap"`   // sentence overlap between chunks

	// Ingestion staging. Uploads are written under this directory in a
	// per-request unique subdirectory. Empty = os.TempDir().
	StagingDir string `mapstructure:"staging_dir"`

	// Storage configuration (see storage.go for DSN helpers)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// HTTP server configuration
	ListenAddr string `mapstructure:"listen_addr"`
	TrustProxy bool   `mapstructure:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For
	RateBurst  int    `mapstructure:"rate_burst"`  // per-IP rate limiter burst (0 = default)

	// Observability: OTLP trace export (empty endpoint = tracing disabled)
	OtelEndpoint string `mapstructure:"otel_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	Environment  string `mapstructure:"environment"`
}

// Load reads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".oracle"))
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("ORACLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults + env apply.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings (cloud deployments).
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("ollama_host", "http://localhost:11434")

	viper.SetDefault("top_k", DefaultTopK)
	viper.SetDefault("chunk_sentences", 5)
	viper.SetDefault("chunk_overlap", 1)
	viper.SetDefault("staging_dir", "")

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "oracle")
	viper.SetDefault("postgres_password", "oracle_dev_password")
	viper.SetDefault("postgres_db_name", "oracle")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("listen_addr", "127.0.0.1:8000")
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 0)

	viper.SetDefault("otel_endpoint", "")
	viper.SetDefault("service_name", "oracle")
	viper.SetDefault("environment", "dev")
}
