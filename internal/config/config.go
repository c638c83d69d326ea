package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. configFile, when set, replaces the search paths.
func New(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/claim-triage/")
		v.AddConfigPath("$HOME/.claim-triage")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// bindEnv enables CLAIM_TRIAGE_ prefixed variables and the conventional OpenAI and libpq names
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CLAIM_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string]string{
		"openai.api_key":            "OPENAI_API_KEY",
		"openai.model_name":         "OPENAI_MODEL",
		"gemini.api_key":            "GEMINI_API_KEY",
		"records.postgres.host":     "PGHOST",
		"records.postgres.port":     "PGPORT",
		"records.postgres.database": "PGDATABASE",
		"records.postgres.user":     "PGUSER",
		"records.postgres.password": "PGPASSWORD",
		"records.postgres.ssl_mode": "PGSSLMODE",
		"pipeline.input_path":       "EMAILS_JSONL",
		"pipeline.output_path":      "OUT_SUMMARY",
	}
	for key, alias := range aliases {
		prefixed := "CLAIM_TRIAGE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, alias)
	}
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Extraction provider defaults
	v.SetDefault("llm.provider", "openai")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 400)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.top_p", 1.0)
	v.SetDefault("openai.max_body_size", 4096)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 400)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.top_p", 1.0)
	v.SetDefault("gemini.max_body_size", 4096)

	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.profile", "")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 400)
	v.SetDefault("bedrock.temperature", 0.0)
	v.SetDefault("bedrock.top_p", 1.0)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Extraction defaults
	v.SetDefault("extraction.use_provider_if_incomplete", true)
	v.SetDefault("extraction.pattern_confidence", 0.6)
	v.SetDefault("extraction.default_provider_confidence", 0.5)

	// Verification defaults
	v.SetDefault("verification.amount_tolerance", 1.0)

	// Scoring defaults
	v.SetDefault("scoring.contradiction_increment", 0.35)
	v.SetDefault("scoring.missing_invoice_increment", 0.30)
	v.SetDefault("scoring.untrusted_sender_increment", 0.15)
	v.SetDefault("scoring.hold_threshold", 0.75)
	v.SetDefault("scoring.request_docs_threshold", 0.35)
	v.SetDefault("scoring.trusted_sender_suffixes", []string{"@abcchem.com"})

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "data/processed/extraction_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/claim_triage")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_prefix", "claim-triage:extraction:")
	v.SetDefault("cache.file_path", "data/processed/extraction_cache.json")

	// Record store defaults
	v.SetDefault("records.type", "postgres")
	v.SetDefault("records.fixture_path", "")
	v.SetDefault("records.postgres.host", "localhost")
	v.SetDefault("records.postgres.port", 5432)
	v.SetDefault("records.postgres.database", "sdrb_db")
	v.SetDefault("records.postgres.user", "sdrb")
	v.SetDefault("records.postgres.password", "sdrbpass")
	v.SetDefault("records.postgres.ssl_mode", "disable")
	v.SetDefault("records.postgres.max_conns", 8)
	v.SetDefault("records.postgres.connect_timeout", "5s")

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.input_path", "data/raw/emails_abc_chem.jsonl")
	v.SetDefault("pipeline.output_path", "data/out/run_summary.json")

	// Intake defaults
	v.SetDefault("intake.listen_address", "0.0.0.0:10025")
	v.SetDefault("intake.output_path", "data/out/intake.jsonl")
	v.SetDefault("intake.timeout", "60s")

	// Metrics defaults
	v.SetDefault("metrics.listen_address", ":9102")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// Set overrides a configuration value
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
