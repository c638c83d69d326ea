package config

import (
	"time"

	"github.com/mikey/claim-triage/internal/core"
)

// LLMConfig represents the configuration for the extraction provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	Profile     string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI and compatible endpoints
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// CacheConfig represents the configuration for the extraction cache
type CacheConfig struct {
	Type          string
	TTL           time.Duration
	CleanupFreq   time.Duration
	SQLitePath    string
	MySQLDSN      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	FilePath      string
}

// RecordsConfig represents the configuration for the transaction record store
type RecordsConfig struct {
	Type        string
	FixturePath string
	Postgres    PostgresConfig
}

// PostgresConfig represents the connection settings of the record database
type PostgresConfig struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	MaxConns       int
	ConnectTimeout time.Duration
}

// PipelineConfig represents the batch run configuration
type PipelineConfig struct {
	Workers    int
	InputPath  string
	OutputPath string
}

// IntakeConfig represents the SMTP intake configuration
type IntakeConfig struct {
	ListenAddress string
	OutputPath    string
	Timeout       time.Duration
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		Profile:     c.GetString("bedrock.profile"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:          c.GetString("cache.type"),
		TTL:           c.durationOr("cache.ttl", 0),
		CleanupFreq:   c.durationOr("cache.cleanup_frequency", time.Hour),
		SQLitePath:    c.GetString("cache.sqlite_path"),
		MySQLDSN:      c.GetString("cache.mysql_dsn"),
		RedisAddr:     c.GetString("cache.redis_addr"),
		RedisPassword: c.GetString("cache.redis_password"),
		RedisDB:       c.GetInt("cache.redis_db"),
		RedisPrefix:   c.GetString("cache.redis_prefix"),
		FilePath:      c.GetString("cache.file_path"),
	}
}

// GetRecords returns the record store configuration
func (c *Config) GetRecords() RecordsConfig {
	return RecordsConfig{
		Type:        c.GetString("records.type"),
		FixturePath: c.GetString("records.fixture_path"),
		Postgres: PostgresConfig{
			Host:           c.GetString("records.postgres.host"),
			Port:           c.GetInt("records.postgres.port"),
			Database:       c.GetString("records.postgres.database"),
			User:           c.GetString("records.postgres.user"),
			Password:       c.GetString("records.postgres.password"),
			SSLMode:        c.GetString("records.postgres.ssl_mode"),
			MaxConns:       c.GetInt("records.postgres.max_conns"),
			ConnectTimeout: c.durationOr("records.postgres.connect_timeout", 5*time.Second),
		},
	}
}

// GetPipeline returns the batch run configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		Workers:    c.GetInt("pipeline.workers"),
		InputPath:  c.GetString("pipeline.input_path"),
		OutputPath: c.GetString("pipeline.output_path"),
	}
}

// GetIntake returns the SMTP intake configuration
func (c *Config) GetIntake() IntakeConfig {
	return IntakeConfig{
		ListenAddress: c.GetString("intake.listen_address"),
		OutputPath:    c.GetString("intake.output_path"),
		Timeout:       c.durationOr("intake.timeout", time.Minute),
	}
}

// GetMetricsAddress returns the listen address of the metrics endpoint
func (c *Config) GetMetricsAddress() string {
	return c.GetString("metrics.listen_address")
}

// GetNormalizerOptions returns the claim normalizer options
func (c *Config) GetNormalizerOptions() core.NormalizerOptions {
	return core.NormalizerOptions{
		UseProviderIfIncomplete:   c.GetBool("extraction.use_provider_if_incomplete"),
		PatternConfidence:         c.GetFloat64("extraction.pattern_confidence"),
		DefaultProviderConfidence: c.GetFloat64("extraction.default_provider_confidence"),
	}
}

// GetVerifierOptions returns the record verifier options
func (c *Config) GetVerifierOptions() core.VerifierOptions {
	return core.VerifierOptions{
		AmountTolerance: c.GetFloat64("verification.amount_tolerance"),
	}
}

// GetScoringPolicy returns the suspicion scoring policy
func (c *Config) GetScoringPolicy() core.ScoringPolicy {
	return core.ScoringPolicy{
		ContradictionIncrement:   c.GetFloat64("scoring.contradiction_increment"),
		MissingInvoiceIncrement:  c.GetFloat64("scoring.missing_invoice_increment"),
		UntrustedSenderIncrement: c.GetFloat64("scoring.untrusted_sender_increment"),
		HoldThreshold:            c.GetFloat64("scoring.hold_threshold"),
		RequestDocsThreshold:     c.GetFloat64("scoring.request_docs_threshold"),
	}
}

// GetTrustedSenders returns the trusted sender address suffixes
func (c *Config) GetTrustedSenders() []string {
	return c.GetStringSlice("scoring.trusted_sender_suffixes")
}

// durationOr parses key as a duration, falling back when it is unset or invalid
func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil {
		return fallback
	}
	return d
}
