package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/logging"
)

// Flags contains the command line flags shared by all commands
type Flags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Provider overrides llm.provider when set
	Provider string
	// NoProvider disables external extraction
	NoProvider bool
	// Workers overrides pipeline.workers when positive
	Workers int
	// RecordsFile switches to the in-memory record store loaded from a JSON fixture
	RecordsFile string
	// CacheType overrides cache.type when set
	CacheType string
}

// BuildCLIContainer creates the container for the batch and single-message commands.
// Logs go to the console regardless of the configured format.
func BuildCLIContainer(flags *Flags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *Flags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *Flags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *Flags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.New(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		ApplyFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideTriage(container); err != nil {
		return nil, err
	}

	return container, nil
}

// ApplyFlags overrides configuration values with the command line flags that were set
func ApplyFlags(cfg *config.Config, flags *Flags) {
	if flags == nil {
		return
	}
	if flags.Provider != "" {
		cfg.Set("llm.provider", flags.Provider)
	}
	if flags.NoProvider {
		cfg.Set("extraction.use_provider_if_incomplete", false)
	}
	if flags.Workers > 0 {
		cfg.Set("pipeline.workers", flags.Workers)
	}
	if flags.RecordsFile != "" {
		cfg.Set("records.type", "memory")
		cfg.Set("records.fixture_path", flags.RecordsFile)
	}
	if flags.CacheType != "" {
		cfg.Set("cache.type", flags.CacheType)
	}
	if flags.Verbose {
		cfg.Set("logging.level", "debug")
	}
	if flags.JSONLog {
		cfg.Set("logging.format", "json")
	}
}
