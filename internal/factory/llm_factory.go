package factory

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/adapters/bedrock"
	"github.com/mikey/claim-triage/internal/adapters/gemini"
	"github.com/mikey/claim-triage/internal/adapters/openai"
	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/core"
	"github.com/mikey/claim-triage/internal/utils"
)

// LLMFactory creates the extraction provider capability
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateCapability creates the configured provider. A provider without
// credentials is reported as unavailable rather than failing startup.
func (f *LLMFactory) CreateCapability() (core.Capability, error) {
	provider := strings.ToLower(f.cfg.GetLLM().Provider)

	var (
		p   core.ExtractionProvider
		err error
	)
	switch provider {
	case "", "none", "disabled":
		return core.Unavailable("no extraction provider configured"), nil
	case "bedrock":
		p, err = bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateProvider()
	case "gemini":
		p, err = gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateProvider()
	case "openai":
		p, err = openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateProvider()
	default:
		return core.Capability{}, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	if err != nil {
		if errors.Is(err, core.ErrProviderUnavailable) {
			f.logger.Warn("Extraction provider unavailable, using pattern extraction only",
				zap.String("provider", provider),
				zap.Error(err))
			return core.Unavailable(err.Error()), nil
		}
		return core.Capability{}, err
	}

	f.logger.Info("Extraction provider configured", zap.String("provider", p.Name()))
	return core.Available(p), nil
}
