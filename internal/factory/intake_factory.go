package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/adapters/intake"
	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/ports"
)

// IntakeFactory creates claim intake services based on configuration
type IntakeFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	processor ports.ClaimProcessor
}

// NewIntakeFactory creates a new intake factory
func NewIntakeFactory(cfg *config.Config, logger *zap.Logger, processor ports.ClaimProcessor) *IntakeFactory {
	return &IntakeFactory{
		cfg:       cfg,
		logger:    logger,
		processor: processor,
	}
}

// CreateSMTPIntake creates the SMTP intake writing bundles to sink
func (f *IntakeFactory) CreateSMTPIntake(sink ports.BundleSink) *intake.SMTPIntake {
	intakeCfg := f.cfg.GetIntake()
	return intake.NewSMTPIntake(f.processor, sink, f.logger, intakeCfg.ListenAddress, intakeCfg.Timeout)
}
