package di

import (
	"context"
	"os"
	"sync"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/adapters/batch"
	"github.com/mikey/claim-triage/internal/adapters/intake"
	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/core"
	"github.com/mikey/claim-triage/internal/factory"
	"github.com/mikey/claim-triage/internal/logging"
	"github.com/mikey/claim-triage/internal/ports"
	"github.com/mikey/claim-triage/internal/utils"
	"github.com/mikey/claim-triage/internal/whitelist"
)

// Closers collects the shutdown hooks of provided resources
type Closers struct {
	mu  sync.Mutex
	fns []func()
}

// Add registers fn to run on Close
func (c *Closers) Add(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

// Close runs the hooks in reverse registration order
func (c *Closers) Close() {
	c.mu.Lock()
	fns := c.fns
	c.fns = nil
	c.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// BuildContainer creates the container for the long-running SMTP intake.
// Logging is configured from the configuration file.
func BuildContainer(flags *Flags) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *Flags { return flags }); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *Flags) (*config.Config, error) {
		cfg, err := config.New(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		ApplyFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideTriage(container); err != nil {
		return nil, err
	}

	// Register intake output and SMTP intake
	if err := container.Provide(func(cfg *config.Config, closers *Closers) (ports.BundleSink, error) {
		w, err := batch.NewJSONLWriter(cfg.GetIntake().OutputPath)
		if err != nil {
			return nil, err
		}
		closers.Add(func() { _ = w.Close() })
		return w, nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.IntakeFactory, sink ports.BundleSink) *intake.SMTPIntake {
		return f.CreateSMTPIntake(sink)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(i *intake.SMTPIntake) ports.ClaimIntake { return i }); err != nil {
		return nil, err
	}

	return container, nil
}

// provideTriage registers everything from the extraction provider to the pipeline.
// It expects *config.Config and *zap.Logger to be provided.
func provideTriage(container *dig.Container) error {
	if err := container.Provide(func() *Closers { return &Closers{} }); err != nil {
		return err
	}

	// Register text processor and factories
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewRecordsFactory); err != nil {
		return err
	}

	// Register extraction capability
	if err := container.Provide(func(f *factory.LLMFactory, closers *Closers, logger *zap.Logger) (core.Capability, error) {
		capability, err := f.CreateCapability()
		if err != nil {
			return core.Capability{}, err
		}
		if p, ok := capability.Provider(); ok {
			if closer, ok := p.(interface{ Close() error }); ok {
				closers.Add(func() {
					if err := closer.Close(); err != nil {
						logger.Error("Failed to close extraction provider", zap.Error(err))
					}
				})
			}
		}
		return capability, nil
	}); err != nil {
		return err
	}

	// Register extraction cache
	if err := container.Provide(func(f *factory.CacheFactory, closers *Closers) (ports.CacheRepository, error) {
		c, err := f.CreateCacheRepository()
		if err != nil {
			return nil, err
		}
		closers.Add(c.Stop)
		return c, nil
	}); err != nil {
		return err
	}

	// Register record store
	if err := container.Provide(func(f *factory.RecordsFactory, closers *Closers) (core.RecordStore, error) {
		store, closeFn, err := f.CreateRecordStore(context.Background())
		if err != nil {
			return nil, err
		}
		closers.Add(closeFn)
		return store, nil
	}); err != nil {
		return err
	}

	// Register trusted sender checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.SenderTrust {
		return whitelist.NewChecker(cfg.GetTrustedSenders(), logger)
	}); err != nil {
		return err
	}

	// Register pipeline stages
	if err := container.Provide(func(
		capability core.Capability,
		cache ports.CacheRepository,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.ClaimNormalizer {
		return core.NewClaimNormalizer(capability, cache, cfg.GetNormalizerOptions(), logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(store core.RecordStore, cfg *config.Config, logger *zap.Logger) *core.RecordVerifier {
		return core.NewRecordVerifier(store, cfg.GetVerifierOptions(), logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, senders core.SenderTrust) *core.SuspicionScorer {
		return core.NewSuspicionScorer(cfg.GetScoringPolicy(), senders)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(
		normalizer *core.ClaimNormalizer,
		verifier *core.RecordVerifier,
		scorer *core.SuspicionScorer,
		cache ports.CacheRepository,
		logger *zap.Logger,
	) *core.Pipeline {
		return core.NewPipeline(normalizer, verifier, scorer, cache, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(p *core.Pipeline) ports.ClaimProcessor { return p }); err != nil {
		return err
	}

	// Register batch runner and CLI intake
	if err := container.Provide(func(p *core.Pipeline, cfg *config.Config, logger *zap.Logger) *batch.Runner {
		return batch.NewRunner(p, cfg.GetPipeline().Workers, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(p ports.ClaimProcessor, logger *zap.Logger, flags *Flags) *intake.CliIntake {
		return intake.NewCliIntake(p, logger, os.Stdout, flags.Verbose)
	}); err != nil {
		return err
	}

	return nil
}
