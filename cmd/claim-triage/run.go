package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/adapters/batch"
	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/di"
)

var (
	inputPath  string
	outputPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Triage a batch of claim emails",
	Long: `Run reads claim emails from a JSON array or JSON Lines file, triages each
one independently and writes the resulting bundles as a JSON array.

Example:
  claim-triage run --input data/raw/emails_abc_chem.jsonl --output data/out/run_summary.json
  claim-triage run --input emails.json --no-provider --records-file records.json`,
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "claim emails (JSON array or JSONL); default pipeline.input_path")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "bundle output file; default pipeline.output_path")
	runCmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, "number of concurrent workers; default pipeline.workers")
	runCmd.Flags().BoolVar(&flags.NoProvider, "no-provider", false, "use pattern extraction only")
	runCmd.Flags().StringVar(&flags.RecordsFile, "records-file", "", "JSON records fixture used instead of the database")
	runCmd.Flags().StringVar(&flags.CacheType, "cache", "", "extraction cache type (memory, sqlite, mysql, redis, file, none)")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return container.Invoke(func(
		logger *zap.Logger,
		cfg *config.Config,
		runner *batch.Runner,
		closers *di.Closers,
	) error {
		defer logger.Sync()
		defer closers.Close()

		pipelineCfg := cfg.GetPipeline()
		in := firstNonEmpty(inputPath, pipelineCfg.InputPath)
		out := firstNonEmpty(outputPath, pipelineCfg.OutputPath)

		summary, err := runner.RunFile(ctx, in, out)
		if err != nil {
			logger.Error("Batch run failed", zap.Error(err), zap.String("input", in))
			return err
		}
		if summary.Failed > 0 || summary.Skipped > 0 {
			logger.Warn("Some emails could not be triaged",
				zap.Int("failed", summary.Failed),
				zap.Int("skipped", summary.Skipped))
		}
		return nil
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
