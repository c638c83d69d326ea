package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/adapters/intake"
	"github.com/mikey/claim-triage/internal/di"
)

var (
	messageFile string
	printJSON   bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Triage a single RFC 5322 message",
	Long: `Score reads one email message from a file or stdin, triages it and prints
the extraction, verification and score.

Example:
  claim-triage score claim.eml
  cat claim.eml | claim-triage score --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: scoreMessage,
}

func init() {
	scoreCmd.Flags().StringVarP(&messageFile, "file", "f", "", "message file (stdin if not specified)")
	scoreCmd.Flags().BoolVar(&printJSON, "json", false, "print the bundle as JSON")
	scoreCmd.Flags().BoolVar(&flags.NoProvider, "no-provider", false, "use pattern extraction only")
	scoreCmd.Flags().StringVar(&flags.RecordsFile, "records-file", "", "JSON records fixture used instead of the database")
}

func scoreMessage(cmd *cobra.Command, args []string) error {
	path := messageFile
	if len(args) == 1 {
		path = args[0]
	}

	var input io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open message: %w", err)
		}
		defer f.Close()
		input = f
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return err
	}

	return container.Invoke(func(logger *zap.Logger, cli *intake.CliIntake, closers *di.Closers) error {
		defer logger.Sync()
		defer closers.Close()

		bundle, err := cli.ProcessMessage(cmd.Context(), input)
		if err != nil {
			return err
		}
		if printJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		}
		return nil
	})
}
