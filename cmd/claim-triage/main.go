package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mikey/claim-triage/internal/di"
)

var flags = &di.Flags{}

var rootCmd = &cobra.Command{
	Use:   "claim-triage",
	Short: "Triage vendor claim emails against transaction records",
	Long: `claim-triage extracts invoice and purchase order references from vendor
claim emails, checks them against the transaction record store and scores
how suspicious each claim is.

Every claim ends in one of AUTO_APPROVE, REQUEST_DOCS or HOLD_PAYMENT.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "config file (default: search /etc/claim-triage, $HOME/.claim-triage, ./configs, .)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.JSONLog, "json-log", false, "output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&flags.Provider, "provider", "", "extraction provider (openai, gemini, bedrock, none)")

	rootCmd.AddCommand(runCmd, serveCmd, scoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
