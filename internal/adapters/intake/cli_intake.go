package intake

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/core"
	"github.com/mikey/claim-triage/internal/ports"
)

// CliIntake triages a single message read from a file or stdin and prints the result
type CliIntake struct {
	processor ports.ClaimProcessor
	logger    *zap.Logger
	out       io.Writer
	verbose   bool
}

// NewCliIntake creates a new CLI intake writing its report to out
func NewCliIntake(processor ports.ClaimProcessor, logger *zap.Logger, out io.Writer, verbose bool) *CliIntake {
	return &CliIntake{
		processor: processor,
		logger:    logger,
		out:       out,
		verbose:   verbose,
	}
}

// ProcessMessage parses r as an RFC 5322 message, triages it and prints a report
func (f *CliIntake) ProcessMessage(ctx context.Context, r io.Reader) (*core.Bundle, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	email, err := ParseClaimMessage(raw, "", nil)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Processing claim email", zap.String("sender", email.From))

	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(f.out, "ID: %s\n", email.ID)
	fmt.Fprintf(f.out, "From: %s\n", email.From)
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := []rune(email.Body)
		if len(preview) > 500 {
			preview = append(preview[:500], []rune("...")...)
		}
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", string(preview))
	}

	startTime := time.Now()
	bundle, err := f.processor.Process(ctx, email)
	if err != nil {
		f.logger.Error("Failed to triage claim email", zap.Error(err))
		return nil, err
	}
	duration := time.Since(startTime)

	ext := bundle.Extraction
	fmt.Fprintf(f.out, "\n=== Extraction ===\n")
	fmt.Fprintf(f.out, "Invoice: %s\n", orDash(ext.InvoiceNumber))
	fmt.Fprintf(f.out, "PO: %s\n", orDash(ext.PONumber))
	if ext.ClaimedAmount != nil {
		fmt.Fprintf(f.out, "Claimed amount: %.2f %s\n", *ext.ClaimedAmount, orDash(ext.Currency))
	}
	fmt.Fprintf(f.out, "Claim type: %s\n", ext.ClaimType)
	fmt.Fprintf(f.out, "Source: %s\n", ext.Origin)
	fmt.Fprintf(f.out, "Confidence: %.2f\n", ext.Confidence)
	fmt.Fprintf(f.out, "Summary: %s\n", ext.IssueSummary)

	ver := bundle.Verification
	fmt.Fprintf(f.out, "\n=== Verification ===\n")
	fmt.Fprintf(f.out, "Invoice exists: %t\n", ver.InvoiceExists)
	fmt.Fprintf(f.out, "PO exists: %t\n", ver.POExists)
	fmt.Fprintf(f.out, "GRN exists: %t\n", ver.GRNExists)
	if ver.Offline {
		fmt.Fprintf(f.out, "Record store: offline\n")
	}

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Suspicious score: %.3f\n", bundle.Score.Score)
	fmt.Fprintf(f.out, "Action: %s\n", bundle.Score.Action)
	fmt.Fprintf(f.out, "Reasons: %s\n", strings.Join(bundle.Score.Reasons, ", "))
	fmt.Fprintf(f.out, "Processing time: %v\n", duration)

	return bundle, nil
}

func orDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
