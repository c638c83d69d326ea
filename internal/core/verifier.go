package core

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/metrics"
)

// VerifierOptions holds the tunable values of the record verifier
type VerifierOptions struct {
	// AmountTolerance is the largest claimed/invoice difference that is not a mismatch
	AmountTolerance float64
}

// DefaultVerifierOptions returns the standard options
func DefaultVerifierOptions() VerifierOptions {
	return VerifierOptions{AmountTolerance: 1.0}
}

// RecordVerifier cross-checks extracted claim facts against the record store
type RecordVerifier struct {
	store  RecordStore
	opts   VerifierOptions
	logger *zap.Logger
}

// NewRecordVerifier creates a new record verifier
func NewRecordVerifier(store RecordStore, opts VerifierOptions, logger *zap.Logger) *RecordVerifier {
	return &RecordVerifier{
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

// Verify looks up the referenced records and detects contradictions.
// Store failures never surface: they yield an offline result with no evidence.
func (v *RecordVerifier) Verify(ctx context.Context, ext *ExtractionResult) *VerificationResult {
	session, err := v.store.Acquire(ctx)
	if err != nil {
		metrics.StoreLookups.WithLabelValues("unavailable").Inc()
		v.logger.Warn("Record store unreachable, verifying offline", zap.Error(err))
		return offlineResult()
	}
	defer session.Release()

	out, err := v.lookup(ctx, session, ext)
	if err != nil {
		metrics.StoreLookups.WithLabelValues("error").Inc()
		v.logger.Warn("Record lookup failed, verifying offline", zap.Error(err))
		return offlineResult()
	}
	metrics.StoreLookups.WithLabelValues("success").Inc()

	if ext.ClaimType == ClaimNotReceived && out.GRNExists {
		out.Contradictions = append(out.Contradictions, ContradictionNotReceivedButGRN)
	}
	if amountsDiffer(ext.ClaimedAmount, out.InvoiceAmount, v.opts.AmountTolerance) {
		out.Contradictions = append(out.Contradictions, ContradictionAmountMismatch)
	}
	return out
}

func (v *RecordVerifier) lookup(ctx context.Context, session RecordSession, ext *ExtractionResult) (*VerificationResult, error) {
	out := emptyResult()

	if ext.InvoiceNumber != nil {
		inv, err := session.FindInvoice(ctx, *ext.InvoiceNumber)
		switch {
		case errors.Is(err, ErrRecordNotFound):
		case err != nil:
			return nil, err
		default:
			out.InvoiceExists = true
			id := inv.ID
			status := inv.Status
			out.InvoiceID = &id
			out.InvoiceAmount = inv.Amount
			out.InvoiceStatus = &status
		}
	}

	if ext.PONumber != nil {
		po, err := session.FindPurchaseOrder(ctx, *ext.PONumber)
		switch {
		case errors.Is(err, ErrRecordNotFound):
		case err != nil:
			return nil, err
		default:
			out.POExists = true
			id := po.ID
			out.POID = &id

			receipts, err := session.FindGoodsReceipts(ctx, po.ID)
			if err != nil && !errors.Is(err, ErrRecordNotFound) {
				return nil, err
			}
			if len(receipts) > 0 {
				out.GRNExists = true
				for _, r := range receipts {
					out.GRNIDs = append(out.GRNIDs, r.ID)
				}
			}
		}
	}
	return out, nil
}

// amountsDiffer reports a mismatch only when both amounts are usable numbers
func amountsDiffer(claimed, invoice *float64, tolerance float64) bool {
	if claimed == nil || invoice == nil {
		return false
	}
	diff := math.Abs(*claimed - *invoice)
	if math.IsNaN(diff) || math.IsInf(diff, 0) {
		return false
	}
	return diff > tolerance
}

func emptyResult() *VerificationResult {
	return &VerificationResult{
		GRNIDs:         []int64{},
		Contradictions: []string{},
	}
}

func offlineResult() *VerificationResult {
	out := emptyResult()
	out.Offline = true
	return out
}
