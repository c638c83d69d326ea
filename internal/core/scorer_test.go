package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestScorer() *SuspicionScorer {
	return NewSuspicionScorer(DefaultScoringPolicy(), suffixTrust("@abcchem.com"))
}

func TestScoreClean(t *testing.T) {
	s := newTestScorer()
	got := s.Score(
		&ExtractionResult{InvoiceNumber: strPtr("INV-4521"), Confidence: 0.9},
		&VerificationResult{InvoiceExists: true},
		"ap@abcchem.com",
	)
	assert.Equal(t, 0.1, got.Score)
	assert.Equal(t, ActionAutoApprove, got.Action)
	assert.Empty(t, got.Reasons)
	assert.NotNil(t, got.Reasons)
}

func TestScoreReasonsInOrder(t *testing.T) {
	s := newTestScorer()
	got := s.Score(
		&ExtractionResult{InvoiceNumber: strPtr("INV-4521"), Confidence: 0.6},
		&VerificationResult{Contradictions: []string{ContradictionNotReceivedButGRN}},
		"a@other.com",
	)
	assert.Equal(t, 1.0, got.Score)
	assert.Equal(t, ActionHoldPayment, got.Action)
	assert.Equal(t, []string{ContradictionNotReceivedButGRN, ReasonInvoiceMissing, ReasonNonStandardSender}, got.Reasons)
}

func TestScoreNonStandardSender(t *testing.T) {
	s := newTestScorer()
	ext := &ExtractionResult{Confidence: 0.9}
	ver := &VerificationResult{}

	trusted := s.Score(ext, ver, "billing@abcchem.com")
	other := s.Score(ext, ver, "a@other.com")

	assert.NotContains(t, trusted.Reasons, ReasonNonStandardSender)
	assert.Contains(t, other.Reasons, ReasonNonStandardSender)
	assert.InDelta(t, trusted.Score+0.15, other.Score, 1e-9)
}

func TestScoreEmptySenderIsNotPenalized(t *testing.T) {
	got := newTestScorer().Score(&ExtractionResult{Confidence: 0.9}, &VerificationResult{}, "")
	assert.Empty(t, got.Reasons)
	assert.Equal(t, 0.1, got.Score)
}

func TestScoreContradictionLowerBound(t *testing.T) {
	s := newTestScorer()
	for _, conf := range []float64{0, 0.2, 0.5, 0.6, 0.9, 1} {
		got := s.Score(
			&ExtractionResult{Confidence: conf},
			&VerificationResult{Contradictions: []string{ContradictionAmountMismatch}},
			"ap@abcchem.com",
		)
		want := 1 - conf + 0.35
		if want > 1 {
			want = 1
		}
		assert.GreaterOrEqual(t, got.Score+1e-9, want)
	}
}

func TestScoreIsBoundedAndMonotonic(t *testing.T) {
	s := newTestScorer()
	for _, conf := range []float64{-0.5, 0, 0.3, 0.6, 1, 1.5} {
		base := s.Score(&ExtractionResult{Confidence: conf, InvoiceNumber: strPtr("INV-1")}, &VerificationResult{InvoiceExists: true}, "x@abcchem.com")
		worse := []*ScoreResult{
			s.Score(&ExtractionResult{Confidence: conf, InvoiceNumber: strPtr("INV-1")}, &VerificationResult{InvoiceExists: true, Contradictions: []string{ContradictionAmountMismatch}}, "x@abcchem.com"),
			s.Score(&ExtractionResult{Confidence: conf, InvoiceNumber: strPtr("INV-1")}, &VerificationResult{}, "x@abcchem.com"),
			s.Score(&ExtractionResult{Confidence: conf, InvoiceNumber: strPtr("INV-1")}, &VerificationResult{InvoiceExists: true}, "x@other.com"),
		}
		assert.GreaterOrEqual(t, base.Score, 0.0)
		assert.LessOrEqual(t, base.Score, 1.0)
		for _, w := range worse {
			assert.GreaterOrEqual(t, w.Score, base.Score)
			assert.LessOrEqual(t, w.Score, 1.0)
		}
	}
}

func TestActionForThresholds(t *testing.T) {
	s := newTestScorer()
	tests := []struct {
		score float64
		want  Action
	}{
		{1, ActionHoldPayment},
		{0.75, ActionHoldPayment},
		{0.749, ActionRequestDocs},
		{0.35, ActionRequestDocs},
		{0.349, ActionAutoApprove},
		{0, ActionAutoApprove},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.ActionFor(tt.score), "score %v", tt.score)
	}
}

func TestScoreRoundsToThreeDecimals(t *testing.T) {
	got := newTestScorer().Score(&ExtractionResult{Confidence: 0.12345}, &VerificationResult{}, "")
	assert.Equal(t, 0.877, got.Score)
	assert.Equal(t, ActionHoldPayment, got.Action)
}
