package core

import (
	"math"
	"strings"
)

// ScoringPolicy holds the score increments and action thresholds
type ScoringPolicy struct {
	ContradictionIncrement   float64
	MissingInvoiceIncrement  float64
	UntrustedSenderIncrement float64
	HoldThreshold            float64
	RequestDocsThreshold     float64
}

// DefaultScoringPolicy returns the standard policy
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		ContradictionIncrement:   0.35,
		MissingInvoiceIncrement:  0.30,
		UntrustedSenderIncrement: 0.15,
		HoldThreshold:            0.75,
		RequestDocsThreshold:     0.35,
	}
}

// SenderTrust decides whether a sender address belongs to a trusted domain
type SenderTrust interface {
	IsTrusted(sender string) bool
}

// SuspicionScorer turns extraction and verification signals into a score and action
type SuspicionScorer struct {
	policy  ScoringPolicy
	senders SenderTrust
}

// NewSuspicionScorer creates a new scorer
func NewSuspicionScorer(policy ScoringPolicy, senders SenderTrust) *SuspicionScorer {
	return &SuspicionScorer{
		policy:  policy,
		senders: senders,
	}
}

// Score computes the suspicion score. It performs no I/O.
func (s *SuspicionScorer) Score(ext *ExtractionResult, ver *VerificationResult, sender string) *ScoreResult {
	base := 1.0 - ext.Confidence
	reasons := []string{}

	if len(ver.Contradictions) > 0 {
		base += s.policy.ContradictionIncrement
		reasons = append(reasons, ver.Contradictions...)
	}
	if ext.InvoiceNumber != nil && *ext.InvoiceNumber != "" && !ver.InvoiceExists {
		base += s.policy.MissingInvoiceIncrement
		reasons = append(reasons, ReasonInvoiceMissing)
	}
	if strings.TrimSpace(sender) != "" && !s.senders.IsTrusted(sender) {
		base += s.policy.UntrustedSenderIncrement
		reasons = append(reasons, ReasonNonStandardSender)
	}

	score := math.Round(clamp(base, 0, 1)*1000) / 1000
	return &ScoreResult{
		Score:   score,
		Action:  s.ActionFor(score),
		Reasons: reasons,
	}
}

// ActionFor maps a score to an action using the policy thresholds
func (s *SuspicionScorer) ActionFor(score float64) Action {
	switch {
	case score >= s.policy.HoldThreshold:
		return ActionHoldPayment
	case score >= s.policy.RequestDocsThreshold:
		return ActionRequestDocs
	default:
		return ActionAutoApprove
	}
}
