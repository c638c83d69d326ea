package core

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/metrics"
)

// Pipeline runs normalize, verify and score for each claim email
type Pipeline struct {
	normalizer *ClaimNormalizer
	verifier   *RecordVerifier
	scorer     *SuspicionScorer
	cache      ExtractionCache
	logger     *zap.Logger
	now        func() time.Time
}

// NewPipeline creates a new pipeline. cache is only used to flush at the end of a run and may be nil.
func NewPipeline(
	normalizer *ClaimNormalizer,
	verifier *RecordVerifier,
	scorer *SuspicionScorer,
	cache ExtractionCache,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		verifier:   verifier,
		scorer:     scorer,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// Process runs all stages for one email. Only extraction provider failures are returned.
func (p *Pipeline) Process(ctx context.Context, email ClaimEmail) (*Bundle, error) {
	extraction, err := p.normalizer.Normalize(ctx, email.Subject, email.Body)
	if err != nil {
		metrics.ClaimFailures.Inc()
		return nil, fmt.Errorf("normalize email %s: %w", email.ID, err)
	}

	verification := p.verifier.Verify(ctx, extraction)
	score := p.scorer.Score(extraction, verification, email.From)

	metrics.ClaimsProcessed.WithLabelValues(string(score.Action)).Inc()
	metrics.Scores.Observe(score.Score)

	p.logger.Debug("Claim scored",
		zap.String("email_id", email.ID),
		zap.String("claim_type", string(extraction.ClaimType)),
		zap.Bool("invoice_exists", verification.InvoiceExists),
		zap.Strings("contradictions", verification.Contradictions),
		zap.Float64("score", score.Score),
		zap.String("action", string(score.Action)))

	return &Bundle{
		EmailID:      email.ID,
		Subject:      email.Subject,
		Sender:       email.From,
		Label:        email.Label,
		Extraction:   extraction,
		Verification: verification,
		Score:        score,
		ProcessedAt:  p.now(),
	}, nil
}

// Seq lazily processes emails in order. Ranging over it again reprocesses the input.
func (p *Pipeline) Seq(ctx context.Context, emails []ClaimEmail) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		for _, email := range emails {
			if err := ctx.Err(); err != nil {
				if !yield(Outcome{Email: email, Err: err}) {
					return
				}
				continue
			}
			bundle, err := p.Process(ctx, email)
			if !yield(Outcome{Email: email, Bundle: bundle, Err: err}) {
				return
			}
		}
	}
}

// ProcessBatch processes emails on a bounded pool of workers and returns outcomes in input order.
// A failure aborts only the affected email.
func (p *Pipeline) ProcessBatch(ctx context.Context, emails []ClaimEmail, workers int) []Outcome {
	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]Outcome, len(emails))
	jobs := make(chan int, workers*2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				email := emails[i]
				if err := ctx.Err(); err != nil {
					outcomes[i] = Outcome{Email: email, Err: err}
					continue
				}
				bundle, err := p.Process(ctx, email)
				outcomes[i] = Outcome{Email: email, Bundle: bundle, Err: err}
			}
		}()
	}

	for i := range emails {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// Finish persists the extraction cache if it supports flushing
func (p *Pipeline) Finish(ctx context.Context) error {
	flusher, ok := p.cache.(CacheFlusher)
	if !ok {
		return nil
	}
	if err := flusher.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush extraction cache: %w", err)
	}
	return nil
}
