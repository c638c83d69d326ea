package batch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/core"
)

// Summary describes a finished batch run
type Summary struct {
	RunID     string                         `json:"run_id"`
	Total     int                            `json:"total"`
	Processed int                            `json:"processed"`
	Failed    int                            `json:"failed"`
	Skipped   int                            `json:"skipped"`
	Actions   map[core.Action]int            `json:"actions"`
	ByLabel   map[string]map[core.Action]int `json:"by_label,omitempty"`
	Duration  time.Duration                  `json:"duration"`
}

// Runner triages a file of claim emails
type Runner struct {
	pipeline *core.Pipeline
	workers  int
	logger   *zap.Logger
}

// NewRunner creates a batch runner using workers concurrent pipeline workers
func NewRunner(pipeline *core.Pipeline, workers int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		pipeline: pipeline,
		workers:  workers,
		logger:   logger,
	}
}

// RunFile reads inputPath, triages every email and writes the bundles to outputPath
func (r *Runner) RunFile(ctx context.Context, inputPath, outputPath string) (*Summary, error) {
	emails, bad, err := ReadFile(inputPath)
	if err != nil {
		return nil, err
	}

	bundles, summary, err := r.run(ctx, emails, bad)
	if err != nil {
		return summary, err
	}

	if err := WriteFile(outputPath, bundles); err != nil {
		return summary, err
	}
	r.logger.Info("Summary written", zap.String("path", outputPath), zap.String("run_id", summary.RunID))
	return summary, nil
}

// Run triages emails and returns the bundles of the successful ones in input order.
// Failed emails are logged and counted; they never abort the run.
func (r *Runner) Run(ctx context.Context, emails []core.ClaimEmail) ([]*core.Bundle, *Summary, error) {
	return r.run(ctx, emails, nil)
}

func (r *Runner) run(ctx context.Context, emails []core.ClaimEmail, bad []*RecordError) ([]*core.Bundle, *Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:   uuid.NewString(),
		Total:   len(emails) + len(bad),
		Skipped: len(bad),
		Actions: make(map[core.Action]int),
		ByLabel: make(map[string]map[core.Action]int),
	}

	logger := r.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("Starting batch run", zap.Int("emails", len(emails)), zap.Int("workers", r.workers))
	for _, rerr := range bad {
		logger.Warn("Skipping undecodable record",
			zap.Int("position", rerr.Position),
			zap.Error(rerr.Err))
	}

	bundles := make([]*core.Bundle, 0, len(emails))
	for _, outcome := range r.pipeline.ProcessBatch(ctx, emails, r.workers) {
		if outcome.Err != nil {
			summary.Failed++
			logger.Error("Failed to process email",
				zap.String("email_id", outcome.Email.ID),
				zap.Error(outcome.Err))
			continue
		}

		b := outcome.Bundle
		summary.Processed++
		summary.Actions[b.Score.Action]++
		if b.Label != "" {
			if summary.ByLabel[b.Label] == nil {
				summary.ByLabel[b.Label] = make(map[core.Action]int)
			}
			summary.ByLabel[b.Label][b.Score.Action]++
		}
		bundles = append(bundles, b)

		logger.Debug("Processed email",
			zap.String("email_id", b.EmailID),
			zap.String("subject", b.Subject),
			zap.Float64("score", b.Score.Score),
			zap.String("action", string(b.Score.Action)))
	}

	if err := r.pipeline.Finish(ctx); err != nil {
		// bundles are still valid, only the cache persistence failed
		logger.Warn("Failed to finish pipeline", zap.Error(err))
	}

	summary.Duration = time.Since(start)
	r.logSummary(logger, summary)

	if ctx.Err() != nil {
		return bundles, summary, fmt.Errorf("batch run interrupted: %w", ctx.Err())
	}
	return bundles, summary, nil
}

func (r *Runner) logSummary(logger *zap.Logger, s *Summary) {
	logger.Info("Batch run finished",
		zap.Int("total", s.Total),
		zap.Int("processed", s.Processed),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
		zap.Int("auto_approve", s.Actions[core.ActionAutoApprove]),
		zap.Int("request_docs", s.Actions[core.ActionRequestDocs]),
		zap.Int("hold_payment", s.Actions[core.ActionHoldPayment]),
		zap.Duration("duration", s.Duration))

	labels := make([]string, 0, len(s.ByLabel))
	for label := range s.ByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		counts := s.ByLabel[label]
		logger.Info("Label breakdown",
			zap.String("label", label),
			zap.Int("auto_approve", counts[core.ActionAutoApprove]),
			zap.Int("request_docs", counts[core.ActionRequestDocs]),
			zap.Int("hold_payment", counts[core.ActionHoldPayment]))
	}
}
