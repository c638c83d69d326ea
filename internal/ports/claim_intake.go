package ports

import (
	"context"

	"github.com/mikey/claim-triage/internal/core"
)

// ClaimIntake defines the interface for long-running claim intake services
type ClaimIntake interface {
	// Start starts accepting claim emails
	Start() error

	// Stop stops the intake service
	Stop() error
}

// ClaimProcessor runs one claim email through triage
type ClaimProcessor interface {
	Process(ctx context.Context, email core.ClaimEmail) (*core.Bundle, error)
}

// BundleSink receives triage bundles as they are produced
type BundleSink interface {
	Write(bundle *core.Bundle) error
}
