package records

import (
	"context"

	"github.com/mikey/claim-triage/internal/core"
)

// OfflineStore is used when no record database is configured. Every claim verifies offline.
type OfflineStore struct{}

// Acquire always fails with core.ErrStoreUnavailable
func (OfflineStore) Acquire(context.Context) (core.RecordSession, error) {
	return nil, core.ErrStoreUnavailable
}
