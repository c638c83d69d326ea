package ports

import "github.com/mikey/claim-triage/internal/core"

// CacheRepository is an extraction cache owned by the process
type CacheRepository interface {
	core.ExtractionCache

	// Stop releases the cache's background tasks and connections
	Stop()
}
