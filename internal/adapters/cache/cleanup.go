package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// runCleanup calls cleanup every freq until stopCh is closed
func runCleanup(freq time.Duration, stopCh <-chan struct{}, cleanup func(context.Context) error, logger *zap.Logger) {
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := cleanup(context.Background()); err != nil {
				logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}

// expiresAt returns the unix expiry for an entry written at now, 0 when ttl disables expiry
func expiresAt(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(ttl).Unix()
}
