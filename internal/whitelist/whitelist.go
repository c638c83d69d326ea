package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender address ends with a trusted suffix
type Checker struct {
	suffixes []string
	logger   *zap.Logger
}

// NewChecker creates a new trusted sender checker. Suffixes such as "@abcchem.com" are matched case-insensitively.
func NewChecker(suffixes []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		s := strings.ToLower(strings.TrimSpace(suffix))
		if s != "" {
			normalized = append(normalized, s)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized trusted sender checker", zap.Strings("suffixes", normalized))
	}

	return &Checker{
		suffixes: normalized,
		logger:   logger,
	}
}

// IsTrusted checks if the sender ends with one of the trusted suffixes
func (c *Checker) IsTrusted(sender string) bool {
	addr := strings.ToLower(strings.TrimSpace(sender))
	if addr == "" {
		return false
	}

	for _, suffix := range c.suffixes {
		if strings.HasSuffix(addr, suffix) {
			if c.logger != nil {
				c.logger.Debug("Sender is trusted",
					zap.String("suffix", suffix),
					zap.String("sender", sender))
			}
			return true
		}
	}

	return false
}
