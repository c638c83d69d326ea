package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCheckerIsTrusted(t *testing.T) {
	c := NewChecker([]string{"@abcchem.com", "  ", "@Partner.IN"}, zap.NewNop())

	tests := []struct {
		sender string
		want   bool
	}{
		{"ap@abcchem.com", true},
		{"AP@ABCCHEM.COM", true},
		{" billing@partner.in ", true},
		{"a@other.com", false},
		{"abcchem.com@evil.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTrusted(tt.sender))
		})
	}
}

func TestCheckerWithoutSuffixesTrustsNobody(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.False(t, c.IsTrusted("ap@abcchem.com"))
}

func TestCheckerLogsSuffixes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewChecker([]string{"@abcchem.com"}, zap.New(core))

	entries := logs.FilterMessage("Initialized trusted sender checker").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, []interface{}{"@abcchem.com"}, entries[0].ContextMap()["suffixes"])
	}
}
