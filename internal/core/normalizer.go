package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/text/unicode/norm"

	"github.com/mikey/claim-triage/internal/metrics"
)

const claimTextLimit = 300

// NormalizerOptions holds the tunable values of the claim normalizer
type NormalizerOptions struct {
	// UseProviderIfIncomplete allows consulting the provider when pattern extraction misses a key
	UseProviderIfIncomplete bool
	// PatternConfidence is the confidence of a pattern-only result
	PatternConfidence float64
	// DefaultProviderConfidence is used when the provider reports no usable confidence
	DefaultProviderConfidence float64
}

// DefaultNormalizerOptions returns the standard options
func DefaultNormalizerOptions() NormalizerOptions {
	return NormalizerOptions{
		UseProviderIfIncomplete:   true,
		PatternConfidence:         0.6,
		DefaultProviderConfidence: 0.5,
	}
}

// ClaimNormalizer merges pattern extraction with optional provider extraction
type ClaimNormalizer struct {
	patterns   *PatternExtractor
	capability Capability
	cache      ExtractionCache
	opts       NormalizerOptions
	logger     *zap.Logger
}

// NewClaimNormalizer creates a new claim normalizer. cache may be nil.
func NewClaimNormalizer(
	capability Capability,
	cache ExtractionCache,
	opts NormalizerOptions,
	logger *zap.Logger,
) *ClaimNormalizer {
	return &ClaimNormalizer{
		patterns:   NewPatternExtractor(),
		capability: capability,
		cache:      cache,
		opts:       opts,
		logger:     logger,
	}
}

// CacheKey returns the content hash used for cached provider output
func CacheKey(subject, body string) string {
	h := sha256.Sum256([]byte(subject + "\n" + body))
	return hex.EncodeToString(h[:])
}

// Normalize produces the canonical extraction for an email
func (n *ClaimNormalizer) Normalize(ctx context.Context, subject, body string) (*ExtractionResult, error) {
	text := norm.NFKC.String(subject + "\n" + body)
	pattern := n.patterns.Extract(text)

	result := &ExtractionResult{
		InvoiceNumber: pattern.InvoiceNumber,
		PONumber:      pattern.PONumber,
		Currency:      pattern.Currency,
		ClaimType:     InferClaimType(body),
		ClaimText:     claimText(body),
		Confidence:    n.opts.PatternConfidence,
		Origin:        SourcePattern,
		FieldSources:  make(map[string]Source),
	}
	if len(pattern.Amounts) > 0 {
		result.ClaimedAmount = floatPtr(pattern.Amounts[0])
	}
	if len(pattern.Amounts) > 1 {
		result.SecondaryAmount = floatPtr(pattern.Amounts[1])
	}
	markPatternSources(result)

	if result.InvoiceNumber != nil && result.PONumber != nil {
		result.IssueSummary = fmt.Sprintf("Extracted invoice %s and PO %s via pattern", *result.InvoiceNumber, *result.PONumber)
		return result, nil
	}

	if !n.opts.UseProviderIfIncomplete {
		result.Incomplete = true
		result.IssueSummary = "Incomplete via pattern; external extraction disabled"
		return result, nil
	}

	provider, ok := n.capability.Provider()
	if !ok {
		n.logger.Debug("External extraction unavailable", zap.String("reason", n.capability.Reason()))
		result.Incomplete = true
		result.IssueSummary = "Incomplete via pattern; external extraction unavailable"
		return result, nil
	}

	external, err := n.providerExtraction(ctx, provider, subject, body)
	if err != nil {
		return nil, err
	}

	n.merge(result, external)
	return result, nil
}

// providerExtraction returns cached provider output or calls the provider once and caches it
func (n *ClaimNormalizer) providerExtraction(ctx context.Context, provider ExtractionProvider, subject, body string) (*ProviderExtraction, error) {
	key := CacheKey(subject, body)

	if n.cache != nil {
		raw, found, err := n.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			n.logger.Warn("Failed to read extraction cache", zap.String("key", key), zap.Error(err))
		case found:
			var cached ProviderExtraction
			if err := json.Unmarshal(raw, &cached); err == nil {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				n.logger.Debug("Extraction cache hit", zap.String("key", key))
				return &cached, nil
			}
			metrics.CacheLookups.WithLabelValues("corrupt").Inc()
			n.logger.Warn("Discarding unreadable cache entry", zap.String("key", key))
			if err := n.cache.Delete(ctx, key); err != nil {
				n.logger.Warn("Failed to evict cache entry", zap.String("key", key), zap.Error(err))
			}
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	out, err := provider.Extract(ctx, subject, body)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("error").Inc()
		return nil, &ExtractionProviderError{Provider: provider.Name(), Err: err}
	}
	if out == nil {
		metrics.ProviderCalls.WithLabelValues("error").Inc()
		return nil, &ExtractionProviderError{Provider: provider.Name(), Err: fmt.Errorf("empty extraction")}
	}
	metrics.ProviderCalls.WithLabelValues("success").Inc()

	if n.cache != nil {
		raw, err := json.Marshal(out)
		if err != nil {
			n.logger.Warn("Failed to encode extraction for cache", zap.Error(err))
		} else if err := n.cache.Put(ctx, key, raw); err != nil {
			n.logger.Error("Failed to update extraction cache", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// merge fills fields the pattern pass left empty. Pattern values always win.
func (n *ClaimNormalizer) merge(result *ExtractionResult, ext *ProviderExtraction) {
	usedPattern := len(result.FieldSources) > 0

	if result.InvoiceNumber == nil {
		if v := nonNil(ext.InvoiceNumber); v != nil {
			if canon, ok := NormalizeInvoiceNumber(*v); ok {
				v = &canon
			}
			result.InvoiceNumber = v
			result.FieldSources[FieldInvoiceNumber] = SourceProvider
		}
	}
	if result.PONumber == nil {
		if v := nonNil(ext.PONumber); v != nil {
			if canon, ok := NormalizePONumber(*v); ok {
				v = &canon
			}
			result.PONumber = v
			result.FieldSources[FieldPONumber] = SourceProvider
		}
	}
	if result.ClaimedAmount == nil {
		if v, ok := CoerceAmount(ext.InvoiceAmount); ok {
			result.ClaimedAmount = floatPtr(v)
			result.FieldSources[FieldClaimedAmount] = SourceProvider
		} else if len(ext.InvoiceAmount) > 0 {
			n.logger.Debug("Ignoring unparseable amount", zap.String("field", FieldClaimedAmount), zap.ByteString("raw", ext.InvoiceAmount))
		}
	}
	if result.SecondaryAmount == nil {
		if v, ok := CoerceAmount(ext.POAmount); ok {
			result.SecondaryAmount = floatPtr(v)
			result.FieldSources[FieldSecondaryAmount] = SourceProvider
		} else if len(ext.POAmount) > 0 {
			n.logger.Debug("Ignoring unparseable amount", zap.String("field", FieldSecondaryAmount), zap.ByteString("raw", ext.POAmount))
		}
	}
	if result.Currency == nil {
		if v := ext.Currency.Value(); v != nil {
			if unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(*v))); err == nil {
				code := unit.String()
				result.Currency = &code
				result.FieldSources[FieldCurrency] = SourceProvider
			}
		}
	}
	if result.SupplierName == nil {
		if v := ext.SupplierName.Value(); v != nil {
			result.SupplierName = v
			result.FieldSources[FieldSupplierName] = SourceProvider
		}
	}
	if v := ext.IssueSummary.Value(); v != nil {
		result.IssueSummary = *v
		result.FieldSources[FieldIssueSummary] = SourceProvider
	}
	if result.IssueSummary == "" {
		result.IssueSummary = "Merged pattern + external extraction"
	}

	result.Confidence = n.opts.DefaultProviderConfidence
	if c, ok := coerceNumber(ext.Confidence); ok {
		result.Confidence = clamp(c, 0, 1)
	}

	result.Origin = SourceProvider
	if usedPattern {
		result.Origin = SourceMerged
	}
}

// InferClaimType picks the first keyword family found in the body
func InferClaimType(body string) ClaimType {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "short"):
		return ClaimShortDelivery
	case strings.Contains(lower, "tax"):
		return ClaimTaxMismatch
	case strings.Contains(lower, "not received"), strings.Contains(lower, "never received"):
		return ClaimNotReceived
	case strings.Contains(lower, "duplicate"):
		return ClaimDuplicateInvoice
	default:
		return ClaimOther
	}
}

func markPatternSources(r *ExtractionResult) {
	if r.InvoiceNumber != nil {
		r.FieldSources[FieldInvoiceNumber] = SourcePattern
	}
	if r.PONumber != nil {
		r.FieldSources[FieldPONumber] = SourcePattern
	}
	if r.ClaimedAmount != nil {
		r.FieldSources[FieldClaimedAmount] = SourcePattern
	}
	if r.SecondaryAmount != nil {
		r.FieldSources[FieldSecondaryAmount] = SourcePattern
	}
	if r.Currency != nil {
		r.FieldSources[FieldCurrency] = SourcePattern
	}
}

func claimText(body string) string {
	flat := strings.ReplaceAll(strings.TrimSpace(body), "\n", " ")
	if utf8.RuneCountInString(flat) <= claimTextLimit {
		return flat
	}
	return string([]rune(flat)[:claimTextLimit])
}

// nonNil returns the value of s unless it is missing or blank
func nonNil(s *LooseString) *string {
	v := s.Value()
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func floatPtr(v float64) *float64 {
	return &v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
