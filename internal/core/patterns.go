package core

import (
	"regexp"
	"strings"
)

var (
	invoicePattern = regexp.MustCompile(`(?i)\bINV[-\s]?(\d{3,7})\b`)
	poPattern      = regexp.MustCompile(`(?i)\b45\d{5,6}\b|\bPO[-\s]?\d{3,7}\b`)
	amountPattern  = regexp.MustCompile(`(?i)(₹|€|US\$|\$|\bINR\b|\bRs\b\.?|\bUSD\b|\bEUR\b)\s?([0-9][0-9,]*(?:\.[0-9]{1,2})?)|(?:^|[^\w,.])([0-9]{1,3}(?:,[0-9]{2,3})*,[0-9]{3}(?:\.[0-9]{1,2})?)\b`)
	digitsOnly     = regexp.MustCompile(`^\d+$`)
)

const poPrefix = "45"

// PatternExtractor finds invoice numbers, PO numbers and amounts with fixed patterns
type PatternExtractor struct{}

// NewPatternExtractor creates a new pattern extractor
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract runs every pattern over text. Missing matches are nil, never an error.
func (p *PatternExtractor) Extract(text string) PatternResult {
	var result PatternResult
	if m := invoicePattern.FindStringSubmatch(text); m != nil {
		inv := "INV-" + m[1]
		result.InvoiceNumber = &inv
	}
	if m := poPattern.FindString(text); m != "" {
		po := normalizePODigits(m)
		result.PONumber = &po
	}
	for i, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		raw := m[2]
		if raw == "" {
			raw = m[3]
		}
		v, ok := parseNumber(raw)
		if !ok {
			continue
		}
		result.Amounts = append(result.Amounts, v)
		if i == 0 && m[1] != "" {
			if code := currencyForSymbol(m[1]); code != "" {
				result.Currency = &code
			}
		}
	}
	return result
}

// normalizePODigits strips the PO marker and separators and ensures the 45 prefix
func normalizePODigits(match string) string {
	v := strings.ToUpper(match)
	v = strings.ReplaceAll(v, "PO", "")
	v = strings.ReplaceAll(v, "-", "")
	v = strings.TrimSpace(v)
	v = strings.Join(strings.Fields(v), "")
	if !strings.HasPrefix(v, poPrefix) {
		v = poPrefix + v
	}
	return v
}

// NormalizeInvoiceNumber returns the canonical INV-nnnn form when value matches the invoice format
func NormalizeInvoiceNumber(value string) (string, bool) {
	m := invoicePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil || len(m[0]) != len(strings.TrimSpace(value)) {
		return "", false
	}
	return "INV-" + m[1], true
}

// NormalizePONumber returns the 45-prefixed form when value is a PO-nnnn or bare numeric PO
func NormalizePONumber(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if m := poPattern.FindString(v); m != "" && len(m) == len(v) {
		return normalizePODigits(m), true
	}
	if digitsOnly.MatchString(v) {
		return normalizePODigits(v), true
	}
	return "", false
}

func currencyForSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(symbol), "."))
	switch s {
	case "₹", "INR", "RS":
		return "INR"
	case "$", "US$", "USD":
		return "USD"
	case "€", "EUR":
		return "EUR"
	}
	return ""
}
