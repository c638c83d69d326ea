package core

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExtractionProvider extracts structured claim facts from an email using a language model
type ExtractionProvider interface {
	// Name returns the provider and model identifier, used in errors and logs
	Name() string

	// Extract returns the structured output for the given subject and body.
	// A protocol or parse failure is an error, never a partial object.
	Extract(ctx context.Context, subject, body string) (*ProviderExtraction, error)
}

// ProviderExtraction is the structured output of an extraction provider.
// Amounts and confidence are kept raw and coerced by the normalizer.
type ProviderExtraction struct {
	InvoiceNumber *LooseString    `json:"invoice_number"`
	PONumber      *LooseString    `json:"po_number"`
	InvoiceAmount json.RawMessage `json:"invoice_amount,omitempty"`
	POAmount      json.RawMessage `json:"po_amount,omitempty"`
	Currency      *LooseString    `json:"currency,omitempty"`
	SupplierName  *LooseString    `json:"supplier_name"`
	IssueSummary  *LooseString    `json:"issue_summary"`
	Confidence    json.RawMessage `json:"confidence,omitempty"`
}

// LooseString decodes from a JSON string or number
type LooseString string

// UnmarshalJSON accepts strings and bare numbers
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = LooseString(n.String())
	return nil
}

// Value returns the string or nil for a nil receiver
func (s *LooseString) Value() *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

// Capability is the presence-checked availability of an extraction provider
type Capability struct {
	provider ExtractionProvider
	reason   string
}

// Available wraps a usable provider
func Available(p ExtractionProvider) Capability {
	if p == nil {
		return Unavailable("no provider configured")
	}
	return Capability{provider: p}
}

// Unavailable reports that no provider can be consulted
func Unavailable(reason string) Capability {
	return Capability{reason: reason}
}

// Provider returns the provider and whether it is available
func (c Capability) Provider() (ExtractionProvider, bool) {
	return c.provider, c.provider != nil
}

// Reason explains why the capability is unavailable
func (c Capability) Reason() string {
	return c.reason
}

// ExtractionCache stores raw provider output keyed by content hash
type ExtractionCache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores a complete value for the key
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// CacheFlusher is implemented by caches that persist at the end of a run
type CacheFlusher interface {
	Flush(ctx context.Context) error
}

// RecordStore gives scoped access to invoice, purchase order and goods receipt records
type RecordStore interface {
	// Acquire opens a session. An unreachable store returns an error wrapping ErrStoreUnavailable.
	Acquire(ctx context.Context) (RecordSession, error)
}

// RecordSession is a store session. Lookups return ErrRecordNotFound when a record is absent.
type RecordSession interface {
	FindInvoice(ctx context.Context, invoiceNumber string) (*InvoiceRecord, error)
	FindPurchaseOrder(ctx context.Context, poNumber string) (*PurchaseOrderRecord, error)
	// FindGoodsReceipts returns receipts in the store's native order; none is an empty slice
	FindGoodsReceipts(ctx context.Context, poID int64) ([]GoodsReceiptRecord, error)
	// Release returns the session's connection
	Release()
}

// CoerceAmount converts a raw JSON amount to a non-negative number
func CoerceAmount(raw json.RawMessage) (float64, bool) {
	v, ok := coerceNumber(raw)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

func coerceNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return parseNumber(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
