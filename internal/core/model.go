package core

import (
	"time"
)

// ClaimType is the category of a vendor claim
type ClaimType string

const (
	ClaimShortDelivery    ClaimType = "short_delivery"
	ClaimTaxMismatch      ClaimType = "tax_mismatch"
	ClaimNotReceived      ClaimType = "not_received"
	ClaimDuplicateInvoice ClaimType = "duplicate_invoice"
	ClaimOther            ClaimType = "other"
)

// Source identifies which extractor produced a value
type Source string

const (
	SourcePattern  Source = "pattern"
	SourceProvider Source = "provider"
	SourceMerged   Source = "merged"
)

// Action is the recommended handling of a scored claim
type Action string

const (
	ActionAutoApprove Action = "AUTO_APPROVE"
	ActionRequestDocs Action = "REQUEST_DOCS"
	ActionHoldPayment Action = "HOLD_PAYMENT"
)

// Contradiction codes
const (
	ContradictionNotReceivedButGRN = "not_received_but_grn_exists"
	ContradictionAmountMismatch    = "amount_mismatch"
)

// Reason codes added by the scorer in addition to contradiction codes
const (
	ReasonInvoiceMissing    = "invoice_missing_in_sap"
	ReasonNonStandardSender = "non_standard_sender"
)

// Field names used in ExtractionResult.FieldSources
const (
	FieldInvoiceNumber   = "invoice_number"
	FieldPONumber        = "po_number"
	FieldClaimedAmount   = "claimed_amount"
	FieldSecondaryAmount = "secondary_amount"
	FieldCurrency        = "currency"
	FieldSupplierName    = "supplier_name"
	FieldIssueSummary    = "issue_summary"
)

// ClaimEmail is a vendor claim email as read from the intake
type ClaimEmail struct {
	ID            string `json:"email_id"`
	From          string `json:"from"`
	To            string `json:"to,omitempty"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	LinkedInvoice string `json:"linked_invoice,omitempty"`
	LinkedPO      string `json:"linked_po,omitempty"`
	Label         string `json:"label,omitempty"`
}

// PatternResult is the output of the deterministic extractor
type PatternResult struct {
	InvoiceNumber *string
	PONumber      *string
	Amounts       []float64
	Currency      *string
}

// ExtractionResult holds the canonical facts of a claim
type ExtractionResult struct {
	InvoiceNumber   *string           `json:"invoice_number"`
	PONumber        *string           `json:"po_number"`
	ClaimedAmount   *float64          `json:"claimed_amount"`
	SecondaryAmount *float64          `json:"secondary_amount"`
	Currency        *string           `json:"currency"`
	SupplierName    *string           `json:"supplier_name"`
	ClaimType       ClaimType         `json:"claim_type"`
	IssueSummary    string            `json:"issue_summary"`
	ClaimText       string            `json:"claim_text"`
	Confidence      float64           `json:"confidence"`
	Origin          Source            `json:"origin"`
	FieldSources    map[string]Source `json:"field_sources"`
	Incomplete      bool              `json:"incomplete"`
}

// VerificationResult holds what the record store knows about a claim
type VerificationResult struct {
	InvoiceExists  bool     `json:"invoice_exists"`
	InvoiceID      *int64   `json:"invoice_id"`
	InvoiceAmount  *float64 `json:"invoice_amount"`
	InvoiceStatus  *string  `json:"invoice_status"`
	POExists       bool     `json:"po_exists"`
	POID           *int64   `json:"po_id"`
	GRNExists      bool     `json:"grn_exists"`
	GRNIDs         []int64  `json:"grn_ids"`
	Contradictions []string `json:"contradictions"`
	Offline        bool     `json:"offline"`
}

// ScoreResult is the suspicion score and recommended action
type ScoreResult struct {
	Score   float64  `json:"suspicious_score"`
	Action  Action   `json:"action"`
	Reasons []string `json:"reasons"`
}

// Bundle aggregates the three stage results for one email
type Bundle struct {
	EmailID      string              `json:"email_id"`
	Subject      string              `json:"subject"`
	Sender       string              `json:"sender"`
	Label        string              `json:"label,omitempty"`
	Extraction   *ExtractionResult   `json:"extraction"`
	Verification *VerificationResult `json:"verification"`
	Score        *ScoreResult        `json:"score"`
	ProcessedAt  time.Time           `json:"processed_at"`
}

// Outcome is the result of processing one email in a batch
type Outcome struct {
	Email  ClaimEmail
	Bundle *Bundle
	Err    error
}

// InvoiceRecord is an invoice row in the record store
type InvoiceRecord struct {
	ID     int64
	Amount *float64
	Status string
}

// PurchaseOrderRecord is a purchase order row in the record store
type PurchaseOrderRecord struct {
	ID int64
}

// GoodsReceiptRecord is a goods receipt row in the record store
type GoodsReceiptRecord struct {
	ID int64
}
