package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mikey/claim-triage/internal/core"
)

// Fixture is the JSON layout accepted by LoadFixture
type Fixture struct {
	Invoices       []FixtureInvoice       `json:"invoices"`
	PurchaseOrders []FixturePurchaseOrder `json:"purchase_orders"`
	GoodsReceipts  []FixtureGoodsReceipt  `json:"goods_receipts"`
}

// FixtureInvoice is an invoice row of a fixture
type FixtureInvoice struct {
	ID            int64    `json:"invoice_id"`
	InvoiceNumber string   `json:"invoice_number"`
	Amount        *float64 `json:"amount"`
	Status        string   `json:"sap_status"`
}

// FixturePurchaseOrder is a purchase order row of a fixture
type FixturePurchaseOrder struct {
	ID       int64  `json:"po_id"`
	PONumber string `json:"po_number"`
}

// FixtureGoodsReceipt is a goods receipt row of a fixture
type FixtureGoodsReceipt struct {
	ID   int64 `json:"grn_id"`
	POID int64 `json:"po_id"`
}

// MemoryStore serves record lookups from memory
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]core.InvoiceRecord
	orders   map[string]core.PurchaseOrderRecord
	receipts map[int64][]core.GoodsReceiptRecord
}

// NewMemoryStore creates a store holding the rows of fixture
func NewMemoryStore(fixture Fixture) *MemoryStore {
	s := &MemoryStore{
		invoices: make(map[string]core.InvoiceRecord, len(fixture.Invoices)),
		orders:   make(map[string]core.PurchaseOrderRecord, len(fixture.PurchaseOrders)),
		receipts: make(map[int64][]core.GoodsReceiptRecord),
	}
	for _, inv := range fixture.Invoices {
		s.AddInvoice(inv.InvoiceNumber, core.InvoiceRecord{ID: inv.ID, Amount: inv.Amount, Status: inv.Status})
	}
	for _, po := range fixture.PurchaseOrders {
		s.AddPurchaseOrder(po.PONumber, core.PurchaseOrderRecord{ID: po.ID})
	}
	for _, grn := range fixture.GoodsReceipts {
		s.AddGoodsReceipt(grn.POID, core.GoodsReceiptRecord{ID: grn.ID})
	}
	return s
}

// LoadFixture reads a JSON fixture file into a MemoryStore
func LoadFixture(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records fixture: %w", err)
	}
	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse records fixture: %w", err)
	}
	return NewMemoryStore(fixture), nil
}

// AddInvoice adds or replaces an invoice
func (s *MemoryStore) AddInvoice(number string, rec core.InvoiceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[number] = rec
}

// AddPurchaseOrder adds or replaces a purchase order
func (s *MemoryStore) AddPurchaseOrder(number string, rec core.PurchaseOrderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[number] = rec
}

// AddGoodsReceipt appends a goods receipt to a purchase order
func (s *MemoryStore) AddGoodsReceipt(poID int64, rec core.GoodsReceiptRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[poID] = append(s.receipts[poID], rec)
}

// Acquire returns a session over the in-memory rows
func (s *MemoryStore) Acquire(ctx context.Context) (core.RecordSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return memorySession{store: s}, nil
}

type memorySession struct {
	store *MemoryStore
}

func (m memorySession) FindInvoice(_ context.Context, invoiceNumber string) (*core.InvoiceRecord, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	rec, ok := m.store.invoices[invoiceNumber]
	if !ok {
		return nil, core.ErrRecordNotFound
	}
	return &rec, nil
}

func (m memorySession) FindPurchaseOrder(_ context.Context, poNumber string) (*core.PurchaseOrderRecord, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	rec, ok := m.store.orders[poNumber]
	if !ok {
		return nil, core.ErrRecordNotFound
	}
	return &rec, nil
}

func (m memorySession) FindGoodsReceipts(_ context.Context, poID int64) ([]core.GoodsReceiptRecord, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return append([]core.GoodsReceiptRecord{}, m.store.receipts[poID]...), nil
}

func (memorySession) Release() {}
