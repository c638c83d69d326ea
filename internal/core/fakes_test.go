package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	out   *ProviderExtraction
	err   error
}

func (f *fakeProvider) Name() string { return "fake/model" }

func (f *fakeProvider) Extract(_ context.Context, _, _ string) (*ProviderExtraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	flushed int
	deleted int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Put(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted++
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Flush(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushed++
	return nil
}

type fakeStore struct {
	mu         sync.Mutex
	acquireErr error
	lookupErr  error
	invoices   map[string]InvoiceRecord
	orders     map[string]PurchaseOrderRecord
	receipts   map[int64][]GoodsReceiptRecord
	acquired   int
	released   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invoices: make(map[string]InvoiceRecord),
		orders:   make(map[string]PurchaseOrderRecord),
		receipts: make(map[int64][]GoodsReceiptRecord),
	}
}

func (s *fakeStore) Acquire(_ context.Context) (RecordSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	s.acquired++
	return &fakeSession{store: s}, nil
}

type fakeSession struct {
	store *fakeStore
}

func (f *fakeSession) FindInvoice(_ context.Context, number string) (*InvoiceRecord, error) {
	if f.store.lookupErr != nil {
		return nil, f.store.lookupErr
	}
	rec, ok := f.store.invoices[number]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (f *fakeSession) FindPurchaseOrder(_ context.Context, number string) (*PurchaseOrderRecord, error) {
	if f.store.lookupErr != nil {
		return nil, f.store.lookupErr
	}
	rec, ok := f.store.orders[number]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (f *fakeSession) FindGoodsReceipts(_ context.Context, poID int64) ([]GoodsReceiptRecord, error) {
	return append([]GoodsReceiptRecord{}, f.store.receipts[poID]...), nil
}

func (f *fakeSession) Release() {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.released++
}

type suffixTrust string

func (s suffixTrust) IsTrusted(sender string) bool {
	return len(sender) >= len(s) && sender[len(sender)-len(s):] == string(s)
}

func loose(s string) *LooseString {
	v := LooseString(s)
	return &v
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func strPtr(s string) *string {
	return &s
}

var errBoom = errors.New("boom")
