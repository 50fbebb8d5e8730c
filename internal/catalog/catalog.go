// Package catalog provides the read-only store and product lookups the
// engine consumes. Catalog data is owned by external management services;
// the engine never edits it.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pricewatch/engine/pkg/model"
)

// Stores is a read-only view of the store catalog.
type Stores interface {
	GetStore(ctx context.Context, id string) (*model.Store, error)
	ListStores(ctx context.Context) ([]model.Store, error)
}

// Products is a read-only view of the product catalog.
type Products interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

// Memory holds catalog data in maps. Seeded at startup; safe for
// concurrent reads and writes.
type Memory struct {
	mu       sync.RWMutex
	stores   map[string]model.Store
	products map[string]model.Product
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		stores:   make(map[string]model.Store),
		products: make(map[string]model.Product),
	}
}

// AddStore validates and registers a store.
func (m *Memory) AddStore(s model.Store) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[s.ID] = s
	return nil
}

// AddProduct registers a product.
func (m *Memory) AddProduct(p model.Product) error {
	if p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *Memory) GetStore(ctx context.Context, id string) (*model.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stores[id]
	if !ok {
		return nil, fmt.Errorf("store %s not found", id)
	}
	return &s, nil
}

func (m *Memory) ListStores(ctx context.Context) ([]model.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Store, 0, len(m.stores))
	for _, s := range m.stores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s not found", id)
	}
	return &p, nil
}
