package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pricewatch/engine/pkg/model"
)

// MemoryStore is a map-backed Repository. It is the default when no
// database is configured, and the fixture for most engine tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]model.PriceRecord
	alerts  map[uuid.UUID]model.PriceAlert
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]model.PriceRecord),
		alerts:  make(map[uuid.UUID]model.PriceAlert),
	}
}

func (m *MemoryStore) Save(ctx context.Context, rec model.PriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*model.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return &rec, nil
}

func (m *MemoryStore) ListByProduct(ctx context.Context, productID string) ([]model.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.PriceRecord
	for _, rec := range m.records {
		if rec.ProductID == productID {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]model.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.PriceRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

func (m *MemoryStore) SaveAlert(ctx context.Context, alert model.PriceAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[alert.ID] = alert
	return nil
}

func (m *MemoryStore) GetAlert(ctx context.Context, id uuid.UUID) (*model.PriceAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alert, ok := m.alerts[id]
	if !ok {
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return &alert, nil
}

func (m *MemoryStore) DeleteAlert(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[id]; !ok {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	delete(m.alerts, id)
	return nil
}

func (m *MemoryStore) ListAlertsByUser(ctx context.Context, userID string) ([]model.PriceAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.PriceAlert
	for _, alert := range m.alerts {
		if alert.UserID == userID {
			out = append(out, alert)
		}
	}
	sortAlerts(out)
	return out, nil
}

func (m *MemoryStore) ListAlertsByProduct(ctx context.Context, productID string) ([]model.PriceAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.PriceAlert
	for _, alert := range m.alerts {
		if alert.ProductID == productID {
			out = append(out, alert)
		}
	}
	sortAlerts(out)
	return out, nil
}

func (m *MemoryStore) HealthCheck(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// sortRecords orders by observation time, ties by id, so listings are
// deterministic regardless of map iteration order.
func sortRecords(recs []model.PriceRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].ObservedAt.Equal(recs[j].ObservedAt) {
			return recs[i].ObservedAt.Before(recs[j].ObservedAt)
		}
		return recs[i].ID.String() < recs[j].ID.String()
	})
}

func sortAlerts(alerts []model.PriceAlert) {
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
		}
		return alerts[i].ID.String() < alerts[j].ID.String()
	})
}
