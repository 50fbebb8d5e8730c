// Package store defines the persistence contract the engine is written
// against, plus two implementations: an in-memory store for tests and
// single-process deployments, and a Redis-cached Postgres store.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pricewatch/engine/pkg/model"
)

// ErrNotFound is returned when no entity exists for the given id.
var ErrNotFound = errors.New("not found")

// RecordRepository persists price records. The engine treats it as a dumb
// collection; all trust semantics live in the ledger.
type RecordRepository interface {
	Save(ctx context.Context, rec model.PriceRecord) error
	Get(ctx context.Context, id uuid.UUID) (*model.PriceRecord, error)
	ListByProduct(ctx context.Context, productID string) ([]model.PriceRecord, error)
	ListAll(ctx context.Context) ([]model.PriceRecord, error)
}

// AlertRepository persists price alerts.
type AlertRepository interface {
	SaveAlert(ctx context.Context, alert model.PriceAlert) error
	GetAlert(ctx context.Context, id uuid.UUID) (*model.PriceAlert, error)
	DeleteAlert(ctx context.Context, id uuid.UUID) error
	ListAlertsByUser(ctx context.Context, userID string) ([]model.PriceAlert, error)
	ListAlertsByProduct(ctx context.Context, productID string) ([]model.PriceAlert, error)
}

// Repository is the full persistence surface wired into the service.
type Repository interface {
	RecordRepository
	AlertRepository
	HealthCheck(ctx context.Context) error
	Close() error
}
