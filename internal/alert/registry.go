package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/internal/store"
	"github.com/pricewatch/engine/pkg/model"
)

// Registry owns price alerts: creation, removal, listing, and the
// trigger pass run whenever a verified price lands. A single mutex keeps
// evaluate-then-save atomic per trigger pass.
type Registry struct {
	repo   store.AlertRepository
	eval   *Evaluator
	logger *zap.Logger
	mu     sync.Mutex
}

// NewRegistry constructs a registry over the given alert repository.
func NewRegistry(repo store.AlertRepository, eval *Evaluator, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{repo: repo, eval: eval, logger: logger}
}

// Create validates and stores a new active alert.
func (r *Registry) Create(ctx context.Context, userID, productID, storeID string, targetPrice decimal.Decimal) (*model.PriceAlert, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if productID == "" {
		return nil, fmt.Errorf("product id is required")
	}
	if !targetPrice.IsPositive() {
		return nil, fmt.Errorf("target price must be > 0, got %s", targetPrice)
	}

	alert := model.PriceAlert{
		ID:          uuid.New(),
		UserID:      userID,
		ProductID:   productID,
		StoreID:     storeID,
		TargetPrice: targetPrice,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.repo.SaveAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("save alert: %w", err)
	}

	r.logger.Info("alert.created",
		zap.String("alert_id", alert.ID.String()),
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.String("target", targetPrice.String()),
	)
	return &alert, nil
}

// Remove deletes an alert.
func (r *Registry) Remove(ctx context.Context, id uuid.UUID) error {
	return r.repo.DeleteAlert(ctx, id)
}

// ListByUser returns all of a user's alerts, oldest first.
func (r *Registry) ListByUser(ctx context.Context, userID string) ([]model.PriceAlert, error) {
	return r.repo.ListAlertsByUser(ctx, userID)
}

// Trigger evaluates every alert on the product against a newly verified
// price and persists the alerts that fired. The returned notifications are
// ready for the delivery channel.
func (r *Registry) Trigger(ctx context.Context, productID, storeID string, price decimal.Decimal) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts, err := r.repo.ListAlertsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	var fired []model.Notification
	for i := range alerts {
		n := r.eval.Evaluate(&alerts[i], storeID, price)
		if n == nil {
			continue
		}
		if err := r.repo.SaveAlert(ctx, alerts[i]); err != nil {
			return fired, fmt.Errorf("save fired alert %s: %w", alerts[i].ID, err)
		}
		fired = append(fired, *n)
	}
	return fired, nil
}
