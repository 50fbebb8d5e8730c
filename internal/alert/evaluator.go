// Package alert decides when a verified price should notify a user, with
// de-duplication so identical price feeds never fire twice.
package alert

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/pkg/model"
)

// Evaluator applies the firing rule to a single alert. When OneShot is
// set, a fired alert deactivates instead of staying armed for further
// drops.
type Evaluator struct {
	oneShot bool
	logger  *zap.Logger
}

// NewEvaluator constructs an evaluator. oneShot selects deactivate-on-fire
// behavior.
func NewEvaluator(oneShot bool, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{oneShot: oneShot, logger: logger}
}

// Evaluate fires when the alert is active, the new verified price is at or
// below the target, and the price differs from the last notified one.
// On fire it mutates the alert (LastNotifiedPrice, and Active for one-shot
// alerts) and returns the notification; otherwise it returns nil.
func (e *Evaluator) Evaluate(alert *model.PriceAlert, storeID string, price decimal.Decimal) *model.Notification {
	if !alert.Active {
		return nil
	}
	if alert.StoreID != "" && alert.StoreID != storeID {
		return nil
	}
	if price.GreaterThan(alert.TargetPrice) {
		return nil
	}
	if alert.LastNotifiedPrice != nil && price.Equal(*alert.LastNotifiedPrice) {
		return nil
	}

	notified := price
	alert.LastNotifiedPrice = &notified
	if e.oneShot {
		alert.Active = false
	}

	e.logger.Info("alert.fired",
		zap.String("alert_id", alert.ID.String()),
		zap.String("product_id", alert.ProductID),
		zap.String("price", price.String()),
	)

	return &model.Notification{
		AlertID:   alert.ID,
		UserID:    alert.UserID,
		ProductID: alert.ProductID,
		StoreID:   storeID,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}
}
