package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceAlert asks to be notified when a verified price for a product drops
// to or below the target. StoreID, when set, scopes the alert to one store.
// LastNotifiedPrice suppresses duplicate notifications for the same price.
type PriceAlert struct {
	ID                uuid.UUID        `json:"id"`
	UserID            string           `json:"user_id"`
	ProductID         string           `json:"product_id"`
	StoreID           string           `json:"store_id,omitempty"`
	TargetPrice       decimal.Decimal  `json:"target_price"`
	Active            bool             `json:"active"`
	LastNotifiedPrice *decimal.Decimal `json:"last_notified_price,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Notification is the value handed to the delivery channel when an alert
// fires. Transport (push, email, in-app) is not the engine's concern.
type Notification struct {
	AlertID   uuid.UUID       `json:"alert_id"`
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	StoreID   string          `json:"store_id,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}
