package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VerificationState is the trust state of a price record.
// Pending records may still transition; Verified and Rejected are terminal.
type VerificationState string

const (
	StatePending  VerificationState = "pending"
	StateVerified VerificationState = "verified"
	StateRejected VerificationState = "rejected"
)

// Terminal reports whether the state accepts no further votes.
func (s VerificationState) Terminal() bool {
	return s == StateVerified || s == StateRejected
}

// PriceRecord is a single community-submitted price observation.
// Price and ObservedAt are immutable after creation; corrections are
// modeled as new records so the submission history stays auditable.
type PriceRecord struct {
	ID          uuid.UUID         `json:"id"`
	ProductID   string            `json:"product_id"`
	StoreID     string            `json:"store_id"`
	UserID      string            `json:"user_id,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	ObservedAt  time.Time         `json:"observed_at"`
	OnSale      bool              `json:"on_sale"`
	State       VerificationState `json:"state"`
	VerifyVotes int               `json:"verify_votes"`
	RejectVotes int               `json:"reject_votes"`
}

// TransitionResult reports the outcome of a single vote.
type TransitionResult struct {
	State        VerificationState `json:"state"`
	Transitioned bool              `json:"transitioned"`
	Score        int               `json:"score"`
}
