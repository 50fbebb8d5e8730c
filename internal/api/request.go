package api

// SubmitPriceRequest is the body of POST /api/v1/prices.
type SubmitPriceRequest struct {
	ProductID  string  `json:"productId"`
	StoreID    string  `json:"storeId"`
	UserID     string  `json:"userId,omitempty"`
	Price      float64 `json:"price"`
	OnSale     bool    `json:"onSale,omitempty"`
	ObservedAt string  `json:"observedAt,omitempty"` // RFC3339; empty means now
}

// CastVoteRequest is the body of POST /api/v1/prices/:id/votes.
type CastVoteRequest struct {
	VoterID  string `json:"voterId"`
	Endorses bool   `json:"endorses"`
}

// CreateAlertRequest is the body of POST /api/v1/alerts.
type CreateAlertRequest struct {
	UserID      string  `json:"userId"`
	ProductID   string  `json:"productId"`
	StoreID     string  `json:"storeId,omitempty"`
	TargetPrice float64 `json:"targetPrice"`
}
