package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StorePrice is one row of a cross-store comparison: the latest verified
// price at a store, annotated with the distance from the query origin.
type StorePrice struct {
	StoreID    string          `json:"store_id"`
	StoreName  string          `json:"store_name,omitempty"`
	Price      decimal.Decimal `json:"price"`
	OnSale     bool            `json:"on_sale"`
	ObservedAt time.Time       `json:"observed_at"`
	DistanceKm float64         `json:"distance_km"`
}

// TrendPoint is the lowest verified price observed on one calendar day.
type TrendPoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// Statistics summarizes the verified price set for a product.
type Statistics struct {
	Min         decimal.Decimal `json:"min"`
	Max         decimal.Decimal `json:"max"`
	Average     decimal.Decimal `json:"average"`
	Median      decimal.Decimal `json:"median"`
	Records     int             `json:"records"`
	Stores      int             `json:"stores"`
	SalePercent float64         `json:"sale_percent"`
}

// SubmissionStats counts records by verification state across the ledger.
type SubmissionStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Verified int `json:"verified"`
	Rejected int `json:"rejected"`
	Products int `json:"products"`
	Stores   int `json:"stores"`
}

// TrendingProduct is a product with recent verified price activity.
type TrendingProduct struct {
	ProductID   string          `json:"product_id"`
	LatestPrice decimal.Decimal `json:"latest_price"`
	Activity    int             `json:"activity"`
	ObservedAt  time.Time       `json:"observed_at"`
}
