// Package aggregate computes comparison views over verified price records.
// Every operation is a pure read over the repository's current record set;
// pending and rejected records never influence a result.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pricewatch/engine/internal/geo"
	"github.com/pricewatch/engine/internal/store"
	"github.com/pricewatch/engine/pkg/model"
)

// Aggregator holds no state of its own; it is a function table over the
// ledger's records.
type Aggregator struct {
	repo store.RecordRepository
}

// New constructs an aggregator over the given repository.
func New(repo store.RecordRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

// LowestVerifiedPrice returns the verified record with the minimum price
// for the product, preferring the most recent observation on a price tie.
// Returns nil when the product has no verified record.
func (a *Aggregator) LowestVerifiedPrice(ctx context.Context, productID string) (*model.PriceRecord, error) {
	records, err := a.verified(ctx, productID)
	if err != nil {
		return nil, err
	}

	var lowest *model.PriceRecord
	for i := range records {
		rec := &records[i]
		if lowest == nil ||
			rec.Price.LessThan(lowest.Price) ||
			(rec.Price.Equal(lowest.Price) && rec.ObservedAt.After(lowest.ObservedAt)) {
			lowest = rec
		}
	}
	if lowest == nil {
		return nil, nil
	}
	out := *lowest
	return &out, nil
}

// PriceAtStore returns the most recent verified record for the
// product/store pair, or nil when none exists.
func (a *Aggregator) PriceAtStore(ctx context.Context, productID, storeID string) (*model.PriceRecord, error) {
	records, err := a.verified(ctx, productID)
	if err != nil {
		return nil, err
	}

	var latest *model.PriceRecord
	for i := range records {
		rec := &records[i]
		if rec.StoreID != storeID {
			continue
		}
		if latest == nil || rec.ObservedAt.After(latest.ObservedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

// AverageVerifiedPrice returns the arithmetic mean of verified prices.
// ok is false when the product has no verified record.
func (a *Aggregator) AverageVerifiedPrice(ctx context.Context, productID string) (avg decimal.Decimal, ok bool, err error) {
	records, err := a.verified(ctx, productID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if len(records) == 0 {
		return decimal.Zero, false, nil
	}

	sum := decimal.Zero
	for _, rec := range records {
		sum = sum.Add(rec.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(records)))), true, nil
}

// Trend buckets verified records by calendar day (UTC) over the trailing
// window and keeps the lowest price per day. Days with no observation are
// omitted, so the series is sparse; callers needing continuity forward-fill.
func (a *Aggregator) Trend(ctx context.Context, productID string, days int) ([]model.TrendPoint, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be > 0, got %d", geo.ErrInvalidArgument, days)
	}

	records, err := a.verified(ctx, productID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	daily := make(map[time.Time]decimal.Decimal)
	for _, rec := range records {
		if rec.ObservedAt.Before(cutoff) {
			continue
		}
		day := rec.ObservedAt.UTC().Truncate(24 * time.Hour)
		if low, ok := daily[day]; !ok || rec.Price.LessThan(low) {
			daily[day] = rec.Price
		}
	}

	points := make([]model.TrendPoint, 0, len(daily))
	for day, price := range daily {
		points = append(points, model.TrendPoint{Date: day, Price: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// CompareAcrossStores joins the latest verified price per candidate store,
// annotated with the distance from origin, sorted ascending by price and
// then by distance.
func (a *Aggregator) CompareAcrossStores(ctx context.Context, productID string, origin model.Coordinate, candidates []model.Store) ([]model.StorePrice, error) {
	var comparison []model.StorePrice
	for _, st := range candidates {
		rec, err := a.PriceAtStore(ctx, productID, st.ID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue // no verified price at this store
		}
		comparison = append(comparison, model.StorePrice{
			StoreID:    st.ID,
			StoreName:  st.Name,
			Price:      rec.Price,
			OnSale:     rec.OnSale,
			ObservedAt: rec.ObservedAt,
			DistanceKm: geo.Distance(origin, st.Location),
		})
	}

	sort.Slice(comparison, func(i, j int) bool {
		if !comparison[i].Price.Equal(comparison[j].Price) {
			return comparison[i].Price.LessThan(comparison[j].Price)
		}
		return comparison[i].DistanceKm < comparison[j].DistanceKm
	})
	return comparison, nil
}

// Statistics summarizes the verified price set: min/max/mean/median,
// distinct stores, and the share of on-sale observations.
func (a *Aggregator) Statistics(ctx context.Context, productID string) (*model.Statistics, error) {
	records, err := a.verified(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	prices := make([]decimal.Decimal, len(records))
	stores := make(map[string]struct{})
	sum := decimal.Zero
	saleCount := 0
	for i, rec := range records {
		prices[i] = rec.Price
		sum = sum.Add(rec.Price)
		stores[rec.StoreID] = struct{}{}
		if rec.OnSale {
			saleCount++
		}
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

	n := len(prices)
	var median decimal.Decimal
	if n%2 == 0 {
		median = prices[n/2-1].Add(prices[n/2]).Div(decimal.NewFromInt(2))
	} else {
		median = prices[n/2]
	}

	return &model.Statistics{
		Min:         prices[0],
		Max:         prices[n-1],
		Average:     sum.Div(decimal.NewFromInt(int64(n))),
		Median:      median,
		Records:     n,
		Stores:      len(stores),
		SalePercent: float64(saleCount) / float64(n) * 100,
	}, nil
}

// Trending lists the products with the most verified observations in the
// trailing 24 hours, most active first, with the latest price attached.
func (a *Aggregator) Trending(ctx context.Context, limit int) ([]model.TrendingProduct, error) {
	records, err := a.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	activity := make(map[string]int)
	latest := make(map[string]model.PriceRecord)
	for _, rec := range records {
		if rec.State != model.StateVerified || rec.ObservedAt.Before(cutoff) {
			continue
		}
		activity[rec.ProductID]++
		if prev, ok := latest[rec.ProductID]; !ok || rec.ObservedAt.After(prev.ObservedAt) {
			latest[rec.ProductID] = rec
		}
	}

	trending := make([]model.TrendingProduct, 0, len(activity))
	for productID, count := range activity {
		rec := latest[productID]
		trending = append(trending, model.TrendingProduct{
			ProductID:   productID,
			LatestPrice: rec.Price,
			Activity:    count,
			ObservedAt:  rec.ObservedAt,
		})
	}
	sort.Slice(trending, func(i, j int) bool {
		if trending[i].Activity != trending[j].Activity {
			return trending[i].Activity > trending[j].Activity
		}
		return trending[i].ProductID < trending[j].ProductID
	})
	if limit > 0 && len(trending) > limit {
		trending = trending[:limit]
	}
	return trending, nil
}

func (a *Aggregator) verified(ctx context.Context, productID string) ([]model.PriceRecord, error) {
	records, err := a.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	verified := make([]model.PriceRecord, 0, len(records))
	for _, rec := range records {
		if rec.State == model.StateVerified {
			verified = append(verified, rec)
		}
	}
	return verified, nil
}
