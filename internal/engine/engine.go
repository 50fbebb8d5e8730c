// Package engine is the composition root of the price verification and
// comparison system. It ties the ledger, aggregator, geo search, alert
// registry, and notification channel together behind one entry point.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/internal/aggregate"
	"github.com/pricewatch/engine/internal/alert"
	"github.com/pricewatch/engine/internal/catalog"
	"github.com/pricewatch/engine/internal/geo"
	"github.com/pricewatch/engine/internal/ledger"
	"github.com/pricewatch/engine/internal/metrics"
	"github.com/pricewatch/engine/internal/notifier"
	"github.com/pricewatch/engine/internal/reputation"
	"github.com/pricewatch/engine/pkg/model"
)

// Engine composes the verification ledger, price aggregator, geo index,
// and alert machinery. Mutations to one product's records are serialized
// through a per-product lock; reads are pure and run without coordination.
type Engine struct {
	ledger   *ledger.Ledger
	agg      *aggregate.Aggregator
	alerts   *alert.Registry
	stores   catalog.Stores
	rep      reputation.Lookup
	notifier notifier.Notifier
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a fully wired engine. notifier may be nil, which drops
// notifications after evaluation.
func New(
	led *ledger.Ledger,
	agg *aggregate.Aggregator,
	alerts *alert.Registry,
	stores catalog.Stores,
	rep reputation.Lookup,
	nf notifier.Notifier,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		ledger:   led,
		agg:      agg,
		alerts:   alerts,
		stores:   stores,
		rep:      rep,
		notifier: nf,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// productLock returns the mutation lock for one product's ledger partition.
func (e *Engine) productLock(productID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[productID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[productID] = l
	}
	return l
}

// SubmitPrice records a new observation. When the trusted-contributor fast
// path verifies it immediately, alerts on the product are evaluated against
// the new price.
func (e *Engine) SubmitPrice(ctx context.Context, in ledger.SubmitInput) (*model.PriceRecord, error) {
	l := e.productLock(in.ProductID)
	l.Lock()
	defer l.Unlock()

	rec, err := e.ledger.Submit(ctx, in)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	metrics.SubmissionsTotal.WithLabelValues(string(rec.State)).Inc()

	if rec.State == model.StateVerified {
		e.fireAlerts(ctx, rec.ProductID, rec.StoreID, rec.Price)
	}
	return rec, nil
}

// CastVote resolves the voter's reputation and applies the vote. Alerts
// are evaluated only on a pending-to-verified transition, so settled
// records never re-trigger notifications.
func (e *Engine) CastVote(ctx context.Context, recordID uuid.UUID, voterID string, endorses bool) (model.TransitionResult, error) {
	rec, err := e.ledger.Get(ctx, recordID)
	if err != nil {
		return model.TransitionResult{}, err
	}

	l := e.productLock(rec.ProductID)
	l.Lock()
	defer l.Unlock()

	rep := 0
	if e.rep != nil {
		rep = e.rep.Reputation(ctx, voterID)
	}

	res, err := e.ledger.Vote(ctx, recordID, voterID, rep, endorses)
	if err != nil {
		metrics.VotesTotal.WithLabelValues("error").Inc()
		return res, err
	}

	outcome := "counted"
	if res.Transitioned {
		outcome = string(res.State)
	}
	metrics.VotesTotal.WithLabelValues(outcome).Inc()

	if res.Transitioned && res.State == model.StateVerified {
		if rec, err := e.ledger.Get(ctx, recordID); err == nil {
			e.fireAlerts(ctx, rec.ProductID, rec.StoreID, rec.Price)
		}
	}
	return res, nil
}

// Compare returns the cheapest verified prices for a product at stores
// within radiusKm of origin, cheapest first.
func (e *Engine) Compare(ctx context.Context, productID string, origin model.Coordinate, radiusKm float64) ([]model.StorePrice, error) {
	defer metrics.ObserveCompare(time.Now())

	all, err := e.stores.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	nearby, err := geo.Nearby(origin, all, radiusKm)
	if err != nil {
		return nil, err
	}
	return e.agg.CompareAcrossStores(ctx, productID, origin, nearby)
}

// LowestPrice returns the lowest verified price record for a product, or
// nil when nothing is verified yet.
func (e *Engine) LowestPrice(ctx context.Context, productID string) (*model.PriceRecord, error) {
	return e.agg.LowestVerifiedPrice(ctx, productID)
}

// Trend returns the per-day minimum verified price over the trailing window.
func (e *Engine) Trend(ctx context.Context, productID string, days int) ([]model.TrendPoint, error) {
	return e.agg.Trend(ctx, productID, days)
}

// Statistics summarizes the verified price set for a product, or nil when
// the product has no verified record.
func (e *Engine) Statistics(ctx context.Context, productID string) (*model.Statistics, error) {
	return e.agg.Statistics(ctx, productID)
}

// Trending lists the most active products of the last 24 hours.
func (e *Engine) Trending(ctx context.Context, limit int) ([]model.TrendingProduct, error) {
	return e.agg.Trending(ctx, limit)
}

// CreateAlert registers a price-drop alert.
func (e *Engine) CreateAlert(ctx context.Context, userID, productID, storeID string, target decimal.Decimal) (*model.PriceAlert, error) {
	return e.alerts.Create(ctx, userID, productID, storeID, target)
}

// RemoveAlert deletes an alert.
func (e *Engine) RemoveAlert(ctx context.Context, id uuid.UUID) error {
	return e.alerts.Remove(ctx, id)
}

// ListAlerts returns a user's alerts.
func (e *Engine) ListAlerts(ctx context.Context, userID string) ([]model.PriceAlert, error) {
	return e.alerts.ListByUser(ctx, userID)
}

// SubmissionStats reports ledger-wide record counts by state.
func (e *Engine) SubmissionStats(ctx context.Context) (model.SubmissionStats, error) {
	return e.ledger.SubmissionStats(ctx)
}

// VerificationStats reports moderation activity across the ledger.
func (e *Engine) VerificationStats(ctx context.Context) (ledger.VerificationStats, error) {
	return e.ledger.VerificationStats(ctx)
}

// fireAlerts runs the trigger pass and hands fired notifications to the
// delivery channel. Delivery failures are logged, never propagated: the
// price is already accepted by the time alerts evaluate.
func (e *Engine) fireAlerts(ctx context.Context, productID, storeID string, price decimal.Decimal) {
	fired, err := e.alerts.Trigger(ctx, productID, storeID, price)
	if err != nil {
		e.logger.Error("engine.alert_trigger_failed",
			zap.String("product_id", productID),
			zap.Error(err))
		return
	}

	for _, n := range fired {
		metrics.AlertsFiredTotal.Inc()
		if e.notifier == nil {
			continue
		}
		if err := e.notifier.Publish(ctx, n); err != nil {
			e.logger.Error("engine.notify_failed",
				zap.String("alert_id", n.AlertID.String()),
				zap.Error(err))
		}
	}
}
