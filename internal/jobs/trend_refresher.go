// Package jobs holds background loops that run alongside the HTTP server.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/pkg/model"
)

// TrendRefresher periodically refreshes the daily-trend materialized view
// that analytics dashboards read, and emits an event when a cycle completes.
type TrendRefresher struct {
	logger   *zap.Logger
	db       DBExecutor
	pub      EventPublisher
	interval time.Duration
	stopCh   chan struct{}
}

// DBExecutor defines the minimal subset of pgxpool.Pool needed for execution.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EventPublisher is the broker publish call; *nats.Conn satisfies it.
// A nil publisher skips the completion event.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// NewTrendRefresher constructs a background job that runs periodically.
func NewTrendRefresher(logger *zap.Logger, db DBExecutor, pub EventPublisher, interval time.Duration) *TrendRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendRefresher{
		logger:   logger,
		db:       db,
		pub:      pub,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the refresh loop until Stop or context cancellation.
func (r *TrendRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("trend_refresher.started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ticker.C:
			r.runOnce(ctx)
		case <-r.stopCh:
			r.logger.Info("trend_refresher.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("trend_refresher.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the refresher.
func (r *TrendRefresher) Stop() {
	close(r.stopCh)
}

// runOnce executes one refresh cycle.
func (r *TrendRefresher) runOnce(ctx context.Context) {
	start := time.Now()
	r.logger.Info("trend_refresher.running")

	_, err := r.db.Exec(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY pricewatch.mv_daily_trend`)
	if err != nil {
		r.logger.Error("trend_refresher.refresh_failed", zap.Error(err))
		return
	}

	if r.pub != nil {
		payload, _ := json.Marshal(map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
		})
		env := model.NewEnvelope("trend_summary.refreshed", "v1", payload)
		data, err := json.Marshal(env)
		if err == nil {
			err = r.pub.Publish("evt.pricewatch.trend_refreshed.v1", data)
		}
		if err != nil {
			r.logger.Warn("trend_refresher.publish_failed", zap.Error(err))
		}
	}

	r.logger.Info("trend_refresher.success",
		zap.Duration("duration", time.Since(start)))
}
