package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/pkg/model"
)

// HybridStore is a Redis-cached, Postgres-backed Repository. Postgres is
// the source of truth; Redis holds per-product record listings with a TTL
// so hot comparison queries skip the database.
type HybridStore struct {
	redis    *redis.Client
	PG       *pgxpool.Pool
	logger   *zap.Logger
	cacheTTL time.Duration
}

// PGPoolConfig tunes the pgx connection pool.
type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// NewHybrid creates a Redis-first, Postgres-backed store.
func NewHybrid(redisAddr string, redisDB int, pgURL string, cacheTTL time.Duration, poolCfg PGPoolConfig, logger *zap.Logger) (*HybridStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	var pgPool *pgxpool.Pool
	if pgURL != "" {
		cfg, err := pgxpool.ParseConfig(pgURL)
		if err != nil {
			return nil, fmt.Errorf("invalid pg config: %w", err)
		}
		if poolCfg.MaxConns > 0 {
			cfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			cfg.MinConns = poolCfg.MinConns
		}
		if poolCfg.MaxConnLifetime > 0 {
			cfg.MaxConnLifetime = poolCfg.MaxConnLifetime
		}
		if poolCfg.MaxConnIdleTime > 0 {
			cfg.MaxConnIdleTime = poolCfg.MaxConnIdleTime
		}
		if poolCfg.HealthCheckPeriod > 0 {
			cfg.HealthCheckPeriod = poolCfg.HealthCheckPeriod
		}
		pgPool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &HybridStore{redis: rdb, PG: pgPool, logger: logger, cacheTTL: cacheTTL}, nil
}

func productCacheKey(productID string) string {
	return "pricewatch:records:" + productID
}

// Save upserts a record and drops the product's cached listing.
func (s *HybridStore) Save(ctx context.Context, rec model.PriceRecord) error {
	if s.PG == nil {
		return fmt.Errorf("postgres unavailable")
	}
	_, err := s.PG.Exec(ctx, `
		INSERT INTO pricewatch.price_record (
			id, product_id, store_id, user_id,
			price, observed_at, on_sale, state, verify_votes, reject_votes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			state = EXCLUDED.state,
			verify_votes = EXCLUDED.verify_votes,
			reject_votes = EXCLUDED.reject_votes;
	`, rec.ID, rec.ProductID, rec.StoreID, nullable(rec.UserID),
		rec.Price, rec.ObservedAt, rec.OnSale, string(rec.State), rec.VerifyVotes, rec.RejectVotes)
	if err != nil {
		s.logger.Error("store.pg.save_record_failed", zap.Error(err))
		return err
	}

	if err := s.redis.Del(ctx, productCacheKey(rec.ProductID)).Err(); err != nil {
		s.logger.Warn("store.redis.invalidate_failed",
			zap.String("product_id", rec.ProductID),
			zap.Error(err))
	}
	return nil
}

func (s *HybridStore) Get(ctx context.Context, id uuid.UUID) (*model.PriceRecord, error) {
	if s.PG == nil {
		return nil, fmt.Errorf("postgres unavailable")
	}
	row := s.PG.QueryRow(ctx, `
		SELECT id, product_id, store_id, COALESCE(user_id, ''),
		       price, observed_at, on_sale, state, verify_votes, reject_votes
		FROM pricewatch.price_record
		WHERE id = $1;
	`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get record scan failed: %w", err)
	}
	return rec, nil
}

func (s *HybridStore) ListByProduct(ctx context.Context, productID string) ([]model.PriceRecord, error) {
	key := productCacheKey(productID)
	var cached []model.PriceRecord
	if err := s.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	if s.PG == nil {
		return nil, fmt.Errorf("postgres unavailable")
	}
	rows, err := s.PG.Query(ctx, `
		SELECT id, product_id, store_id, COALESCE(user_id, ''),
		       price, observed_at, on_sale, state, verify_votes, reject_votes
		FROM pricewatch.price_record
		WHERE product_id = $1
		ORDER BY observed_at, id;
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}

	if err := s.SetJSON(ctx, key, records, s.cacheTTL); err != nil {
		s.logger.Warn("store.redis.cache_failed",
			zap.String("product_id", productID),
			zap.Error(err))
	}
	return records, nil
}

func (s *HybridStore) ListAll(ctx context.Context) ([]model.PriceRecord, error) {
	if s.PG == nil {
		return nil, fmt.Errorf("postgres unavailable")
	}
	rows, err := s.PG.Query(ctx, `
		SELECT id, product_id, store_id, COALESCE(user_id, ''),
		       price, observed_at, on_sale, state, verify_votes, reject_votes
		FROM pricewatch.price_record
		ORDER BY observed_at, id;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *HybridStore) SaveAlert(ctx context.Context, alert model.PriceAlert) error {
	if s.PG == nil {
		return fmt.Errorf("postgres unavailable")
	}
	_, err := s.PG.Exec(ctx, `
		INSERT INTO pricewatch.price_alert (
			id, user_id, product_id, store_id,
			target_price, active, last_notified_price, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			active = EXCLUDED.active,
			last_notified_price = EXCLUDED.last_notified_price;
	`, alert.ID, alert.UserID, alert.ProductID, nullable(alert.StoreID),
		alert.TargetPrice, alert.Active, alert.LastNotifiedPrice, alert.CreatedAt)
	if err != nil {
		s.logger.Error("store.pg.save_alert_failed", zap.Error(err))
	}
	return err
}

func (s *HybridStore) GetAlert(ctx context.Context, id uuid.UUID) (*model.PriceAlert, error) {
	if s.PG == nil {
		return nil, fmt.Errorf("postgres unavailable")
	}
	row := s.PG.QueryRow(ctx, `
		SELECT id, user_id, product_id, COALESCE(store_id, ''),
		       target_price, active, last_notified_price, created_at
		FROM pricewatch.price_alert
		WHERE id = $1;
	`, id)

	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get alert scan failed: %w", err)
	}
	return alert, nil
}

func (s *HybridStore) DeleteAlert(ctx context.Context, id uuid.UUID) error {
	if s.PG == nil {
		return fmt.Errorf("postgres unavailable")
	}
	tag, err := s.PG.Exec(ctx, `DELETE FROM pricewatch.price_alert WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *HybridStore) ListAlertsByUser(ctx context.Context, userID string) ([]model.PriceAlert, error) {
	return s.listAlerts(ctx, `user_id`, userID)
}

func (s *HybridStore) ListAlertsByProduct(ctx context.Context, productID string) ([]model.PriceAlert, error) {
	return s.listAlerts(ctx, `product_id`, productID)
}

func (s *HybridStore) listAlerts(ctx context.Context, column, value string) ([]model.PriceAlert, error) {
	if s.PG == nil {
		return nil, fmt.Errorf("postgres unavailable")
	}
	rows, err := s.PG.Query(ctx, fmt.Sprintf(`
		SELECT id, user_id, product_id, COALESCE(store_id, ''),
		       target_price, active, last_notified_price, created_at
		FROM pricewatch.price_alert
		WHERE %s = $1
		ORDER BY created_at, id;
	`, column), value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []model.PriceAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

// SetJSON caches an arbitrary value under key with a TTL.
func (s *HybridStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

// GetJSON fetches a cached value; returns redis.Nil when absent.
func (s *HybridStore) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Redis exposes the underlying client for collaborators that share the
// cache, like the reputation lookup.
func (s *HybridStore) Redis() *redis.Client {
	return s.redis
}

func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}
	return nil
}

func (s *HybridStore) Close() error {
	if s.PG != nil {
		s.PG.Close()
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.PriceRecord, error) {
	var rec model.PriceRecord
	var state string
	if err := row.Scan(&rec.ID, &rec.ProductID, &rec.StoreID, &rec.UserID,
		&rec.Price, &rec.ObservedAt, &rec.OnSale, &state,
		&rec.VerifyVotes, &rec.RejectVotes); err != nil {
		return nil, err
	}
	rec.State = model.VerificationState(state)
	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]model.PriceRecord, error) {
	var records []model.PriceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanAlert(row rowScanner) (*model.PriceAlert, error) {
	var alert model.PriceAlert
	if err := row.Scan(&alert.ID, &alert.UserID, &alert.ProductID, &alert.StoreID,
		&alert.TargetPrice, &alert.Active, &alert.LastNotifiedPrice, &alert.CreatedAt); err != nil {
		return nil, err
	}
	return &alert, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
