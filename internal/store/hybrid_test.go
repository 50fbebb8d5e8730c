package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/pkg/model"
)

func newTestStore(t *testing.T) (*HybridStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	st, err := NewHybrid(mr.Addr(), 0, "", time.Minute, PGPoolConfig{}, nil)
	require.NoError(t, err)
	return st, mr
}

func TestHealthCheck_Success(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, st.HealthCheck(context.Background()))
}

func TestHealthCheck_RedisNil(t *testing.T) {
	st := &HybridStore{redis: nil}
	err := st.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis not initialized")
}

func TestHealthCheck_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := &HybridStore{redis: rdb}

	// Close miniredis to simulate failure
	mr.Close()

	err = st.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestClose_RedisOnly(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, st.Close())
}

func TestClose_NilComponents(t *testing.T) {
	st := &HybridStore{}
	require.NoError(t, st.Close())
}

// --- operations with no Postgres configured ---

func TestRecordOps_NilPG(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	err := st.Save(ctx, model.PriceRecord{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "postgres unavailable")

	_, err = st.ListAll(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "postgres unavailable")

	_, err = st.ListAlertsByUser(ctx, "u1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "postgres unavailable")
}

func TestListByProduct_ServedFromCache(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	// a warm cache answers without touching Postgres at all
	cached := []model.PriceRecord{{ProductID: "p1", StoreID: "s1"}}
	require.NoError(t, st.SetJSON(ctx, productCacheKey("p1"), cached, time.Minute))

	got, err := st.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].StoreID)
}

// --- SetJSON / GetJSON edge cases ---

func TestGetJSON_KeyNotFound(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()

	var dest map[string]string
	err := st.GetJSON(context.Background(), "nonexistent:key", &dest)
	assert.Error(t, err)
}

func TestGetJSON_InvalidPayload(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, mr.Set("bad:key", "not-json"))

	var dest []model.PriceRecord
	err := st.GetJSON(context.Background(), "bad:key", &dest)
	assert.Error(t, err)
}

func TestSetJSON_NilValue(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()

	// nil marshals to "null" — should not error
	require.NoError(t, st.SetJSON(context.Background(), "test:nil", nil, 0))
}

// --- constructor ---

func TestNewHybrid_WithExplicitLogger(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	st, err := NewHybrid(mr.Addr(), 0, "", 0, PGPoolConfig{}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, st)
	require.NotNil(t, st.Redis())

	require.NoError(t, st.Close())
}

func TestNewHybrid_InvalidRedis(t *testing.T) {
	_, err := NewHybrid("localhost:1", 0, "", 0, PGPoolConfig{}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewHybrid_InvalidPGURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	_, err = NewHybrid(mr.Addr(), 0, "not-a-valid-pg-url", 0, PGPoolConfig{}, nil)
	assert.Error(t, err)
}
