package alert

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/engine/internal/store"
	"github.com/pricewatch/engine/pkg/model"
)

func newAlert(target float64) *model.PriceAlert {
	return &model.PriceAlert{
		ID:          uuid.New(),
		UserID:      "u1",
		ProductID:   "p1",
		TargetPrice: decimal.NewFromFloat(target),
		Active:      true,
	}
}

func TestEvaluateFiringRule(t *testing.T) {
	tests := []struct {
		name  string
		setup func(a *model.PriceAlert)
		store string
		price float64
		fires bool
	}{
		{name: "above target stays silent", price: 600, fires: false},
		{name: "at target fires", price: 500, fires: true},
		{name: "below target fires", price: 480, fires: true},
		{name: "inactive alert never fires", setup: func(a *model.PriceAlert) { a.Active = false }, price: 480, fires: false},
		{
			name: "same price as last notification is suppressed",
			setup: func(a *model.PriceAlert) {
				last := decimal.NewFromInt(480)
				a.LastNotifiedPrice = &last
			},
			price: 480,
			fires: false,
		},
		{
			name: "lower price than last notification fires again",
			setup: func(a *model.PriceAlert) {
				last := decimal.NewFromInt(480)
				a.LastNotifiedPrice = &last
			},
			price: 450,
			fires: true,
		},
		{
			name:  "store-scoped alert ignores other stores",
			setup: func(a *model.PriceAlert) { a.StoreID = "s-home" },
			store: "s-other",
			price: 400,
			fires: false,
		},
		{
			name:  "store-scoped alert fires on its store",
			setup: func(a *model.PriceAlert) { a.StoreID = "s-home" },
			store: "s-home",
			price: 400,
			fires: true,
		},
	}

	eval := NewEvaluator(false, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAlert(500)
			if tt.setup != nil {
				tt.setup(a)
			}
			storeID := tt.store
			if storeID == "" {
				storeID = "s1"
			}

			n := eval.Evaluate(a, storeID, decimal.NewFromFloat(tt.price))
			if !tt.fires {
				assert.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			assert.Equal(t, a.ID, n.AlertID)
			assert.Equal(t, "u1", n.UserID)
			assert.Equal(t, storeID, n.StoreID)
			assert.True(t, n.Price.Equal(decimal.NewFromFloat(tt.price)))
			require.NotNil(t, a.LastNotifiedPrice)
			assert.True(t, a.LastNotifiedPrice.Equal(n.Price))
		})
	}
}

func TestEvaluateOneShotDeactivates(t *testing.T) {
	eval := NewEvaluator(true, nil)
	a := newAlert(500)

	n := eval.Evaluate(a, "s1", decimal.NewFromInt(480))
	require.NotNil(t, n)
	assert.False(t, a.Active)

	n = eval.Evaluate(a, "s1", decimal.NewFromInt(400))
	assert.Nil(t, n, "a one-shot alert stays quiet after firing")
}

func TestRegistryCreateValidation(t *testing.T) {
	reg := NewRegistry(store.NewMemory(), NewEvaluator(false, nil), nil)
	ctx := context.Background()

	_, err := reg.Create(ctx, "", "p1", "", decimal.NewFromInt(100))
	assert.Error(t, err)

	_, err = reg.Create(ctx, "u1", "", "", decimal.NewFromInt(100))
	assert.Error(t, err)

	_, err = reg.Create(ctx, "u1", "p1", "", decimal.Zero)
	assert.Error(t, err)

	a, err := reg.Create(ctx, "u1", "p1", "s1", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, a.Active)
	assert.NotEqual(t, uuid.Nil, a.ID)
}

func TestRegistryTriggerPersistsFiredAlerts(t *testing.T) {
	st := store.NewMemory()
	reg := NewRegistry(st, NewEvaluator(false, nil), nil)
	ctx := context.Background()

	a, err := reg.Create(ctx, "u1", "p1", "", decimal.NewFromInt(500))
	require.NoError(t, err)
	_, err = reg.Create(ctx, "u2", "p-other", "", decimal.NewFromInt(500))
	require.NoError(t, err)

	fired, err := reg.Trigger(ctx, "p1", "s1", decimal.NewFromInt(480))
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, a.ID, fired[0].AlertID)

	// the de-dup price must have been persisted
	saved, err := st.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.LastNotifiedPrice)
	assert.True(t, saved.LastNotifiedPrice.Equal(decimal.NewFromInt(480)))

	fired, err = reg.Trigger(ctx, "p1", "s1", decimal.NewFromInt(480))
	require.NoError(t, err)
	assert.Empty(t, fired, "identical price does not fire twice")
}

func TestRegistryListAndRemove(t *testing.T) {
	reg := NewRegistry(store.NewMemory(), NewEvaluator(false, nil), nil)
	ctx := context.Background()

	a1, err := reg.Create(ctx, "u1", "p1", "", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = reg.Create(ctx, "u1", "p2", "", decimal.NewFromInt(200))
	require.NoError(t, err)

	alerts, err := reg.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	require.NoError(t, reg.Remove(ctx, a1.ID))
	alerts, err = reg.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}
