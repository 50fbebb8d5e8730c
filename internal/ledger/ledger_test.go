package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/engine/internal/reputation"
	"github.com/pricewatch/engine/internal/store"
	"github.com/pricewatch/engine/pkg/model"
)

func newTestLedger(scores map[string]int) (*Ledger, *store.MemoryStore) {
	st := store.NewMemory()
	rep := reputation.NewStatic(scores)
	return New(DefaultConfig(), st, rep, nil), st
}

func submitPending(t *testing.T, l *Ledger, price int64) *model.PriceRecord {
	t.Helper()
	rec, err := l.Submit(context.Background(), SubmitInput{
		ProductID: "p1",
		StoreID:   "s1",
		UserID:    "casual",
		Price:     decimal.NewFromInt(price),
	})
	require.NoError(t, err)
	require.Equal(t, model.StatePending, rec.State)
	return rec
}

func TestSubmitRejectsInvalidPrice(t *testing.T) {
	l, _ := newTestLedger(nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		price decimal.Decimal
	}{
		{"negative", decimal.NewFromInt(-1)},
		{"above maximum", decimal.NewFromInt(2_000_000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Submit(ctx, SubmitInput{ProductID: "p1", StoreID: "s1", Price: tt.price})
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}

	// a rejected submit leaves the ledger unchanged
	stats, err := l.SubmissionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestSubmitZeroPriceAllowed(t *testing.T) {
	l, _ := newTestLedger(nil)

	rec, err := l.Submit(context.Background(), SubmitInput{ProductID: "p1", StoreID: "s1", Price: decimal.Zero})
	require.NoError(t, err)
	assert.Equal(t, model.StatePending, rec.State)
}

func TestTrustedContributorFastPath(t *testing.T) {
	l, _ := newTestLedger(map[string]int{"moderator": 750, "casual": 50})
	ctx := context.Background()

	rec, err := l.Submit(ctx, SubmitInput{
		ProductID: "p1", StoreID: "s1", UserID: "moderator", Price: decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StateVerified, rec.State)

	rec, err = l.Submit(ctx, SubmitInput{
		ProductID: "p1", StoreID: "s1", UserID: "casual", Price: decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatePending, rec.State)
}

func TestVoteWeighting(t *testing.T) {
	// Weight is reputation/100, floored at 1.
	tests := []struct {
		reputation int
		weight     int
	}{
		{-50, 1},
		{0, 1},
		{50, 1},
		{100, 1},
		{250, 2},
		{1500, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.weight, voteWeight(tt.reputation), "reputation %d", tt.reputation)
	}
}

// Submission by a reputation-50 user stays pending through three weight-1
// endorsements, then verifies when a reputation-1500 endorsement lands.
func TestVerificationScenario(t *testing.T) {
	l, _ := newTestLedger(map[string]int{"casual": 50})
	ctx := context.Background()
	rec := submitPending(t, l, 1000)

	for _, voter := range []string{"v1", "v2", "v3"} {
		res, err := l.Vote(ctx, rec.ID, voter, 100, true)
		require.NoError(t, err)
		assert.Equal(t, model.StatePending, res.State)
		assert.False(t, res.Transitioned)
	}

	res, err := l.Vote(ctx, rec.ID, "heavyweight", 1500, true)
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, model.StateVerified, res.State)
	assert.Equal(t, 18, res.Score) // 3×1 + 15

	got, err := l.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateVerified, got.State)
	assert.Equal(t, 4, got.VerifyVotes)
}

func TestRejectionThreshold(t *testing.T) {
	l, _ := newTestLedger(nil)
	ctx := context.Background()
	rec := submitPending(t, l, 1000)

	res, err := l.Vote(ctx, rec.ID, "skeptic", 500, false) // weight 5
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, model.StateRejected, res.State)
	assert.Equal(t, -5, res.Score)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	l, _ := newTestLedger(nil)
	ctx := context.Background()
	rec := submitPending(t, l, 1000)

	_, err := l.Vote(ctx, rec.ID, "heavyweight", 1000, true)
	require.NoError(t, err)

	res, err := l.Vote(ctx, rec.ID, "latecomer", 100, false)
	assert.ErrorIs(t, err, ErrRecordFinalized)
	assert.Equal(t, model.StateVerified, res.State)

	got, err := l.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateVerified, got.State)
}

func TestRevoteReplacesInsteadOfStacking(t *testing.T) {
	l, _ := newTestLedger(nil)
	ctx := context.Background()
	rec := submitPending(t, l, 1000)

	// five endorsements from the same voter count once
	var res model.TransitionResult
	var err error
	for i := 0; i < 5; i++ {
		res, err = l.Vote(ctx, rec.ID, "enthusiast", 100, true)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, model.StatePending, res.State)

	got, err := l.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VerifyVotes)

	// flipping sides replaces the endorsement with a dispute
	res, err = l.Vote(ctx, rec.ID, "enthusiast", 100, false)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Score)

	got, err = l.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.VerifyVotes)
	assert.Equal(t, 1, got.RejectVotes)
}

func TestVoteOnUnknownRecord(t *testing.T) {
	l, _ := newTestLedger(nil)

	_, err := l.Vote(context.Background(), uuid.New(), "voter", 100, true)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestAuditHistory(t *testing.T) {
	l, _ := newTestLedger(nil)
	ctx := context.Background()
	rec := submitPending(t, l, 1000)

	_, err := l.Vote(ctx, rec.ID, "heavyweight", 1000, true)
	require.NoError(t, err)

	history := l.History(rec.ID)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatePending, history[0].To)
	assert.Equal(t, model.StatePending, history[1].From)
	assert.Equal(t, model.StateVerified, history[1].To)
	assert.Equal(t, "heavyweight", history[1].Actor)
}

func TestVerificationStats(t *testing.T) {
	l, _ := newTestLedger(map[string]int{"moderator": 750})
	ctx := context.Background()

	_, err := l.Submit(ctx, SubmitInput{ProductID: "p1", StoreID: "s1", UserID: "moderator", Price: decimal.NewFromInt(100)})
	require.NoError(t, err)
	submitPending(t, l, 200)

	stats, err := l.VerificationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Verified)
	assert.Equal(t, 1, stats.Pending)
	assert.InDelta(t, 50.0, stats.VerificationRate, 0.001)
	assert.Equal(t, 1, stats.Recent24h)
}
