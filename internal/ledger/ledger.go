// Package ledger owns the per-record trust state machine. Every price
// record enters as pending and is promoted or demoted by reputation-weighted
// community votes; verified and rejected are terminal.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/internal/reputation"
	"github.com/pricewatch/engine/internal/store"
	"github.com/pricewatch/engine/pkg/model"
)

// Config holds the verification thresholds. All values are caller-supplied
// so deployments can tune moderation strictness without code changes.
type Config struct {
	// VerifyThreshold is the net score at or above which a record verifies.
	VerifyThreshold int
	// RejectThreshold is the magnitude of the negative net score at or
	// below which a record is rejected.
	RejectThreshold int
	// TrustedReputation is the reputation above which a submitter's own
	// record verifies immediately, bypassing voting.
	TrustedReputation int
	// MaxPrice is the upper bound on a plausible submission.
	MaxPrice decimal.Decimal
}

// DefaultConfig returns the stock moderation thresholds.
func DefaultConfig() Config {
	return Config{
		VerifyThreshold:   10,
		RejectThreshold:   5,
		TrustedReputation: 500,
		MaxPrice:          decimal.NewFromInt(1_000_000),
	}
}

// SubmitInput is a new price observation before it has an identity.
type SubmitInput struct {
	ProductID  string
	StoreID    string
	UserID     string // empty for anonymous submissions
	Price      decimal.Decimal
	ObservedAt time.Time // zero value means "now"
	OnSale     bool
}

type voteEntry struct {
	weight   int
	endorses bool
}

// Ledger applies votes to price records and records every state change.
// A single mutex serializes mutations so votes on the same record are
// applied in the order the caller submits them.
type Ledger struct {
	cfg    Config
	repo   store.RecordRepository
	rep    reputation.Lookup
	logger *zap.Logger

	mu      sync.Mutex
	votes   map[uuid.UUID]map[string]voteEntry
	history map[uuid.UUID][]AuditEntry
	recent  []time.Time // finalization timestamps, for stats
}

// New constructs a ledger over the given record repository.
// rep may be nil, which disables the trusted-contributor fast path.
func New(cfg Config, repo store.RecordRepository, rep reputation.Lookup, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		cfg:     cfg,
		repo:    repo,
		rep:     rep,
		logger:  logger,
		votes:   make(map[uuid.UUID]map[string]voteEntry),
		history: make(map[uuid.UUID][]AuditEntry),
	}
}

// Submit validates and stores a new observation. Records start pending
// unless the submitter's reputation clears the trusted-contributor bar, in
// which case the record verifies immediately.
func (l *Ledger) Submit(ctx context.Context, in SubmitInput) (*model.PriceRecord, error) {
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0, got %s", ErrInvalidPrice, in.Price)
	}
	if in.Price.GreaterThan(l.cfg.MaxPrice) {
		return nil, fmt.Errorf("%w: price %s exceeds maximum %s", ErrInvalidPrice, in.Price, l.cfg.MaxPrice)
	}

	observedAt := in.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	state := model.StatePending
	if in.UserID != "" && l.rep != nil {
		if rep := l.rep.Reputation(ctx, in.UserID); rep > l.cfg.TrustedReputation {
			state = model.StateVerified
		}
	}

	rec := &model.PriceRecord{
		ID:         uuid.New(),
		ProductID:  in.ProductID,
		StoreID:    in.StoreID,
		UserID:     in.UserID,
		Price:      in.Price,
		ObservedAt: observedAt,
		OnSale:     in.OnSale,
		State:      state,
	}

	if err := l.repo.Save(ctx, *rec); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}

	l.mu.Lock()
	l.appendAudit(rec.ID, "", state, in.UserID)
	if state == model.StateVerified {
		l.recent = append(l.recent, time.Now().UTC())
	}
	l.mu.Unlock()

	l.logger.Info("ledger.submit.accepted",
		zap.String("record_id", rec.ID.String()),
		zap.String("product_id", rec.ProductID),
		zap.String("store_id", rec.StoreID),
		zap.String("price", rec.Price.String()),
		zap.String("state", string(state)),
	)
	return rec, nil
}

// Vote applies a reputation-weighted vote to a pending record. A repeat
// vote from the same voter replaces the earlier one; the net score is
// recomputed from scratch so replacement never stacks.
func (l *Ledger) Vote(ctx context.Context, recordID uuid.UUID, voterID string, reputationPts int, endorses bool) (model.TransitionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.get(ctx, recordID)
	if err != nil {
		return model.TransitionResult{}, err
	}
	if rec.State.Terminal() {
		return model.TransitionResult{State: rec.State}, fmt.Errorf("%w: record %s is %s", ErrRecordFinalized, recordID, rec.State)
	}

	byVoter, ok := l.votes[recordID]
	if !ok {
		byVoter = make(map[string]voteEntry)
		l.votes[recordID] = byVoter
	}
	byVoter[voterID] = voteEntry{weight: voteWeight(reputationPts), endorses: endorses}

	score, verifies, rejects := tally(byVoter)
	rec.VerifyVotes = verifies
	rec.RejectVotes = rejects

	prior := rec.State
	switch {
	case score >= l.cfg.VerifyThreshold:
		rec.State = model.StateVerified
	case score <= -l.cfg.RejectThreshold:
		rec.State = model.StateRejected
	}
	transitioned := rec.State != prior

	if err := l.repo.Save(ctx, *rec); err != nil {
		return model.TransitionResult{}, fmt.Errorf("save record: %w", err)
	}

	if transitioned {
		l.appendAudit(recordID, prior, rec.State, voterID)
		l.recent = append(l.recent, time.Now().UTC())
		l.logger.Info("ledger.record.finalized",
			zap.String("record_id", recordID.String()),
			zap.String("state", string(rec.State)),
			zap.Int("score", score),
		)
	}

	return model.TransitionResult{State: rec.State, Transitioned: transitioned, Score: score}, nil
}

// Get fetches a record by id.
func (l *Ledger) Get(ctx context.Context, recordID uuid.UUID) (*model.PriceRecord, error) {
	return l.get(ctx, recordID)
}

func (l *Ledger) get(ctx context.Context, recordID uuid.UUID) (*model.PriceRecord, error) {
	rec, err := l.repo.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
		}
		return nil, err
	}
	return rec, nil
}

// SubmissionStats counts all records by state across the ledger.
func (l *Ledger) SubmissionStats(ctx context.Context) (model.SubmissionStats, error) {
	records, err := l.repo.ListAll(ctx)
	if err != nil {
		return model.SubmissionStats{}, err
	}

	stats := model.SubmissionStats{Total: len(records)}
	products := make(map[string]struct{})
	stores := make(map[string]struct{})
	for _, r := range records {
		switch r.State {
		case model.StatePending:
			stats.Pending++
		case model.StateVerified:
			stats.Verified++
		case model.StateRejected:
			stats.Rejected++
		}
		products[r.ProductID] = struct{}{}
		stores[r.StoreID] = struct{}{}
	}
	stats.Products = len(products)
	stats.Stores = len(stores)
	return stats, nil
}

func voteWeight(reputationPts int) int {
	w := reputationPts / 100
	if w < 1 {
		w = 1 // low-reputation voters always count at least 1
	}
	return w
}

func tally(byVoter map[string]voteEntry) (score, verifies, rejects int) {
	for _, v := range byVoter {
		if v.endorses {
			score += v.weight
			verifies++
		} else {
			score -= v.weight
			rejects++
		}
	}
	return score, verifies, rejects
}
