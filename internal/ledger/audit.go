package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pricewatch/engine/pkg/model"
)

// AuditEntry records a single verification state change. Entries are
// append-only; together they form the moderation history of a record.
type AuditEntry struct {
	RecordID uuid.UUID               `json:"record_id"`
	From     model.VerificationState `json:"from,omitempty"`
	To       model.VerificationState `json:"to"`
	Actor    string                  `json:"actor,omitempty"`
	At       time.Time               `json:"at"`
}

// VerificationStats summarizes moderation activity across the ledger.
type VerificationStats struct {
	Pending          int     `json:"pending"`
	Verified         int     `json:"verified"`
	Rejected         int     `json:"rejected"`
	VerificationRate float64 `json:"verification_rate"` // percent of all records
	Recent24h        int     `json:"recent_24h"`        // finalizations in the last 24h
}

// caller must hold l.mu
func (l *Ledger) appendAudit(recordID uuid.UUID, from, to model.VerificationState, actor string) {
	l.history[recordID] = append(l.history[recordID], AuditEntry{
		RecordID: recordID,
		From:     from,
		To:       to,
		Actor:    actor,
		At:       time.Now().UTC(),
	})
}

// History returns the state-change trail for a record, oldest first.
func (l *Ledger) History(recordID uuid.UUID) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.history[recordID]
	out := make([]AuditEntry, len(entries))
	copy(out, entries)
	return out
}

// VerificationStats reports per-state counts, the verification rate, and
// how many records finalized within the trailing 24 hours.
func (l *Ledger) VerificationStats(ctx context.Context) (VerificationStats, error) {
	sub, err := l.SubmissionStats(ctx)
	if err != nil {
		return VerificationStats{}, err
	}

	stats := VerificationStats{
		Pending:  sub.Pending,
		Verified: sub.Verified,
		Rejected: sub.Rejected,
	}
	if sub.Total > 0 {
		stats.VerificationRate = float64(sub.Verified) / float64(sub.Total) * 100
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	l.mu.Lock()
	for _, at := range l.recent {
		if at.After(cutoff) {
			stats.Recent24h++
		}
	}
	l.mu.Unlock()

	return stats, nil
}
