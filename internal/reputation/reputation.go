// Package reputation exposes the read-only reputation lookup the engine
// consumes. User management owns the scores; the engine only weights votes
// with them.
package reputation

import (
	"context"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Lookup resolves a user's reputation score. Unknown users score 0.
type Lookup interface {
	Reputation(ctx context.Context, userID string) int
}

// Static is a fixed in-memory lookup, used in tests and single-process
// deployments where user management pushes scores directly.
type Static struct {
	mu     sync.RWMutex
	scores map[string]int
}

// NewStatic seeds a static lookup. scores may be nil.
func NewStatic(scores map[string]int) *Static {
	if scores == nil {
		scores = make(map[string]int)
	}
	return &Static{scores: scores}
}

func (s *Static) Reputation(ctx context.Context, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[userID]
}

// Set updates a user's score.
func (s *Static) Set(userID string, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[userID] = score
}

// RedisLookup reads reputation scores published to Redis by the user
// management service. Missing or malformed keys resolve to 0.
type RedisLookup struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedis constructs a lookup over the given client. Keys are
// "<prefix><userID>" holding the integer score.
func NewRedis(rdb *redis.Client, prefix string, logger *zap.Logger) *RedisLookup {
	if prefix == "" {
		prefix = "pricewatch:reputation:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLookup{rdb: rdb, prefix: prefix, logger: logger}
}

func (r *RedisLookup) Reputation(ctx context.Context, userID string) int {
	val, err := r.rdb.Get(ctx, r.prefix+userID).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("reputation.redis.get_failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
		return 0
	}
	score, err := strconv.Atoi(val)
	if err != nil {
		r.logger.Warn("reputation.redis.malformed_score",
			zap.String("user_id", userID),
			zap.String("value", val))
		return 0
	}
	return score
}
