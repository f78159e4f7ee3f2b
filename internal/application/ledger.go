package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/atvirokodosprendimai/topicgraph/internal/metrics"
	"go.uber.org/zap"
)

type LedgerResult struct {
	Record      domain.InteractionRecord `json:"record"`
	Incremented bool                     `json:"incremented"`
}

// Ledger records which contribution kinds a user has made in a topic. All
// atomicity lives in the store; the ledger adds validation, one retry on a
// concurrency conflict, logging and metrics.
type Ledger struct {
	store   domain.InteractionRepository
	logger  *zap.Logger
	metrics *metrics.Collector
}

func NewLedger(store domain.InteractionRepository, logger *zap.Logger, m *metrics.Collector) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger.Named("ledger"), metrics: m}
}

func (l *Ledger) RecordAction(ctx context.Context, userID, topicID uint, kind domain.ActionKind) (LedgerResult, error) {
	if userID == 0 {
		return LedgerResult{}, domain.NewAuthorizationError("")
	}
	if topicID == 0 {
		return LedgerResult{}, domain.NewValidationError("topic is required")
	}
	if !kind.Valid() {
		return LedgerResult{}, domain.NewValidationError("unknown action kind %q", kind)
	}

	rec, incremented, err := l.store.RecordInteraction(ctx, userID, topicID, kind)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		l.metrics.LedgerRetry(string(kind))
		l.logger.Debug("retrying interaction after conflict",
			zap.Uint("user_id", userID),
			zap.Uint("topic_id", topicID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		rec, incremented, err = l.store.RecordInteraction(ctx, userID, topicID, kind)
	}
	if err != nil {
		return LedgerResult{}, err
	}

	if incremented {
		l.metrics.LedgerTransition(string(kind))
	}
	return LedgerResult{Record: rec, Incremented: incremented}, nil
}

// recordAfterWrite is used once a primary write has committed. A failure is
// logged and returned as a warning; it never undoes the write.
func (l *Ledger) recordAfterWrite(ctx context.Context, userID, topicID uint, kind domain.ActionKind) string {
	if _, err := l.RecordAction(ctx, userID, topicID, kind); err != nil {
		l.metrics.LedgerFailure(string(kind))
		l.logger.Warn("interaction not recorded",
			zap.Uint("user_id", userID),
			zap.Uint("topic_id", topicID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return fmt.Sprintf("interaction not recorded: %v", err)
	}
	return ""
}

func (l *Ledger) ListForUser(ctx context.Context, actor domain.Identity) ([]domain.InteractionRecord, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return l.store.ListInteractionsByUser(ctx, actor.User.ID)
}

func (l *Ledger) ListForTopic(ctx context.Context, topicID uint) ([]domain.InteractionRecord, error) {
	return l.store.ListInteractionsByTopic(ctx, topicID)
}
