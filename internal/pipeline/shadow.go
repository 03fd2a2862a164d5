package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/betguard/internal/domain"
	"github.com/alejandrodnm/betguard/internal/ports"
)

// ShadowBettor wraps the pipeline in paper-trading mode: it runs the very
// same decision chain, then unconditionally records the result — including
// PASS and BLOCKED — to the shadow ledger and the audit trail. No real
// capital moves through it.
type ShadowBettor struct {
	pipeline *Pipeline
	store    ports.ShadowStorage
	audit    ports.AuditStorage // optional
	notifier ports.Notifier     // optional
}

// NewShadowBettor creates a shadow bettor. audit and notifier may be nil.
func NewShadowBettor(p *Pipeline, store ports.ShadowStorage, audit ports.AuditStorage, notifier ports.Notifier) *ShadowBettor {
	return &ShadowBettor{pipeline: p, store: store, audit: audit, notifier: notifier}
}

// ProcessGame runs the pipeline and persists the decision. Recording
// failures are logged, never surfaced: the decision stands either way.
func (sb *ShadowBettor) ProcessGame(ctx context.Context, gameID string, probability, odds float64, gameDate time.Time) domain.BetDecision {
	decision := sb.pipeline.ProcessBet(ctx, gameID, probability, odds, gameDate)

	bet := domain.ShadowBet{
		ID:          uuid.New().String(),
		GameID:      decision.GameID,
		Decision:    decision.Decision,
		Probability: probability,
		Odds:        odds,
		Status:      domain.ShadowPending, // graded later, once the game resolves
		Reason:      decision.Reason,
		Timestamp:   time.Now().UTC(),
		StakeUnits:  decision.StakeUnits,
	}
	if decision.EV != nil {
		bet.EV = decision.EV.EV
	}
	if decision.Stake != nil {
		bet.KellyFraction = decision.Stake.KellyFraction
	}

	if err := sb.store.SaveShadowBet(ctx, bet); err != nil {
		slog.Error("shadow: failed to record bet", "game_id", gameID, "err", err)
	} else {
		slog.Info("shadow: decision recorded", "game_id", gameID, "decision", decision.Decision)
	}

	sb.auditDecision(ctx, decision)

	if sb.notifier != nil {
		if err := sb.notifier.NotifyDecision(ctx, decision); err != nil {
			slog.Warn("shadow: notify failed", "game_id", gameID, "err", err)
		}
	}

	return decision
}

// ProcessSlate evaluates every prediction the predictor offers. Games the
// predictor has no prior data for are skipped, not failed.
func (sb *ShadowBettor) ProcessSlate(ctx context.Context, predictor ports.Predictor) ([]domain.BetDecision, error) {
	predictions, err := predictor.Predictions(ctx)
	if err != nil && !errors.Is(err, ports.ErrNoPriorData) {
		return nil, fmt.Errorf("pipeline.ProcessSlate: %w", err)
	}

	decisions := make([]domain.BetDecision, 0, len(predictions))
	for _, pred := range predictions {
		decisions = append(decisions, sb.ProcessGame(ctx, pred.GameID, pred.Probability, pred.Odds, pred.GameDate))
	}
	return decisions, nil
}

func (sb *ShadowBettor) auditDecision(ctx context.Context, d domain.BetDecision) {
	if sb.audit == nil {
		return
	}

	var event domain.AuditEvent
	switch d.Decision {
	case domain.DecisionBet:
		ev := 0.0
		if d.EV != nil {
			ev = d.EV.EV
		}
		event = domain.AuditEvent{
			Type:    domain.AuditBetTaken,
			GameID:  d.GameID,
			Details: fmt.Sprintf("stake %.2fU, EV %.1f%%", d.StakeUnits, ev*100),
		}
	case domain.DecisionBlocked:
		event = domain.AuditEvent{
			Type:    domain.AuditBetBlocked,
			GameID:  d.GameID,
			Details: d.Reason,
		}
	default:
		return // PASS decisions live in the shadow ledger only
	}

	if err := sb.audit.AppendEvent(ctx, event); err != nil {
		slog.Warn("shadow: failed to append audit event", "game_id", d.GameID, "err", err)
	}
}
