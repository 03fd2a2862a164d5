package ports

import (
	"context"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// ShadowStorage persists the append-only shadow-bet decision ledger.
type ShadowStorage interface {
	SaveShadowBet(ctx context.Context, bet domain.ShadowBet) error

	// GradeShadowBet resolves a PENDING record to WON or LOST once the real
	// outcome is known. The sole sanctioned mutation on the ledger.
	GradeShadowBet(ctx context.Context, id string, status domain.ShadowStatus) error

	// ShadowBets returns recorded decisions, newest first. limit <= 0
	// returns everything.
	ShadowBets(ctx context.Context, limit int) ([]domain.ShadowBet, error)

	// DecisionMetrics aggregates the ledger for observability: how many
	// opportunities were blocked and the average EV seen.
	DecisionMetrics(ctx context.Context) (blocked int, avgEV float64, err error)
}

// AuditStorage persists the strictly append-only behavioral trail.
type AuditStorage interface {
	AppendEvent(ctx context.Context, event domain.AuditEvent) error
	Events(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}
