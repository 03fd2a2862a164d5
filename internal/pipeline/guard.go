package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/betguard/internal/bankroll"
	"github.com/alejandrodnm/betguard/internal/domain"
	"github.com/alejandrodnm/betguard/internal/engine"
)

// RiskGuard is the final gatekeeper for betting operations. It composes the
// bankroll circuit breaker, the season-phase hard rules and the risk filter
// into one authority that cannot be bypassed by configuration.
type RiskGuard struct {
	bankroll *bankroll.Service
	filter   *engine.RiskFilter
}

// NewRiskGuard creates the guard over a bankroll service and a risk filter.
func NewRiskGuard(b *bankroll.Service, f *engine.RiskFilter) *RiskGuard {
	return &RiskGuard{bankroll: b, filter: f}
}

// ValidateBet runs the full validation chain. It never fails: storage errors
// degrade to a conservative block with the error as reason.
func (g *RiskGuard) ValidateBet(ctx context.Context, probability, ev float64, gameDate time.Time) domain.RiskDecision {
	// 1. Circuit breaker: bankroll status overrides everything.
	state, err := g.bankroll.State(ctx)
	if err != nil {
		slog.Warn("riskguard: bankroll state unavailable, blocking", "err", err)
		return blocked(fmt.Sprintf("BLOCKED: bankroll state unavailable (%v)", err))
	}
	if state.Status == domain.StatusPaused {
		return blocked("CIRCUIT BREAKER: system is PAUSED due to consecutive losses or severe drawdown")
	}

	// 2. Hard rule: early-season bets are prohibited regardless of filter
	// configuration (Oct - Dec 25).
	phase := domain.PhaseForDate(gameDate)
	if phase == domain.PhaseEarly {
		return blocked("HARD RULE: early season bets are strictly prohibited (Oct-Dec 25)")
	}

	// 3. Standard risk filter with the computed phase.
	decision := g.filter.Validate(probability, ev, phase)

	// 4. Degraded mode annotates the decision; the reduced Kelly fraction is
	// already enforced by the bankroll state.
	if decision.Allowed && state.Status == domain.StatusDegraded {
		decision.Reasons = append(decision.Reasons, "WARNING: operating in DEGRADED mode (drawdown > 20%)")
	}

	return decision
}

func blocked(reason string) domain.RiskDecision {
	return domain.RiskDecision{
		Allowed:        false,
		Reasons:        []string{reason},
		Aggressiveness: 0.0,
	}
}
