package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/betguard/internal/bankroll"
	"github.com/alejandrodnm/betguard/internal/domain"
	"github.com/alejandrodnm/betguard/internal/engine"
)

// Pipeline orchestrates one betting decision:
// EV engine -> risk guard -> bankroll snapshot -> stake engine.
//
// It performs no writes; committing the outcome to the ledger is a separate,
// later call once the real result is known.
type Pipeline struct {
	guard    *RiskGuard
	bankroll *bankroll.Service
	stakeCfg engine.StakeConfig
}

// New creates a pipeline.
func New(guard *RiskGuard, b *bankroll.Service, stakeCfg engine.StakeConfig) *Pipeline {
	return &Pipeline{guard: guard, bankroll: b, stakeCfg: stakeCfg}
}

// ProcessBet evaluates a single opportunity and returns BET, PASS or
// BLOCKED with the full intermediate results attached.
func (p *Pipeline) ProcessBet(ctx context.Context, gameID string, probability, odds float64, gameDate time.Time) domain.BetDecision {
	slog.Info("pipeline: processing game",
		"game_id", gameID,
		"probability", fmt.Sprintf("%.1f%%", probability*100),
		"odds", fmt.Sprintf("%.2f", odds),
	)

	// 1. Input sanity: invalid numbers are a PASS, not a crash.
	evRes, err := engine.CalculateEV(probability, odds)
	if err != nil {
		return pass(gameID, gameDate, fmt.Sprintf("invalid input: %v", err), nil, nil, nil)
	}

	// 2. Value check: zero or negative edge is a PASS before any risk logic.
	if evRes.EV <= 0 {
		return pass(gameID, gameDate, fmt.Sprintf("negative value: EV %.1f%%", evRes.EV*100), &evRes, nil, nil)
	}

	// 3. Risk guard: circuit breaker + season hard rules + filter.
	risk := p.guard.ValidateBet(ctx, probability, evRes.EV, gameDate)
	if !risk.Allowed {
		return domain.BetDecision{
			GameID:   gameID,
			GameDate: gameDate,
			Decision: domain.DecisionBlocked,
			EV:       &evRes,
			Risk:     &risk,
			Reason:   strings.Join(risk.Reasons, " | "),
		}
	}

	// 4. Bankroll snapshot for sizing. The PAUSED re-check is a redundant
	// safety net behind the guard.
	state, err := p.bankroll.State(ctx)
	if err != nil {
		return pass(gameID, gameDate, fmt.Sprintf("bankroll unavailable: %v", err), &evRes, &risk, nil)
	}
	if state.Status == domain.StatusPaused {
		return domain.BetDecision{
			GameID:   gameID,
			GameDate: gameDate,
			Decision: domain.DecisionBlocked,
			EV:       &evRes,
			Risk:     &risk,
			Reason:   "CIRCUIT BREAKER: bankroll paused",
		}
	}

	// 5. Stake engine with the ledger's active Kelly fraction and the
	// guard's aggressiveness multiplying independently.
	stake := engine.CalculateStake(probability, odds, state.CurrentUnits,
		state.KellyFraction, risk.Aggressiveness, p.stakeCfg)
	if stake.RecommendedStake <= 0 {
		return pass(gameID, gameDate, "zero stake recommended (below minimum or no edge)", &evRes, &risk, &stake)
	}

	return domain.BetDecision{
		GameID:     gameID,
		GameDate:   gameDate,
		Decision:   domain.DecisionBet,
		StakeUnits: stake.RecommendedStake,
		EV:         &evRes,
		Risk:       &risk,
		Stake:      &stake,
		Reason:     fmt.Sprintf("approved: EV %.1f%%, stake %.2fU", evRes.EV*100, stake.RecommendedStake),
	}
}

func pass(gameID string, gameDate time.Time, reason string, ev *domain.EVResult, risk *domain.RiskDecision, stake *domain.StakeResult) domain.BetDecision {
	return domain.BetDecision{
		GameID:   gameID,
		GameDate: gameDate,
		Decision: domain.DecisionPass,
		EV:       ev,
		Risk:     risk,
		Stake:    stake,
		Reason:   reason,
	}
}
