package engine

import (
	"fmt"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// Aggressiveness multipliers applied by the season-phase policy.
const (
	AggressivenessNormal      = 1.0
	AggressivenessPreDeadline = 0.5 // reduced during trade-deadline uncertainty
	AggressivenessEarlySeason = 0.0 // complete block
)

// FilterConfig holds the configurable thresholds of the risk filter.
type FilterConfig struct {
	// MinProbability blocks bets below this predicted probability.
	MinProbability float64
	// DeadZoneLow..DeadZoneHigh is the [low, high) probability band that is
	// always blocked regardless of EV.
	DeadZoneLow  float64
	DeadZoneHigh float64
	// MinEV blocks bets below this expected value.
	MinEV float64
	// BlockEarlySeason blocks all early-season bets (volatile win percentages).
	BlockEarlySeason bool
	// ReducePreDeadline scales aggressiveness down near the trade deadline.
	ReducePreDeadline bool
}

// DefaultFilterConfig returns the documented risk policy thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinProbability:    0.55,
		DeadZoneLow:       0.50,
		DeadZoneHigh:      0.55,
		MinEV:             0.03,
		BlockEarlySeason:  true,
		ReducePreDeadline: true,
	}
}

// RiskFilter is the stateless rule evaluator. Rules are checked
// independently and every violation is reported; any failing rule blocks.
type RiskFilter struct {
	cfg FilterConfig
}

// NewRiskFilter creates a RiskFilter with the given thresholds.
func NewRiskFilter(cfg FilterConfig) *RiskFilter {
	return &RiskFilter{cfg: cfg}
}

// Validate decides whether a bet is allowed. It never fails; the outcome is
// always a structured decision with human-readable reasons.
func (f *RiskFilter) Validate(probability, ev float64, phase domain.SeasonPhase) domain.RiskDecision {
	var reasons []string
	allowed := true
	aggressiveness := AggressivenessNormal

	// Rule 1: probability dead zone. Blocks on probability alone, even for
	// high-EV bets — a coin-flip band is too uncertain to trust the model.
	if probability >= f.cfg.DeadZoneLow && probability < f.cfg.DeadZoneHigh {
		allowed = false
		reasons = append(reasons, fmt.Sprintf("BLOCKED: probability %.1f%% in dead zone [%.0f%%-%.0f%%)",
			probability*100, f.cfg.DeadZoneLow*100, f.cfg.DeadZoneHigh*100))
	}

	// Rule 2: minimum probability.
	if probability < f.cfg.MinProbability {
		allowed = false
		reasons = append(reasons, fmt.Sprintf("BLOCKED: probability %.1f%% < min %.0f%%",
			probability*100, f.cfg.MinProbability*100))
	}

	// Rule 3: minimum EV.
	if ev < f.cfg.MinEV {
		allowed = false
		reasons = append(reasons, fmt.Sprintf("BLOCKED: EV %.1f%% < min %.0f%%",
			ev*100, f.cfg.MinEV*100))
	}

	// Rule 4: season-phase policy.
	switch {
	case phase == domain.PhaseEarly && f.cfg.BlockEarlySeason:
		allowed = false
		aggressiveness = AggressivenessEarlySeason
		reasons = append(reasons, "BLOCKED: early season (volatile win percentages)")
	case phase == domain.PhasePreDeadline && f.cfg.ReducePreDeadline:
		aggressiveness = AggressivenessPreDeadline
		reasons = append(reasons, fmt.Sprintf("WARNING: pre-trade deadline (aggressiveness reduced to %.0f%%)",
			aggressiveness*100))
	}

	// Rule 5: hard rule, independent of the configurable MinEV.
	if ev <= 0 {
		allowed = false
		reasons = append(reasons, fmt.Sprintf("BLOCKED: negative or zero EV (%.1f%%)", ev*100))
	}

	if !allowed {
		aggressiveness = 0.0
	}

	return domain.RiskDecision{
		Allowed:        allowed,
		Reasons:        reasons,
		Aggressiveness: aggressiveness,
	}
}
