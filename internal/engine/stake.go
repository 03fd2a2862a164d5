package engine

import "github.com/alejandrodnm/betguard/internal/domain"

// StakeConfig holds the position-sizing limits.
type StakeConfig struct {
	// FractionalKelly scales the raw Kelly fraction down to reduce variance
	// (0.25 = quarter Kelly). The bankroll state machine can override it.
	FractionalKelly float64
	// MaxStakePercent is the hard per-bet cap as a fraction of bankroll.
	MaxStakePercent float64
	// MinStakeUnits zeroes stakes that fall below this floor.
	MinStakeUnits float64
}

// DefaultStakeConfig returns the documented sizing policy.
func DefaultStakeConfig() StakeConfig {
	return StakeConfig{
		FractionalKelly: 0.25,
		MaxStakePercent: 0.05,
		MinStakeUnits:   0.01,
	}
}

// Kelly computes the raw Kelly fraction f* = (p*odds - 1) / (odds - 1), the
// bankroll fraction that maximizes long-run geometric growth.
func Kelly(probability, odds float64) float64 {
	if odds <= 1.0 {
		return 0.0
	}
	return (probability*odds - 1) / (odds - 1)
}

// CalculateStake sizes a position with fractional Kelly. The stake is the
// product of bankroll, f*, the active Kelly multiplier and the risk filter's
// aggressiveness, capped at MaxStakePercent of bankroll and zeroed below
// MinStakeUnits. Deterministic, pure given inputs.
func CalculateStake(probability, odds, bankroll, fractionalKelly, aggressiveness float64, cfg StakeConfig) domain.StakeResult {
	kelly := Kelly(probability, odds)

	// Negative or zero edge: no bet.
	if kelly <= 0 {
		return domain.StakeResult{KellyFraction: kelly, WasZeroed: true}
	}

	stake := bankroll * kelly * fractionalKelly * aggressiveness

	var capped, zeroed bool
	if maxStake := bankroll * cfg.MaxStakePercent; stake > maxStake {
		stake = maxStake
		capped = true
	}
	if stake < cfg.MinStakeUnits {
		stake = 0.0
		zeroed = true
	}

	percent := 0.0
	if bankroll > 0 {
		percent = stake / bankroll
	}

	return domain.StakeResult{
		KellyFraction:    kelly,
		RecommendedStake: stake,
		StakePercent:     percent,
		WasCapped:        capped,
		WasZeroed:        zeroed,
	}
}
