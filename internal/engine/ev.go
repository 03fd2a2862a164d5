package engine

import (
	"errors"
	"fmt"

	"github.com/alejandrodnm/betguard/internal/domain"
)

var (
	// ErrInvalidProbability is returned when a probability falls outside [0,1].
	ErrInvalidProbability = errors.New("probability must be between 0 and 1")
	// ErrInvalidOdds is returned when decimal odds are not greater than 1.0.
	ErrInvalidOdds = errors.New("odds must be greater than 1.0")
)

// CalculateEV computes the expected value of a single bet.
//
// EV = probability * odds - 1, the average per-unit profit if the same bet
// were repeated infinitely. A bet is a value bet iff EV > 0 strictly.
//
// Invalid inputs fail fast with a validation error, never silently clamped.
func CalculateEV(probability, odds float64) (domain.EVResult, error) {
	if probability < 0 || probability > 1 {
		return domain.EVResult{}, fmt.Errorf("engine.CalculateEV: %w: got %v", ErrInvalidProbability, probability)
	}
	if odds <= 1.0 {
		return domain.EVResult{}, fmt.Errorf("engine.CalculateEV: %w: got %v", ErrInvalidOdds, odds)
	}

	ev := probability*odds - 1

	return domain.EVResult{
		Probability: probability,
		Odds:        odds,
		EV:          ev,
		IsValueBet:  ev > 0,
	}, nil
}
