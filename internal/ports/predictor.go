package ports

import (
	"context"
	"errors"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// ErrNoPriorData signals that the predictor has no historical data for a
// game (the upstream leakage guard). Callers skip the game instead of
// treating it as a pipeline failure.
var ErrNoPriorData = errors.New("no prior data for game")

// Predictor supplies win probabilities and market odds for upcoming games.
// The model and odds feed behind it are external collaborators; this core
// only consumes their output.
type Predictor interface {
	// Predictions returns every opportunity available for evaluation.
	Predictions(ctx context.Context) ([]domain.Prediction, error)
}
