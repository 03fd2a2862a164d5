package ports

import (
	"context"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// Notifier reports pipeline decisions to an output channel.
type Notifier interface {
	// NotifyDecision presents one evaluated opportunity. The console
	// implementation prints a formatted table row per decision.
	NotifyDecision(ctx context.Context, decision domain.BetDecision) error
}
