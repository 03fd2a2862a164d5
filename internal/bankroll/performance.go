package bankroll

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// Performance aggregates realized results from the transaction ledger.
type Performance struct {
	TotalBets   int
	Wins        int
	HitRate     float64
	NetProfit   float64 // sum of signed bet deltas, units
	ROIGrowth   float64 // (current - initial) / initial
	MaxDrawdown float64
}

// Performance computes aggregate metrics over the whole ledger. RESET and
// ADJUSTMENT entries are excluded from the bet counts.
func (s *Service) Performance(ctx context.Context) (Performance, error) {
	state, err := s.store.GetState(ctx)
	if err != nil {
		return Performance{}, fmt.Errorf("bankroll.Performance: read state: %w", err)
	}

	txs, err := s.store.Transactions(ctx, 0)
	if err != nil {
		return Performance{}, fmt.Errorf("bankroll.Performance: read ledger: %w", err)
	}

	perf := Performance{MaxDrawdown: state.MaxDrawdown}
	for _, tx := range txs {
		switch tx.Type {
		case domain.TxBetWin:
			perf.Wins++
		case domain.TxBetLoss:
		default:
			continue
		}
		perf.TotalBets++
		perf.NetProfit += tx.Amount
	}

	if perf.TotalBets > 0 {
		perf.HitRate = float64(perf.Wins) / float64(perf.TotalBets)
	}
	if state.InitialUnits > 0 {
		perf.ROIGrowth = (state.CurrentUnits - state.InitialUnits) / state.InitialUnits
	}
	return perf, nil
}
