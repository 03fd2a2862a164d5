package ports

import (
	"context"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// BankrollStorage persists the singleton bankroll state and its append-only
// transaction ledger. Implementations must serialize updates: UpdateAtomic is
// the single transactional boundary, one atomic read-modify-write per call.
type BankrollStorage interface {
	ApplySchema(ctx context.Context) error

	// GetState returns the singleton bankroll state, seeding it on first use.
	GetState(ctx context.Context) (domain.BankrollState, error)

	// UpdateAtomic runs fn inside one storage transaction. fn receives the
	// current state and the consecutive-loss count from the ledger tail, and
	// returns the new state plus the transaction to append. The ledger entry
	// is insert-only; the state row is the only thing updated in place.
	UpdateAtomic(ctx context.Context, fn func(state domain.BankrollState, consecutiveLosses int) (domain.BankrollState, domain.Transaction, error)) error

	// Transactions returns the most recent ledger entries, newest first.
	// limit <= 0 returns everything.
	Transactions(ctx context.Context, limit int) ([]domain.Transaction, error)

	// Reset clears the transaction log and reseeds the state. The only
	// destructive operation, reserved for explicit manual resets.
	Reset(ctx context.Context, initialUnits float64) error

	Close() error
}
