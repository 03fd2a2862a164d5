package domain

import "time"

// BankrollStatus is the circuit-breaker state of the ledger.
type BankrollStatus string

const (
	StatusActive   BankrollStatus = "ACTIVE"   // normal sizing, kelly 0.25
	StatusDegraded BankrollStatus = "DEGRADED" // drawdown > 20%, kelly 0.10
	StatusPaused   BankrollStatus = "PAUSED"   // terminal until manual reset, kelly 0
)

// BetResult is the real-world outcome reported back for a placed bet.
type BetResult string

const (
	ResultWin  BetResult = "WIN"
	ResultLoss BetResult = "LOSS"
	ResultPush BetResult = "PUSH"
)

// TransactionType classifies an entry in the append-only ledger.
type TransactionType string

const (
	TxReset      TransactionType = "RESET"
	TxBetWin     TransactionType = "BET_WIN"
	TxBetLoss    TransactionType = "BET_LOSS"
	TxAdjustment TransactionType = "ADJUSTMENT"
)

// BankrollState is the singleton financial state record.
//
// PeakUnits and MaxDrawdown are monotonically non-decreasing;
// CurrentUnits is floored at 0 for reporting.
type BankrollState struct {
	CurrentUnits  float64
	InitialUnits  float64
	PeakUnits     float64
	MaxDrawdown   float64
	KellyFraction float64 // active sizing multiplier, mutated only by the state machine
	Status        BankrollStatus
	LastUpdated   time.Time
}

// Drawdown returns the current proportional decline from the peak balance.
func (s BankrollState) Drawdown() float64 {
	if s.PeakUnits <= 0 {
		return 0
	}
	return (s.PeakUnits - s.CurrentUnits) / s.PeakUnits
}

// Transaction is one immutable entry of the financial ledger. Never mutated
// or deleted; the sole source of truth for consecutive-loss counting.
type Transaction struct {
	ID            int64
	Ref           string // uuid, stable correlation handle
	Timestamp     time.Time
	Type          TransactionType
	Amount        float64 // signed delta
	BalanceAfter  float64
	Note          string
	ExpectedValue float64
}
