package bankroll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/betguard/internal/domain"
	"github.com/alejandrodnm/betguard/internal/ports"
)

// Config holds the circuit-breaker thresholds of the ledger state machine.
type Config struct {
	InitialUnits float64

	// Kelly multipliers per state. PAUSED is always 0.
	ActiveKelly   float64
	DegradedKelly float64

	// DegradeDrawdown trips ACTIVE -> DEGRADED; RecoverDrawdown restores
	// DEGRADED -> ACTIVE. The gap between them is the hysteresis band that
	// prevents flapping around a single threshold.
	DegradeDrawdown float64
	RecoverDrawdown float64

	// PauseDrawdown and PauseLossStreak trip any state -> PAUSED, terminal
	// until a manual reset.
	PauseDrawdown   float64
	PauseLossStreak int
}

// DefaultConfig returns the documented risk de-escalation policy.
func DefaultConfig() Config {
	return Config{
		InitialUnits:    100.0,
		ActiveKelly:     0.25,
		DegradedKelly:   0.10,
		DegradeDrawdown: 0.20,
		RecoverDrawdown: 0.15,
		PauseDrawdown:   0.40,
		PauseLossStreak: 10,
	}
}

// Service is the persisted bankroll ledger: a singleton financial state, an
// append-only transaction log and a three-state circuit breaker evaluated on
// every update. Construct one per storage handle; there is no global instance.
type Service struct {
	store ports.BankrollStorage
	audit ports.AuditStorage // optional
	cfg   Config
	mu    sync.Mutex
}

// New creates a bankroll service over the given storage. audit may be nil.
func New(store ports.BankrollStorage, audit ports.AuditStorage, cfg Config) *Service {
	return &Service{store: store, audit: audit, cfg: cfg}
}

// State returns the current financial snapshot.
func (s *Service) State(ctx context.Context) (domain.BankrollState, error) {
	return s.store.GetState(ctx)
}

// KellyFraction returns the active sizing multiplier.
func (s *Service) KellyFraction(ctx context.Context) (float64, error) {
	state, err := s.store.GetState(ctx)
	if err != nil {
		return 0, err
	}
	return state.KellyFraction, nil
}

// Update applies a real-world bet result to the ledger: WIN adds
// profitUnits, LOSS subtracts stakeUnits, PUSH applies zero. Exactly one
// transaction is appended per call and the state machine is re-evaluated.
//
// While PAUSED the update is a logged no-op, balance unchanged — the circuit
// breaker's enforcement point. Returns the balance after the update.
func (s *Service) Update(ctx context.Context, result domain.BetResult, stakeUnits, profitUnits float64, note string, expectedValue float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.GetState(ctx)
	if err != nil {
		return 0, fmt.Errorf("bankroll.Update: read state: %w", err)
	}
	if state.Status == domain.StatusPaused {
		slog.Warn("bankroll: update attempted while PAUSED, ignoring",
			"result", result, "stake", stakeUnits, "note", note)
		return state.CurrentUnits, nil
	}

	var change float64
	var txType domain.TransactionType
	switch result {
	case domain.ResultWin:
		change = profitUnits
		txType = domain.TxBetWin
	case domain.ResultLoss:
		change = -stakeUnits
		txType = domain.TxBetLoss
	case domain.ResultPush:
		change = 0.0
		txType = domain.TxAdjustment
		if note != "" {
			note = "PUSH - " + note
		} else {
			note = "PUSH"
		}
	default:
		return 0, fmt.Errorf("bankroll.Update: invalid result %q", result)
	}

	var transition *stateTransition
	var balance float64

	err = s.store.UpdateAtomic(ctx, func(cur domain.BankrollState, priorLosses int) (domain.BankrollState, domain.Transaction, error) {
		newBalance := cur.CurrentUnits + change
		if newBalance < 0 {
			newBalance = 0
		}

		newPeak := cur.PeakUnits
		if newBalance > newPeak {
			newPeak = newBalance
		}
		drawdown := 0.0
		if newPeak > 0 {
			drawdown = (newPeak - newBalance) / newPeak
		}
		newMaxDrawdown := cur.MaxDrawdown
		if drawdown > newMaxDrawdown {
			newMaxDrawdown = drawdown
		}

		// The streak this update produces: losses extend it, wins break it,
		// pushes leave it untouched.
		losses := priorLosses
		switch txType {
		case domain.TxBetLoss:
			losses++
		case domain.TxBetWin:
			losses = 0
		}

		newStatus, newKelly := s.nextStatus(cur.Status, cur.KellyFraction, drawdown, losses)
		if newStatus != cur.Status {
			transition = &stateTransition{from: cur.Status, to: newStatus, drawdown: drawdown, losses: losses}
		}

		balance = newBalance
		next := domain.BankrollState{
			CurrentUnits:  newBalance,
			InitialUnits:  cur.InitialUnits,
			PeakUnits:     newPeak,
			MaxDrawdown:   newMaxDrawdown,
			KellyFraction: newKelly,
			Status:        newStatus,
			LastUpdated:   time.Now().UTC(),
		}
		tx := domain.Transaction{
			Ref:           uuid.New().String(),
			Timestamp:     time.Now().UTC(),
			Type:          txType,
			Amount:        change,
			BalanceAfter:  newBalance,
			Note:          note,
			ExpectedValue: expectedValue,
		}
		return next, tx, nil
	})
	if err != nil {
		return 0, fmt.Errorf("bankroll.Update: %w", err)
	}

	if transition != nil {
		s.logTransition(ctx, *transition)
	}

	return balance, nil
}

// Reset destroys the ledger and reinitializes the bankroll at initialUnits.
// The only way out of PAUSED.
func (s *Service) Reset(ctx context.Context, initialUnits float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if initialUnits <= 0 {
		initialUnits = s.cfg.InitialUnits
	}

	prev, err := s.store.GetState(ctx)
	if err != nil {
		return fmt.Errorf("bankroll.Reset: read state: %w", err)
	}
	if err := s.store.Reset(ctx, initialUnits); err != nil {
		return fmt.Errorf("bankroll.Reset: %w", err)
	}

	slog.Info("bankroll: reset", "initial_units", initialUnits, "previous_status", prev.Status)
	s.appendAudit(ctx, domain.AuditEvent{
		Type:     domain.AuditStateChange,
		Details:  fmt.Sprintf("manual reset to %.2fU", initialUnits),
		OldState: string(prev.Status),
		NewState: string(domain.StatusActive),
	})
	return nil
}

// nextStatus implements the circuit-breaker state machine. Evaluated after
// the balance delta is applied, against the post-update drawdown and streak.
func (s *Service) nextStatus(status domain.BankrollStatus, kelly, drawdown float64, losses int) (domain.BankrollStatus, float64) {
	// Critical failure: pause from any state.
	if losses >= s.cfg.PauseLossStreak || drawdown > s.cfg.PauseDrawdown {
		return domain.StatusPaused, 0.0
	}

	switch status {
	case domain.StatusActive:
		if drawdown > s.cfg.DegradeDrawdown {
			return domain.StatusDegraded, s.cfg.DegradedKelly
		}
	case domain.StatusDegraded:
		if drawdown < s.cfg.RecoverDrawdown {
			return domain.StatusActive, s.cfg.ActiveKelly
		}
	}
	return status, kelly
}

type stateTransition struct {
	from, to domain.BankrollStatus
	drawdown float64
	losses   int
}

func (s *Service) logTransition(ctx context.Context, t stateTransition) {
	slog.Warn("bankroll: state transition",
		"from", t.from, "to", t.to,
		"drawdown", fmt.Sprintf("%.1f%%", t.drawdown*100),
		"consecutive_losses", t.losses)

	details := fmt.Sprintf("drawdown %.1f%%, %d consecutive losses", t.drawdown*100, t.losses)
	s.appendAudit(ctx, domain.AuditEvent{
		Type:     domain.AuditStateChange,
		Details:  details,
		OldState: string(t.from),
		NewState: string(t.to),
	})
	if t.to == domain.StatusPaused {
		s.appendAudit(ctx, domain.AuditEvent{
			Type:    domain.AuditRiskTrigger,
			Details: "circuit breaker opened: " + details,
		})
	}
}

func (s *Service) appendAudit(ctx context.Context, event domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AppendEvent(ctx, event); err != nil {
		slog.Warn("bankroll: failed to append audit event", "type", event.Type, "err", err)
	}
}
