package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/betguard/internal/domain"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:", 100.0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func betTx(txType domain.TransactionType, amount, balance float64) domain.Transaction {
	return domain.Transaction{
		Ref:          uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Type:         txType,
		Amount:       amount,
		BalanceAfter: balance,
	}
}

func TestApplySchema_SeedsInitialState(t *testing.T) {
	s := newTestStorage(t)

	state, err := s.GetState(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100.0, state.CurrentUnits)
	assert.Equal(t, 100.0, state.InitialUnits)
	assert.Equal(t, 100.0, state.PeakUnits)
	assert.Equal(t, 0.25, state.KellyFraction)
	assert.Equal(t, domain.StatusActive, state.Status)
}

func TestApplySchema_Idempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateAtomic(ctx, func(state domain.BankrollState, _ int) (domain.BankrollState, domain.Transaction, error) {
		state.CurrentUnits = 90.0
		state.LastUpdated = time.Now().UTC()
		return state, betTx(domain.TxBetLoss, -10.0, 90.0), nil
	}))

	// A second pass over the schema must not reseed the state.
	require.NoError(t, s.ApplySchema(ctx))

	state, err := s.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90.0, state.CurrentUnits)
}

func TestUpdateAtomic_PersistsStateAndLedger(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.UpdateAtomic(ctx, func(state domain.BankrollState, losses int) (domain.BankrollState, domain.Transaction, error) {
		assert.Equal(t, 0, losses)
		state.CurrentUnits = 75.0
		state.MaxDrawdown = 0.25
		state.KellyFraction = 0.10
		state.Status = domain.StatusDegraded
		state.LastUpdated = time.Now().UTC()
		return state, betTx(domain.TxBetLoss, -25.0, 75.0), nil
	})
	require.NoError(t, err)

	state, err := s.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 75.0, state.CurrentUnits)
	assert.Equal(t, 100.0, state.PeakUnits)
	assert.Equal(t, 0.25, state.MaxDrawdown)
	assert.Equal(t, domain.StatusDegraded, state.Status)

	txs, err := s.Transactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxBetLoss, txs[0].Type)
	assert.Equal(t, -25.0, txs[0].Amount)
	assert.Equal(t, 75.0, txs[0].BalanceAfter)
}

func TestUpdateAtomic_CallbackErrorRollsBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.UpdateAtomic(ctx, func(state domain.BankrollState, _ int) (domain.BankrollState, domain.Transaction, error) {
		return state, domain.Transaction{}, assert.AnError
	})
	require.Error(t, err)

	txs, err := s.Transactions(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestConsecutiveLosses_StreakStopsAtWin(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	apply := func(txType domain.TransactionType) {
		require.NoError(t, s.UpdateAtomic(ctx, func(state domain.BankrollState, _ int) (domain.BankrollState, domain.Transaction, error) {
			state.LastUpdated = time.Now().UTC()
			return state, betTx(txType, 0, state.CurrentUnits), nil
		}))
	}

	apply(domain.TxBetLoss)
	apply(domain.TxBetLoss)
	apply(domain.TxBetWin)
	apply(domain.TxBetLoss)
	apply(domain.TxBetLoss)
	apply(domain.TxBetLoss)

	var observed int
	require.NoError(t, s.UpdateAtomic(ctx, func(state domain.BankrollState, losses int) (domain.BankrollState, domain.Transaction, error) {
		observed = losses
		state.LastUpdated = time.Now().UTC()
		return state, betTx(domain.TxAdjustment, 0, state.CurrentUnits), nil
	}))
	assert.Equal(t, 3, observed)
}

func TestConsecutiveLosses_AdjustmentsDoNotBreakStreak(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	apply := func(txType domain.TransactionType) {
		require.NoError(t, s.UpdateAtomic(ctx, func(state domain.BankrollState, _ int) (domain.BankrollState, domain.Transaction, error) {
			state.LastUpdated = time.Now().UTC()
			return state, betTx(txType, 0, state.CurrentUnits), nil
		}))
	}

	apply(domain.TxBetLoss)
	apply(domain.TxAdjustment)
	apply(domain.TxBetLoss)

	var observed int
	require.NoError(t, s.UpdateAtomic(ctx, func(state domain.BankrollState, losses int) (domain.BankrollState, domain.Transaction, error) {
		observed = losses
		state.LastUpdated = time.Now().UTC()
		return state, betTx(domain.TxAdjustment, 0, state.CurrentUnits), nil
	}))
	assert.Equal(t, 2, observed)
}

func TestReset_ClearsLedgerAndReseeds(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateAtomic(ctx, func(state domain.BankrollState, _ int) (domain.BankrollState, domain.Transaction, error) {
		state.CurrentUnits = 40.0
		state.Status = domain.StatusPaused
		state.KellyFraction = 0.0
		state.LastUpdated = time.Now().UTC()
		return state, betTx(domain.TxBetLoss, -60.0, 40.0), nil
	}))

	require.NoError(t, s.Reset(ctx, 200.0))

	state, err := s.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200.0, state.CurrentUnits)
	assert.Equal(t, 200.0, state.InitialUnits)
	assert.Equal(t, 200.0, state.PeakUnits)
	assert.Equal(t, 0.0, state.MaxDrawdown)
	assert.Equal(t, 0.25, state.KellyFraction)
	assert.Equal(t, domain.StatusActive, state.Status)

	txs, err := s.Transactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxReset, txs[0].Type)
}

func TestShadowBets_SaveGradeAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	bet := domain.ShadowBet{
		ID:            uuid.New().String(),
		GameID:        "LAL@BOS",
		Decision:      domain.DecisionBet,
		Probability:   0.62,
		Odds:          1.95,
		EV:            0.209,
		StakeUnits:    4.2,
		KellyFraction: 0.25,
		Status:        domain.ShadowPending,
		Timestamp:     time.Now().UTC(),
	}
	require.NoError(t, s.SaveShadowBet(ctx, bet))

	require.NoError(t, s.GradeShadowBet(ctx, bet.ID, domain.ShadowWon))

	bets, err := s.ShadowBets(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, domain.ShadowWon, bets[0].Status)
	assert.Equal(t, "LAL@BOS", bets[0].GameID)
	assert.InDelta(t, 0.209, bets[0].EV, 1e-9)
}

func TestGradeShadowBet_AlreadySettled(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	bet := domain.ShadowBet{
		ID:        uuid.New().String(),
		GameID:    "GSW@DEN",
		Decision:  domain.DecisionBet,
		Status:    domain.ShadowPending,
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, s.SaveShadowBet(ctx, bet))
	require.NoError(t, s.GradeShadowBet(ctx, bet.ID, domain.ShadowLost))

	err := s.GradeShadowBet(ctx, bet.ID, domain.ShadowWon)
	assert.Error(t, err)
}

func TestDecisionMetrics(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	save := func(decision domain.Decision, ev float64) {
		require.NoError(t, s.SaveShadowBet(ctx, domain.ShadowBet{
			ID:        uuid.New().String(),
			GameID:    "X@Y",
			Decision:  decision,
			EV:        ev,
			Status:    domain.ShadowPending,
			Timestamp: time.Now().UTC(),
		}))
	}

	save(domain.DecisionBet, 0.10)
	save(domain.DecisionBlocked, 0.02)
	save(domain.DecisionBlocked, 0.06)

	blocked, avgEV, err := s.DecisionMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, blocked)
	assert.InDelta(t, 0.06, avgEV, 1e-9)
}

func TestAuditLog_AppendAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.AppendEvent(ctx, domain.AuditEvent{
		Timestamp: time.Now().UTC(),
		Type:      domain.AuditStateChange,
		Details:   "drawdown crossed 20%",
		OldState:  "ACTIVE",
		NewState:  "DEGRADED",
	}))
	require.NoError(t, s.AppendEvent(ctx, domain.AuditEvent{
		Timestamp: time.Now().UTC(),
		Type:      domain.AuditBetBlocked,
		GameID:    "MIA@NYK",
		Details:   "probability in dead zone",
	}))

	events, err := s.Events(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, domain.AuditBetBlocked, events[0].Type)
	assert.Equal(t, domain.AuditStateChange, events[1].Type)
}

func TestTimestampsRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	when := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	entry := betTx(domain.TxBetWin, 4.5, 104.5)
	entry.Timestamp = when
	require.NoError(t, s.UpdateAtomic(ctx, func(state domain.BankrollState, _ int) (domain.BankrollState, domain.Transaction, error) {
		state.CurrentUnits = 104.5
		state.LastUpdated = when
		return state, entry, nil
	}))

	state, err := s.GetState(ctx)
	require.NoError(t, err)
	assert.True(t, state.LastUpdated.Equal(when), "state.LastUpdated = %v", state.LastUpdated)

	txs, err := s.Transactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Timestamp.Equal(when), "tx.Timestamp = %v", txs[0].Timestamp)
}

func TestAppendEvent_StampsZeroTimestamp(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Emit sites leave the timestamp zero; the row must get a real one.
	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, s.AppendEvent(ctx, domain.AuditEvent{
		Type:     domain.AuditStateChange,
		OldState: "ACTIVE",
		NewState: "DEGRADED",
	}))

	events, err := s.Events(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.True(t, events[0].Timestamp.After(before))
}
