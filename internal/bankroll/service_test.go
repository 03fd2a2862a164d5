package bankroll

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// memStorage is an in-memory ports.BankrollStorage for tests.
type memStorage struct {
	state domain.BankrollState
	txs   []domain.Transaction
}

func newMemStorage(initial float64) *memStorage {
	return &memStorage{
		state: domain.BankrollState{
			CurrentUnits:  initial,
			InitialUnits:  initial,
			PeakUnits:     initial,
			KellyFraction: 0.25,
			Status:        domain.StatusActive,
		},
	}
}

func (m *memStorage) ApplySchema(context.Context) error { return nil }

func (m *memStorage) GetState(context.Context) (domain.BankrollState, error) {
	return m.state, nil
}

func (m *memStorage) UpdateAtomic(_ context.Context, fn func(domain.BankrollState, int) (domain.BankrollState, domain.Transaction, error)) error {
	next, tx, err := fn(m.state, m.consecutiveLosses())
	if err != nil {
		return err
	}
	tx.ID = int64(len(m.txs) + 1)
	m.txs = append(m.txs, tx)
	m.state = next
	return nil
}

func (m *memStorage) consecutiveLosses() int {
	count := 0
	for i := len(m.txs) - 1; i >= 0; i-- {
		switch m.txs[i].Type {
		case domain.TxBetLoss:
			count++
		case domain.TxBetWin:
			return count
		}
	}
	return count
}

func (m *memStorage) Transactions(_ context.Context, limit int) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, len(m.txs))
	copy(out, m.txs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStorage) Reset(_ context.Context, initial float64) error {
	m.txs = nil
	m.state = domain.BankrollState{
		CurrentUnits:  initial,
		InitialUnits:  initial,
		PeakUnits:     initial,
		KellyFraction: 0.25,
		Status:        domain.StatusActive,
	}
	return nil
}

func (m *memStorage) Close() error { return nil }

// memAudit is an in-memory ports.AuditStorage for tests.
type memAudit struct {
	events []domain.AuditEvent
}

func (m *memAudit) AppendEvent(_ context.Context, e domain.AuditEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memAudit) Events(_ context.Context, _ int) ([]domain.AuditEvent, error) {
	return m.events, nil
}

func (m *memAudit) typeCount(t domain.AuditEventType) int {
	n := 0
	for _, e := range m.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func newTestService(initial float64) (*Service, *memStorage, *memAudit) {
	store := newMemStorage(initial)
	audit := &memAudit{}
	cfg := DefaultConfig()
	cfg.InitialUnits = initial
	return New(store, audit, cfg), store, audit
}

func TestUpdate_WinAddsProfit(t *testing.T) {
	svc, store, _ := newTestService(100)
	ctx := context.Background()

	balance, err := svc.Update(ctx, domain.ResultWin, 5.0, 4.75, "LAL@BOS", 0.10)
	require.NoError(t, err)

	assert.Equal(t, 104.75, balance)
	assert.Equal(t, 104.75, store.state.CurrentUnits)
	assert.Equal(t, 104.75, store.state.PeakUnits)
	require.Len(t, store.txs, 1)
	assert.Equal(t, domain.TxBetWin, store.txs[0].Type)
	assert.Equal(t, 4.75, store.txs[0].Amount)
}

func TestUpdate_LossSubtractsStake(t *testing.T) {
	svc, store, _ := newTestService(100)
	ctx := context.Background()

	balance, err := svc.Update(ctx, domain.ResultLoss, 5.0, 0, "", 0.08)
	require.NoError(t, err)

	assert.Equal(t, 95.0, balance)
	require.Len(t, store.txs, 1)
	assert.Equal(t, domain.TxBetLoss, store.txs[0].Type)
	assert.Equal(t, -5.0, store.txs[0].Amount)
}

func TestUpdate_PushIsZeroDeltaAdjustment(t *testing.T) {
	svc, store, _ := newTestService(100)
	ctx := context.Background()

	balance, err := svc.Update(ctx, domain.ResultPush, 5.0, 0, "tie game", 0)
	require.NoError(t, err)

	assert.Equal(t, 100.0, balance)
	require.Len(t, store.txs, 1)
	assert.Equal(t, domain.TxAdjustment, store.txs[0].Type)
	assert.Equal(t, 0.0, store.txs[0].Amount)
	assert.Equal(t, "PUSH - tie game", store.txs[0].Note)
}

func TestUpdate_InvalidResult(t *testing.T) {
	svc, _, _ := newTestService(100)

	_, err := svc.Update(context.Background(), domain.BetResult("DRAW"), 5.0, 0, "", 0)
	assert.Error(t, err)
}

func TestUpdate_DegradesAtDrawdown(t *testing.T) {
	svc, store, audit := newTestService(100)
	ctx := context.Background()

	// 25 unit loss from a 100 peak = 25% drawdown > 20% threshold.
	balance, err := svc.Update(ctx, domain.ResultLoss, 25.0, 0, "", 0)
	require.NoError(t, err)

	assert.Equal(t, 75.0, balance)
	assert.Equal(t, domain.StatusDegraded, store.state.Status)
	assert.Equal(t, 0.10, store.state.KellyFraction)
	assert.Equal(t, 0.25, store.state.MaxDrawdown)
	assert.Equal(t, 1, audit.typeCount(domain.AuditStateChange))
}

func TestUpdate_RecoversBelowHysteresis(t *testing.T) {
	svc, store, _ := newTestService(100)
	ctx := context.Background()

	_, err := svc.Update(ctx, domain.ResultLoss, 25.0, 0, "", 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDegraded, store.state.Status)

	// 82/100 = 18% drawdown: still inside the hysteresis band, no recovery.
	_, err = svc.Update(ctx, domain.ResultWin, 0, 7.0, "", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDegraded, store.state.Status)

	// 90/100 = 10% drawdown < 15%: recover to ACTIVE with normal Kelly.
	_, err = svc.Update(ctx, domain.ResultWin, 0, 8.0, "", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, store.state.Status)
	assert.Equal(t, 0.25, store.state.KellyFraction)
}

func TestUpdate_PausesOnSevereDrawdown(t *testing.T) {
	svc, store, audit := newTestService(100)
	ctx := context.Background()

	// 45% drawdown in one hit.
	_, err := svc.Update(ctx, domain.ResultLoss, 45.0, 0, "", 0)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPaused, store.state.Status)
	assert.Equal(t, 0.0, store.state.KellyFraction)
	assert.Equal(t, 1, audit.typeCount(domain.AuditRiskTrigger))
}

func TestUpdate_PausesOnLossStreak(t *testing.T) {
	svc, store, _ := newTestService(1000)
	ctx := context.Background()

	// Ten small losses: drawdown stays tiny, the streak trips the breaker.
	for i := 0; i < 9; i++ {
		_, err := svc.Update(ctx, domain.ResultLoss, 1.0, 0, "", 0)
		require.NoError(t, err)
		require.Equal(t, domain.StatusActive, store.state.Status, "loss %d", i+1)
	}

	_, err := svc.Update(ctx, domain.ResultLoss, 1.0, 0, "", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, store.state.Status)
	assert.Equal(t, 0.0, store.state.KellyFraction)
}

func TestUpdate_WinResetsLossStreak(t *testing.T) {
	svc, store, _ := newTestService(1000)
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		_, err := svc.Update(ctx, domain.ResultLoss, 1.0, 0, "", 0)
		require.NoError(t, err)
	}
	_, err := svc.Update(ctx, domain.ResultWin, 0, 1.0, "", 0)
	require.NoError(t, err)

	// Streak broken: nine more losses stay below the threshold.
	for i := 0; i < 9; i++ {
		_, err := svc.Update(ctx, domain.ResultLoss, 1.0, 0, "", 0)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StatusActive, store.state.Status)
}

func TestUpdate_PausedIsNoOp(t *testing.T) {
	svc, store, _ := newTestService(100)
	ctx := context.Background()

	_, err := svc.Update(ctx, domain.ResultLoss, 45.0, 0, "", 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaused, store.state.Status)
	ledgerLen := len(store.txs)

	// Updates while PAUSED change nothing and append nothing.
	balance, err := svc.Update(ctx, domain.ResultWin, 0, 50.0, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 55.0, balance)
	assert.Equal(t, 55.0, store.state.CurrentUnits)
	assert.Len(t, store.txs, ledgerLen)
}

func TestUpdate_BalanceFloorsAtZero(t *testing.T) {
	svc, store, _ := newTestService(10)
	ctx := context.Background()

	balance, err := svc.Update(ctx, domain.ResultLoss, 50.0, 0, "", 0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, balance)
	assert.Equal(t, 0.0, store.state.CurrentUnits)
}

func TestReset_RestoresActiveAndAudits(t *testing.T) {
	svc, store, audit := newTestService(100)
	ctx := context.Background()

	_, err := svc.Update(ctx, domain.ResultLoss, 45.0, 0, "", 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaused, store.state.Status)

	require.NoError(t, svc.Reset(ctx, 150.0))

	assert.Equal(t, domain.StatusActive, store.state.Status)
	assert.Equal(t, 150.0, store.state.CurrentUnits)
	assert.Empty(t, store.txs)

	last := audit.events[len(audit.events)-1]
	assert.Equal(t, domain.AuditStateChange, last.Type)
	assert.Equal(t, string(domain.StatusPaused), last.OldState)
}

func TestReset_ZeroUnitsUsesConfigDefault(t *testing.T) {
	svc, store, _ := newTestService(100)

	require.NoError(t, svc.Reset(context.Background(), 0))
	assert.Equal(t, 100.0, store.state.CurrentUnits)
}

func TestPerformance(t *testing.T) {
	svc, _, _ := newTestService(100)
	ctx := context.Background()

	_, err := svc.Update(ctx, domain.ResultWin, 5.0, 4.0, "", 0.10)
	require.NoError(t, err)
	_, err = svc.Update(ctx, domain.ResultLoss, 5.0, 0, "", 0.05)
	require.NoError(t, err)
	_, err = svc.Update(ctx, domain.ResultPush, 5.0, 0, "", 0)
	require.NoError(t, err)

	perf, err := svc.Performance(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, perf.TotalBets) // push excluded
	assert.Equal(t, 1, perf.Wins)
	assert.Equal(t, 0.5, perf.HitRate)
	assert.InDelta(t, -1.0, perf.NetProfit, 1e-9)
	assert.InDelta(t, -0.01, perf.ROIGrowth, 1e-9)
}
