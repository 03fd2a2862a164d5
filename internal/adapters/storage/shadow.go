package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// SaveShadowBet appends a decision record to the shadow ledger.
func (s *SQLiteStorage) SaveShadowBet(ctx context.Context, bet domain.ShadowBet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shadow_bets (id, game_id, decision, probability, odds, ev, stake_units, kelly_fraction, status, reason, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, bet.ID, bet.GameID, string(bet.Decision), bet.Probability, bet.Odds, bet.EV,
		bet.StakeUnits, bet.KellyFraction, string(bet.Status), bet.Reason, encodeTime(bet.Timestamp))
	if err != nil {
		return fmt.Errorf("storage.SaveShadowBet: %w", err)
	}
	return nil
}

// GradeShadowBet settles a pending shadow bet as WON or LOST.
func (s *SQLiteStorage) GradeShadowBet(ctx context.Context, id string, status domain.ShadowStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shadow_bets SET status = ? WHERE id = ? AND status = 'PENDING'
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("storage.GradeShadowBet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.GradeShadowBet: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage.GradeShadowBet: no pending shadow bet %q", id)
	}
	return nil
}

// ShadowBets returns shadow ledger entries newest first. limit <= 0 means all.
func (s *SQLiteStorage) ShadowBets(ctx context.Context, limit int) ([]domain.ShadowBet, error) {
	q := `
		SELECT id, game_id, decision, probability, odds, ev, stake_units, kelly_fraction, status, reason, ts
		FROM shadow_bets ORDER BY ts DESC
	`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ShadowBets: query: %w", err)
	}
	defer rows.Close()

	var bets []domain.ShadowBet
	for rows.Next() {
		var b domain.ShadowBet
		var decision, status, ts string
		if err := rows.Scan(&b.ID, &b.GameID, &decision, &b.Probability, &b.Odds, &b.EV,
			&b.StakeUnits, &b.KellyFraction, &status, &b.Reason, &ts); err != nil {
			return nil, fmt.Errorf("storage.ShadowBets: scan: %w", err)
		}
		b.Decision = domain.Decision(decision)
		b.Status = domain.ShadowStatus(status)
		b.Timestamp, err = decodeTime(ts)
		if err != nil {
			return nil, fmt.Errorf("storage.ShadowBets: ts: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// DecisionMetrics summarizes the shadow ledger: how many opportunities were
// blocked and the average expected value across everything evaluated.
func (s *SQLiteStorage) DecisionMetrics(ctx context.Context) (blocked int, avgEV float64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN decision = 'BLOCKED' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(ev), 0)
		FROM shadow_bets
	`).Scan(&blocked, &avgEV)
	if err != nil {
		return 0, 0, fmt.Errorf("storage.DecisionMetrics: %w", err)
	}
	return blocked, avgEV, nil
}

// AppendEvent adds a row to the audit trail. Emit sites typically leave the
// timestamp zero; the storage stamps it on insert.
func (s *SQLiteStorage) AppendEvent(ctx context.Context, event domain.AuditEvent) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (ts, event_type, game_id, details, old_state, new_state)
		VALUES (?, ?, ?, ?, ?, ?)
	`, encodeTime(ts), string(event.Type), event.GameID, event.Details, event.OldState, event.NewState)
	if err != nil {
		return fmt.Errorf("storage.AppendEvent: %w", err)
	}
	return nil
}

// Events returns audit entries newest first. limit <= 0 means all.
func (s *SQLiteStorage) Events(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	q := `
		SELECT id, ts, event_type, game_id, details, old_state, new_state
		FROM audit_log ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.Events: query: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var ts, eventType string
		if err := rows.Scan(&e.ID, &ts, &eventType, &e.GameID, &e.Details, &e.OldState, &e.NewState); err != nil {
			return nil, fmt.Errorf("storage.Events: scan: %w", err)
		}
		e.Type = domain.AuditEventType(eventType)
		e.Timestamp, err = decodeTime(ts)
		if err != nil {
			return nil, fmt.Errorf("storage.Events: ts: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
