package domain

import "time"

// ShadowStatus tracks the grading lifecycle of a recorded decision.
type ShadowStatus string

const (
	ShadowPending ShadowStatus = "PENDING"
	ShadowWon     ShadowStatus = "WON"
	ShadowLost    ShadowStatus = "LOST"
)

// ShadowBet is one append-only audit record of an evaluated opportunity.
// Every decision is recorded, including PASS and BLOCKED, independent of
// whether real capital moved.
type ShadowBet struct {
	ID            string
	GameID        string
	Decision      Decision
	Probability   float64
	Odds          float64
	EV            float64
	StakeUnits    float64
	KellyFraction float64
	Status        ShadowStatus
	Reason        string
	Timestamp     time.Time
}

// AuditEventType classifies entries in the behavioral audit trail.
type AuditEventType string

const (
	AuditBetTaken    AuditEventType = "BET_TAKEN"
	AuditBetBlocked  AuditEventType = "BET_BLOCKED"
	AuditRiskTrigger AuditEventType = "RISK_TRIGGER"
	AuditStateChange AuditEventType = "STATE_CHANGE"
)

// AuditEvent is one strictly append-only behavioral log entry.
type AuditEvent struct {
	ID        int64
	Timestamp time.Time
	Type      AuditEventType
	GameID    string
	Details   string
	OldState  string
	NewState  string
}
