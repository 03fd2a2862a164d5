package domain

import "time"

// Decision is the final verdict produced by the bet pipeline.
type Decision string

const (
	DecisionBet     Decision = "BET"
	DecisionPass    Decision = "PASS"
	DecisionBlocked Decision = "BLOCKED"
)

// EVResult is the output of the expected-value calculation.
type EVResult struct {
	Probability float64
	Odds        float64
	EV          float64 // expected profit per unit staked, e.g. 0.05 for 5%
	IsValueBet  bool    // strictly EV > 0
}

// RiskDecision is the structured verdict of the risk filter / risk guard.
// Reasons can be non-empty even when the bet is allowed (warnings).
type RiskDecision struct {
	Allowed        bool
	Reasons        []string
	Aggressiveness float64 // stake multiplier in [0,1]; 0 when not allowed
}

// StakeResult is the output of the Kelly position sizing.
type StakeResult struct {
	KellyFraction    float64 // raw f*, unclamped
	RecommendedStake float64 // units
	StakePercent     float64
	WasCapped        bool // max-stake ceiling bound
	WasZeroed        bool // f* <= 0 or below the minimum-stake floor
}

// BetDecision is the ephemeral per-opportunity output of the pipeline.
// It is not persisted by the pipeline itself; the shadow bettor records it.
type BetDecision struct {
	GameID     string
	GameDate   time.Time
	Decision   Decision
	StakeUnits float64
	EV         *EVResult
	Risk       *RiskDecision
	Stake      *StakeResult
	Reason     string
}

// Prediction is the input a predictor hands to the pipeline boundary.
type Prediction struct {
	GameID      string
	Probability float64
	Odds        float64
	GameDate    time.Time
}
