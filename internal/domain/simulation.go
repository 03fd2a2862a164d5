package domain

// PoolGame is one historical prediction annotated with its realized outcome
// and a synthetic market price. The stress engine samples these with
// replacement to compose seasons.
type PoolGame struct {
	Probability float64 // model win probability, bias-free
	Odds        float64 // synthetic decimal odds
	Won         bool    // realized outcome
}

// SimulationResult summarizes one simulated season. Transient: aggregated
// into batch statistics and discarded.
type SimulationResult struct {
	FinalROI      float64
	MaxDrawdown   float64
	Bankrupt      bool
	TotalBets     int
	FinalBankroll float64
}
