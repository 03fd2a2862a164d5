package stress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// Scenario is one parameter variation for the sensitivity sweep. Zero-value
// fields inherit the base config.
type Scenario struct {
	Name            string
	FractionalKelly float64
	ProbBias        float64
	MinEV           float64
}

// apply overlays the scenario onto the base batch config.
func (sc Scenario) apply(base Config) Config {
	cfg := base
	if sc.FractionalKelly != 0 {
		cfg.FractionalKelly = sc.FractionalKelly
	}
	cfg.ProbBias = sc.ProbBias
	if sc.MinEV != 0 {
		cfg.MinEV = sc.MinEV
	}
	return cfg
}

// DefaultScenarios covers the three fragility axes: Kelly sizing, model
// miscalibration bias and EV selectivity.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "kelly 0.10 (conservative)", FractionalKelly: 0.10},
		{Name: "kelly 0.25 (standard)", FractionalKelly: 0.25},
		{Name: "kelly 0.50 (aggressive)", FractionalKelly: 0.50},

		{Name: "bias -5% (overestimation)", ProbBias: -0.05},
		{Name: "bias +5% (underestimation)", ProbBias: 0.05},
		{Name: "bias -10% (severe error)", ProbBias: -0.10},

		{Name: "high selectivity (EV>5%)", MinEV: 0.05},
		{Name: "low selectivity (EV>1%)", MinEV: 0.01},
	}
}

// ScenarioResult is the aggregate outcome of one scenario batch. Scenario
// carries the effective parameters (base overlaid) for reporting.
type ScenarioResult struct {
	Scenario Scenario
	Summary  Summary
}

// RunSensitivity runs a reduced Monte Carlo batch per scenario against the
// same pool and base config, and returns one row per scenario.
func RunSensitivity(ctx context.Context, pool []domain.PoolGame, base Config, scenarios []Scenario, simsPerScenario int) ([]ScenarioResult, error) {
	if simsPerScenario > 0 {
		base.Simulations = simsPerScenario
	}

	results := make([]ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		slog.Info("sensitivity: running scenario", "scenario", sc.Name)

		cfg := sc.apply(base)
		summary, err := New(pool, cfg).Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("stress.RunSensitivity: scenario %q: %w", sc.Name, err)
		}
		effective := Scenario{
			Name:            sc.Name,
			FractionalKelly: cfg.FractionalKelly,
			ProbBias:        cfg.ProbBias,
			MinEV:           cfg.MinEV,
		}
		results = append(results, ScenarioResult{Scenario: effective, Summary: summary})
	}
	return results, nil
}
