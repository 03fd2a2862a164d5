package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKelly(t *testing.T) {
	cases := []struct {
		name        string
		probability float64
		odds        float64
		want        float64
	}{
		{"clear edge", 0.60, 2.00, 0.20},
		{"fair bet", 0.50, 2.00, 0.0},
		{"negative edge", 0.40, 2.00, -0.20},
		{"short odds favorite", 0.80, 1.50, 0.40},
		{"invalid odds return zero", 0.60, 1.00, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Kelly(tc.probability, tc.odds), 1e-9)
		})
	}
}

func TestCalculateStake_QuarterKelly(t *testing.T) {
	// f* = 0.20, quarter Kelly on 100 units = 5.0, exactly at the 5% cap.
	r := CalculateStake(0.60, 2.00, 100.0, 0.25, 1.0, DefaultStakeConfig())

	assert.InDelta(t, 0.20, r.KellyFraction, 1e-9)
	assert.InDelta(t, 5.0, r.RecommendedStake, 1e-9)
	assert.InDelta(t, 0.05, r.StakePercent, 1e-9)
	assert.False(t, r.WasCapped)
	assert.False(t, r.WasZeroed)
}

func TestCalculateStake_CappedAtMaxPercent(t *testing.T) {
	// f* = 0.60, quarter Kelly = 15 units, capped to 5% of bankroll.
	r := CalculateStake(0.80, 2.00, 100.0, 0.25, 1.0, DefaultStakeConfig())

	assert.InDelta(t, 0.60, r.KellyFraction, 1e-9)
	assert.InDelta(t, 5.0, r.RecommendedStake, 1e-9)
	assert.True(t, r.WasCapped)
}

func TestCalculateStake_NegativeEdgeZeroed(t *testing.T) {
	r := CalculateStake(0.40, 2.00, 100.0, 0.25, 1.0, DefaultStakeConfig())

	assert.InDelta(t, -0.20, r.KellyFraction, 1e-9)
	assert.Equal(t, 0.0, r.RecommendedStake)
	assert.True(t, r.WasZeroed)
}

func TestCalculateStake_BelowFloorZeroed(t *testing.T) {
	// Tiny bankroll: 1 unit * 0.2 * 0.25 * 0.01 aggressiveness = 0.0005U.
	r := CalculateStake(0.60, 2.00, 1.0, 0.25, 0.01, DefaultStakeConfig())

	assert.Equal(t, 0.0, r.RecommendedStake)
	assert.True(t, r.WasZeroed)
}

func TestCalculateStake_AggressivenessScales(t *testing.T) {
	full := CalculateStake(0.58, 2.00, 100.0, 0.25, 1.0, DefaultStakeConfig())
	half := CalculateStake(0.58, 2.00, 100.0, 0.25, 0.5, DefaultStakeConfig())

	assert.InDelta(t, full.RecommendedStake/2, half.RecommendedStake, 1e-9)
}

func TestCalculateStake_ZeroAggressivenessIsNoBet(t *testing.T) {
	r := CalculateStake(0.60, 2.00, 100.0, 0.25, 0.0, DefaultStakeConfig())

	assert.Equal(t, 0.0, r.RecommendedStake)
	assert.True(t, r.WasZeroed)
}

func TestCalculateStake_ZeroBankroll(t *testing.T) {
	r := CalculateStake(0.60, 2.00, 0.0, 0.25, 1.0, DefaultStakeConfig())

	assert.Equal(t, 0.0, r.RecommendedStake)
	assert.Equal(t, 0.0, r.StakePercent)
}
