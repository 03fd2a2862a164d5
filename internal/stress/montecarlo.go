package stress

// montecarlo.go — season-level worker pool.
//
// Seasons are embarrassingly parallel: each one gets its own rand source,
// its own in-memory bankroll and its own sample of the pool, so workers never
// share mutable state. Results are collected only after all workers finish;
// a panicking season is logged and excluded instead of aborting the batch.

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/betguard/internal/domain"
	"github.com/alejandrodnm/betguard/internal/engine"
)

// Config parameterizes one Monte Carlo batch.
type Config struct {
	Simulations     int     // independent seasons to run
	GamesPerSeason  int     // full NBA regular season = 1230
	InitialBankroll float64 // units at season start
	RuinThreshold   float64 // season ends bankrupt below this balance
	Workers         int     // 0 = NumCPU

	FractionalKelly float64
	MinEV           float64
	ProbBias        float64 // added to the probability the engine SEES; outcomes stay historical

	Seed int64
}

// DefaultConfig returns the standard stress scenario.
func DefaultConfig() Config {
	return Config{
		Simulations:     10_000,
		GamesPerSeason:  1230,
		InitialBankroll: 100.0,
		RuinThreshold:   10.0,
		FractionalKelly: 0.25,
		MinEV:           0.03,
		Seed:            42,
	}
}

// Summary aggregates a whole batch into percentile statistics.
type Summary struct {
	Simulations  int
	Failed       int // seasons excluded after an unexpected failure
	RuinProb     float64
	MedianROI    float64
	P5ROI        float64
	P95ROI       float64
	MeanDrawdown float64
	P99Drawdown  float64
	AvgBets      float64
}

// Engine runs simulated seasons against a historical prediction pool.
type Engine struct {
	pool      []domain.PoolGame
	cfg       Config
	filterCfg engine.FilterConfig
	stakeCfg  engine.StakeConfig
}

// New creates a stress engine over a loaded pool. The batch config's MinEV
// overrides the filter threshold so EV-selectivity sweeps work.
func New(pool []domain.PoolGame, cfg Config) *Engine {
	filterCfg := engine.DefaultFilterConfig()
	filterCfg.MinEV = cfg.MinEV
	return &Engine{
		pool:      pool,
		cfg:       cfg,
		filterCfg: filterCfg,
		stakeCfg:  engine.DefaultStakeConfig(),
	}
}

// Run executes the full batch across a fixed-size worker pool and aggregates
// the surviving seasons.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	if len(e.pool) == 0 {
		return Summary{}, fmt.Errorf("stress.Run: empty prediction pool")
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workCh := make(chan int, e.cfg.Simulations)
	resultCh := make(chan domain.SimulationResult, e.cfg.Simulations)

	var failed atomic.Int64
	var done atomic.Int64
	progress := rate.NewLimiter(rate.Every(time.Second), 1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				res, err := e.safeSeason(idx)
				if err != nil {
					failed.Add(1)
					slog.Warn("stress: season excluded", "season", idx, "err", err)
					continue
				}
				resultCh <- res

				if n := done.Add(1); progress.Allow() {
					slog.Info("stress: progress",
						"completed", n,
						"total", e.cfg.Simulations,
					)
				}
			}
		}()
	}

	for i := 0; i < e.cfg.Simulations; i++ {
		workCh <- i
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []domain.SimulationResult
	for res := range resultCh {
		results = append(results, res)
	}

	if len(results) == 0 {
		return Summary{}, fmt.Errorf("stress.Run: every season failed")
	}
	return e.summarize(results, int(failed.Load())), nil
}

// safeSeason isolates a single season: a panic becomes an error and the
// season is dropped from aggregation.
func (e *Engine) safeSeason(idx int) (res domain.SimulationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("season panic: %v", r)
		}
	}()
	// Season-local rand source keyed by index: reproducible for a fixed
	// seed, independent across workers.
	rng := rand.New(rand.NewSource(e.cfg.Seed + int64(idx)))
	return e.runSeason(rng), nil
}

// runSeason plays one fixed-length season, game by game, against a sample of
// the pool drawn with replacement. The engine decides on the probability it
// SEES (p + bias); the outcome is the fixed historical one.
func (e *Engine) runSeason(rng *rand.Rand) domain.SimulationResult {
	filter := engine.NewRiskFilter(e.filterCfg)

	bankroll := e.cfg.InitialBankroll
	peak := bankroll
	maxDrawdown := 0.0
	totalBets := 0

	for i := 0; i < e.cfg.GamesPerSeason; i++ {
		game := e.pool[rng.Intn(len(e.pool))]
		phase := domain.PhaseForProgress(float64(i) / float64(e.cfg.GamesPerSeason))

		pSeen := clamp(game.Probability+e.cfg.ProbBias, 0.01, 0.99)
		evSeen := pSeen*game.Odds - 1

		decision := filter.Validate(pSeen, evSeen, phase)
		if !decision.Allowed {
			continue
		}

		stake := engine.CalculateStake(pSeen, game.Odds, bankroll,
			e.cfg.FractionalKelly, decision.Aggressiveness, e.stakeCfg)
		if stake.RecommendedStake <= 0 {
			continue
		}

		totalBets++
		if game.Won {
			bankroll += stake.RecommendedStake * (game.Odds - 1)
		} else {
			bankroll -= stake.RecommendedStake
		}

		// Checked after the settlement so a final-game collapse still
		// counts as ruin.
		if bankroll < e.cfg.RuinThreshold {
			return domain.SimulationResult{
				FinalROI:      -1.0,
				MaxDrawdown:   1.0,
				Bankrupt:      true,
				TotalBets:     totalBets,
				FinalBankroll: bankroll,
			}
		}

		if bankroll > peak {
			peak = bankroll
		}
		if dd := (peak - bankroll) / peak; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	return domain.SimulationResult{
		FinalROI:      (bankroll - e.cfg.InitialBankroll) / e.cfg.InitialBankroll,
		MaxDrawdown:   maxDrawdown,
		Bankrupt:      false,
		TotalBets:     totalBets,
		FinalBankroll: bankroll,
	}
}

func (e *Engine) summarize(results []domain.SimulationResult, failed int) Summary {
	rois := make([]float64, len(results))
	drawdowns := make([]float64, len(results))
	ruined := 0
	bets := 0.0
	for i, r := range results {
		rois[i] = r.FinalROI
		drawdowns[i] = r.MaxDrawdown
		if r.Bankrupt {
			ruined++
		}
		bets += float64(r.TotalBets)
	}

	return Summary{
		Simulations:  len(results),
		Failed:       failed,
		RuinProb:     float64(ruined) / float64(len(results)),
		MedianROI:    percentile(rois, 50),
		P5ROI:        percentile(rois, 5),
		P95ROI:       percentile(rois, 95),
		MeanDrawdown: mean(drawdowns),
		P99Drawdown:  percentile(drawdowns, 99),
		AvgBets:      bets / float64(len(results)),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
