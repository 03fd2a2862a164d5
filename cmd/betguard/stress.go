package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/betguard/config"
	"github.com/alejandrodnm/betguard/internal/adapters/notify"
	"github.com/alejandrodnm/betguard/internal/stress"
)

func runStress(ctx context.Context, cfg *config.Config, console *notify.Console, sensitivity bool, sims int) {
	if cfg.Stress.PoolPath == "" {
		slog.Error("stress modes need stress.pool_path in the config (historical game csv)")
		os.Exit(1)
	}

	pool, err := stress.LoadPool(cfg.Stress.PoolPath)
	if err != nil {
		slog.Error("failed to load game pool", "path", cfg.Stress.PoolPath, "err", err)
		os.Exit(1)
	}
	slog.Info("game pool loaded", "path", cfg.Stress.PoolPath, "games", len(pool))

	base := stress.DefaultConfig()
	base.Simulations = cfg.Stress.Simulations
	base.GamesPerSeason = cfg.Stress.GamesPerSeason
	base.InitialBankroll = cfg.Stress.InitialBankroll
	base.RuinThreshold = cfg.Stress.RuinThreshold
	base.Workers = cfg.Stress.Workers
	base.Seed = cfg.Stress.Seed
	base.FractionalKelly = cfg.Stake.FractionalKelly
	base.MinEV = cfg.Risk.MinEV
	if sims > 0 {
		base.Simulations = sims
	}

	if sensitivity {
		// The sweep reuses the base run budget per scenario unless -sims says
		// otherwise; 1000 keeps the full sweep under a minute.
		perScenario := 1000
		if sims > 0 {
			perScenario = sims
		}
		results, err := stress.RunSensitivity(ctx, pool, base, stress.DefaultScenarios(), perScenario)
		if err != nil {
			slog.Error("sensitivity sweep failed", "err", err)
			os.Exit(1)
		}
		console.PrintSensitivity(results)
		return
	}

	summary, err := stress.New(pool, base).Run(ctx)
	if err != nil {
		slog.Error("stress test failed", "err", err)
		os.Exit(1)
	}
	console.PrintStressSummary(base, summary)
}
