package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/betguard/config"
	"github.com/alejandrodnm/betguard/internal/adapters/notify"
	"github.com/alejandrodnm/betguard/internal/adapters/storage"
	"github.com/alejandrodnm/betguard/internal/bankroll"
	"github.com/alejandrodnm/betguard/internal/engine"
	"github.com/alejandrodnm/betguard/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults built in when empty)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full decision tables (default: compact 1-line)")

	// Decision modes
	game := flag.String("game", "", "game id to evaluate, e.g. LAL@BOS")
	prob := flag.Float64("prob", 0, "model win probability for -game")
	odds := flag.Float64("odds", 0, "decimal odds for -game")
	gameDate := flag.String("date", "", "game date YYYY-MM-DD for -game (default: today)")
	slate := flag.String("slate", "", "csv slate of predictions to evaluate")

	// Ledger modes
	settle := flag.String("settle", "", "settle a bet: win|loss|push")
	stake := flag.Float64("stake", 0, "stake units for -settle loss")
	profit := flag.Float64("profit", 0, "profit units for -settle win")
	note := flag.String("note", "", "ledger note for -settle")
	grade := flag.String("grade", "", "shadow bet id to grade alongside -settle")
	status := flag.Bool("status", false, "print bankroll state, performance and recent ledger")
	reset := flag.Bool("reset", false, "reset the ledger (the only way out of PAUSED)")
	resetUnits := flag.Float64("units", 0, "initial units for -reset (0 = configured default)")

	// Stress modes
	stressRun := flag.Bool("stress", false, "run the Monte Carlo stress test")
	sensitivity := flag.Bool("sensitivity", false, "run the parameter sensitivity sweep")
	sims := flag.Int("sims", 0, "simulations per run (overrides config)")
	flag.Parse()

	cfg := loadConfig(*configPath)
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	notifier := notify.NewConsole(*table)

	// Stress modes never touch the ledger.
	if *stressRun || *sensitivity {
		runStress(ctx, cfg, notifier, *sensitivity, *sims)
		return
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN, cfg.Bankroll.InitialUnits)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	bank := bankroll.New(store, store, bankroll.Config{
		InitialUnits:    cfg.Bankroll.InitialUnits,
		ActiveKelly:     cfg.Bankroll.NormalKelly,
		DegradedKelly:   cfg.Bankroll.DegradedKelly,
		DegradeDrawdown: cfg.Bankroll.DegradeDrawdown,
		RecoverDrawdown: cfg.Bankroll.RecoverDrawdown,
		PauseDrawdown:   cfg.Bankroll.PauseDrawdown,
		PauseLossStreak: cfg.Bankroll.PauseLossStreak,
	})

	filter := engine.NewRiskFilter(engine.FilterConfig{
		MinProbability:    cfg.Risk.MinProbability,
		DeadZoneLow:       cfg.Risk.DeadZoneLow,
		DeadZoneHigh:      cfg.Risk.DeadZoneHigh,
		MinEV:             cfg.Risk.MinEV,
		BlockEarlySeason:  *cfg.Risk.BlockEarlySeason,
		ReducePreDeadline: *cfg.Risk.ReducePreDeadline,
	})

	pipe := pipeline.New(pipeline.NewRiskGuard(bank, filter), bank, engine.StakeConfig{
		FractionalKelly: cfg.Stake.FractionalKelly,
		MaxStakePercent: cfg.Stake.MaxStakePercent,
		MinStakeUnits:   cfg.Stake.MinStakeUnits,
	})
	shadower := pipeline.NewShadowBettor(pipe, store, store, notifier)

	switch {
	case *game != "":
		runDecide(ctx, shadower, *game, *prob, *odds, *gameDate)
	case *slate != "":
		runSlate(ctx, shadower, *slate)
	case *settle != "":
		runSettle(ctx, bank, store, *settle, *stake, *profit, *note, *grade)
	case *reset:
		runReset(ctx, bank, *resetUnits)
	case *status:
		runStatus(ctx, bank, store, notifier)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", path)
		os.Exit(1)
	}
	return cfg
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
