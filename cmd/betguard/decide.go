package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/betguard/internal/adapters/notify"
	"github.com/alejandrodnm/betguard/internal/adapters/predictor"
	"github.com/alejandrodnm/betguard/internal/adapters/storage"
	"github.com/alejandrodnm/betguard/internal/bankroll"
	"github.com/alejandrodnm/betguard/internal/domain"
	"github.com/alejandrodnm/betguard/internal/pipeline"
)

func runDecide(ctx context.Context, shadower *pipeline.ShadowBettor, game string, prob, odds float64, dateStr string) {
	gameDate := time.Now().UTC()
	if dateStr != "" {
		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			slog.Error("invalid -date, expected YYYY-MM-DD", "date", dateStr, "err", err)
			os.Exit(1)
		}
		gameDate = d
	}

	decision := shadower.ProcessGame(ctx, game, prob, odds, gameDate)
	slog.Debug("decision complete", "game", game, "decision", decision.Decision, "stake", decision.StakeUnits)
}

func runSlate(ctx context.Context, shadower *pipeline.ShadowBettor, path string) {
	decisions, err := shadower.ProcessSlate(ctx, predictor.NewCSVSlate(path))
	if err != nil {
		slog.Error("slate processing failed", "slate", path, "err", err)
		os.Exit(1)
	}
	if len(decisions) == 0 {
		slog.Warn("no predictions available", "slate", path)
		return
	}

	bets, blocked := 0, 0
	for _, d := range decisions {
		switch d.Decision {
		case domain.DecisionBet:
			bets++
		case domain.DecisionBlocked:
			blocked++
		}
	}
	slog.Info("slate processed", "games", len(decisions), "bets", bets, "blocked", blocked)
}

func runSettle(ctx context.Context, bank *bankroll.Service, store *storage.SQLiteStorage, result string, stake, profit float64, note, gradeID string) {
	var betResult domain.BetResult
	var shadowStatus domain.ShadowStatus
	switch result {
	case "win":
		betResult = domain.ResultWin
		shadowStatus = domain.ShadowWon
		if profit <= 0 {
			slog.Error("-settle win requires -profit > 0")
			os.Exit(1)
		}
	case "loss":
		betResult = domain.ResultLoss
		shadowStatus = domain.ShadowLost
		if stake <= 0 {
			slog.Error("-settle loss requires -stake > 0")
			os.Exit(1)
		}
	case "push":
		betResult = domain.ResultPush
	default:
		slog.Error("invalid -settle, expected win|loss|push", "settle", result)
		os.Exit(1)
	}

	balance, err := bank.Update(ctx, betResult, stake, profit, note, 0)
	if err != nil {
		slog.Error("settlement failed", "err", err)
		os.Exit(1)
	}
	slog.Info("bet settled", "result", result, "balance", balance)

	if gradeID != "" && shadowStatus != "" {
		if err := store.GradeShadowBet(ctx, gradeID, shadowStatus); err != nil {
			slog.Warn("failed to grade shadow bet", "id", gradeID, "err", err)
		}
	}
}

func runReset(ctx context.Context, bank *bankroll.Service, units float64) {
	if err := bank.Reset(ctx, units); err != nil {
		slog.Error("reset failed", "err", err)
		os.Exit(1)
	}
}

func runStatus(ctx context.Context, bank *bankroll.Service, store *storage.SQLiteStorage, console *notify.Console) {
	state, err := bank.State(ctx)
	if err != nil {
		slog.Error("failed to read state", "err", err)
		os.Exit(1)
	}
	perf, err := bank.Performance(ctx)
	if err != nil {
		slog.Error("failed to compute performance", "err", err)
		os.Exit(1)
	}
	console.PrintStatus(state, perf)

	txs, err := store.Transactions(ctx, 10)
	if err != nil {
		slog.Error("failed to read ledger", "err", err)
		os.Exit(1)
	}
	console.PrintTransactions(txs)

	bets, err := store.ShadowBets(ctx, 10)
	if err != nil {
		slog.Error("failed to read shadow ledger", "err", err)
		os.Exit(1)
	}
	console.PrintShadowBets(bets)

	blocked, avgEV, err := store.DecisionMetrics(ctx)
	if err == nil {
		slog.Info("decision metrics", "blocked_total", blocked, "avg_ev", avgEV)
	}
}
