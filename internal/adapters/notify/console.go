package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/betguard/internal/bankroll"
	"github.com/alejandrodnm/betguard/internal/domain"
	"github.com/alejandrodnm/betguard/internal/stress"
)

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyDecision prints a single bet decision in the configured mode.
func (c *Console) NotifyDecision(_ context.Context, decision domain.BetDecision) error {
	if c.table {
		c.printFull(decision)
	} else {
		c.printCompact(decision)
	}
	return nil
}

func (c *Console) printCompact(d domain.BetDecision) {
	now := time.Now().Format("15:04:05")
	switch d.Decision {
	case domain.DecisionBet:
		fmt.Fprintf(c.out, "[%s] %s %s | stake %.2fU (%.1f%% of bankroll) | EV %+.1f%%\n",
			now, decisionIcon(d.Decision), d.GameID, d.StakeUnits, stakePct(d), evPct(d))
	default:
		fmt.Fprintf(c.out, "[%s] %s %s | %s | EV %+.1f%%\n",
			now, decisionIcon(d.Decision), d.GameID, d.Reason, evPct(d))
	}
}

func (c *Console) printFull(d domain.BetDecision) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Game", "Decision", "EV", "Kelly", "Stake", "Capped", "Reason")

	kelly, capped := "-", "-"
	if d.Stake != nil {
		kelly = fmt.Sprintf("%.3f", d.Stake.KellyFraction)
		capped = "no"
		if d.Stake.WasCapped {
			capped = "yes"
		}
	}

	table.Append(
		d.GameID,
		fmt.Sprintf("%s %s", decisionIcon(d.Decision), string(d.Decision)),
		fmt.Sprintf("%+.1f%%", evPct(d)),
		kelly,
		fmt.Sprintf("%.2fU", d.StakeUnits),
		capped,
		truncate(d.Reason, 48),
	)
	table.Render()
}

// PrintStatus prints the bankroll state plus aggregate performance.
func (c *Console) PrintStatus(state domain.BankrollState, perf bankroll.Performance) {
	fmt.Fprintf(c.out, "\n=== BANKROLL [%s] ===\n", string(state.Status))
	fmt.Fprintf(c.out, "  Current:        %.2fU (started at %.2fU)\n", state.CurrentUnits, state.InitialUnits)
	fmt.Fprintf(c.out, "  Peak:           %.2fU\n", state.PeakUnits)
	fmt.Fprintf(c.out, "  Drawdown:       %.1f%% (max %.1f%%)\n", state.Drawdown()*100, state.MaxDrawdown*100)
	fmt.Fprintf(c.out, "  Kelly fraction: %.2f\n", state.KellyFraction)
	if !state.LastUpdated.IsZero() {
		fmt.Fprintf(c.out, "  Last updated:   %s\n", state.LastUpdated.Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintf(c.out, "\n=== PERFORMANCE ===\n")
	fmt.Fprintf(c.out, "  Bets settled:   %d (%d won, hit rate %.1f%%)\n", perf.TotalBets, perf.Wins, perf.HitRate*100)
	fmt.Fprintf(c.out, "  Net profit:     %+.2fU\n", perf.NetProfit)
	fmt.Fprintf(c.out, "  ROI growth:     %+.1f%%\n", perf.ROIGrowth*100)
	fmt.Fprintln(c.out)
}

// PrintTransactions prints the ledger tail, newest first.
func (c *Console) PrintTransactions(txs []domain.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(c.out, "  No transactions recorded.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Type", "Amount", "Balance", "EV", "Note")

	for _, t := range txs {
		table.Append(
			fmt.Sprintf("%d", t.ID),
			t.Timestamp.Format("01-02 15:04"),
			string(t.Type),
			fmt.Sprintf("%+.2f", t.Amount),
			fmt.Sprintf("%.2f", t.BalanceAfter),
			fmt.Sprintf("%+.1f%%", t.ExpectedValue*100),
			truncate(t.Note, 32),
		)
	}
	table.Render()
}

// PrintShadowBets prints the decision ledger tail.
func (c *Console) PrintShadowBets(bets []domain.ShadowBet) {
	if len(bets) == 0 {
		fmt.Fprintln(c.out, "  No shadow bets recorded.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Game", "Decision", "Prob", "Odds", "EV", "Stake", "Status", "Reason")

	for _, b := range bets {
		table.Append(
			b.GameID,
			string(b.Decision),
			fmt.Sprintf("%.3f", b.Probability),
			fmt.Sprintf("%.2f", b.Odds),
			fmt.Sprintf("%+.1f%%", b.EV*100),
			fmt.Sprintf("%.2fU", b.StakeUnits),
			string(b.Status),
			truncate(b.Reason, 40),
		)
	}
	table.Render()
}

// PrintStressSummary prints the Monte Carlo aggregates with a verdict line.
func (c *Console) PrintStressSummary(cfg stress.Config, summary stress.Summary) {
	fmt.Fprintf(c.out, "\n=== STRESS TEST — %d seasons x %d games ===\n", summary.Simulations, cfg.GamesPerSeason)
	fmt.Fprintf(c.out, "  Kelly fraction: %.2f | prob bias: %+.0f%% | min EV: %.0f%%\n",
		cfg.FractionalKelly, cfg.ProbBias*100, cfg.MinEV*100)
	fmt.Fprintf(c.out, "  Ruin probability:  %.2f%%\n", summary.RuinProb*100)
	fmt.Fprintf(c.out, "  Median ROI:        %+.1f%%  (P5 %+.1f%% / P95 %+.1f%%)\n",
		summary.MedianROI*100, summary.P5ROI*100, summary.P95ROI*100)
	fmt.Fprintf(c.out, "  Mean drawdown:     %.1f%%  (P99 %.1f%%)\n",
		summary.MeanDrawdown*100, summary.P99Drawdown*100)
	fmt.Fprintf(c.out, "  Avg bets/season:   %.0f\n", summary.AvgBets)
	if summary.Failed > 0 {
		fmt.Fprintf(c.out, "  Failed seasons:    %d\n", summary.Failed)
	}

	switch {
	case summary.RuinProb > 0.05:
		fmt.Fprintf(c.out, "\n  VERDICT: DANGEROUS — ruin probability above 5%%\n\n")
	case summary.MedianROI <= 0:
		fmt.Fprintf(c.out, "\n  VERDICT: NOT PROFITABLE — median season loses money\n\n")
	default:
		fmt.Fprintf(c.out, "\n  VERDICT: SURVIVABLE — positive median ROI, ruin under control\n\n")
	}
}

// PrintSensitivity prints one row per scenario.
func (c *Console) PrintSensitivity(results []stress.ScenarioResult) {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "  No sensitivity results.")
		return
	}

	fmt.Fprintf(c.out, "\n=== SENSITIVITY — %d scenarios ===\n", len(results))

	table := tablewriter.NewWriter(c.out)
	table.Header("Scenario", "Kelly", "Bias", "MinEV", "Ruin", "MedianROI", "P5", "P99 DD")

	for _, r := range results {
		table.Append(
			r.Scenario.Name,
			fmt.Sprintf("%.2f", r.Scenario.FractionalKelly),
			fmt.Sprintf("%+.0f%%", r.Scenario.ProbBias*100),
			fmt.Sprintf("%.0f%%", r.Scenario.MinEV*100),
			fmt.Sprintf("%.2f%%", r.Summary.RuinProb*100),
			fmt.Sprintf("%+.1f%%", r.Summary.MedianROI*100),
			fmt.Sprintf("%+.1f%%", r.Summary.P5ROI*100),
			fmt.Sprintf("%.1f%%", r.Summary.P99Drawdown*100),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

// --- helpers ---

func decisionIcon(d domain.Decision) string {
	switch d {
	case domain.DecisionBet:
		return "[BET]"
	case domain.DecisionBlocked:
		return "[BLK]"
	default:
		return "[---]"
	}
}

func evPct(d domain.BetDecision) float64 {
	if d.EV == nil {
		return 0
	}
	return d.EV.EV * 100
}

func stakePct(d domain.BetDecision) float64 {
	if d.Stake == nil {
		return 0
	}
	return d.Stake.StakePercent * 100
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
