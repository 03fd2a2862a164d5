package stress

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/alejandrodnm/betguard/internal/domain"
)

// LoadPool reads the historical prediction pool from a CSV file with columns
// prob_home, odds_home, outcome_home (extra columns are ignored). The pool is
// loaded once before dispatch; no I/O happens inside the simulation loop.
func LoadPool(path string) ([]domain.PoolGame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stress.LoadPool: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stress.LoadPool: parse %q: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("stress.LoadPool: %q has no data rows", path)
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, required := range []string{"prob_home", "odds_home", "outcome_home"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("stress.LoadPool: %q missing column %q", path, required)
		}
	}

	pool := make([]domain.PoolGame, 0, len(rows)-1)
	for n, row := range rows[1:] {
		prob, err := strconv.ParseFloat(row[col["prob_home"]], 64)
		if err != nil {
			return nil, fmt.Errorf("stress.LoadPool: row %d: bad prob_home: %w", n+2, err)
		}
		odds, err := strconv.ParseFloat(row[col["odds_home"]], 64)
		if err != nil {
			return nil, fmt.Errorf("stress.LoadPool: row %d: bad odds_home: %w", n+2, err)
		}
		outcome, err := strconv.ParseFloat(row[col["outcome_home"]], 64)
		if err != nil {
			return nil, fmt.Errorf("stress.LoadPool: row %d: bad outcome_home: %w", n+2, err)
		}
		pool = append(pool, domain.PoolGame{
			Probability: prob,
			Odds:        odds,
			Won:         outcome >= 0.5,
		})
	}
	return pool, nil
}
