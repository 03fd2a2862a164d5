package predictor

// CSV slate adapter: reads upstream model output from a csv file, one game
// per row. Columns are matched by header name so extra columns are ignored.

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alejandrodnm/betguard/internal/domain"
	"github.com/alejandrodnm/betguard/internal/ports"
)

// CSVSlate implements ports.Predictor over a csv file.
type CSVSlate struct {
	path string
}

// NewCSVSlate creates a predictor that reads predictions from path.
func NewCSVSlate(path string) *CSVSlate {
	return &CSVSlate{path: path}
}

// Predictions parses the slate file. A missing file or an empty slate maps
// to ports.ErrNoPriorData so callers can tell "nothing to bet on" apart
// from a broken file.
func (p *CSVSlate) Predictions(_ context.Context) ([]domain.Prediction, error) {
	f, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("predictor.Predictions: %q: %w", p.path, ports.ErrNoPriorData)
		}
		return nil, fmt.Errorf("predictor.Predictions: open %q: %w", p.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("predictor.Predictions: %q: %w", p.path, ports.ErrNoPriorData)
	}

	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"game_id", "probability", "odds"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("predictor.Predictions: %q: missing column %q", p.path, required)
		}
	}
	dateIdx, hasDate := col["date"]

	var preds []domain.Prediction
	line := 1
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		line++

		prob, err := strconv.ParseFloat(record[col["probability"]], 64)
		if err != nil {
			return nil, fmt.Errorf("predictor.Predictions: line %d: probability: %w", line, err)
		}
		odds, err := strconv.ParseFloat(record[col["odds"]], 64)
		if err != nil {
			return nil, fmt.Errorf("predictor.Predictions: line %d: odds: %w", line, err)
		}

		pred := domain.Prediction{
			GameID:      record[col["game_id"]],
			Probability: prob,
			Odds:        odds,
			GameDate:    time.Now().UTC(),
		}
		if hasDate && dateIdx < len(record) && record[dateIdx] != "" {
			d, err := time.Parse("2006-01-02", record[dateIdx])
			if err != nil {
				return nil, fmt.Errorf("predictor.Predictions: line %d: date: %w", line, err)
			}
			pred.GameDate = d
		}
		preds = append(preds, pred)
	}

	if len(preds) == 0 {
		return nil, fmt.Errorf("predictor.Predictions: %q: empty slate: %w", p.path, ports.ErrNoPriorData)
	}
	return preds, nil
}
