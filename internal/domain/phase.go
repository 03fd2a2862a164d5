package domain

import "time"

// SeasonPhase is the calendar-derived risk regime of an NBA season.
type SeasonPhase string

const (
	PhaseEarly       SeasonPhase = "early_season"       // 0-25% of season
	PhaseMid         SeasonPhase = "mid_season"         // 25-60%
	PhasePreDeadline SeasonPhase = "pre_trade_deadline" // 60-75%
	PhaseLate        SeasonPhase = "late_season"        // 75-100%
)

// PhaseForDate maps a game date onto a season phase using the typical
// Oct-April calendar. Mid-season starts Dec 25, the trade deadline window
// covers February, anything outside the season defaults to MID.
func PhaseForDate(t time.Time) SeasonPhase {
	switch m := t.Month(); m {
	case time.October, time.November:
		return PhaseEarly
	case time.December:
		if t.Day() < 25 {
			return PhaseEarly
		}
		return PhaseMid
	case time.January:
		return PhaseMid
	case time.February:
		return PhasePreDeadline
	case time.March, time.April:
		return PhaseLate
	default:
		return PhaseMid
	}
}

// PhaseForProgress maps season progress in [0,1) onto a phase. Used by the
// stress engine, which advances through an implied calendar game-by-game.
func PhaseForProgress(progress float64) SeasonPhase {
	switch {
	case progress < 0.25:
		return PhaseEarly
	case progress < 0.60:
		return PhaseMid
	case progress < 0.75:
		return PhasePreDeadline
	default:
		return PhaseLate
	}
}
