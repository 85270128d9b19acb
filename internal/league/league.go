package league

import (
	"fmt"
	"math"
	"time"
)

// Result is the full-time outcome of a fixture.
type Result int

const (
	HomeWin Result = iota
	Draw
	AwayWin
)

// ParseResult accepts the single-letter codes used in season files.
func ParseResult(s string) (Result, error) {
	switch s {
	case "H", "h":
		return HomeWin, nil
	case "D", "d":
		return Draw, nil
	case "A", "a":
		return AwayWin, nil
	}
	return 0, fmt.Errorf("unknown result code %q", s)
}

func (r Result) String() string {
	switch r {
	case HomeWin:
		return "H"
	case Draw:
		return "D"
	case AwayWin:
		return "A"
	}
	return "?"
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(b []byte) error {
	v, err := ParseResult(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Odds holds a bookmaker's decimal quotes for the three outcomes.
type Odds struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// Valid reports whether every quote is a usable decimal price.
func (o Odds) Valid() bool {
	for _, q := range []float64{o.Home, o.Draw, o.Away} {
		if !(q > 0) || math.IsInf(q, 0) {
			return false
		}
	}
	return true
}

// Match is one played fixture. Records are never mutated once loaded.
type Match struct {
	Date      time.Time `json:"date"`
	Home      string    `json:"home_team"`
	Away      string    `json:"away_team"`
	HomeGoals int       `json:"home_score"`
	AwayGoals int       `json:"away_score"`
	Result    Result    `json:"result"`
	Odds      *Odds     `json:"odds,omitempty"`
}

// TableEntry holds the standings info for one team.
type TableEntry struct {
	Rank         int    `json:"rank"`
	Team         string `json:"team"`
	Played       int    `json:"played"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	GoalDiff     int    `json:"goal_difference"`
	Points       int    `json:"points"`
}

// Probabilities is a normalized outcome distribution.
type Probabilities struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// Line is the two-way market the bracket game bets against.
type Line struct {
	PHome    float64 `json:"p_home"`
	PAway    float64 `json:"p_away"`
	HomeOdds float64 `json:"home_odds"`
	AwayOdds float64 `json:"away_odds"`
	Fallback bool    `json:"fallback"`
}

// Record is a team's results over a set of matches, from its own side.
type Record struct {
	Team         string `json:"team"`
	Played       int    `json:"played"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
}
