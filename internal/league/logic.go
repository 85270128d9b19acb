// internal/league/logic.go
package league

import (
	"fmt"
	"io"
	"sort"
)

func (m *Match) ScoreLine() string {
	return fmt.Sprintf("%s %d - %d %s",
		m.Home, m.HomeGoals,
		m.AwayGoals, m.Away,
	)
}

// Outcome derives the result from the score. The stored Result is only
// checked against it at load time.
func (m *Match) Outcome() Result {
	switch {
	case m.HomeGoals > m.AwayGoals:
		return HomeWin
	case m.HomeGoals < m.AwayGoals:
		return AwayWin
	default:
		return Draw
	}
}

// CalculateTable folds the season into one row per team and ranks it.
// Only teams that appear as a home side get a row; away-only teams are
// left out of the table.
func CalculateTable(matches []*Match) []*TableEntry {
	return calculateTable(matches, false)
}

// CalculateFullTable is CalculateTable with away-only teams ranked too.
// They are discovered after every home side.
func CalculateFullTable(matches []*Match) []*TableEntry {
	return calculateTable(matches, true)
}

func calculateTable(matches []*Match, includeAway bool) []*TableEntry {
	// 1) discover teams from the home side, in order of first appearance
	entriesMap := make(map[string]*TableEntry)
	entries := make([]*TableEntry, 0)
	discover := func(team string) {
		if _, ok := entriesMap[team]; !ok {
			e := &TableEntry{Team: team}
			entriesMap[team] = e
			entries = append(entries, e)
		}
	}
	for _, m := range matches {
		discover(m.Home)
	}
	if includeAway {
		for _, m := range matches {
			discover(m.Away)
		}
	}

	// 2) fold every match into both sides' rows
	for _, m := range matches {
		home := entriesMap[m.Home]
		away, ok := entriesMap[m.Away]
		if !ok {
			// away-only team: updates go nowhere
			away = &TableEntry{Team: m.Away}
		}

		home.Played++
		away.Played++

		home.GoalsFor += m.HomeGoals
		home.GoalsAgainst += m.AwayGoals
		away.GoalsFor += m.AwayGoals
		away.GoalsAgainst += m.HomeGoals

		switch m.Outcome() {
		case HomeWin:
			home.Wins++
			away.Losses++
			home.Points += 3
		case AwayWin:
			away.Wins++
			home.Losses++
			away.Points += 3
		default:
			home.Draws++
			away.Draws++
			home.Points++
			away.Points++
		}
	}

	// 3) goal difference after the fold
	for _, e := range entries {
		e.GoalDiff = e.GoalsFor - e.GoalsAgainst
	}

	// 4) stable sort keeps discovery order among full ties
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		return a.GoalsFor > b.GoalsFor
	})

	for i, e := range entries {
		e.Rank = i + 1
	}
	return entries
}

// TopTeams returns the names of the first n rows of a ranked table.
func TopTeams(table []*TableEntry, n int) []string {
	if n > len(table) {
		n = len(table)
	}
	if n < 0 {
		n = 0
	}
	teams := make([]string, 0, n)
	for _, e := range table[:n] {
		teams = append(teams, e.Team)
	}
	return teams
}

// WriteTable renders a ranked table in fixed-width columns.
func WriteTable(w io.Writer, label string, table []*TableEntry) error {
	if label != "" {
		if _, err := fmt.Fprintln(w, label); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%3s %-28s %3s %3s %3s %3s %4s %4s %4s %4s\n",
		"#", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts"); err != nil {
		return err
	}
	for _, entry := range table {
		if _, err := fmt.Fprintf(w, "%3d %-28s %3d %3d %3d %3d %4d %4d %+4d %4d\n",
			entry.Rank,
			entry.Team,
			entry.Played,
			entry.Wins,
			entry.Draws,
			entry.Losses,
			entry.GoalsFor,
			entry.GoalsAgainst,
			entry.GoalDiff,
			entry.Points,
		); err != nil {
			return err
		}
	}
	return nil
}
