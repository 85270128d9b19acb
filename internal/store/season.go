package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/utakatalp/league-viewer/internal/league"
)

// DataError reports a season file that does not fit the record schema.
// A season with any DataError is not loaded at all.
type DataError struct {
	Line   int
	Column string
	Err    error
}

func (e *DataError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	case e.Column != "":
		return fmt.Sprintf("column %s: %v", e.Column, e.Err)
	}
	return e.Err.Error()
}

func (e *DataError) Unwrap() error { return e.Err }

// Season is the loaded match set for one season, in file order.
type Season struct {
	Name    string
	matches []*league.Match
}

// NewSeason wraps an already validated set of records.
func NewSeason(name string, matches []*league.Match) *Season {
	cp := make([]*league.Match, len(matches))
	copy(cp, matches)
	return &Season{Name: name, matches: cp}
}

// Matches returns the season's records. The slice is a copy; the records
// themselves must not be modified.
func (s *Season) Matches() []*league.Match {
	cp := make([]*league.Match, len(s.matches))
	copy(cp, s.matches)
	return cp
}

func (s *Season) Len() int { return len(s.matches) }

// Teams lists every team that appears on either side, sorted by name.
func (s *Season) Teams() []string {
	seen := make(map[string]struct{})
	for _, m := range s.matches {
		seen[m.Home] = struct{}{}
		seen[m.Away] = struct{}{}
	}
	teams := make([]string, 0, len(seen))
	for t := range seen {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}

// Rename returns a copy of the season with team names replaced through
// names. Teams missing from names keep their own name. Two teams mapped to
// the same display name fail with a *DataError.
func (s *Season) Rename(names map[string]string) (*Season, error) {
	if len(names) == 0 {
		return s, nil
	}
	display := func(team string) string {
		if n := strings.TrimSpace(names[team]); n != "" {
			return n
		}
		return team
	}

	owner := make(map[string]string)
	matches := make([]*league.Match, len(s.matches))
	for i, m := range s.matches {
		for _, team := range []string{m.Home, m.Away} {
			d := display(team)
			if prev, ok := owner[d]; ok && prev != team {
				return nil, &DataError{Err: fmt.Errorf("teams %q and %q both renamed to %q", prev, team, d)}
			}
			owner[d] = team
		}
		cp := *m
		cp.Home, cp.Away = display(m.Home), display(m.Away)
		matches[i] = &cp
	}
	return &Season{Name: s.Name, matches: matches}, nil
}

// HasTeam reports whether team played at least one match.
func (s *Season) HasTeam(team string) bool {
	for _, m := range s.matches {
		if m.Home == team || m.Away == team {
			return true
		}
	}
	return false
}

// Canonical column names of a season file.
const (
	colDate      = "date"
	colHomeTeam  = "home_team"
	colAwayTeam  = "away_team"
	colHomeScore = "home_score"
	colAwayScore = "away_score"
	colResult    = "result"
	colHomeOdds  = "home_odds"
	colDrawOdds  = "draw_odds"
	colAwayOdds  = "away_odds"
)

var requiredColumns = []string{colDate, colHomeTeam, colAwayTeam, colHomeScore, colAwayScore, colResult}

// headerAliases maps the header spellings seen in season files to the
// canonical names: football-data.co.uk codes and the translated headers
// of the Korean EPL export.
var headerAliases = map[string]string{
	"date":      colDate,
	"hometeam":  colHomeTeam,
	"awayteam":  colAwayTeam,
	"fthg":      colHomeScore,
	"ftag":      colAwayScore,
	"ftr":       colResult,
	"b365h":     colHomeOdds,
	"b365d":     colDrawOdds,
	"b365a":     colAwayOdds,
	"날짜":        colDate,
	"홈 팀":       colHomeTeam,
	"원정 팀":      colAwayTeam,
	"홈 팀 득점":    colHomeScore,
	"원정 팀 득점":   colAwayScore,
	"경기 결과":     colResult,
	"홈 승 배당률":   colHomeOdds,
	"무승부 배당률":   colDrawOdds,
	"원정 승 배당률":  colAwayOdds,
	colHomeTeam:  colHomeTeam,
	colAwayTeam:  colAwayTeam,
	colHomeScore: colHomeScore,
	colAwayScore: colAwayScore,
	colResult:    colResult,
	colHomeOdds:  colHomeOdds,
	colDrawOdds:  colDrawOdds,
	colAwayOdds:  colAwayOdds,
}

var dateLayouts = []string{
	"2006/01/02",
	"2006-01-02",
	"02/01/2006",
	"02/01/06",
	"2/1/2006",
}

func canonicalColumn(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	if c, ok := headerAliases[strings.ToLower(h)]; ok {
		return c
	}
	return ""
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseScore(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid score %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative score %d", n)
	}
	return n, nil
}

// parseOdd returns 0 for a missing quote.
func parseOdd(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid odds %q", s)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid odds %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative odds %v", v)
	}
	return v, nil
}

// LoadCSV reads a season file. Every row is validated against the record
// schema; the first failure aborts the whole load with a *DataError.
func LoadCSV(name string, r io.Reader) (*Season, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &DataError{Err: errors.New("empty season file")}
	}
	if err != nil {
		return nil, &DataError{Line: 1, Err: err}
	}

	// 1) translate the header
	index := make(map[string]int, len(header))
	for i, h := range header {
		if c := canonicalColumn(h); c != "" {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			return nil, &DataError{Column: c, Err: errors.New("missing required column")}
		}
	}

	// 2) validate and convert each row
	var matches []*league.Match
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &DataError{Line: line, Err: err}
		}
		if isBlank(rec) {
			continue
		}
		m, err := parseRow(rec, index, line)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return &Season{Name: name, matches: matches}, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRow(rec []string, index map[string]int, line int) (*league.Match, error) {
	field := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	fail := func(col string, err error) error {
		return &DataError{Line: line, Column: col, Err: err}
	}

	m := &league.Match{
		Home: field(colHomeTeam),
		Away: field(colAwayTeam),
	}
	if m.Home == "" {
		return nil, fail(colHomeTeam, errors.New("empty team name"))
	}
	if m.Away == "" {
		return nil, fail(colAwayTeam, errors.New("empty team name"))
	}
	if m.Home == m.Away {
		return nil, fail(colAwayTeam, fmt.Errorf("team %q cannot play itself", m.Home))
	}

	var err error
	if m.Date, err = parseDate(field(colDate)); err != nil {
		return nil, fail(colDate, err)
	}
	if m.HomeGoals, err = parseScore(field(colHomeScore)); err != nil {
		return nil, fail(colHomeScore, err)
	}
	if m.AwayGoals, err = parseScore(field(colAwayScore)); err != nil {
		return nil, fail(colAwayScore, err)
	}
	if m.Result, err = league.ParseResult(field(colResult)); err != nil {
		return nil, fail(colResult, err)
	}
	if m.Result != m.Outcome() {
		return nil, fail(colResult, fmt.Errorf("result %s does not match score %d-%d", m.Result, m.HomeGoals, m.AwayGoals))
	}

	// 3) odds are optional; zero or blank means no quote
	var odds league.Odds
	for _, q := range []struct {
		col string
		dst *float64
	}{
		{colHomeOdds, &odds.Home},
		{colDrawOdds, &odds.Draw},
		{colAwayOdds, &odds.Away},
	} {
		v, err := parseOdd(field(q.col))
		if err != nil {
			return nil, fail(q.col, err)
		}
		*q.dst = v
	}
	if odds.Valid() {
		m.Odds = &odds
	}
	return m, nil
}

// LoadFile opens path and loads it with LoadCSV.
func LoadFile(name, path string) (*Season, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening season file: %w", err)
	}
	defer f.Close()

	s, err := LoadCSV(name, f)
	if err != nil {
		return nil, fmt.Errorf("loading season %s: %w", path, err)
	}
	return s, nil
}
