package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/utakatalp/league-viewer/internal/league"
)

// Store wraps a Postgres connection holding imported seasons. It is a
// read-mostly source of match records; game sessions never touch it.
type Store struct {
	DB *sql.DB
}

// NewStore opens a Postgres connection using the given connection string.
func NewStore(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// verify early
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	slog.Debug("connected to postgres")
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS seasons (
		    name        TEXT PRIMARY KEY,
		    imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS matches (
		    id         SERIAL PRIMARY KEY,
		    season     TEXT NOT NULL REFERENCES seasons(name) ON DELETE CASCADE,
		    seq        INT  NOT NULL,
		    match_date DATE NOT NULL,
		    home_team  TEXT NOT NULL,
		    away_team  TEXT NOT NULL,
		    home_goals INT  NOT NULL CHECK (home_goals >= 0),
		    away_goals INT  NOT NULL CHECK (away_goals >= 0),
		    result     CHAR(1) NOT NULL,
		    home_odds  DOUBLE PRECISION,
		    draw_odds  DOUBLE PRECISION,
		    away_odds  DOUBLE PRECISION,
		    UNIQUE (season, seq)
		);`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// ImportSeason replaces every stored match of the season with its records,
// keeping file order in seq.
func (s *Store) ImportSeason(ctx context.Context, season *Season) error {
	// 1) Begin a transaction
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ImportSeason tx: %w", err)
	}
	defer tx.Rollback()

	// 2) Reset the season
	if _, err := tx.ExecContext(ctx, `DELETE FROM seasons WHERE name = $1`, season.Name); err != nil {
		return fmt.Errorf("deleting season %s: %w", season.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO seasons (name) VALUES ($1)`, season.Name); err != nil {
		return fmt.Errorf("inserting season %s: %w", season.Name, err)
	}

	// 3) Insert the matches
	const q = `
INSERT INTO matches (season, seq, match_date, home_team, away_team, home_goals, away_goals, result, home_odds, draw_odds, away_odds)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("preparing match insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range season.matches {
		var home, draw, away sql.NullFloat64
		if m.Odds != nil {
			home = sql.NullFloat64{Float64: m.Odds.Home, Valid: true}
			draw = sql.NullFloat64{Float64: m.Odds.Draw, Valid: true}
			away = sql.NullFloat64{Float64: m.Odds.Away, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			season.Name, i, m.Date, m.Home, m.Away,
			m.HomeGoals, m.AwayGoals, m.Result.String(),
			home, draw, away,
		); err != nil {
			return fmt.Errorf("inserting match %d (%s): %w", i, m.ScoreLine(), err)
		}
	}

	// 4) Commit
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ImportSeason tx: %w", err)
	}
	return nil
}

// LoadSeason fetches every match of the named season in import order.
// Rows are checked against the same schema as a season file.
func (s *Store) LoadSeason(ctx context.Context, name string) (*Season, error) {
	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM seasons WHERE name = $1)`, name,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("looking up season %s: %w", name, err)
	}
	if !exists {
		return nil, &DataError{Err: fmt.Errorf("season %q not imported", name)}
	}

	const q = `
SELECT seq, match_date, home_team, away_team, home_goals, away_goals, result, home_odds, draw_odds, away_odds
FROM matches
WHERE season = $1
ORDER BY seq
`
	rows, err := s.DB.QueryContext(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []*league.Match
	for rows.Next() {
		var (
			seq              int
			result           string
			home, draw, away sql.NullFloat64
		)
		m := &league.Match{}
		if err := rows.Scan(
			&seq,
			&m.Date,
			&m.Home,
			&m.Away,
			&m.HomeGoals,
			&m.AwayGoals,
			&result,
			&home,
			&draw,
			&away,
		); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		if m.Result, err = league.ParseResult(result); err != nil {
			return nil, &DataError{Line: seq, Column: colResult, Err: err}
		}
		if m.Result != m.Outcome() {
			return nil, &DataError{Line: seq, Column: colResult, Err: fmt.Errorf("result %s does not match score %d-%d", m.Result, m.HomeGoals, m.AwayGoals)}
		}
		odds := league.Odds{Home: home.Float64, Draw: draw.Float64, Away: away.Float64}
		if home.Valid && draw.Valid && away.Valid && odds.Valid() {
			m.Odds = &odds
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches rows: %w", err)
	}
	return &Season{Name: name, matches: matches}, nil
}

// ListSeasons returns imported season names, newest import first.
func (s *Store) ListSeasons(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT name FROM seasons ORDER BY imported_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning season row: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// DeleteSeason drops a season and its matches.
func (s *Store) DeleteSeason(ctx context.Context, name string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM seasons WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting season %s: %w", name, err)
	}
	return nil
}
