package store

import (
	"context"
	"fmt"

	"github.com/utakatalp/league-viewer/internal/config"
)

// Load reads the configured season from its source, a file or Postgres,
// and applies the configured team display names.
func Load(ctx context.Context, cfg *config.Config) (*Season, error) {
	var (
		season *Season
		err    error
	)
	switch cfg.Season.Source {
	case config.SourceCSV:
		season, err = LoadFile(cfg.Season.Name, cfg.Season.File)
	case config.SourcePostgres:
		season, err = loadFromPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown season source %q", cfg.Season.Source)
	}
	if err != nil {
		return nil, err
	}
	return season.Rename(cfg.Season.TeamNames)
}

func loadFromPostgres(ctx context.Context, cfg *config.Config) (*Season, error) {
	st, err := NewStore(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.LoadSeason(ctx, cfg.Season.Name)
}
