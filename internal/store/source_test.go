package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/utakatalp/league-viewer/internal/config"
	"github.com/utakatalp/league-viewer/internal/league"
)

// The default config must point at a season file the repo ships.
func TestLoad_DefaultSeasonFile(t *testing.T) {
	cfg := config.Defaults()
	cfg.Season.File = filepath.Join("..", "..", cfg.Season.File)
	if _, err := os.Stat(cfg.Season.File); err != nil {
		t.Fatalf("default season file: %v", err)
	}

	season, err := Load(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if season.Name != cfg.Season.Name || season.Len() == 0 {
		t.Fatalf("got season %q with %d matches", season.Name, season.Len())
	}
	if n := len(league.CalculateTable(season.Matches())); n < cfg.Game.BracketSize {
		t.Errorf("default bracket needs %d ranked teams, table has %d", cfg.Game.BracketSize, n)
	}
}

func TestLoad_UnknownSource(t *testing.T) {
	cfg := config.Defaults()
	cfg.Season.Source = "ftp"
	if _, err := Load(context.Background(), cfg); err == nil {
		t.Errorf("expected error for unknown source")
	}
}

func TestLoad_AppliesTeamNames(t *testing.T) {
	cfg := config.Defaults()
	cfg.Season.File = filepath.Join("..", "..", cfg.Season.File)
	cfg.Season.TeamNames = map[string]string{"Arsenal": "아스날 FC"}

	season, err := Load(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !season.HasTeam("아스날 FC") || season.HasTeam("Arsenal") {
		t.Errorf("team names not applied: %v", season.Teams())
	}
}
