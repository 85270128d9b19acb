package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/utakatalp/league-viewer/internal/config"
	"github.com/utakatalp/league-viewer/internal/league"
	"github.com/utakatalp/league-viewer/internal/store"
)

const seasonCSV = `date,home_team,away_team,home_score,away_score,result,home_odds,draw_odds,away_odds
2024/08/16,Arsenal,Chelsea,2,1,H,2.0,3.0,4.0
2024/08/17,Liverpool,Spurs,3,0,H,1.5,4.5,6.0
2024/08/18,Chelsea,Liverpool,1,1,D,2.8,3.4,2.5
2024/08/19,Spurs,Arsenal,0,2,A,3.5,3.6,2.0
2024/08/24,Chelsea,Arsenal,0,0,D,,,
`

func loadSeason(t *testing.T) *store.Season {
	t.Helper()
	s, err := store.LoadCSV("test", strings.NewReader(seasonCSV))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	return s
}

func TestWriteHeadToHead(t *testing.T) {
	season := loadSeason(t)
	var out bytes.Buffer
	writeHeadToHead(&out, league.HeadToHead(season.Matches(), "Arsenal", "Chelsea"), "Arsenal")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		"2024/08/24  Chelsea 0 - 0 Arsenal",
		"2024/08/16  Arsenal 2 - 1 Chelsea",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: got %q, want %q", i, lines[i], w)
		}
	}
	for _, l := range lines[:2] {
		if strings.Count(l, "Arsenal") != 1 || strings.Count(l, "Chelsea") != 1 {
			t.Errorf("each team should appear once: %q", l)
		}
	}
	if last := lines[len(lines)-1]; last != "Arsenal: P2 W1 D1 L0 GF2 GA1" {
		t.Errorf("record line: got %q", last)
	}
}

func TestWriteHeadToHead_Empty(t *testing.T) {
	var out bytes.Buffer
	writeHeadToHead(&out, nil, "Arsenal")
	if got := strings.TrimSpace(out.String()); got != "No matches found." {
		t.Errorf("got %q", got)
	}
}

func TestRunPlay_Quit(t *testing.T) {
	cfg := config.Defaults()
	cfg.Game.BracketSize = 4
	cfg.Game.Seed = 3

	var out bytes.Buffer
	if err := runPlay(loadSeason(t), cfg, strings.NewReader("1 0\nquit\n"), &out); err != nil {
		t.Fatalf("runPlay: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Round 1, match 1/2  balance 10000") {
		t.Errorf("missing first prompt:\n%s", got)
	}
	if !strings.Contains(got, "invalid amount") {
		t.Errorf("zero bet should be rejected:\n%s", got)
	}
}
