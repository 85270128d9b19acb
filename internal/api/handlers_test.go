package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/utakatalp/league-viewer/internal/betting"
	"github.com/utakatalp/league-viewer/internal/league"
	"github.com/utakatalp/league-viewer/internal/session"
	"github.com/utakatalp/league-viewer/internal/store"
)

// homeWins always draws the first weight and never shuffles.
type homeWins struct{}

func (homeWins) Draw([]float64) int          { return 0 }
func (homeWins) Shuffle(int, func(i, j int)) {}

const seasonCSV = `date,home_team,away_team,home_score,away_score,result,home_odds,draw_odds,away_odds
2024/08/16,Arsenal,Chelsea,2,1,H,2.0,3.0,4.0
2024/08/17,Liverpool,Spurs,3,0,H,1.5,4.5,6.0
2024/08/18,Chelsea,Liverpool,1,1,D,2.8,3.4,2.5
2024/08/19,Spurs,Arsenal,0,2,A,3.5,3.6,2.0
2024/08/24,Chelsea,Spurs,2,0,H,,,
2024/08/25,Arsenal,Liverpool,1,1,D,2.4,3.4,2.9
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	season, err := store.LoadCSV("test", strings.NewReader(seasonCSV))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	game, err := betting.NewGame(homeWins{}, betting.SeasonPricer(season.Matches()), betting.Settings{InitialBalance: 1000, BracketSize: 4})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	h := NewHandler(season, false, game, session.NewMemoryStore(time.Hour))
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestStandings(t *testing.T) {
	srv := newTestServer(t)

	var body struct {
		Standings []struct {
			Rank   int    `json:"rank"`
			Team   string `json:"team"`
			Points int    `json:"points"`
		} `json:"standings"`
	}
	if code := do(t, "GET", srv.URL+"/api/v1/standings", nil, &body); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(body.Standings) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(body.Standings))
	}
	top := body.Standings[0]
	if top.Team != "Arsenal" || top.Points != 7 || top.Rank != 1 {
		t.Errorf("top row: got %+v", top)
	}

	if code := do(t, "GET", srv.URL+"/api/v1/standings?top=2", nil, &body); code != http.StatusOK || len(body.Standings) != 2 {
		t.Errorf("top=2: status %d rows %d", code, len(body.Standings))
	}
	if code := do(t, "GET", srv.URL+"/api/v1/standings?top=x", nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad top: want 400, got %d", code)
	}
}

func TestTeamMatches(t *testing.T) {
	srv := newTestServer(t)

	var body struct {
		Count  int `json:"count"`
		Record struct {
			Wins int `json:"wins"`
		} `json:"record"`
		Matches []struct {
			Home string `json:"home_team"`
		} `json:"matches"`
	}
	if code := do(t, "GET", srv.URL+"/api/v1/teams/Arsenal/matches", nil, &body); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if body.Count != 3 || body.Record.Wins != 2 || body.Matches[0].Home != "Arsenal" {
		t.Errorf("Arsenal matches: %+v", body)
	}

	if code := do(t, "GET", srv.URL+"/api/v1/teams/Arsenal/matches?opponent=Nobody", nil, &body); code != http.StatusOK || body.Count != 0 {
		t.Errorf("no meetings: status %d count %d", code, body.Count)
	}
}

func TestPrediction(t *testing.T) {
	srv := newTestServer(t)

	var body struct {
		Available     bool `json:"available"`
		Probabilities *struct {
			Home float64 `json:"home"`
		} `json:"probabilities"`
		Line struct {
			Fallback bool `json:"fallback"`
		} `json:"line"`
	}
	if code := do(t, "GET", srv.URL+"/api/v1/predictions?home=Arsenal&away=Chelsea", nil, &body); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !body.Available || body.Probabilities == nil || fmt.Sprintf("%.4f", body.Probabilities.Home) != "0.4615" {
		t.Errorf("Arsenal v Chelsea: %+v", body)
	}

	body.Probabilities = nil
	if code := do(t, "GET", srv.URL+"/api/v1/predictions?home=Chelsea&away=Spurs", nil, &body); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if body.Available || body.Probabilities != nil || !body.Line.Fallback {
		t.Errorf("no odds pairing should be unavailable with fallback line: %+v", body)
	}

	if code := do(t, "GET", srv.URL+"/api/v1/predictions?home=Arsenal", nil, nil); code != http.StatusBadRequest {
		t.Errorf("missing away: want 400, got %d", code)
	}
}

type gameBody struct {
	ID      string          `json:"id"`
	Bracket betting.Bracket `json:"bracket"`
}

func TestGameFlow(t *testing.T) {
	srv := newTestServer(t)

	var g gameBody
	if code := do(t, "POST", srv.URL+"/api/v1/games", nil, &g); code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	if g.ID == "" || g.Bracket.Balance != 1000 || len(g.Bracket.Round) != 2 {
		t.Fatalf("new game: %+v", g)
	}
	gameURL := srv.URL + "/api/v1/games/" + g.ID
	home := g.Bracket.Round[0].Home

	// over the balance: rejected, nothing changes
	if code := do(t, "POST", gameURL+"/bets", betRequest{Team: home, Amount: 5000}, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("oversized bet: want 422, got %d", code)
	}
	if do(t, "GET", gameURL, nil, &g); g.Bracket.Balance != 1000 || g.Bracket.Phase != betting.AwaitingBet {
		t.Errorf("state changed after rejected bet: %+v", g.Bracket)
	}

	if code := do(t, "POST", gameURL+"/bets", betRequest{Team: home, Amount: 100}, &g); code != http.StatusOK {
		t.Fatalf("bet: status %d", code)
	}
	won := g.Bracket.Balance
	if won <= 1000 || g.Bracket.Phase != betting.AwaitingAdvance {
		t.Fatalf("after winning bet: %+v", g.Bracket)
	}

	if code := do(t, "POST", gameURL+"/advance", nil, &g); code != http.StatusOK {
		t.Fatalf("advance: status %d", code)
	}
	if code := do(t, "POST", gameURL+"/advance", nil, nil); code != http.StatusConflict {
		t.Errorf("second advance: want 409, got %d", code)
	}
	if do(t, "GET", gameURL, nil, &g); g.Bracket.Balance != won || len(g.Bracket.Winners) != 1 {
		t.Errorf("repeat advance changed state: %+v", g.Bracket)
	}

	// play out the remaining two pairings
	for g.Bracket.Phase != betting.Finished {
		p, _ := g.Bracket.Current()
		if code := do(t, "POST", gameURL+"/bets", betRequest{Team: p.Away, Amount: 10}, &g); code != http.StatusOK {
			t.Fatalf("bet: status %d", code)
		}
		if code := do(t, "POST", gameURL+"/advance", nil, &g); code != http.StatusOK {
			t.Fatalf("advance: status %d", code)
		}
	}
	if g.Bracket.Champion == "" || g.Bracket.Balance != won-20 {
		t.Errorf("finished bracket: champion %q balance %d", g.Bracket.Champion, g.Bracket.Balance)
	}

	if code := do(t, "POST", gameURL+"/reset", nil, &g); code != http.StatusOK || g.Bracket.Balance != 1000 {
		t.Errorf("reset: status %d balance %d", code, g.Bracket.Balance)
	}
	if code := do(t, "DELETE", gameURL, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete: want 204, got %d", code)
	}
	if code := do(t, "GET", gameURL, nil, nil); code != http.StatusNotFound {
		t.Errorf("deleted game: want 404, got %d", code)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]string
	if code := do(t, "GET", srv.URL+"/health", nil, &body); code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health: %d %v", code, body)
	}
}

func TestNonFiniteOddsFallBack(t *testing.T) {
	matches := []*league.Match{
		{Date: time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC), Home: "A", Away: "B", HomeGoals: 2, AwayGoals: 1, Result: league.HomeWin, Odds: &league.Odds{Home: math.Inf(1), Draw: 3, Away: 4}},
		{Date: time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC), Home: "B", Away: "A", HomeGoals: 0, AwayGoals: 0, Result: league.Draw, Odds: &league.Odds{Home: 2, Draw: 3, Away: math.NaN()}},
	}
	season := store.NewSeason("bad odds", matches)
	game, err := betting.NewGame(homeWins{}, betting.SeasonPricer(season.Matches()), betting.Settings{InitialBalance: 1000, BracketSize: 2})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	srv := httptest.NewServer(NewRouter(NewHandler(season, false, game, session.NewMemoryStore(time.Hour))))
	defer srv.Close()

	var pred struct {
		Available bool `json:"available"`
		Line      struct {
			HomeOdds float64 `json:"home_odds"`
			Fallback bool    `json:"fallback"`
		} `json:"line"`
	}
	if code := do(t, "GET", srv.URL+"/api/v1/predictions?home=A&away=B", nil, &pred); code != http.StatusOK {
		t.Fatalf("prediction: status %d", code)
	}
	if pred.Available || !pred.Line.Fallback || pred.Line.HomeOdds != 2.0 {
		t.Errorf("prediction should fall back to the even line: %+v", pred)
	}

	var g gameBody
	if code := do(t, "POST", srv.URL+"/api/v1/games", nil, &g); code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	p, _ := g.Bracket.Current()
	if code := do(t, "POST", srv.URL+"/api/v1/games/"+g.ID+"/bets", betRequest{Team: p.Home, Amount: 100}, &g); code != http.StatusOK {
		t.Fatalf("bet: status %d", code)
	}
	if g.Bracket.Balance != 1100 {
		t.Errorf("bet at the even line: want balance 1100, got %d", g.Bracket.Balance)
	}
}
