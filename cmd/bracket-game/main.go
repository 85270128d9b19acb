package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/utakatalp/league-viewer/internal/betting"
	"github.com/utakatalp/league-viewer/internal/config"
	"github.com/utakatalp/league-viewer/internal/league"
	"github.com/utakatalp/league-viewer/internal/logging"
	"github.com/utakatalp/league-viewer/internal/store"
)

const usage = `usage: bracket-game [-config path] <command> [flags]

commands:
  table    print the league table
  h2h      list the meetings between two teams
  predict  show margin-free probabilities for a pairing
  play     play the knockout betting game`

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Logging.Level = "warn"
	if _, err := logging.SetupLogger(cfg.Logging, "bracket-game"); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	season, err := store.Load(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to load season: %v", err)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "table":
		err = runTable(season, cfg, args)
	case "h2h":
		err = runHeadToHead(season, args)
	case "predict":
		err = runPredict(season, args)
	case "play":
		err = runPlay(season, cfg, os.Stdin, os.Stdout)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func standings(season *store.Season, full bool) []*league.TableEntry {
	if full {
		return league.CalculateFullTable(season.Matches())
	}
	return league.CalculateTable(season.Matches())
}

func runTable(season *store.Season, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("table", flag.ExitOnError)
	top := fs.Int("top", 0, "show only the first N rows")
	full := fs.Bool("full", cfg.Season.IncludeAwayOnly, "also rank teams that only appear away")
	if err := fs.Parse(args); err != nil {
		return err
	}

	table := standings(season, *full)
	if *top > 0 && *top < len(table) {
		table = table[:*top]
	}
	return league.WriteTable(os.Stdout, season.Name, table)
}

func runHeadToHead(season *store.Season, args []string) error {
	fs := flag.NewFlagSet("h2h", flag.ExitOnError)
	team := fs.String("team", "", "team to list matches for")
	other := fs.String("other", "", "opponent; empty lists every match of -team")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *team == "" {
		return errors.New("-team is required")
	}

	writeHeadToHead(os.Stdout, league.HeadToHead(season.Matches(), *team, *other), *team)
	return nil
}

// writeHeadToHead prints one line per match, newest first, then team's
// record over them.
func writeHeadToHead(out io.Writer, matches []*league.Match, team string) {
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches found.")
		return
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%s  %s\n", m.Date.Format("2006/01/02"), m.ScoreLine())
	}
	rec := league.Summarize(matches, team)
	fmt.Fprintf(out, "\n%s: P%d W%d D%d L%d GF%d GA%d\n", rec.Team, rec.Played, rec.Wins, rec.Draws, rec.Losses, rec.GoalsFor, rec.GoalsAgainst)
}

func runPredict(season *store.Season, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	home := fs.String("home", "", "home team")
	away := fs.String("away", "", "away team")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *home == "" || *away == "" || *home == *away {
		return errors.New("-home and -away must name two different teams")
	}

	p, err := league.AverageProbabilities(season.Matches(), *home, *away)
	if errors.Is(err, league.ErrInsufficientData) {
		fmt.Printf("%s vs %s: not enough odds data for a prediction\n", *home, *away)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s vs %s\n", *home, *away)
	fmt.Printf("  home win  %5.1f%%\n", p.Home*100)
	fmt.Printf("  draw      %5.1f%%\n", p.Draw*100)
	fmt.Printf("  away win  %5.1f%%\n", p.Away*100)
	return nil
}

func runPlay(season *store.Season, cfg *config.Config, in io.Reader, out io.Writer) error {
	game, err := betting.NewGame(
		betting.NewRandSource(cfg.Game.Seed),
		betting.SeasonPricer(season.Matches()),
		betting.Settings{InitialBalance: cfg.Game.InitialBalance, BracketSize: cfg.Game.BracketSize},
	)
	if err != nil {
		return err
	}
	teams := league.TopTeams(standings(season, cfg.Season.IncludeAwayOnly), cfg.Game.BracketSize)
	b, err := game.Start(teams)
	if err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for b.Phase != betting.Finished {
		p, _ := b.Current()
		fmt.Fprintf(out, "\nRound %d, match %d/%d  balance %d\n", b.RoundNumber, b.Index+1, len(b.Round), b.Balance)
		fmt.Fprintf(out, "  1) %-20s %.2f (%.0f%%)\n", p.Home, b.Line.HomeOdds, b.Line.PHome*100)
		fmt.Fprintf(out, "  2) %-20s %.2f (%.0f%%)\n", p.Away, b.Line.AwayOdds, b.Line.PAway*100)
		fmt.Fprint(out, "bet <1|2> <amount>, or quit: ")
		if !sc.Scan() {
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 1 && fields[0] == "quit" {
			return nil
		}
		if len(fields) != 2 || (fields[0] != "1" && fields[0] != "2") {
			fmt.Fprintln(out, "expected: <1|2> <amount>")
			continue
		}
		amount, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Fprintln(out, "amount must be a whole number")
			continue
		}
		team := p.Home
		if fields[0] == "2" {
			team = p.Away
		}

		next, err := game.Submit(b, team, amount)
		var verr *betting.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(out, verr.Error())
			continue
		}
		if err != nil {
			return err
		}
		bet := next.Pending
		if bet.Won() {
			fmt.Fprintf(out, "%s wins. You win %d.\n", bet.Winner, bet.Delta)
		} else {
			fmt.Fprintf(out, "%s wins. You lose %d.\n", bet.Winner, -bet.Delta)
		}

		if b, err = game.Advance(next); err != nil {
			return err
		}
	}

	switch {
	case b.Champion != "":
		fmt.Fprintf(out, "\nChampion: %s. Final balance %d.\n", b.Champion, b.Balance)
	default:
		fmt.Fprintf(out, "\nOut of money after round %d.\n", b.RoundNumber)
	}
	return nil
}
