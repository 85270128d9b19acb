package betting

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/utakatalp/league-viewer/internal/league"
)

var (
	ErrNotAwaitingBet     = errors.New("a bet has already been settled for this pairing")
	ErrNotAwaitingAdvance = errors.New("no settled bet to advance from")
	ErrFinished           = errors.New("tournament is finished")
	ErrInvariant          = errors.New("bracket invariant violated")
)

// ValidationError rejects a bet without touching the bracket.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Phase is where a bracket sits in the bet/advance cycle.
type Phase int

const (
	AwaitingBet Phase = iota
	AwaitingAdvance
	Finished
)

var phaseNames = [...]string{"awaiting_bet", "awaiting_advance", "finished"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, n := range phaseNames {
		if n == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Pairing is one knockout tie.
type Pairing struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Bet is a wager and, once drawn, its settlement.
type Bet struct {
	Team    string  `json:"team"`
	Amount  int64   `json:"amount"`
	Winner  string  `json:"winner"`
	Odds    float64 `json:"odds"`
	Delta   int64   `json:"delta"`
	Settled bool    `json:"settled"`
}

// Won reports whether the bet was on the winner.
func (b Bet) Won() bool { return b.Settled && b.Team == b.Winner }

// Bracket is the whole game session. Transitions take a Bracket and return
// a new one; the input value is never modified.
type Bracket struct {
	Phase       Phase       `json:"phase"`
	Balance     int64       `json:"balance"`
	RoundNumber int         `json:"round"`
	Round       []Pairing   `json:"pairings"`
	Index       int         `json:"index"`
	Line        league.Line `json:"line"`
	Winners     []string    `json:"winners"`
	Completed   [][]string  `json:"completed_rounds"`
	Pending     *Bet        `json:"pending_bet,omitempty"`
	History     []Bet       `json:"history"`
	Champion    string      `json:"champion,omitempty"`
}

// Current returns the pairing awaiting a result.
func (b Bracket) Current() (Pairing, bool) {
	if b.Phase == Finished || b.Index < 0 || b.Index >= len(b.Round) {
		return Pairing{}, false
	}
	return b.Round[b.Index], true
}

// Bankrupt reports whether no further bet can be placed.
func (b Bracket) Bankrupt() bool { return b.Balance <= 0 }

func (b Bracket) clone() Bracket {
	c := b
	c.Round = append([]Pairing(nil), b.Round...)
	c.Winners = append([]string(nil), b.Winners...)
	c.History = append([]Bet(nil), b.History...)
	c.Completed = make([][]string, len(b.Completed))
	for i, r := range b.Completed {
		c.Completed[i] = append([]string(nil), r...)
	}
	if b.Pending != nil {
		p := *b.Pending
		c.Pending = &p
	}
	return c
}

func (b Bracket) check() error {
	switch {
	case b.Balance < 0:
		return fmt.Errorf("%w: balance %d below zero", ErrInvariant, b.Balance)
	case b.Phase == AwaitingAdvance && (b.Pending == nil || !b.Pending.Settled):
		return fmt.Errorf("%w: awaiting advance without a settled bet", ErrInvariant)
	case b.Phase == AwaitingBet && b.Pending != nil:
		return fmt.Errorf("%w: awaiting bet with a pending bet", ErrInvariant)
	}
	return nil
}

// Pricer supplies the two-way line for a pairing.
type Pricer interface {
	Line(home, away string) league.Line
}

// PricerFunc adapts a function to Pricer.
type PricerFunc func(home, away string) league.Line

func (f PricerFunc) Line(home, away string) league.Line { return f(home, away) }

// SeasonPricer prices pairings from a season's historical odds.
func SeasonPricer(matches []*league.Match) Pricer {
	return PricerFunc(func(home, away string) league.Line {
		return league.MatchupLine(matches, home, away)
	})
}

// Settings are the fixed rules of a game.
type Settings struct {
	InitialBalance int64
	BracketSize    int
}

// DefaultSettings start each player on 10000 with the top sixteen teams.
var DefaultSettings = Settings{InitialBalance: 10000, BracketSize: 16}

// Game runs brackets. It holds collaborators only; all session data lives
// in the Bracket values it hands out.
type Game struct {
	src      Source
	pricer   Pricer
	settings Settings
}

func NewGame(src Source, pricer Pricer, settings Settings) (*Game, error) {
	if settings.InitialBalance <= 0 {
		return nil, fmt.Errorf("initial balance must be positive, got %d", settings.InitialBalance)
	}
	if !powerOfTwo(settings.BracketSize) {
		return nil, fmt.Errorf("bracket size must be a power of two of at least 2, got %d", settings.BracketSize)
	}
	return &Game{src: src, pricer: pricer, settings: settings}, nil
}

func (g *Game) Settings() Settings { return g.settings }

func powerOfTwo(n int) bool {
	return n >= 2 && n&(n-1) == 0
}

// pair shuffles teams and pairs them off in order.
func (g *Game) pair(teams []string) []Pairing {
	shuffled := append([]string(nil), teams...)
	g.src.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	round := make([]Pairing, 0, len(shuffled)/2)
	for i := 0; i+1 < len(shuffled); i += 2 {
		round = append(round, Pairing{Home: shuffled[i], Away: shuffled[i+1]})
	}
	return round
}

// Start opens a bracket with the first BracketSize teams of a ranked list.
func (g *Game) Start(teams []string) (Bracket, error) {
	n := g.settings.BracketSize
	if len(teams) < n {
		return Bracket{}, fmt.Errorf("need %d teams for the bracket, have %d", n, len(teams))
	}
	seen := make(map[string]struct{}, n)
	for _, t := range teams[:n] {
		if _, dup := seen[t]; dup {
			return Bracket{}, fmt.Errorf("team %q listed twice", t)
		}
		seen[t] = struct{}{}
	}

	b := Bracket{
		Phase:       AwaitingBet,
		Balance:     g.settings.InitialBalance,
		RoundNumber: 1,
		Round:       g.pair(teams[:n]),
	}
	b.Line = g.price(b.Round[0])
	return b, nil
}

// Reset throws the session away and starts a fresh bracket.
func (g *Game) Reset(teams []string) (Bracket, error) {
	return g.Start(teams)
}

func (g *Game) price(p Pairing) league.Line {
	return g.pricer.Line(p.Home, p.Away)
}

// Submit places a bet on the current pairing, draws the result and settles
// it. Settlement happens here and only here.
func (g *Game) Submit(b Bracket, team string, amount int64) (Bracket, error) {
	switch b.Phase {
	case Finished:
		return b, ErrFinished
	case AwaitingAdvance:
		return b, ErrNotAwaitingBet
	}
	pairing, ok := b.Current()
	if !ok {
		return b, fmt.Errorf("%w: no current pairing", ErrInvariant)
	}

	// 1) validate
	if amount <= 0 {
		return b, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if amount > b.Balance {
		return b, &ValidationError{Field: "amount", Message: fmt.Sprintf("%d exceeds balance %d", amount, b.Balance)}
	}
	if team != pairing.Home && team != pairing.Away {
		return b, &ValidationError{Field: "team", Message: fmt.Sprintf("%q is not playing in %s vs %s", team, pairing.Home, pairing.Away)}
	}

	// 2) draw the winner from the two-way line
	line := g.price(pairing)
	if !payable(line.HomeOdds) || !payable(line.AwayOdds) {
		return b, fmt.Errorf("%w: unpayable line %v/%v for %s vs %s", ErrInvariant, line.HomeOdds, line.AwayOdds, pairing.Home, pairing.Away)
	}
	winner, odds := pairing.Home, line.HomeOdds
	if g.src.Draw([]float64{line.PHome, line.PAway}) == 1 {
		winner, odds = pairing.Away, line.AwayOdds
	}

	// 3) settle once
	bet := &Bet{Team: team, Amount: amount, Winner: winner, Odds: odds}
	bet.Delta = settle(bet)
	bet.Settled = true

	next := b.clone()
	next.Line = line
	next.Balance += bet.Delta
	next.Pending = bet
	next.Phase = AwaitingAdvance
	if err := next.check(); err != nil {
		return b, err
	}
	return next, nil
}

func payable(odds float64) bool {
	return odds > 0 && !math.IsInf(odds, 0)
}

// settle returns the net balance change of a drawn bet: the floored payout
// minus the stake on a win, the stake lost otherwise.
func settle(bet *Bet) int64 {
	if bet.Team != bet.Winner {
		return -bet.Amount
	}
	payout := decimal.NewFromInt(bet.Amount).Mul(decimal.NewFromFloat(bet.Odds)).Floor()
	return payout.IntPart() - bet.Amount
}

// Advance records the settled pairing's winner and moves on. Calling it
// again before the next bet returns ErrNotAwaitingAdvance and changes
// nothing.
func (g *Game) Advance(b Bracket) (Bracket, error) {
	switch b.Phase {
	case Finished:
		return b, ErrFinished
	case AwaitingBet:
		return b, ErrNotAwaitingAdvance
	}
	if err := b.check(); err != nil {
		return b, err
	}

	next := b.clone()
	next.Winners = append(next.Winners, next.Pending.Winner)
	next.History = append(next.History, *next.Pending)
	next.Pending = nil
	next.Index++

	switch {
	case next.Index < len(next.Round):
		next.Phase = AwaitingBet
	case len(next.Winners) == 1:
		next.Completed = append(next.Completed, next.Winners)
		next.Champion = next.Winners[0]
		next.Phase = Finished
	default:
		next.Completed = append(next.Completed, next.Winners)
		next.Round = g.pair(next.Winners)
		next.Winners = nil
		next.Index = 0
		next.RoundNumber++
		next.Phase = AwaitingBet
	}

	if next.Phase == AwaitingBet {
		if next.Bankrupt() {
			next.Phase = Finished
		} else {
			next.Line = g.price(next.Round[next.Index])
		}
	}
	if err := next.check(); err != nil {
		return b, err
	}
	return next, nil
}
