package league

import "errors"

// ErrInsufficientData means no match for the pair carried usable odds.
// It is not a probability of zero.
var ErrInsufficientData = errors.New("insufficient odds data")

// DefaultLine keeps the bracket game playable for pairs with no history.
var DefaultLine = Line{PHome: 0.5, PAway: 0.5, HomeOdds: 2.0, AwayOdds: 2.0, Fallback: true}

// Normalize strips the bookmaker margin from a 1X2 quote.
func Normalize(o Odds) Probabilities {
	rawHome := 1.0 / o.Home
	rawDraw := 1.0 / o.Draw
	rawAway := 1.0 / o.Away
	total := rawHome + rawDraw + rawAway
	return Probabilities{
		Home: rawHome / total,
		Draw: rawDraw / total,
		Away: rawAway / total,
	}
}

// NormalizeTwoWay ignores the draw and normalizes home/away against each
// other, so the pair sums to exactly one.
func NormalizeTwoWay(home, away float64) (float64, float64) {
	rawHome := 1.0 / home
	rawAway := 1.0 / away
	total := rawHome + rawAway
	pHome := rawHome / total
	return pHome, 1 - pHome
}

// pairOdds collects the usable quotes for matches played by home at home
// against away.
func pairOdds(matches []*Match, home, away string) []Odds {
	var quotes []Odds
	for _, m := range matches {
		if m.Home != home || m.Away != away {
			continue
		}
		if m.Odds == nil || !m.Odds.Valid() {
			continue
		}
		quotes = append(quotes, *m.Odds)
	}
	return quotes
}

// AverageProbabilities averages the normalized 1X2 distribution over every
// meeting of the ordered pair, one equal weight per match.
func AverageProbabilities(matches []*Match, home, away string) (Probabilities, error) {
	quotes := pairOdds(matches, home, away)
	if len(quotes) == 0 {
		return Probabilities{}, ErrInsufficientData
	}

	var sum Probabilities
	for _, q := range quotes {
		p := Normalize(q)
		sum.Home += p.Home
		sum.Draw += p.Draw
		sum.Away += p.Away
	}
	n := float64(len(quotes))
	return Probabilities{Home: sum.Home / n, Draw: sum.Draw / n, Away: sum.Away / n}, nil
}

// MatchupLine builds the two-way line for a pairing. Probabilities are the
// per-match two-way normalizations averaged; the quoted odds are the mean
// home and away prices. Pairs without history get DefaultLine.
func MatchupLine(matches []*Match, home, away string) Line {
	quotes := pairOdds(matches, home, away)
	if len(quotes) == 0 {
		return DefaultLine
	}

	var line Line
	for _, q := range quotes {
		pHome, pAway := NormalizeTwoWay(q.Home, q.Away)
		line.PHome += pHome
		line.PAway += pAway
		line.HomeOdds += q.Home
		line.AwayOdds += q.Away
	}
	n := float64(len(quotes))
	line.PHome /= n
	line.PAway = 1 - line.PHome
	line.HomeOdds /= n
	line.AwayOdds /= n
	return line
}
