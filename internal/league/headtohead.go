package league

import "sort"

// HeadToHead returns the meetings between team and other, either venue,
// newest first. With an empty other it returns every match team played.
func HeadToHead(matches []*Match, team, other string) []*Match {
	out := make([]*Match, 0)
	for _, m := range matches {
		var ok bool
		if other == "" {
			ok = m.Home == team || m.Away == team
		} else {
			ok = (m.Home == team && m.Away == other) || (m.Home == other && m.Away == team)
		}
		if ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Summarize counts results from team's side across matches.
func Summarize(matches []*Match, team string) Record {
	rec := Record{Team: team}
	for _, m := range matches {
		var gf, ga int
		switch team {
		case m.Home:
			gf, ga = m.HomeGoals, m.AwayGoals
		case m.Away:
			gf, ga = m.AwayGoals, m.HomeGoals
		default:
			continue
		}
		rec.Played++
		rec.GoalsFor += gf
		rec.GoalsAgainst += ga
		switch {
		case gf > ga:
			rec.Wins++
		case gf < ga:
			rec.Losses++
		default:
			rec.Draws++
		}
	}
	return rec
}
