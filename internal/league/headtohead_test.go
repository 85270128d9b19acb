package league

import "testing"

func TestHeadToHead(t *testing.T) {
	matches := []*Match{
		match(1, "Arsenal", "Chelsea", 2, 1),
		match(5, "Liverpool", "Arsenal", 0, 0),
		match(9, "Chelsea", "Arsenal", 3, 1),
		match(12, "Chelsea", "Liverpool", 1, 2),
	}

	got := HeadToHead(matches, "Arsenal", "Chelsea")
	if len(got) != 2 {
		t.Fatalf("expected 2 meetings, got %d", len(got))
	}
	if !got[0].Date.Equal(day(9)) || !got[1].Date.Equal(day(1)) {
		t.Errorf("want newest first, got %v then %v", got[0].Date, got[1].Date)
	}

	all := HeadToHead(matches, "Arsenal", "")
	if len(all) != 3 {
		t.Fatalf("expected 3 Arsenal matches, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Date.After(all[i-1].Date) {
			t.Errorf("match %d out of date order", i)
		}
	}
}

func TestHeadToHead_NoMeetings(t *testing.T) {
	got := HeadToHead([]*Match{match(1, "A", "B", 1, 0)}, "A", "C")
	if got == nil || len(got) != 0 {
		t.Errorf("want empty non-nil slice, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	matches := []*Match{
		match(1, "Arsenal", "Chelsea", 2, 1),
		match(9, "Chelsea", "Arsenal", 3, 1),
		match(10, "Chelsea", "Arsenal", 1, 1),
		match(11, "Chelsea", "Spurs", 1, 1),
	}
	rec := Summarize(matches, "Arsenal")
	if rec.Played != 3 || rec.Wins != 1 || rec.Draws != 1 || rec.Losses != 1 {
		t.Errorf("W/D/L: got %+v", rec)
	}
	if rec.GoalsFor != 4 || rec.GoalsAgainst != 5 {
		t.Errorf("goals: got %d/%d", rec.GoalsFor, rec.GoalsAgainst)
	}
}
