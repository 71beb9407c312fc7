package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/league"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/standing"
	"github.com/matchkick/prediction-league/internal/domain/team"
	"github.com/matchkick/prediction-league/internal/platform/resilience"
)

func newStandingFixture() (*stubStore, *StandingService) {
	store := newStubStore()
	store.leagues = []league.League{{ID: "pl", Name: "Premier League", CountryCode: "GB", Season: "2025/26"}}
	store.teams["pl"] = []team.Team{
		{ID: "team-a", Name: "Arsenal"},
		{ID: "team-b", Name: "Brentford"},
		{ID: "team-c", Name: "Chelsea"},
	}

	svc := NewStandingService(
		&stubLeagueRepo{store: store},
		&stubTeamRepo{store: store},
		&stubMatchRepo{store: store},
		&stubStandingRepo{store: store},
		&resilience.KeyedMutex{},
		nil,
	)
	svc.now = fixedNow(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))
	return store, svc
}

func finishedMatch(id string, week int, homeID, awayID string, homeScore, awayScore int, kickoff time.Time) match.Match {
	return match.Match{
		ID:         id,
		LeagueID:   "pl",
		WeekNumber: week,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		KickoffAt:  kickoff,
		HomeScore:  intPtr(homeScore),
		AwayScore:  intPtr(awayScore),
		Status:     match.StatusFinished,
	}
}

func TestStandingServiceRebuildLeague(t *testing.T) {
	t.Parallel()

	store, svc := newStandingFixture()
	base := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	store.matches = []match.Match{
		finishedMatch("m1", 1, "team-a", "team-b", 2, 0, base),
		finishedMatch("m2", 1, "team-b", "team-c", 1, 1, base.Add(2*time.Hour)),
	}

	result, err := svc.RebuildLeague(context.Background(), "pl")
	if err != nil {
		t.Fatalf("RebuildLeague: %v", err)
	}
	if result.MatchesProcessed != 2 {
		t.Fatalf("matches processed = %d, want 2", result.MatchesProcessed)
	}
	if result.TeamsUpdated != 3 {
		t.Fatalf("teams updated = %d, want 3", result.TeamsUpdated)
	}

	rows := store.standings["pl"]
	if len(rows) != 3 {
		t.Fatalf("stored rows = %d, want 3", len(rows))
	}

	want := []struct {
		teamID   string
		position int
		points   int
		goalDiff int
		form     string
	}{
		{"team-a", 1, 3, 2, "W"},
		{"team-c", 2, 1, 0, "D"},
		{"team-b", 3, 1, -2, "LD"},
	}
	for idx, w := range want {
		row := rows[idx]
		if row.TeamID != w.teamID || row.Position != w.position || row.Points != w.points || row.GoalDifference != w.goalDiff || row.Form != w.form {
			t.Fatalf("row %d = %+v, want %+v", idx, row, w)
		}
	}

	for _, m := range store.matches {
		if !m.IsSynced {
			t.Fatalf("match %s not marked synced after rebuild", m.ID)
		}
	}
}

func TestStandingServiceRebuildSharedPositions(t *testing.T) {
	t.Parallel()

	store, svc := newStandingFixture()
	base := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	store.matches = []match.Match{
		finishedMatch("m1", 1, "team-a", "team-b", 1, 1, base),
	}

	if _, err := svc.RebuildLeague(context.Background(), "pl"); err != nil {
		t.Fatalf("RebuildLeague: %v", err)
	}

	rows := store.standings["pl"]
	if rows[0].TeamID != "team-a" || rows[0].Position != 1 {
		t.Fatalf("row 0 = %+v, want team-a at shared position 1", rows[0])
	}
	if rows[1].TeamID != "team-b" || rows[1].Position != 1 {
		t.Fatalf("row 1 = %+v, want team-b at shared position 1", rows[1])
	}
	if rows[2].TeamID != "team-c" || rows[2].Position != 3 {
		t.Fatalf("row 2 = %+v, want team-c at position 3", rows[2])
	}
}

func TestStandingServiceRebuildUnknownLeague(t *testing.T) {
	t.Parallel()

	_, svc := newStandingFixture()
	if _, err := svc.RebuildLeague(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStandingServiceRebuildAllLeagues(t *testing.T) {
	t.Parallel()

	store, svc := newStandingFixture()
	store.leagues = append(store.leagues, league.League{ID: "laliga", Name: "La Liga", CountryCode: "ES", Season: "2025/26"})
	store.teams["laliga"] = []team.Team{
		{ID: "team-x", Name: "Girona"},
		{ID: "team-y", Name: "Sevilla"},
	}
	base := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	store.matches = []match.Match{
		finishedMatch("m1", 1, "team-a", "team-b", 2, 0, base),
		{
			ID: "m2", LeagueID: "laliga", WeekNumber: 1,
			HomeTeamID: "team-x", AwayTeamID: "team-y",
			KickoffAt: base, HomeScore: intPtr(0), AwayScore: intPtr(3),
			Status: match.StatusFinished,
		},
	}

	results, err := svc.RebuildAllLeagues(context.Background(), 2)
	if err != nil {
		t.Fatalf("RebuildAllLeagues: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].LeagueID != "laliga" || results[1].LeagueID != "pl" {
		t.Fatalf("results not sorted by league id: %+v", results)
	}
	if len(store.standings["laliga"]) != 2 || len(store.standings["pl"]) != 3 {
		t.Fatalf("standings not rebuilt for both leagues")
	}
}

func TestFormStringKeepsLastFive(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)
	scores := [][2]int{{2, 0}, {0, 1}, {1, 1}, {3, 0}, {0, 2}, {1, 0}}
	var finished []match.Match
	for idx, s := range scores {
		finished = append(finished, finishedMatch(
			string(rune('a'+idx)), 1, "team-a", "team-b", s[0], s[1], base.Add(time.Duration(idx)*24*time.Hour),
		))
	}
	sortMatchesByKickoff(finished)

	if got := formString(finished, "team-a"); got != "LDWLW" {
		t.Fatalf("form = %q, want LDWLW", got)
	}
	if got := formString(finished[:2], "team-a"); got != "WL" {
		t.Fatalf("short form = %q, want WL", got)
	}
}

func TestStandingServiceListByLeague(t *testing.T) {
	t.Parallel()

	store, svc := newStandingFixture()
	store.standings["pl"] = []standing.Standing{{LeagueID: "pl", TeamID: "team-a", Position: 1}}

	rows, err := svc.ListByLeague(context.Background(), "pl")
	if err != nil {
		t.Fatalf("ListByLeague: %v", err)
	}
	if len(rows) != 1 || rows[0].TeamID != "team-a" {
		t.Fatalf("rows = %+v", rows)
	}

	if _, err := svc.ListByLeague(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
