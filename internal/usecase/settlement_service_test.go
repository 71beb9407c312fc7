package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/group"
	"github.com/matchkick/prediction-league/internal/domain/league"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/prediction"
	"github.com/matchkick/prediction-league/internal/domain/team"
	"github.com/matchkick/prediction-league/internal/domain/user"
	"github.com/matchkick/prediction-league/internal/platform/resilience"
)

func newSettlementFixture() (*stubStore, *SettlementService, *StandingService) {
	store := newStubStore()
	store.leagues = []league.League{{ID: "pl", Name: "Premier League", CountryCode: "GB", Season: "2025/26"}}
	store.teams["pl"] = []team.Team{
		{ID: "team-a", Name: "Arsenal"},
		{ID: "team-b", Name: "Brentford"},
		{ID: "team-c", Name: "Chelsea"},
	}
	store.users["u1"] = user.User{ID: "u1", Name: "Ana"}
	store.users["u2"] = user.User{ID: "u2", Name: "Ben"}
	store.users["u3"] = user.User{ID: "u3", Name: "Cat"}
	store.groups = []group.Group{{ID: "g1", LeagueID: "pl", Name: "Office"}}
	store.members = []group.Member{
		{GroupID: "g1", UserID: "u1"},
		{GroupID: "g1", UserID: "u2"},
		{GroupID: "g1", UserID: "u3"},
	}

	locks := &resilience.KeyedMutex{}
	settleSvc := NewSettlementService(
		&stubMatchRepo{store: store},
		&stubTeamRepo{store: store},
		&stubPredictionRepo{store: store},
		&stubGroupRepo{store: store},
		&stubStandingRepo{store: store},
		&stubSettlementRepo{store: store},
		locks,
		nil,
	)
	settleSvc.now = fixedNow(time.Date(2026, 8, 22, 18, 0, 0, 0, time.UTC))

	standingSvc := NewStandingService(
		&stubLeagueRepo{store: store},
		&stubTeamRepo{store: store},
		&stubMatchRepo{store: store},
		&stubStandingRepo{store: store},
		locks,
		nil,
	)
	standingSvc.now = settleSvc.now

	return store, settleSvc, standingSvc
}

func TestSettlementServiceSettleMatch(t *testing.T) {
	t.Parallel()

	store, svc, standingSvc := newSettlementFixture()
	base := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	store.matches = []match.Match{
		finishedMatch("m0", 1, "team-a", "team-c", 1, 0, base),
		{
			ID: "m1", LeagueID: "pl", WeekNumber: 2,
			HomeTeamID: "team-a", AwayTeamID: "team-b",
			KickoffAt: base.Add(7 * 24 * time.Hour),
			Status:    match.StatusScheduled,
		},
	}
	if _, err := standingSvc.RebuildLeague(context.Background(), "pl"); err != nil {
		t.Fatalf("seed rebuild: %v", err)
	}

	store.predictions = []prediction.Prediction{
		{ID: "p1", UserID: "u1", MatchID: "m1", LeagueID: "pl", PredictedHome: 2, PredictedAway: 1},
		{ID: "p2", UserID: "u2", MatchID: "m1", LeagueID: "pl", PredictedHome: 1, PredictedAway: 0},
		{ID: "p3", UserID: "u3", MatchID: "m1", LeagueID: "pl", PredictedHome: 0, PredictedAway: 2},
	}

	result, err := svc.SettleMatch(context.Background(), "pl", "m1", 2, 1)
	if err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}
	if result.PredictionsProcessed != 3 || result.UsersUpdated != 3 {
		t.Fatalf("result = %+v, want 3 predictions and 3 users", result)
	}
	if !result.Match.IsSynced || result.Match.Status != match.StatusFinished {
		t.Fatalf("settled match = %+v", result.Match)
	}

	wantUsers := []struct {
		id      string
		points  int
		correct int
		streak  int
	}{
		{"u1", 8, 1, 1},
		{"u2", 3, 1, 1},
		{"u3", 0, 0, 0},
	}
	for _, w := range wantUsers {
		u := store.users[w.id]
		if u.TotalPoints != w.points || u.CorrectPredictions != w.correct || u.CurrentStreak != w.streak {
			t.Fatalf("user %s = %+v, want points=%d correct=%d streak=%d", w.id, u, w.points, w.correct, w.streak)
		}
		if u.TotalPredictions != 1 {
			t.Fatalf("user %s predictions = %d, want 1", w.id, u.TotalPredictions)
		}
	}

	for _, p := range store.predictions {
		if !p.IsProcessed {
			t.Fatalf("prediction %s not marked processed", p.ID)
		}
	}

	var u1Member group.Member
	for _, m := range store.members {
		if m.UserID == "u1" {
			u1Member = m
		}
	}
	if u1Member.PointsByLeague["pl"] != 8 {
		t.Fatalf("u1 league points = %d, want 8", u1Member.PointsByLeague["pl"])
	}
	if u1Member.PointsByGameweek["pl"][2] != 8 {
		t.Fatalf("u1 week-2 points = %d, want 8", u1Member.PointsByGameweek["pl"][2])
	}
	for _, m := range store.members {
		if m.UserID == "u3" && len(m.PointsByLeague) != 0 {
			t.Fatalf("u3 earned no points but caches were written: %+v", m)
		}
	}
}

func TestSettlementServiceIncrementalMatchesRebuild(t *testing.T) {
	t.Parallel()

	store, svc, standingSvc := newSettlementFixture()
	base := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	store.matches = []match.Match{
		finishedMatch("m0", 1, "team-a", "team-c", 1, 0, base),
		finishedMatch("m1", 1, "team-b", "team-c", 2, 2, base.Add(2*time.Hour)),
		{
			ID: "m2", LeagueID: "pl", WeekNumber: 2,
			HomeTeamID: "team-a", AwayTeamID: "team-b",
			KickoffAt: base.Add(7 * 24 * time.Hour),
			Status:    match.StatusScheduled,
		},
	}
	if _, err := standingSvc.RebuildLeague(context.Background(), "pl"); err != nil {
		t.Fatalf("seed rebuild: %v", err)
	}

	if _, err := svc.SettleMatch(context.Background(), "pl", "m2", 0, 3); err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}
	afterDelta := store.standings["pl"]

	if _, err := standingSvc.RebuildLeague(context.Background(), "pl"); err != nil {
		t.Fatalf("verify rebuild: %v", err)
	}
	afterRebuild := store.standings["pl"]

	if !reflect.DeepEqual(afterDelta, afterRebuild) {
		t.Fatalf("incremental delta diverged from rebuild:\ndelta:   %+v\nrebuild: %+v", afterDelta, afterRebuild)
	}
}

func TestSettlementServiceFormExcludesImportedResults(t *testing.T) {
	t.Parallel()

	store, svc, standingSvc := newSettlementFixture()
	base := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	store.matches = []match.Match{
		finishedMatch("m0", 1, "team-a", "team-c", 1, 0, base),
		{
			ID: "m1", LeagueID: "pl", WeekNumber: 2,
			HomeTeamID: "team-a", AwayTeamID: "team-b",
			KickoffAt: base.Add(7 * 24 * time.Hour),
			Status:    match.StatusScheduled,
		},
	}
	if _, err := standingSvc.RebuildLeague(context.Background(), "pl"); err != nil {
		t.Fatalf("seed rebuild: %v", err)
	}

	// Finished result imported after the rebuild. Its goals are not
	// in the tallies yet, so it must not leak into the form string.
	store.matches = append(store.matches,
		finishedMatch("m9", 2, "team-b", "team-c", 5, 0, base.Add(3*24*time.Hour)),
	)

	if _, err := svc.SettleMatch(context.Background(), "pl", "m1", 2, 0); err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}

	form := "unset"
	played := -1
	for _, row := range store.standings["pl"] {
		if row.TeamID == "team-b" {
			form, played = row.Form, row.Played
		}
	}
	if played != 1 || form != "L" {
		t.Fatalf("team-b played=%d form=%q, want played=1 form=%q", played, form, "L")
	}
}

func TestSettlementServiceSkipsStandingsForUnknownTeam(t *testing.T) {
	t.Parallel()

	store, svc, standingSvc := newSettlementFixture()
	base := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	store.matches = []match.Match{
		finishedMatch("m0", 1, "team-a", "team-c", 1, 0, base),
		{
			ID: "m1", LeagueID: "pl", WeekNumber: 2,
			HomeTeamID: "team-a", AwayTeamID: "team-x",
			KickoffAt: base.Add(7 * 24 * time.Hour),
			Status:    match.StatusScheduled,
		},
	}
	if _, err := standingSvc.RebuildLeague(context.Background(), "pl"); err != nil {
		t.Fatalf("seed rebuild: %v", err)
	}
	before := append(store.standings["pl"][:0:0], store.standings["pl"]...)

	store.predictions = []prediction.Prediction{
		{ID: "p1", UserID: "u1", MatchID: "m1", LeagueID: "pl", PredictedHome: 2, PredictedAway: 0},
	}

	result, err := svc.SettleMatch(context.Background(), "pl", "m1", 2, 0)
	if err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}
	if result.PredictionsProcessed != 1 {
		t.Fatalf("predictions processed = %d, want 1", result.PredictionsProcessed)
	}

	after := store.standings["pl"]
	for _, row := range after {
		if row.TeamID == "team-x" {
			t.Fatalf("standing row created for team outside the league: %+v", row)
		}
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("table changed for a match a rebuild would drop:\nbefore: %+v\nafter:  %+v", before, after)
	}
}

func TestSettlementServiceRejectsDoubleSettlement(t *testing.T) {
	t.Parallel()

	store, svc, _ := newSettlementFixture()
	base := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	store.matches = []match.Match{
		{
			ID: "m1", LeagueID: "pl", WeekNumber: 1,
			HomeTeamID: "team-a", AwayTeamID: "team-b",
			KickoffAt: base, Status: match.StatusScheduled,
		},
	}

	if _, err := svc.SettleMatch(context.Background(), "pl", "m1", 1, 0); err != nil {
		t.Fatalf("first settlement: %v", err)
	}
	if _, err := svc.SettleMatch(context.Background(), "pl", "m1", 1, 0); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("second settlement err = %v, want ErrStateConflict", err)
	}
}

func TestSettlementServiceRejectsCancelledMatch(t *testing.T) {
	t.Parallel()

	store, svc, _ := newSettlementFixture()
	store.matches = []match.Match{
		{
			ID: "m1", LeagueID: "pl", WeekNumber: 1,
			HomeTeamID: "team-a", AwayTeamID: "team-b",
			Status: match.StatusPostponed,
		},
	}

	if _, err := svc.SettleMatch(context.Background(), "pl", "m1", 1, 0); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("err = %v, want ErrStateConflict", err)
	}
}

func TestSettlementServiceUnknownMatch(t *testing.T) {
	t.Parallel()

	_, svc, _ := newSettlementFixture()
	if _, err := svc.SettleMatch(context.Background(), "pl", "missing", 1, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSettlementServiceRejectsNegativeScores(t *testing.T) {
	t.Parallel()

	_, svc, _ := newSettlementFixture()
	if _, err := svc.SettleMatch(context.Background(), "pl", "m1", -1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
