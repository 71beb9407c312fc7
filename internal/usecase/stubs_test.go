package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/gameweek"
	"github.com/matchkick/prediction-league/internal/domain/group"
	"github.com/matchkick/prediction-league/internal/domain/league"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/prediction"
	"github.com/matchkick/prediction-league/internal/domain/settlement"
	"github.com/matchkick/prediction-league/internal/domain/standing"
	"github.com/matchkick/prediction-league/internal/domain/team"
	"github.com/matchkick/prediction-league/internal/domain/user"
)

// stubStore is a single in-memory backing store shared by the stub
// repositories so cross-repository effects stay visible in tests.
type stubStore struct {
	mu          sync.Mutex
	leagues     []league.League
	teams       map[string][]team.Team
	matches     []match.Match
	predictions []prediction.Prediction
	users       map[string]user.User
	groups      []group.Group
	members     []group.Member
	gameweeks   []gameweek.GameWeek
	links       []gameweek.Link
	standings   map[string][]standing.Standing
}

func newStubStore() *stubStore {
	return &stubStore{
		teams:     make(map[string][]team.Team),
		users:     make(map[string]user.User),
		standings: make(map[string][]standing.Standing),
	}
}

func intPtr(v int) *int { return &v }

type stubLeagueRepo struct{ store *stubStore }

func (r *stubLeagueRepo) List(context.Context) ([]league.League, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]league.League(nil), r.store.leagues...), nil
}

func (r *stubLeagueRepo) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, item := range r.store.leagues {
		if item.ID == leagueID {
			return item, true, nil
		}
	}
	return league.League{}, false, nil
}

type stubTeamRepo struct{ store *stubStore }

func (r *stubTeamRepo) ListByLeague(_ context.Context, leagueID string) ([]team.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]team.Team(nil), r.store.teams[leagueID]...), nil
}

func (r *stubTeamRepo) GetByID(_ context.Context, leagueID, teamID string) (team.Team, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, item := range r.store.teams[leagueID] {
		if item.ID == teamID {
			return item, true, nil
		}
	}
	return team.Team{}, false, nil
}

type stubMatchRepo struct{ store *stubStore }

func (r *stubMatchRepo) GetByID(_ context.Context, leagueID, matchID string) (match.Match, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.matches {
		if m.LeagueID == leagueID && m.ID == matchID {
			return m, true, nil
		}
	}
	return match.Match{}, false, nil
}

func (r *stubMatchRepo) GetByRefID(_ context.Context, leagueID string, matchRefID int64) (match.Match, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.matches {
		if m.LeagueID == leagueID && m.MatchRefID == matchRefID {
			return m, true, nil
		}
	}
	return match.Match{}, false, nil
}

func (r *stubMatchRepo) ListByLeague(_ context.Context, leagueID string) ([]match.Match, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []match.Match
	for _, m := range r.store.matches {
		if m.LeagueID == leagueID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMatchRepo) ListByLeagueAndWeek(_ context.Context, leagueID string, weekNumber int) ([]match.Match, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []match.Match
	for _, m := range r.store.matches {
		if m.LeagueID == leagueID && m.WeekNumber == weekNumber {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMatchRepo) ListFinishedByLeague(_ context.Context, leagueID string) ([]match.Match, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []match.Match
	for _, m := range r.store.matches {
		if m.LeagueID == leagueID && match.IsFinishedStatus(m.Status) && m.HasResult() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMatchRepo) Create(_ context.Context, m match.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.matches {
		if existing.ID == m.ID {
			return fmt.Errorf("duplicate match id %s", m.ID)
		}
		if existing.LeagueID == m.LeagueID && m.MatchRefID > 0 && existing.MatchRefID == m.MatchRefID {
			return fmt.Errorf("duplicate match ref %d", m.MatchRefID)
		}
	}
	r.store.matches = append(r.store.matches, m)
	return nil
}

func (r *stubMatchRepo) Update(_ context.Context, m match.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for idx := range r.store.matches {
		if r.store.matches[idx].ID == m.ID {
			r.store.matches[idx] = m
			return nil
		}
	}
	return fmt.Errorf("match %s not found", m.ID)
}

func (r *stubMatchRepo) MarkSyncedByLeague(_ context.Context, leagueID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for idx := range r.store.matches {
		m := r.store.matches[idx]
		if m.LeagueID == leagueID && match.IsFinishedStatus(m.Status) && m.HasResult() {
			r.store.matches[idx].IsSynced = true
		}
	}
	return nil
}

type stubPredictionRepo struct{ store *stubStore }

func (r *stubPredictionRepo) GetByUserAndMatch(_ context.Context, userID, matchID string) (prediction.Prediction, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.predictions {
		if p.UserID == userID && p.MatchID == matchID {
			return p, true, nil
		}
	}
	return prediction.Prediction{}, false, nil
}

func (r *stubPredictionRepo) ListUnprocessedByMatch(_ context.Context, matchID string) ([]prediction.Prediction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []prediction.Prediction
	for _, p := range r.store.predictions {
		if p.MatchID == matchID && !p.IsProcessed {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPredictionRepo) ListProcessedByUser(_ context.Context, userID string) ([]prediction.ProcessedPrediction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []prediction.ProcessedPrediction
	for _, p := range r.store.predictions {
		if p.UserID != userID || !p.IsProcessed {
			continue
		}
		item := prediction.ProcessedPrediction{Prediction: p}
		for _, m := range r.store.matches {
			if m.ID == p.MatchID {
				item.MatchLeagueID = m.LeagueID
				item.MatchWeekNumber = m.WeekNumber
				item.MatchKickoffAt = m.KickoffAt
				break
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *stubPredictionRepo) Upsert(_ context.Context, p prediction.Prediction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for idx := range r.store.predictions {
		if r.store.predictions[idx].UserID == p.UserID && r.store.predictions[idx].MatchID == p.MatchID {
			r.store.predictions[idx] = p
			return nil
		}
	}
	r.store.predictions = append(r.store.predictions, p)
	return nil
}

type stubUserRepo struct{ store *stubStore }

func (r *stubUserRepo) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	return u, ok, nil
}

func (r *stubUserRepo) SaveAggregates(_ context.Context, u user.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[u.ID] = u
	return nil
}

type stubGroupRepo struct{ store *stubStore }

func (r *stubGroupRepo) GetByID(_ context.Context, groupID string) (group.Group, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, g := range r.store.groups {
		if g.ID == groupID {
			return g, true, nil
		}
	}
	return group.Group{}, false, nil
}

func (r *stubGroupRepo) ListByLeague(_ context.Context, leagueID string) ([]group.Group, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []group.Group
	for _, g := range r.store.groups {
		if g.IsScopedTo(leagueID) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubGroupRepo) ListMembersByGroup(_ context.Context, groupID string) ([]group.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []group.Member
	for _, m := range r.store.members {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubGroupRepo) ListMembershipsByUsers(_ context.Context, userIDs []string) ([]group.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	var out []group.Member
	for _, m := range r.store.members {
		if _, ok := wanted[m.UserID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubGroupRepo) SaveMemberPoints(_ context.Context, m group.Member) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for idx := range r.store.members {
		if r.store.members[idx].GroupID == m.GroupID && r.store.members[idx].UserID == m.UserID {
			r.store.members[idx].PointsByLeague = m.PointsByLeague
			r.store.members[idx].PointsByGameweek = m.PointsByGameweek
			return nil
		}
	}
	return fmt.Errorf("membership %s/%s not found", m.GroupID, m.UserID)
}

type stubGameweekRepo struct{ store *stubStore }

func (r *stubGameweekRepo) GetByLeagueAndWeek(_ context.Context, leagueID string, weekNumber int) (gameweek.GameWeek, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, gw := range r.store.gameweeks {
		if gw.LeagueID == leagueID && gw.WeekNumber == weekNumber {
			return gw, true, nil
		}
	}
	return gameweek.GameWeek{}, false, nil
}

func (r *stubGameweekRepo) Upsert(_ context.Context, gw gameweek.GameWeek) (gameweek.GameWeek, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for idx := range r.store.gameweeks {
		existing := r.store.gameweeks[idx]
		if existing.LeagueID == gw.LeagueID && existing.WeekNumber == gw.WeekNumber {
			existing.StartsAt = gw.StartsAt
			existing.EndsAt = gw.EndsAt
			r.store.gameweeks[idx] = existing
			return existing, nil
		}
	}
	r.store.gameweeks = append(r.store.gameweeks, gw)
	return gw, nil
}

func (r *stubGameweekRepo) ListLinks(_ context.Context, gameWeekID string) ([]gameweek.Link, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []gameweek.Link
	for _, link := range r.store.links {
		if link.GameWeekID == gameWeekID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (r *stubGameweekRepo) UpsertLink(_ context.Context, link gameweek.Link) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for idx := range r.store.links {
		if r.store.links[idx].GameWeekID == link.GameWeekID && r.store.links[idx].MatchID == link.MatchID {
			r.store.links[idx] = link
			return nil
		}
	}
	r.store.links = append(r.store.links, link)
	return nil
}

type stubStandingRepo struct{ store *stubStore }

func (r *stubStandingRepo) ListByLeague(_ context.Context, leagueID string) ([]standing.Standing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]standing.Standing(nil), r.store.standings[leagueID]...), nil
}

func (r *stubStandingRepo) ReplaceByLeague(_ context.Context, leagueID string, standings []standing.Standing) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.standings[leagueID] = append([]standing.Standing(nil), standings...)
	return nil
}

// stubSettlementRepo mirrors what the transactional postgres
// implementation does, including the already-settled guard.
type stubSettlementRepo struct{ store *stubStore }

func (r *stubSettlementRepo) Apply(_ context.Context, plan settlement.Plan) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matchIdx := -1
	for idx := range r.store.matches {
		if r.store.matches[idx].ID == plan.MatchID {
			matchIdx = idx
			break
		}
	}
	if matchIdx < 0 {
		return fmt.Errorf("match %s not found", plan.MatchID)
	}
	if r.store.matches[matchIdx].IsSynced {
		return fmt.Errorf("apply plan for match %s: %w", plan.MatchID, settlement.ErrAlreadySettled)
	}

	m := r.store.matches[matchIdx]
	m.HomeScore = intPtr(plan.HomeScore)
	m.AwayScore = intPtr(plan.AwayScore)
	m.Status = match.StatusFinished
	m.IsSynced = true
	r.store.matches[matchIdx] = m

	for _, p := range plan.Predictions {
		for idx := range r.store.predictions {
			if r.store.predictions[idx].ID == p.ID {
				r.store.predictions[idx] = p
			}
		}
	}

	for _, delta := range plan.UserDeltas {
		u := r.store.users[delta.UserID]
		u.ID = delta.UserID
		u.TotalPoints += delta.PointsDelta
		u.WeeklyPoints += delta.PointsDelta
		u.TotalPredictions += delta.PredictionsDelta
		u.CorrectPredictions += delta.CorrectDelta
		if delta.ResetStreak {
			u.CurrentStreak = 0
		} else {
			u.CurrentStreak += delta.StreakDelta
		}
		r.store.users[delta.UserID] = u
	}

	for _, member := range plan.Members {
		for idx := range r.store.members {
			if r.store.members[idx].GroupID == member.GroupID && r.store.members[idx].UserID == member.UserID {
				r.store.members[idx].PointsByLeague = member.PointsByLeague
				r.store.members[idx].PointsByGameweek = member.PointsByGameweek
			}
		}
	}

	r.store.standings[plan.LeagueID] = append([]standing.Standing(nil), plan.Standings...)
	return nil
}

type stubProvider struct {
	fixtures []ProviderFixture
	err      error
}

func (p *stubProvider) FetchFixtures(context.Context, int64, int) ([]ProviderFixture, error) {
	if p.err != nil {
		return nil, p.err
	}
	return append([]ProviderFixture(nil), p.fixtures...), nil
}

type stubIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *stubIDGen) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%03d", g.n), nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
