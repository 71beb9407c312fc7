package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/group"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/prediction"
	"github.com/matchkick/prediction-league/internal/domain/settlement"
	"github.com/matchkick/prediction-league/internal/domain/standing"
	"github.com/matchkick/prediction-league/internal/domain/team"
	"github.com/matchkick/prediction-league/internal/platform/logging"
	"github.com/matchkick/prediction-league/internal/platform/resilience"
)

// SettlementService turns a finished match into points. It computes a
// pure settlement plan under the league lock, then hands the plan to
// the settlement repository which applies it in one transaction.
type SettlementService struct {
	matchRepo      match.Repository
	teamRepo       team.Repository
	predictionRepo prediction.Repository
	groupRepo      group.Repository
	standingRepo   standing.Repository
	settlementRepo settlement.Repository
	leagueLocks    *resilience.KeyedMutex
	logger         *logging.Logger
	now            func() time.Time
}

type SettlementResult struct {
	Match                match.Match
	PredictionsProcessed int
	UsersUpdated         int
	GroupMembersUpdated  int
	TeamsUpdated         int
}

func NewSettlementService(
	matchRepo match.Repository,
	teamRepo team.Repository,
	predictionRepo prediction.Repository,
	groupRepo group.Repository,
	standingRepo standing.Repository,
	settlementRepo settlement.Repository,
	leagueLocks *resilience.KeyedMutex,
	logger *logging.Logger,
) *SettlementService {
	if leagueLocks == nil {
		leagueLocks = &resilience.KeyedMutex{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SettlementService{
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		predictionRepo: predictionRepo,
		groupRepo:      groupRepo,
		standingRepo:   standingRepo,
		settlementRepo: settlementRepo,
		leagueLocks:    leagueLocks,
		logger:         logger,
		now:            time.Now,
	}
}

// SettleMatch records the final score and settles everything derived
// from it: prediction points, user aggregates, group point caches and
// the incremental standings delta. A match that is already synced is
// rejected; corrections go through the sync path, which resets
// is_synced, followed by a standings rebuild.
func (s *SettlementService) SettleMatch(ctx context.Context, leagueID, matchID string, homeScore, awayScore int) (SettlementResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.SettleMatch")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	matchID = strings.TrimSpace(matchID)
	if leagueID == "" || matchID == "" {
		return SettlementResult{}, fmt.Errorf("%w: league id and match id are required", ErrInvalidInput)
	}
	if homeScore < 0 || awayScore < 0 {
		return SettlementResult{}, fmt.Errorf("%w: scores must be >= 0", ErrInvalidInput)
	}

	s.leagueLocks.Lock(leagueID)
	defer s.leagueLocks.Unlock(leagueID)

	m, exists, err := s.matchRepo.GetByID(ctx, leagueID, matchID)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return SettlementResult{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if m.IsSynced {
		return SettlementResult{}, fmt.Errorf("%w: match %s is already settled", ErrStateConflict, matchID)
	}
	if match.IsCancelledLikeStatus(m.Status) {
		return SettlementResult{}, fmt.Errorf("%w: match %s is %s", ErrStateConflict, matchID, match.NormalizeStatus(m.Status))
	}

	m.HomeScore = &homeScore
	m.AwayScore = &awayScore
	m.Status = match.StatusFinished

	preds, err := s.predictionRepo.ListUnprocessedByMatch(ctx, matchID)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("list predictions: %w", err)
	}

	settledAt := s.now().UTC()
	scored, userDeltas := scorePredictions(preds, homeScore, awayScore, settledAt)

	members, err := s.planGroupPoints(ctx, m, scored)
	if err != nil {
		return SettlementResult{}, err
	}

	rows, err := s.planStandingsDelta(ctx, m, settledAt)
	if err != nil {
		return SettlementResult{}, err
	}

	plan := settlement.Plan{
		LeagueID:    leagueID,
		MatchID:     matchID,
		HomeScore:   homeScore,
		AwayScore:   awayScore,
		Predictions: scored,
		UserDeltas:  userDeltas,
		Members:     members,
		Standings:   rows,
		SettledAt:   settledAt,
	}

	if err := s.settlementRepo.Apply(ctx, plan); err != nil {
		if errors.Is(err, settlement.ErrAlreadySettled) {
			return SettlementResult{}, fmt.Errorf("%w: match %s is already settled", ErrStateConflict, matchID)
		}
		return SettlementResult{}, fmt.Errorf("apply settlement: %w", err)
	}

	m.IsSynced = true
	s.logger.InfoContext(ctx, "match settled",
		"league_id", leagueID,
		"match_id", matchID,
		"home_score", homeScore,
		"away_score", awayScore,
		"predictions_processed", len(scored),
	)

	return SettlementResult{
		Match:                m,
		PredictionsProcessed: len(scored),
		UsersUpdated:         len(userDeltas),
		GroupMembersUpdated:  len(members),
		TeamsUpdated:         2,
	}, nil
}

func scorePredictions(preds []prediction.Prediction, homeScore, awayScore int, settledAt time.Time) ([]prediction.Prediction, []settlement.UserDelta) {
	scored := make([]prediction.Prediction, 0, len(preds))
	deltas := make([]settlement.UserDelta, 0, len(preds))

	for _, p := range preds {
		breakdown := CalculatePoints(p.PredictedHome, p.PredictedAway, homeScore, awayScore)

		p.ScorePoints = breakdown.ScorePoints
		p.ResultPoints = breakdown.ResultPoints
		p.BonusPoints = breakdown.BonusPoints
		p.TotalPoints = breakdown.Total
		p.IsProcessed = true
		p.UpdatedAt = settledAt
		scored = append(scored, p)

		delta := settlement.UserDelta{
			UserID:           p.UserID,
			PointsDelta:      breakdown.Total,
			PredictionsDelta: 1,
		}
		if breakdown.Total > 0 {
			delta.CorrectDelta = 1
			delta.StreakDelta = 1
		} else {
			delta.ResetStreak = true
		}
		deltas = append(deltas, delta)
	}

	return scored, deltas
}

func (s *SettlementService) planGroupPoints(ctx context.Context, m match.Match, scored []prediction.Prediction) ([]settlement.MemberPoints, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.planGroupPoints")
	defer span.End()

	if len(scored) == 0 {
		return nil, nil
	}

	pointsByUser := make(map[string]int, len(scored))
	userIDs := make([]string, 0, len(scored))
	for _, p := range scored {
		if p.TotalPoints == 0 {
			continue
		}
		if _, ok := pointsByUser[p.UserID]; !ok {
			userIDs = append(userIDs, p.UserID)
		}
		pointsByUser[p.UserID] += p.TotalPoints
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	groups, err := s.groupRepo.ListByLeague(ctx, m.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	inScope := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g.IsScopedTo(m.LeagueID) {
			inScope[g.ID] = struct{}{}
		}
	}
	if len(inScope) == 0 {
		return nil, nil
	}

	memberships, err := s.groupRepo.ListMembershipsByUsers(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	out := make([]settlement.MemberPoints, 0, len(memberships))
	for _, member := range memberships {
		if _, ok := inScope[member.GroupID]; !ok {
			continue
		}
		points := pointsByUser[member.UserID]
		if points == 0 {
			continue
		}

		byLeague := cloneIntMap(member.PointsByLeague)
		byLeague[m.LeagueID] += points

		byWeek := cloneWeekMap(member.PointsByGameweek)
		if m.WeekNumber > 0 {
			if byWeek[m.LeagueID] == nil {
				byWeek[m.LeagueID] = make(map[int]int)
			}
			byWeek[m.LeagueID][m.WeekNumber] += points
		}

		out = append(out, settlement.MemberPoints{
			GroupID:          member.GroupID,
			UserID:           member.UserID,
			PointsByLeague:   byLeague,
			PointsByGameweek: byWeek,
		})
	}

	return out, nil
}

// planStandingsDelta applies the new result to the stored table and
// re-ranks it. The replayed form covers only results already folded
// into the table plus the match being settled; imported finished
// matches wait for their rebuild. A match naming a team outside the
// league leaves the table untouched, the same way a rebuild drops it.
func (s *SettlementService) planStandingsDelta(ctx context.Context, m match.Match, settledAt time.Time) ([]standing.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.planStandingsDelta")
	defer span.End()

	rows, err := s.standingRepo.ListByLeague(ctx, m.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}

	rowByTeam := make(map[string]*standing.Standing, len(rows)+2)
	for idx := range rows {
		rowByTeam[rows[idx].TeamID] = &rows[idx]
	}
	for _, teamID := range []string{m.HomeTeamID, m.AwayTeamID} {
		if teamID == "" {
			return nil, fmt.Errorf("%w: match %s has no team ids", ErrStateConflict, m.ID)
		}
		if _, ok := rowByTeam[teamID]; ok {
			continue
		}
		_, known, err := s.teamRepo.GetByID(ctx, m.LeagueID, teamID)
		if err != nil {
			return nil, fmt.Errorf("get team: %w", err)
		}
		if !known {
			s.logger.WarnContext(ctx, "standings delta skipped",
				"league_id", m.LeagueID,
				"match_id", m.ID,
				"team_id", teamID,
				"reason", "team not in league",
			)
			return rows, nil
		}
		rows = append(rows, standing.Standing{LeagueID: m.LeagueID, TeamID: teamID})
		rowByTeam = rebuildRowIndex(rows)
	}

	applyResultToRow(rowByTeam[m.HomeTeamID], *m.HomeScore, *m.AwayScore, 1)
	applyResultToRow(rowByTeam[m.AwayTeamID], *m.AwayScore, *m.HomeScore, 1)

	finished, err := s.matchRepo.ListFinishedByLeague(ctx, m.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("list finished matches: %w", err)
	}
	finished = settledResultsOnly(finished, m.ID)
	finished = appendMatchOnce(finished, m)
	sortMatchesByKickoff(finished)

	rowByTeam[m.HomeTeamID].Form = formString(finished, m.HomeTeamID)
	rowByTeam[m.AwayTeamID].Form = formString(finished, m.AwayTeamID)
	for idx := range rows {
		rows[idx].UpdatedAt = settledAt
	}

	rankStandings(rows)
	return rows, nil
}

// settledResultsOnly drops finished matches whose results are not in
// the stored table yet, keeping the one being settled.
func settledResultsOnly(matches []match.Match, keepID string) []match.Match {
	out := make([]match.Match, 0, len(matches))
	for _, m := range matches {
		if m.IsSynced || m.ID == keepID {
			out = append(out, m)
		}
	}
	return out
}

func rebuildRowIndex(rows []standing.Standing) map[string]*standing.Standing {
	index := make(map[string]*standing.Standing, len(rows))
	for idx := range rows {
		index[rows[idx].TeamID] = &rows[idx]
	}
	return index
}

func appendMatchOnce(finished []match.Match, m match.Match) []match.Match {
	for idx := range finished {
		if finished[idx].ID == m.ID {
			finished[idx] = m
			return finished
		}
	}
	return append(finished, m)
}

func cloneIntMap(src map[string]int) map[string]int {
	out := make(map[string]int, len(src)+1)
	for key, value := range src {
		out[key] = value
	}
	return out
}

func cloneWeekMap(src map[string]map[int]int) map[string]map[int]int {
	out := make(map[string]map[int]int, len(src)+1)
	for key, weeks := range src {
		inner := make(map[int]int, len(weeks))
		for week, value := range weeks {
			inner[week] = value
		}
		out[key] = inner
	}
	return out
}
