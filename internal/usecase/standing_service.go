package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/matchkick/prediction-league/internal/domain/league"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/standing"
	"github.com/matchkick/prediction-league/internal/domain/team"
	"github.com/matchkick/prediction-league/internal/platform/logging"
	"github.com/matchkick/prediction-league/internal/platform/resilience"
)

// StandingService derives league tables from finished matches. The
// full rebuild and the incremental settlement delta share the same
// accumulation, ranking and form helpers so both paths agree.
type StandingService struct {
	leagueRepo   league.Repository
	teamRepo     team.Repository
	matchRepo    match.Repository
	standingRepo standing.Repository
	leagueLocks  *resilience.KeyedMutex
	logger       *logging.Logger
	now          func() time.Time
}

type RebuildResult struct {
	LeagueID         string
	MatchesProcessed int
	TeamsUpdated     int
}

func NewStandingService(
	leagueRepo league.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	standingRepo standing.Repository,
	leagueLocks *resilience.KeyedMutex,
	logger *logging.Logger,
) *StandingService {
	if leagueLocks == nil {
		leagueLocks = &resilience.KeyedMutex{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &StandingService{
		leagueRepo:   leagueRepo,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		leagueLocks:  leagueLocks,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *StandingService) ListByLeague(ctx context.Context, leagueID string) ([]standing.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.ListByLeague")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	_, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	items, err := s.standingRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}

	return items, nil
}

// RebuildLeague drops the stored table and replays every finished
// match in kickoff order. It holds the league lock so a concurrent
// settlement cannot interleave.
func (s *StandingService) RebuildLeague(ctx context.Context, leagueID string) (RebuildResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.RebuildLeague")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return RebuildResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	_, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return RebuildResult{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	s.leagueLocks.Lock(leagueID)
	defer s.leagueLocks.Unlock(leagueID)

	teams, err := s.teamRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("list teams: %w", err)
	}

	finished, err := s.matchRepo.ListFinishedByLeague(ctx, leagueID)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("list finished matches: %w", err)
	}

	rows, processed := s.buildTable(leagueID, teams, finished)
	if err := s.standingRepo.ReplaceByLeague(ctx, leagueID, rows); err != nil {
		return RebuildResult{}, fmt.Errorf("replace standings: %w", err)
	}
	if err := s.matchRepo.MarkSyncedByLeague(ctx, leagueID); err != nil {
		return RebuildResult{}, fmt.Errorf("mark matches synced: %w", err)
	}

	s.logger.InfoContext(ctx, "league standings rebuilt",
		"league_id", leagueID,
		"matches_processed", processed,
		"teams_updated", len(rows),
	)

	return RebuildResult{
		LeagueID:         leagueID,
		MatchesProcessed: processed,
		TeamsUpdated:     len(rows),
	}, nil
}

// RebuildAllLeagues rebuilds every league with a bounded pool. One
// failing league does not stop the others; the first error is
// reported after all leagues were attempted.
func (s *StandingService) RebuildAllLeagues(ctx context.Context, maxWorkers int) ([]RebuildResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.RebuildAllLeagues")
	defer span.End()

	if maxWorkers < 1 {
		maxWorkers = 4
	}

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	var mu sync.Mutex
	results := make([]RebuildResult, 0, len(leagues))

	p := pool.New().WithErrors().WithMaxGoroutines(maxWorkers)
	for _, item := range leagues {
		leagueID := item.ID
		p.Go(func() error {
			result, rebuildErr := s.RebuildLeague(ctx, leagueID)
			if rebuildErr != nil {
				s.logger.ErrorContext(ctx, "league rebuild failed", "league_id", leagueID, "error", rebuildErr)
				return fmt.Errorf("rebuild league %s: %w", leagueID, rebuildErr)
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	err = p.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].LeagueID < results[j].LeagueID })
	return results, err
}

func (s *StandingService) buildTable(leagueID string, teams []team.Team, finished []match.Match) ([]standing.Standing, int) {
	sortMatchesByKickoff(finished)

	now := s.now().UTC()
	rowByTeam := make(map[string]*standing.Standing, len(teams))
	for _, t := range teams {
		rowByTeam[t.ID] = &standing.Standing{
			LeagueID:  leagueID,
			TeamID:    t.ID,
			UpdatedAt: now,
		}
	}

	processed := 0
	for _, m := range finished {
		if !m.HasResult() {
			continue
		}
		home, homeOK := rowByTeam[m.HomeTeamID]
		away, awayOK := rowByTeam[m.AwayTeamID]
		if !homeOK || !awayOK {
			continue
		}

		applyResultToRow(home, *m.HomeScore, *m.AwayScore, 1)
		applyResultToRow(away, *m.AwayScore, *m.HomeScore, 1)
		processed++
	}

	rows := make([]standing.Standing, 0, len(rowByTeam))
	for teamID, row := range rowByTeam {
		row.Form = formString(finished, teamID)
		rows = append(rows, *row)
	}
	rankStandings(rows)

	return rows, processed
}
