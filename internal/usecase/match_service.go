package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/matchkick/prediction-league/internal/domain/league"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/platform/logging"
)

// MatchService serves match reads. Matches carry live scores and sync
// state, so reads always hit the repository.
type MatchService struct {
	leagueRepo league.Repository
	matchRepo  match.Repository
	logger     *logging.Logger
}

func NewMatchService(leagueRepo league.Repository, matchRepo match.Repository, logger *logging.Logger) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		leagueRepo: leagueRepo,
		matchRepo:  matchRepo,
		logger:     logger,
	}
}

// List returns a league's matches, optionally narrowed to one week
// when weekNumber > 0.
func (s *MatchService) List(ctx context.Context, leagueID string, weekNumber int) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.List")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if weekNumber < 0 {
		return nil, fmt.Errorf("%w: week number must be >= 0", ErrInvalidInput)
	}

	_, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	var items []match.Match
	if weekNumber > 0 {
		items, err = s.matchRepo.ListByLeagueAndWeek(ctx, leagueID, weekNumber)
	} else {
		items, err = s.matchRepo.ListByLeague(ctx, leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	sortMatchesByKickoff(items)

	return items, nil
}

func (s *MatchService) Get(ctx context.Context, leagueID, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Get")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	matchID = strings.TrimSpace(matchID)
	if leagueID == "" || matchID == "" {
		return match.Match{}, fmt.Errorf("%w: league id and match id are required", ErrInvalidInput)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, leagueID, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	return m, nil
}
