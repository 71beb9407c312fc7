package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/matchkick/prediction-league/internal/domain/league"
	"github.com/matchkick/prediction-league/internal/domain/team"
	"github.com/matchkick/prediction-league/internal/platform/cache"
	"github.com/matchkick/prediction-league/internal/platform/logging"
)

// LeagueService serves league and team reads. Both change rarely, so
// they go through the TTL cache; derived data never does.
type LeagueService struct {
	leagueRepo league.Repository
	teamRepo   team.Repository
	store      *cache.Store
	logger     *logging.Logger
}

func NewLeagueService(leagueRepo league.Repository, teamRepo team.Repository, store *cache.Store, logger *logging.Logger) *LeagueService {
	if logger == nil {
		logger = logging.Default()
	}

	return &LeagueService{
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
		store:      store,
		logger:     logger,
	}
}

func (s *LeagueService) List(ctx context.Context) ([]league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.List")
	defer span.End()

	value, err := s.store.GetOrLoad(ctx, "leagues:all", func(ctx context.Context) (any, error) {
		items, listErr := s.leagueRepo.List(ctx)
		if listErr != nil {
			return nil, fmt.Errorf("list leagues: %w", listErr)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	items, ok := value.([]league.League)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value for leagues list")
	}
	return items, nil
}

func (s *LeagueService) GetByID(ctx context.Context, leagueID string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.GetByID")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	return item, nil
}

func (s *LeagueService) ListTeams(ctx context.Context, leagueID string) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListTeams")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	if _, err := s.GetByID(ctx, leagueID); err != nil {
		return nil, err
	}

	value, err := s.store.GetOrLoad(ctx, "teams:league:"+leagueID, func(ctx context.Context) (any, error) {
		items, listErr := s.teamRepo.ListByLeague(ctx, leagueID)
		if listErr != nil {
			return nil, fmt.Errorf("list teams: %w", listErr)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	items, ok := value.([]team.Team)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value for league teams")
	}
	return items, nil
}
