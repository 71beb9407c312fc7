package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/group"
	"github.com/matchkick/prediction-league/internal/domain/prediction"
	"github.com/matchkick/prediction-league/internal/domain/user"
	"github.com/matchkick/prediction-league/internal/platform/logging"
)

// RepairService rebuilds denormalized aggregates from processed
// predictions, the single source of truth once a match is settled.
// It exists for drift repair after manual data fixes or failed runs.
type RepairService struct {
	userRepo       user.Repository
	groupRepo      group.Repository
	predictionRepo prediction.Repository
	logger         *logging.Logger
	now            func() time.Time
}

func NewRepairService(
	userRepo user.Repository,
	groupRepo group.Repository,
	predictionRepo prediction.Repository,
	logger *logging.Logger,
) *RepairService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RepairService{
		userRepo:       userRepo,
		groupRepo:      groupRepo,
		predictionRepo: predictionRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// RecomputeUserAggregates recalculates one user's totals, correct
// count, streak and latest-gameweek points from scratch.
func (s *RepairService) RecomputeUserAggregates(ctx context.Context, userID string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RepairService.RecomputeUserAggregates")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	u, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}

	processed, err := s.predictionRepo.ListProcessedByUser(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("list processed predictions: %w", err)
	}
	sortProcessedChronologically(processed)

	u.TotalPoints = 0
	u.TotalPredictions = len(processed)
	u.CorrectPredictions = 0
	for _, p := range processed {
		u.TotalPoints += p.TotalPoints
		if p.TotalPoints > 0 {
			u.CorrectPredictions++
		}
	}

	u.CurrentStreak = trailingStreak(processed)
	u.WeeklyPoints = latestGameweekPoints(processed)
	u.UpdatedAt = s.now().UTC()

	if err := s.userRepo.SaveAggregates(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("save user aggregates: %w", err)
	}

	s.logger.InfoContext(ctx, "user aggregates recomputed",
		"user_id", userID,
		"total_points", u.TotalPoints,
		"total_predictions", u.TotalPredictions,
		"current_streak", u.CurrentStreak,
	)

	return u, nil
}

// RecomputeGroupPoints rebuilds every member's per-league and
// per-gameweek point maps for one group.
func (s *RepairService) RecomputeGroupPoints(ctx context.Context, groupID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RepairService.RecomputeGroupPoints")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return 0, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}

	g, exists, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("get group: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: group=%s", ErrNotFound, groupID)
	}

	members, err := s.groupRepo.ListMembersByGroup(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("list group members: %w", err)
	}

	updated := 0
	for _, member := range members {
		processed, listErr := s.predictionRepo.ListProcessedByUser(ctx, member.UserID)
		if listErr != nil {
			return updated, fmt.Errorf("list processed predictions for user %s: %w", member.UserID, listErr)
		}

		byLeague := make(map[string]int)
		byWeek := make(map[string]map[int]int)
		for _, p := range processed {
			if p.TotalPoints == 0 {
				continue
			}
			if !g.IsScopedTo(p.MatchLeagueID) {
				continue
			}
			byLeague[p.MatchLeagueID] += p.TotalPoints
			if p.MatchWeekNumber > 0 {
				if byWeek[p.MatchLeagueID] == nil {
					byWeek[p.MatchLeagueID] = make(map[int]int)
				}
				byWeek[p.MatchLeagueID][p.MatchWeekNumber] += p.TotalPoints
			}
		}

		member.PointsByLeague = byLeague
		member.PointsByGameweek = byWeek
		if err := s.groupRepo.SaveMemberPoints(ctx, member); err != nil {
			return updated, fmt.Errorf("save member points for user %s: %w", member.UserID, err)
		}
		updated++
	}

	s.logger.InfoContext(ctx, "group points recomputed",
		"group_id", groupID,
		"members_updated", updated,
	)

	return updated, nil
}

func sortProcessedChronologically(items []prediction.ProcessedPrediction) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].MatchKickoffAt.Equal(items[j].MatchKickoffAt) {
			return items[i].MatchKickoffAt.Before(items[j].MatchKickoffAt)
		}
		return items[i].ID < items[j].ID
	})
}

// trailingStreak counts consecutive scoring predictions at the
// chronological tail.
func trailingStreak(items []prediction.ProcessedPrediction) int {
	streak := 0
	for idx := len(items) - 1; idx >= 0; idx-- {
		if items[idx].TotalPoints <= 0 {
			break
		}
		streak++
	}
	return streak
}

// latestGameweekPoints sums points earned in the same (league, week)
// as the most recent processed prediction.
func latestGameweekPoints(items []prediction.ProcessedPrediction) int {
	if len(items) == 0 {
		return 0
	}

	last := items[len(items)-1]
	total := 0
	for _, p := range items {
		if p.MatchLeagueID == last.MatchLeagueID && p.MatchWeekNumber == last.MatchWeekNumber {
			total += p.TotalPoints
		}
	}
	return total
}
