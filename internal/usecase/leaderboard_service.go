package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matchkick/prediction-league/internal/domain/group"
	"github.com/matchkick/prediction-league/internal/domain/user"
	"github.com/matchkick/prediction-league/internal/platform/logging"
)

// LeaderboardService ranks group members from the point caches the
// settlement flow maintains.
type LeaderboardService struct {
	groupRepo group.Repository
	userRepo  user.Repository
	logger    *logging.Logger
}

type LeaderboardRow struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Points   int    `json:"points"`
}

type Leaderboard struct {
	GroupID    string           `json:"group_id"`
	GroupName  string           `json:"group_name"`
	LeagueID   string           `json:"league_id"`
	WeekNumber int              `json:"week_number,omitempty"`
	Rows       []LeaderboardRow `json:"rows"`
}

func NewLeaderboardService(groupRepo group.Repository, userRepo user.Repository, logger *logging.Logger) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}

	return &LeaderboardService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		logger:    logger,
	}
}

// GroupLeaderboard ranks a group's members for a league, or for one
// gameweek when weekNumber > 0. Equal points share a rank; rows with
// the same points order by user id so output is stable.
func (s *LeaderboardService) GroupLeaderboard(ctx context.Context, groupID, leagueID string, weekNumber int) (Leaderboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.GroupLeaderboard")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	leagueID = strings.TrimSpace(leagueID)
	if groupID == "" {
		return Leaderboard{}, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	if leagueID == "" {
		return Leaderboard{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if weekNumber < 0 {
		return Leaderboard{}, fmt.Errorf("%w: week number must be >= 0", ErrInvalidInput)
	}

	g, exists, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("get group: %w", err)
	}
	if !exists {
		return Leaderboard{}, fmt.Errorf("%w: group=%s", ErrNotFound, groupID)
	}
	if !g.IsScopedTo(leagueID) {
		return Leaderboard{}, fmt.Errorf("%w: group %s does not cover league %s", ErrInvalidInput, groupID, leagueID)
	}

	members, err := s.groupRepo.ListMembersByGroup(ctx, groupID)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("list group members: %w", err)
	}

	rows := make([]LeaderboardRow, 0, len(members))
	for _, member := range members {
		points := member.PointsByLeague[leagueID]
		if weekNumber > 0 {
			points = member.PointsByGameweek[leagueID][weekNumber]
		}

		name := member.UserID
		if u, found, getErr := s.userRepo.GetByID(ctx, member.UserID); getErr != nil {
			return Leaderboard{}, fmt.Errorf("get user %s: %w", member.UserID, getErr)
		} else if found {
			name = u.Name
		}

		rows = append(rows, LeaderboardRow{
			UserID:   member.UserID,
			UserName: name,
			Points:   points,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].UserID < rows[j].UserID
	})

	rank := 0
	lastPoints := 0
	for idx := range rows {
		if idx == 0 || rows[idx].Points != lastPoints {
			rank = idx + 1
			lastPoints = rows[idx].Points
		}
		rows[idx].Rank = rank
	}

	return Leaderboard{
		GroupID:    g.ID,
		GroupName:  g.Name,
		LeagueID:   leagueID,
		WeekNumber: weekNumber,
		Rows:       rows,
	}, nil
}
