package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/user"
)

type userAggregatesDTO struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name,omitempty"`
	TotalPoints        int       `json:"total_points"`
	WeeklyPoints       int       `json:"weekly_points"`
	TotalPredictions   int       `json:"total_predictions"`
	CorrectPredictions int       `json:"correct_predictions"`
	CurrentStreak      int       `json:"current_streak"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func userAggregatesToDTO(ctx context.Context, u user.User) userAggregatesDTO {
	_, span := startSpan(ctx, "httpapi.userAggregatesToDTO")
	defer span.End()

	return userAggregatesDTO{
		ID:                 u.ID,
		Name:               u.Name,
		TotalPoints:        u.TotalPoints,
		WeeklyPoints:       u.WeeklyPoints,
		TotalPredictions:   u.TotalPredictions,
		CorrectPredictions: u.CorrectPredictions,
		CurrentStreak:      u.CurrentStreak,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (h *Handler) GetGroupLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGroupLeaderboard")
	defer span.End()

	groupID := r.PathValue("groupID")
	leagueID := r.URL.Query().Get("league")
	weekNumber, err := queryIntValue(r, "week", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.leaderboardService.GroupLeaderboard(ctx, groupID, leagueID, weekNumber)
	if err != nil {
		h.logger.WarnContext(ctx, "group leaderboard failed", "group_id", groupID, "league_id", leagueID, "week", weekNumber, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, board)
}

// RepairUserAggregates recomputes one user's cached totals from the
// processed predictions table.
func (h *Handler) RepairUserAggregates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RepairUserAggregates")
	defer span.End()

	userID := r.PathValue("userID")
	repaired, err := h.repairService.RecomputeUserAggregates(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "repair user aggregates failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userAggregatesToDTO(ctx, repaired))
}

func (h *Handler) RepairGroupPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RepairGroupPoints")
	defer span.End()

	groupID := r.PathValue("groupID")
	membersUpdated, err := h.repairService.RecomputeGroupPoints(ctx, groupID)
	if err != nil {
		h.logger.WarnContext(ctx, "repair group points failed", "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"members_updated": membersUpdated})
}
