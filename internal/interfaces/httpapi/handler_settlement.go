package httpapi

import (
	"context"
	"net/http"

	"github.com/matchkick/prediction-league/internal/usecase"
)

type setMatchScoreRequest struct {
	HomeScore *int `json:"home_score" validate:"required,gte=0,lte=99"`
	AwayScore *int `json:"away_score" validate:"required,gte=0,lte=99"`
}

type settlementResultDTO struct {
	Match                matchDTO `json:"match"`
	PredictionsProcessed int      `json:"predictions_processed"`
	UsersUpdated         int      `json:"users_updated"`
	GroupMembersUpdated  int      `json:"group_members_updated"`
	TeamsUpdated         int      `json:"teams_updated"`
}

func settlementResultToDTO(ctx context.Context, result usecase.SettlementResult) settlementResultDTO {
	_, span := startSpan(ctx, "httpapi.settlementResultToDTO")
	defer span.End()

	return settlementResultDTO{
		Match:                matchToDTO(ctx, result.Match),
		PredictionsProcessed: result.PredictionsProcessed,
		UsersUpdated:         result.UsersUpdated,
		GroupMembersUpdated:  result.GroupMembersUpdated,
		TeamsUpdated:         result.TeamsUpdated,
	}
}

// SetMatchScore records the final score of a match and settles every
// prediction on it.
func (h *Handler) SetMatchScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetMatchScore")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	matchID := r.PathValue("matchID")

	req, err := decodeBody[setMatchScoreRequest](r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.settlementService.SettleMatch(ctx, leagueID, matchID, *req.HomeScore, *req.AwayScore)
	if err != nil {
		h.logger.WarnContext(ctx, "settle match failed", "league_id", leagueID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "match settled",
		"league_id", leagueID,
		"match_id", matchID,
		"predictions_processed", result.PredictionsProcessed,
		"users_updated", result.UsersUpdated,
	)
	writeSuccess(ctx, w, http.StatusOK, settlementResultToDTO(ctx, result))
}
