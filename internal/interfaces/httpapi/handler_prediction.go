package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/prediction"
	"github.com/matchkick/prediction-league/internal/usecase"
)

type submitPredictionRequest struct {
	PredictedHome *int `json:"predicted_home" validate:"required,gte=0,lte=99"`
	PredictedAway *int `json:"predicted_away" validate:"required,gte=0,lte=99"`
}

type predictionDTO struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	MatchID       string    `json:"match_id"`
	LeagueID      string    `json:"league_id"`
	PredictedHome int       `json:"predicted_home"`
	PredictedAway int       `json:"predicted_away"`
	ScorePoints   int       `json:"score_points"`
	ResultPoints  int       `json:"result_points"`
	BonusPoints   int       `json:"bonus_points"`
	TotalPoints   int       `json:"total_points"`
	IsProcessed   bool      `json:"is_processed"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func predictionToDTO(ctx context.Context, p prediction.Prediction) predictionDTO {
	_, span := startSpan(ctx, "httpapi.predictionToDTO")
	defer span.End()

	return predictionDTO{
		ID:            p.ID,
		UserID:        p.UserID,
		MatchID:       p.MatchID,
		LeagueID:      p.LeagueID,
		PredictedHome: p.PredictedHome,
		PredictedAway: p.PredictedAway,
		ScorePoints:   p.ScorePoints,
		ResultPoints:  p.ResultPoints,
		BonusPoints:   p.BonusPoints,
		TotalPoints:   p.TotalPoints,
		IsProcessed:   p.IsProcessed,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPrediction")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	leagueID := r.PathValue("leagueID")
	matchID := r.PathValue("matchID")

	req, err := decodeBody[submitPredictionRequest](r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.predictionService.Submit(ctx, principal.UserID, leagueID, matchID, *req.PredictedHome, *req.PredictedAway)
	if err != nil {
		h.logger.WarnContext(ctx, "submit prediction failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, predictionToDTO(ctx, item))
}

func (h *Handler) GetMyPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyPrediction")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	matchID := r.PathValue("matchID")
	item, err := h.predictionService.Get(ctx, principal.UserID, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get prediction failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, predictionToDTO(ctx, item))
}
