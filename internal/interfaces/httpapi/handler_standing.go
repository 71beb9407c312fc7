package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/standing"
	"github.com/matchkick/prediction-league/internal/usecase"
)

type standingDTO struct {
	Position       int       `json:"position"`
	TeamID         string    `json:"team_id"`
	Played         int       `json:"played"`
	Won            int       `json:"won"`
	Draw           int       `json:"draw"`
	Lost           int       `json:"lost"`
	GoalsFor       int       `json:"goals_for"`
	GoalsAgainst   int       `json:"goals_against"`
	GoalDifference int       `json:"goal_difference"`
	Points         int       `json:"points"`
	Form           string    `json:"form"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type rebuildResultDTO struct {
	LeagueID         string `json:"league_id"`
	MatchesProcessed int    `json:"matches_processed"`
	TeamsUpdated     int    `json:"teams_updated"`
}

type recalculateAllRequest struct {
	MaxWorkers int `json:"max_workers" validate:"omitempty,gte=1,lte=32"`
}

func standingToDTO(ctx context.Context, s standing.Standing) standingDTO {
	_, span := startSpan(ctx, "httpapi.standingToDTO")
	defer span.End()

	return standingDTO{
		Position:       s.Position,
		TeamID:         s.TeamID,
		Played:         s.Played,
		Won:            s.Won,
		Draw:           s.Draw,
		Lost:           s.Lost,
		GoalsFor:       s.GoalsFor,
		GoalsAgainst:   s.GoalsAgainst,
		GoalDifference: s.GoalDifference,
		Points:         s.Points,
		Form:           s.Form,
		UpdatedAt:      s.UpdatedAt,
	}
}

func rebuildResultToDTO(ctx context.Context, result usecase.RebuildResult) rebuildResultDTO {
	_, span := startSpan(ctx, "httpapi.rebuildResultToDTO")
	defer span.End()

	return rebuildResultDTO{
		LeagueID:         result.LeagueID,
		MatchesProcessed: result.MatchesProcessed,
		TeamsUpdated:     result.TeamsUpdated,
	}
}

func (h *Handler) ListLeagueStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagueStandings")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	standings, err := h.standingService.ListByLeague(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]standingDTO, 0, len(standings))
	for _, s := range standings {
		items = append(items, standingToDTO(ctx, s))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RecalculateLeagueStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecalculateLeagueStandings")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	result, err := h.standingService.RebuildLeague(ctx, leagueID)
	if err != nil {
		h.logger.ErrorContext(ctx, "rebuild standings failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rebuildResultToDTO(ctx, result))
}

func (h *Handler) RecalculateAllStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecalculateAllStandings")
	defer span.End()

	req, err := decodeOptionalBody[recalculateAllRequest](r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	results, err := h.standingService.RebuildAllLeagues(ctx, h.resolveWorkers(req.MaxWorkers))
	if err != nil {
		h.logger.ErrorContext(ctx, "rebuild all standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]rebuildResultDTO, 0, len(results))
	for _, result := range results {
		items = append(items, rebuildResultToDTO(ctx, result))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
