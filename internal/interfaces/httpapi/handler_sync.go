package httpapi

import (
	"fmt"
	"net/http"

	"github.com/matchkick/prediction-league/internal/usecase"
)

type syncSeasonRequest struct {
	LeagueID   string `json:"league_id" validate:"required"`
	Weeks      []int  `json:"weeks" validate:"omitempty,dive,gte=1,lte=99"`
	MaxWorkers int    `json:"max_workers" validate:"omitempty,gte=1,lte=32"`
	DryRun     bool   `json:"dry_run"`
}

// GetGameweekSyncPlan prepares a sync plan without applying it, so an
// operator can review create/update/unmatchable entries first.
func (h *Handler) GetGameweekSyncPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGameweekSyncPlan")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	week, err := pathWeekNumber(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	plan, err := h.syncService.PrepareGameweek(ctx, leagueID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "prepare sync plan failed", "league_id", leagueID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, plan)
}

// SyncGameweek applies a reviewed plan posted in the body. Without a
// body it prepares a fresh plan and applies it in one step.
func (h *Handler) SyncGameweek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncGameweek")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	week, err := pathWeekNumber(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	plan, err := decodeOptionalBody[usecase.SyncPlan](r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var execution usecase.SyncExecution
	if planProvided(plan) {
		if plan.LeagueID != leagueID || plan.WeekNumber != week {
			writeError(ctx, w, fmt.Errorf("%w: plan league and week must match the request path", usecase.ErrInvalidInput))
			return
		}
		execution, err = h.syncService.ExecutePlan(ctx, plan)
	} else {
		execution, err = h.syncService.SyncGameweek(ctx, leagueID, week)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "sync gameweek failed", "league_id", leagueID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "gameweek synced",
		"league_id", leagueID,
		"week", week,
		"created", execution.Created,
		"updated", execution.Updated,
		"skipped", execution.Skipped,
		"errors", len(execution.Errors),
	)
	writeSuccess(ctx, w, http.StatusOK, execution)
}

// planProvided reports whether the request carried a plan body rather
// than an empty one.
func planProvided(plan usecase.SyncPlan) bool {
	return plan.LeagueID != "" || plan.WeekNumber != 0 || len(plan.Entries) > 0
}

func (h *Handler) SyncSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncSeason")
	defer span.End()

	req, err := decodeBody[syncSeasonRequest](r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.SyncSeason(ctx, usecase.SeasonSyncInput{
		LeagueID:   req.LeagueID,
		Weeks:      req.Weeks,
		MaxWorkers: h.resolveWorkers(req.MaxWorkers),
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "sync season failed", "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
