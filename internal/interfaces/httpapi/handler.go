package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/matchkick/prediction-league/internal/platform/logging"
	"github.com/matchkick/prediction-league/internal/usecase"
)

type Handler struct {
	leagueService      *usecase.LeagueService
	matchService       *usecase.MatchService
	predictionService  *usecase.PredictionService
	settlementService  *usecase.SettlementService
	standingService    *usecase.StandingService
	syncService        *usecase.SyncService
	leaderboardService *usecase.LeaderboardService
	repairService      *usecase.RepairService
	logger             *logging.Logger
	validator          *validator.Validate
	defaultSyncWorkers int
}

func NewHandler(
	leagueService *usecase.LeagueService,
	matchService *usecase.MatchService,
	predictionService *usecase.PredictionService,
	settlementService *usecase.SettlementService,
	standingService *usecase.StandingService,
	syncService *usecase.SyncService,
	leaderboardService *usecase.LeaderboardService,
	repairService *usecase.RepairService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leagueService:      leagueService,
		matchService:       matchService,
		predictionService:  predictionService,
		settlementService:  settlementService,
		standingService:    standingService,
		syncService:        syncService,
		leaderboardService: leaderboardService,
		repairService:      repairService,
		logger:             logger,
		validator:          validator.New(),
	}
}

// WithDefaultSyncWorkers sets the worker count applied when a bulk
// request omits max_workers.
func (h *Handler) WithDefaultSyncWorkers(workers int) *Handler {
	if workers > 0 {
		h.defaultSyncWorkers = workers
	}
	return h
}

func (h *Handler) resolveWorkers(requested int) int {
	if requested > 0 {
		return requested
	}
	return h.defaultSyncWorkers
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeBody[T any](r *http.Request) (T, error) {
	var req T
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: invalid request body: %v", usecase.ErrInvalidInput, err)
	}
	return req, nil
}

// decodeOptionalBody tolerates an empty body and returns the zero
// request in that case.
func decodeOptionalBody[T any](r *http.Request) (T, error) {
	var req T
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, fmt.Errorf("%w: invalid request body: %v", usecase.ErrInvalidInput, err)
	}
	return req, nil
}

// pathWeekNumber parses the {week} segment, which must be a positive
// gameweek number.
func pathWeekNumber(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("week"))
	week, err := strconv.Atoi(raw)
	if err != nil || week < 1 {
		return 0, fmt.Errorf("%w: invalid week number %q", usecase.ErrInvalidInput, raw)
	}
	return week, nil
}

// queryIntValue parses an optional integer query parameter, returning
// the fallback when absent.
func queryIntValue(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s value %q", usecase.ErrInvalidInput, key, raw)
	}
	return value, nil
}
