package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/league"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/team"
)

type leaguePublicDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Season      string `json:"season"`
	IsDefault   bool   `json:"is_default"`
}

type teamDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Short string `json:"short,omitempty"`
}

type matchDTO struct {
	ID         string    `json:"id"`
	LeagueID   string    `json:"league_id"`
	WeekNumber int       `json:"week_number"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	HomeTeamID string    `json:"home_team_id,omitempty"`
	AwayTeamID string    `json:"away_team_id,omitempty"`
	KickoffAt  time.Time `json:"kickoff_at"`
	Venue      string    `json:"venue,omitempty"`
	HomeScore  *int      `json:"home_score"`
	AwayScore  *int      `json:"away_score"`
	Status     string    `json:"status"`
	IsSynced   bool      `json:"is_synced"`
}

func leagueToPublicDTO(ctx context.Context, l league.League) leaguePublicDTO {
	_, span := startSpan(ctx, "httpapi.leagueToPublicDTO")
	defer span.End()

	return leaguePublicDTO{
		ID:          l.ID,
		Name:        l.Name,
		CountryCode: l.CountryCode,
		Season:      l.Season,
		IsDefault:   l.IsDefault,
	}
}

func teamToDTO(ctx context.Context, t team.Team) teamDTO {
	_, span := startSpan(ctx, "httpapi.teamToDTO")
	defer span.End()

	return teamDTO{
		ID:    t.ID,
		Name:  t.Name,
		Short: t.Short,
	}
}

func matchToDTO(ctx context.Context, m match.Match) matchDTO {
	_, span := startSpan(ctx, "httpapi.matchToDTO")
	defer span.End()

	return matchDTO{
		ID:         m.ID,
		LeagueID:   m.LeagueID,
		WeekNumber: m.WeekNumber,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		KickoffAt:  m.KickoffAt,
		Venue:      m.Venue,
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		Status:     m.Status,
		IsSynced:   m.IsSynced,
	}
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leaguePublicDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToPublicDTO(ctx, l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTeamsByLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamsByLeague")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	teams, err := h.leagueService.ListTeams(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(ctx, t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListMatchesByLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchesByLeague")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	weekNumber, err := queryIntValue(r, "week", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matches, err := h.matchService.List(ctx, leagueID, weekNumber)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "league_id", leagueID, "week", weekNumber, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(ctx, m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatchByLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchByLeague")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	matchID := r.PathValue("matchID")
	item, err := h.matchService.Get(ctx, leagueID, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "league_id", leagueID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, item))
}
