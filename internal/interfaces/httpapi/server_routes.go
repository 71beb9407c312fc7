package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/teams", handler.ListTeamsByLeague)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/matches", handler.ListMatchesByLeague)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/matches/{matchID}", handler.GetMatchByLeague)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/standings", handler.ListLeagueStandings)
	mux.HandleFunc("GET /v1/groups/{groupID}/leaderboard", handler.GetGroupLeaderboard)
}

func registerUserRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("PUT /v1/leagues/{leagueID}/matches/{matchID}/prediction", RequireUser(internalJobToken, http.HandlerFunc(handler.SubmitPrediction)))
	mux.Handle("GET /v1/leagues/{leagueID}/matches/{matchID}/prediction", RequireUser(internalJobToken, http.HandlerFunc(handler.GetMyPrediction)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("PUT /v1/leagues/{leagueID}/matches/{matchID}/score", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SetMatchScore)))
	mux.Handle("POST /v1/leagues/{leagueID}/standings/recalculate", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RecalculateLeagueStandings)))
	mux.Handle("GET /v1/leagues/{leagueID}/gameweeks/{week}/sync-plan", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetGameweekSyncPlan)))
	mux.Handle("POST /v1/leagues/{leagueID}/gameweeks/{week}/sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SyncGameweek)))
	mux.Handle("POST /v1/internal/sync/season", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SyncSeason)))
	mux.Handle("POST /v1/internal/standings/recalculate", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RecalculateAllStandings)))
	mux.Handle("POST /v1/internal/repair/users/{userID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RepairUserAggregates)))
	mux.Handle("POST /v1/internal/repair/groups/{groupID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RepairGroupPoints)))
}
