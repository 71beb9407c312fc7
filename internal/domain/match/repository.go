package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, leagueID, matchID string) (Match, bool, error)
	GetByRefID(ctx context.Context, leagueID string, matchRefID int64) (Match, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Match, error)
	ListByLeagueAndWeek(ctx context.Context, leagueID string, weekNumber int) ([]Match, error)
	ListFinishedByLeague(ctx context.Context, leagueID string) ([]Match, error)
	Create(ctx context.Context, m Match) error
	Update(ctx context.Context, m Match) error
	MarkSyncedByLeague(ctx context.Context, leagueID string) error
}
