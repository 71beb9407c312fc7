package standing

import "context"

type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Standing, error)
	ReplaceByLeague(ctx context.Context, leagueID string, standings []Standing) error
}
