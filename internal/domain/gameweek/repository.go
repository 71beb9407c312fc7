package gameweek

import "context"

// Repository describes gameweek persistence needs from use cases.
type Repository interface {
	GetByLeagueAndWeek(ctx context.Context, leagueID string, weekNumber int) (GameWeek, bool, error)
	Upsert(ctx context.Context, gw GameWeek) (GameWeek, error)
	ListLinks(ctx context.Context, gameWeekID string) ([]Link, error)
	UpsertLink(ctx context.Context, link Link) error
}
