package group

import "context"

// Repository describes group persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, groupID string) (Group, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Group, error)
	ListMembersByGroup(ctx context.Context, groupID string) ([]Member, error)
	ListMembershipsByUsers(ctx context.Context, userIDs []string) ([]Member, error)
	SaveMemberPoints(ctx context.Context, m Member) error
}
