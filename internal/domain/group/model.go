package group

import "time"

// Group is a private circle of users competing on prediction points.
// A group is scoped to one league, or league-agnostic when LeagueID
// is empty.
type Group struct {
	ID          string
	LeagueID    string
	OwnerUserID string
	Name        string
	InviteCode  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member holds one user's per-group point caches. PointsByGameweek is
// keyed by league id, then week number.
type Member struct {
	GroupID          string
	UserID           string
	PointsByLeague   map[string]int
	PointsByGameweek map[string]map[int]int
	JoinedAt         time.Time
	UpdatedAt        time.Time
}

// IsScopedTo reports whether the group counts points from the given
// league.
func (g Group) IsScopedTo(leagueID string) bool {
	return g.LeagueID == "" || g.LeagueID == leagueID
}
