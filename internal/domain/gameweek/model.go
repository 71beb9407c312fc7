package gameweek

import "time"

// GameWeek groups matches of one league into a scheduling round.
type GameWeek struct {
	ID         string
	LeagueID   string
	WeekNumber int
	StartsAt   time.Time
	EndsAt     time.Time
}

// Link ties a match to a gameweek. IsSynced tracks whether the link
// came from a completed fixture-feed sync.
type Link struct {
	GameWeekID string
	MatchID    string
	IsSynced   bool
}
