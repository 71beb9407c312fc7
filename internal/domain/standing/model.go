package standing

import "time"

// Standing is one team's row in a league table, derived entirely from
// finished matches.
type Standing struct {
	LeagueID       string
	TeamID         string
	Position       int
	Played         int
	Won            int
	Draw           int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
	Form           string
	UpdatedAt      time.Time
}
