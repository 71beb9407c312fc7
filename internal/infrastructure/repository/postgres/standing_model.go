package postgres

import (
	"strings"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/standing"
)

type standingTableModel struct {
	ID             int64      `db:"id"`
	LeagueID       string     `db:"league_public_id"`
	TeamID         string     `db:"team_public_id"`
	Position       int        `db:"position"`
	Played         int        `db:"played"`
	Won            int        `db:"won"`
	Draw           int        `db:"draw"`
	Lost           int        `db:"lost"`
	GoalsFor       int        `db:"goals_for"`
	GoalsAgainst   int        `db:"goals_against"`
	GoalDifference int        `db:"goal_difference"`
	Points         int        `db:"points"`
	Form           string     `db:"form"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

type standingInsertModel struct {
	LeagueID       string `db:"league_public_id"`
	TeamID         string `db:"team_public_id"`
	Position       int    `db:"position"`
	Played         int    `db:"played"`
	Won            int    `db:"won"`
	Draw           int    `db:"draw"`
	Lost           int    `db:"lost"`
	GoalsFor       int    `db:"goals_for"`
	GoalsAgainst   int    `db:"goals_against"`
	GoalDifference int    `db:"goal_difference"`
	Points         int    `db:"points"`
	Form           string `db:"form"`
}

func standingFromRow(row standingTableModel) standing.Standing {
	return standing.Standing{
		LeagueID:       row.LeagueID,
		TeamID:         row.TeamID,
		Position:       row.Position,
		Played:         row.Played,
		Won:            row.Won,
		Draw:           row.Draw,
		Lost:           row.Lost,
		GoalsFor:       row.GoalsFor,
		GoalsAgainst:   row.GoalsAgainst,
		GoalDifference: row.GoalDifference,
		Points:         row.Points,
		Form:           strings.TrimSpace(row.Form),
		UpdatedAt:      row.UpdatedAt,
	}
}
