package postgres

import (
	"database/sql"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/gameweek"
)

type gameweekTableModel struct {
	ID         int64        `db:"id"`
	PublicID   string       `db:"public_id"`
	LeagueID   string       `db:"league_public_id"`
	WeekNumber int          `db:"week_number"`
	StartsAt   sql.NullTime `db:"starts_at"`
	EndsAt     sql.NullTime `db:"ends_at"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
	DeletedAt  *time.Time   `db:"deleted_at"`
}

type gameweekLinkTableModel struct {
	ID         int64      `db:"id"`
	GameWeekID string     `db:"gameweek_public_id"`
	MatchID    string     `db:"match_public_id"`
	IsSynced   bool       `db:"is_synced"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

func gameweekFromRow(row gameweekTableModel) gameweek.GameWeek {
	return gameweek.GameWeek{
		ID:         row.PublicID,
		LeagueID:   row.LeagueID,
		WeekNumber: row.WeekNumber,
		StartsAt:   nullTimeToTime(row.StartsAt),
		EndsAt:     nullTimeToTime(row.EndsAt),
	}
}
