package postgres

import (
	"database/sql"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/match"
)

type matchTableModel struct {
	ID         int64          `db:"id"`
	PublicID   string         `db:"public_id"`
	LeagueID   string         `db:"league_public_id"`
	WeekNumber int            `db:"week_number"`
	HomeTeam   string         `db:"home_team"`
	AwayTeam   string         `db:"away_team"`
	HomeTeamID sql.NullString `db:"home_team_public_id"`
	AwayTeamID sql.NullString `db:"away_team_public_id"`
	MatchRefID sql.NullInt64  `db:"match_ref_id"`
	KickoffAt  time.Time      `db:"kickoff_at"`
	Venue      string         `db:"venue"`
	HomeScore  sql.NullInt64  `db:"home_score"`
	AwayScore  sql.NullInt64  `db:"away_score"`
	Status     string         `db:"status"`
	IsSynced   bool           `db:"is_synced"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
	DeletedAt  *time.Time     `db:"deleted_at"`
}

type matchInsertModel struct {
	PublicID   string         `db:"public_id"`
	LeagueID   string         `db:"league_public_id"`
	WeekNumber int            `db:"week_number"`
	HomeTeam   string         `db:"home_team"`
	AwayTeam   string         `db:"away_team"`
	HomeTeamID sql.NullString `db:"home_team_public_id"`
	AwayTeamID sql.NullString `db:"away_team_public_id"`
	MatchRefID sql.NullInt64  `db:"match_ref_id"`
	KickoffAt  time.Time      `db:"kickoff_at"`
	Venue      string         `db:"venue"`
	HomeScore  sql.NullInt64  `db:"home_score"`
	AwayScore  sql.NullInt64  `db:"away_score"`
	Status     string         `db:"status"`
	IsSynced   bool           `db:"is_synced"`
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:         row.PublicID,
		LeagueID:   row.LeagueID,
		WeekNumber: row.WeekNumber,
		HomeTeam:   row.HomeTeam,
		AwayTeam:   row.AwayTeam,
		HomeTeamID: nullStringToString(row.HomeTeamID),
		AwayTeamID: nullStringToString(row.AwayTeamID),
		MatchRefID: nullInt64ToInt64(row.MatchRefID),
		KickoffAt:  row.KickoffAt,
		Venue:      row.Venue,
		HomeScore:  nullInt64ToIntPtr(row.HomeScore),
		AwayScore:  nullInt64ToIntPtr(row.AwayScore),
		Status:     row.Status,
		IsSynced:   row.IsSynced,
	}
}
