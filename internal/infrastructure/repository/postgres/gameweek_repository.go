package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/matchkick/prediction-league/internal/domain/gameweek"
	qb "github.com/matchkick/prediction-league/internal/platform/querybuilder"
)

type GameweekRepository struct {
	db *sqlx.DB
}

func NewGameweekRepository(db *sqlx.DB) *GameweekRepository {
	return &GameweekRepository{db: db}
}

func (r *GameweekRepository) GetByLeagueAndWeek(ctx context.Context, leagueID string, weekNumber int) (gameweek.GameWeek, bool, error) {
	query, args, err := qb.Select("*").From("gameweeks").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("week_number", weekNumber),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return gameweek.GameWeek{}, false, fmt.Errorf("build get gameweek query: %w", err)
	}

	var row gameweekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gameweek.GameWeek{}, false, nil
		}
		return gameweek.GameWeek{}, false, fmt.Errorf("get gameweek: %w", err)
	}

	return gameweekFromRow(row), true, nil
}

// Upsert inserts or refreshes the (league, week) row and returns the
// stored row, so a concurrent insert resolves to the surviving id.
func (r *GameweekRepository) Upsert(ctx context.Context, gw gameweek.GameWeek) (gameweek.GameWeek, error) {
	query, args, err := qb.InsertInto("gameweeks").
		Columns("public_id", "league_public_id", "week_number", "starts_at", "ends_at").
		Values(gw.ID, gw.LeagueID, gw.WeekNumber, timeToNullTime(gw.StartsAt), timeToNullTime(gw.EndsAt)).
		Suffix(`ON CONFLICT (league_public_id, week_number) WHERE deleted_at IS NULL
DO UPDATE SET
    starts_at = EXCLUDED.starts_at,
    ends_at = EXCLUDED.ends_at,
    updated_at = NOW()
RETURNING *`).
		ToSQL()
	if err != nil {
		return gameweek.GameWeek{}, fmt.Errorf("build upsert gameweek query: %w", err)
	}

	var row gameweekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return gameweek.GameWeek{}, fmt.Errorf("upsert gameweek: %w", err)
	}

	return gameweekFromRow(row), nil
}

func (r *GameweekRepository) ListLinks(ctx context.Context, gameWeekID string) ([]gameweek.Link, error) {
	query, args, err := qb.Select("*").From("gameweek_matches").
		Where(
			qb.Eq("gameweek_public_id", gameWeekID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select gameweek links query: %w", err)
	}

	var rows []gameweekLinkTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select gameweek links: %w", err)
	}

	out := make([]gameweek.Link, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameweek.Link{
			GameWeekID: row.GameWeekID,
			MatchID:    row.MatchID,
			IsSynced:   row.IsSynced,
		})
	}

	return out, nil
}

func (r *GameweekRepository) UpsertLink(ctx context.Context, link gameweek.Link) error {
	query, args, err := qb.InsertInto("gameweek_matches").
		Columns("gameweek_public_id", "match_public_id", "is_synced").
		Values(link.GameWeekID, link.MatchID, link.IsSynced).
		Suffix(`ON CONFLICT (gameweek_public_id, match_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    is_synced = EXCLUDED.is_synced,
    updated_at = NOW()`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert gameweek link query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert gameweek link: %w", err)
	}

	return nil
}
