package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/matchkick/prediction-league/internal/domain/team"
	qb "github.com/matchkick/prediction-league/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID string) ([]team.Team, error) {
	query, args, err := qb.Select(
		"t.id", "t.public_id", "t.name", "t.short_name", "t.team_ref_id",
		"t.created_at", "t.updated_at", "t.deleted_at",
	).From("teams t JOIN league_teams lt ON lt.team_public_id = t.public_id").
		Where(
			qb.Eq("lt.league_public_id", leagueID),
			qb.IsNull("lt.deleted_at"),
			qb.IsNull("t.deleted_at"),
		).
		OrderBy("t.name", "t.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by league query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by league: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}

	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, leagueID, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select(
		"t.id", "t.public_id", "t.name", "t.short_name", "t.team_ref_id",
		"t.created_at", "t.updated_at", "t.deleted_at",
	).From("teams t JOIN league_teams lt ON lt.team_public_id = t.public_id").
		Where(
			qb.Eq("lt.league_public_id", leagueID),
			qb.Eq("t.public_id", teamID),
			qb.IsNull("lt.deleted_at"),
			qb.IsNull("t.deleted_at"),
		).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by id: %w", err)
	}

	return teamFromRow(row), true, nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:        row.PublicID,
		Name:      row.Name,
		Short:     row.ShortName,
		TeamRefID: nullInt64ToInt64(row.TeamRefID),
	}
}
