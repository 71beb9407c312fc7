package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/matchkick/prediction-league/internal/domain/group"
	qb "github.com/matchkick/prediction-league/internal/platform/querybuilder"
)

type GroupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) GetByID(ctx context.Context, groupID string) (group.Group, bool, error) {
	query, args, err := qb.Select("*").From("groups").
		Where(
			qb.Eq("public_id", groupID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return group.Group{}, false, fmt.Errorf("build get group by id query: %w", err)
	}

	var row groupTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return group.Group{}, false, nil
		}
		return group.Group{}, false, fmt.Errorf("get group by id: %w", err)
	}

	return groupFromRow(row), true, nil
}

// ListByLeague returns groups scoped to the league plus the
// league-agnostic ones.
func (r *GroupRepository) ListByLeague(ctx context.Context, leagueID string) ([]group.Group, error) {
	query, args, err := qb.Select("*").From("groups").
		Where(
			qb.Expr("(league_public_id = ? OR league_public_id IS NULL)", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select groups by league query: %w", err)
	}

	var rows []groupTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select groups by league: %w", err)
	}

	out := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		out = append(out, groupFromRow(row))
	}

	return out, nil
}

func (r *GroupRepository) ListMembersByGroup(ctx context.Context, groupID string) ([]group.Member, error) {
	query, args, err := qb.Select("*").From("group_members").
		Where(
			qb.Eq("group_public_id", groupID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select group members query: %w", err)
	}

	var rows []groupMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select group members: %w", err)
	}

	out := make([]group.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, groupMemberFromRow(row))
	}

	return out, nil
}

func (r *GroupRepository) ListMembershipsByUsers(ctx context.Context, userIDs []string) ([]group.Member, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		values = append(values, id)
	}

	query, args, err := qb.Select("*").From("group_members").
		Where(
			qb.In("user_public_id", values),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select memberships by users query: %w", err)
	}

	var rows []groupMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select memberships by users: %w", err)
	}

	out := make([]group.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, groupMemberFromRow(row))
	}

	return out, nil
}

func (r *GroupRepository) SaveMemberPoints(ctx context.Context, m group.Member) error {
	leaguePoints, err := encodeLeaguePoints(m.PointsByLeague)
	if err != nil {
		return fmt.Errorf("save member points %s/%s: %w", m.GroupID, m.UserID, err)
	}
	gameweekPoints, err := encodeGameweekPoints(m.PointsByGameweek)
	if err != nil {
		return fmt.Errorf("save member points %s/%s: %w", m.GroupID, m.UserID, err)
	}

	query, args, err := qb.Update("group_members").
		Set("points_by_league", leaguePoints).
		Set("points_by_gameweek", gameweekPoints).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("group_public_id", m.GroupID),
			qb.Eq("user_public_id", m.UserID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save member points query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save member points: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected save member points: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save member points %s/%s: not found", m.GroupID, m.UserID)
	}

	return nil
}
