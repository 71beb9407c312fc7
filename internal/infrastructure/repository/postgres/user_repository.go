package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/matchkick/prediction-league/internal/domain/user"
	qb "github.com/matchkick/prediction-league/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	query, args, err := qb.Select("*").From("users").
		Where(
			qb.Eq("public_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user by id query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user by id: %w", err)
	}

	return user.User{
		ID:                 row.PublicID,
		Name:               row.Name,
		TotalPoints:        row.TotalPoints,
		WeeklyPoints:       row.WeeklyPoints,
		TotalPredictions:   row.TotalPredictions,
		CorrectPredictions: row.CorrectPredictions,
		CurrentStreak:      row.CurrentStreak,
		UpdatedAt:          row.UpdatedAt,
	}, true, nil
}

func (r *UserRepository) SaveAggregates(ctx context.Context, u user.User) error {
	query, args, err := qb.Update("users").
		Set("total_points", u.TotalPoints).
		Set("weekly_points", u.WeeklyPoints).
		Set("total_predictions", u.TotalPredictions).
		Set("correct_predictions", u.CorrectPredictions).
		Set("current_streak", u.CurrentStreak).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", u.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save user aggregates query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save user aggregates: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected save user aggregates: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save user aggregates %s: not found", u.ID)
	}

	return nil
}
