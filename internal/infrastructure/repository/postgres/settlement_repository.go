package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/settlement"
	qb "github.com/matchkick/prediction-league/internal/platform/querybuilder"
)

// SettlementRepository applies a settlement plan in one transaction.
// The conditional is_synced update on the match row is the guard that
// keeps two concurrent settlements of the same match from both
// committing.
type SettlementRepository struct {
	db *sqlx.DB
}

func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) Apply(ctx context.Context, plan settlement.Plan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply settlement: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.claimMatch(ctx, tx, plan); err != nil {
		return err
	}
	if err := r.applyPredictions(ctx, tx, plan); err != nil {
		return err
	}
	if err := r.applyUserDeltas(ctx, tx, plan); err != nil {
		return err
	}
	if err := r.applyMemberPoints(ctx, tx, plan); err != nil {
		return err
	}
	if err := replaceStandingsTx(ctx, tx, plan.LeagueID, plan.Standings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply settlement tx: %w", err)
	}
	return nil
}

func (r *SettlementRepository) claimMatch(ctx context.Context, tx *sqlx.Tx, plan settlement.Plan) error {
	query, args, err := qb.Update("matches").
		Set("home_score", plan.HomeScore).
		Set("away_score", plan.AwayScore).
		Set("status", match.StatusFinished).
		Set("is_synced", true).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", plan.MatchID),
			qb.Eq("league_public_id", plan.LeagueID),
			qb.Eq("is_synced", false),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build claim match query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("claim match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected claim match: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claim match %s: %w", plan.MatchID, settlement.ErrAlreadySettled)
	}

	return nil
}

func (r *SettlementRepository) applyPredictions(ctx context.Context, tx *sqlx.Tx, plan settlement.Plan) error {
	for _, p := range plan.Predictions {
		query, args, err := qb.Update("predictions").
			Set("score_points", p.ScorePoints).
			Set("result_points", p.ResultPoints).
			Set("bonus_points", p.BonusPoints).
			Set("total_points", p.TotalPoints).
			Set("is_processed", true).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("public_id", p.ID),
				qb.Eq("is_processed", false),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build settle prediction query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("settle prediction %s: %w", p.ID, err)
		}
	}

	return nil
}

func (r *SettlementRepository) applyUserDeltas(ctx context.Context, tx *sqlx.Tx, plan settlement.Plan) error {
	for _, delta := range plan.UserDeltas {
		builder := qb.Update("users").
			SetExpr("total_points", "total_points + ?", delta.PointsDelta).
			SetExpr("weekly_points", "weekly_points + ?", delta.PointsDelta).
			SetExpr("total_predictions", "total_predictions + ?", delta.PredictionsDelta).
			SetExpr("correct_predictions", "correct_predictions + ?", delta.CorrectDelta).
			SetExpr("updated_at", "NOW()")
		if delta.ResetStreak {
			builder = builder.Set("current_streak", 0)
		} else {
			builder = builder.SetExpr("current_streak", "current_streak + ?", delta.StreakDelta)
		}

		query, args, err := builder.
			Where(
				qb.Eq("public_id", delta.UserID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build apply user delta query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("apply user delta %s: %w", delta.UserID, err)
		}
	}

	return nil
}

func (r *SettlementRepository) applyMemberPoints(ctx context.Context, tx *sqlx.Tx, plan settlement.Plan) error {
	for _, member := range plan.Members {
		leaguePoints, err := encodeLeaguePoints(member.PointsByLeague)
		if err != nil {
			return fmt.Errorf("apply member points %s/%s: %w", member.GroupID, member.UserID, err)
		}
		gameweekPoints, err := encodeGameweekPoints(member.PointsByGameweek)
		if err != nil {
			return fmt.Errorf("apply member points %s/%s: %w", member.GroupID, member.UserID, err)
		}

		query, args, err := qb.Update("group_members").
			Set("points_by_league", leaguePoints).
			Set("points_by_gameweek", gameweekPoints).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("group_public_id", member.GroupID),
				qb.Eq("user_public_id", member.UserID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build apply member points query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("apply member points %s/%s: %w", member.GroupID, member.UserID, err)
		}
	}

	return nil
}
