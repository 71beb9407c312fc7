package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/matchkick/prediction-league/internal/domain/prediction"
	qb "github.com/matchkick/prediction-league/internal/platform/querybuilder"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) GetByUserAndMatch(ctx context.Context, userID, matchID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(
			qb.Eq("user_public_id", userID),
			qb.Eq("match_public_id", matchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}

	return predictionFromRow(row), true, nil
}

func (r *PredictionRepository) ListUnprocessedByMatch(ctx context.Context, matchID string) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(
			qb.Eq("match_public_id", matchID),
			qb.Eq("is_processed", false),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select unprocessed predictions query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select unprocessed predictions: %w", err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, predictionFromRow(row))
	}

	return out, nil
}

func (r *PredictionRepository) ListProcessedByUser(ctx context.Context, userID string) ([]prediction.ProcessedPrediction, error) {
	query, args, err := qb.Select(
		"p.*",
		"m.league_public_id AS match_league_public_id",
		"m.week_number AS match_week_number",
		"m.kickoff_at AS match_kickoff_at",
	).From("predictions p JOIN matches m ON m.public_id = p.match_public_id").
		Where(
			qb.Eq("p.user_public_id", userID),
			qb.Eq("p.is_processed", true),
			qb.IsNull("p.deleted_at"),
			qb.IsNull("m.deleted_at"),
		).
		OrderBy("m.kickoff_at", "p.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select processed predictions query: %w", err)
	}

	var rows []processedPredictionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select processed predictions: %w", err)
	}

	out := make([]prediction.ProcessedPrediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, prediction.ProcessedPrediction{
			Prediction:      predictionFromRow(row.predictionTableModel),
			MatchLeagueID:   row.MatchLeagueID,
			MatchWeekNumber: row.MatchWeekNumber,
			MatchKickoffAt:  row.MatchKickoffAt,
		})
	}

	return out, nil
}

func (r *PredictionRepository) Upsert(ctx context.Context, p prediction.Prediction) error {
	insertModel := predictionInsertModel{
		PublicID:      p.ID,
		UserID:        p.UserID,
		MatchID:       p.MatchID,
		LeagueID:      p.LeagueID,
		PredictedHome: p.PredictedHome,
		PredictedAway: p.PredictedAway,
		ScorePoints:   p.ScorePoints,
		ResultPoints:  p.ResultPoints,
		BonusPoints:   p.BonusPoints,
		TotalPoints:   p.TotalPoints,
		IsProcessed:   p.IsProcessed,
	}
	query, args, err := qb.InsertModel("predictions", insertModel, `ON CONFLICT (user_public_id, match_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    predicted_home = EXCLUDED.predicted_home,
    predicted_away = EXCLUDED.predicted_away,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert prediction query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}

	return nil
}
