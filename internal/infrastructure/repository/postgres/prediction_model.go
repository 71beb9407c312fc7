package postgres

import (
	"time"

	"github.com/matchkick/prediction-league/internal/domain/prediction"
)

type predictionTableModel struct {
	ID            int64      `db:"id"`
	PublicID      string     `db:"public_id"`
	UserID        string     `db:"user_public_id"`
	MatchID       string     `db:"match_public_id"`
	LeagueID      string     `db:"league_public_id"`
	PredictedHome int        `db:"predicted_home"`
	PredictedAway int        `db:"predicted_away"`
	ScorePoints   int        `db:"score_points"`
	ResultPoints  int        `db:"result_points"`
	BonusPoints   int        `db:"bonus_points"`
	TotalPoints   int        `db:"total_points"`
	IsProcessed   bool       `db:"is_processed"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

type predictionInsertModel struct {
	PublicID      string `db:"public_id"`
	UserID        string `db:"user_public_id"`
	MatchID       string `db:"match_public_id"`
	LeagueID      string `db:"league_public_id"`
	PredictedHome int    `db:"predicted_home"`
	PredictedAway int    `db:"predicted_away"`
	ScorePoints   int    `db:"score_points"`
	ResultPoints  int    `db:"result_points"`
	BonusPoints   int    `db:"bonus_points"`
	TotalPoints   int    `db:"total_points"`
	IsProcessed   bool   `db:"is_processed"`
}

// processedPredictionRow joins predictions with match columns needed
// for aggregate rebuilds.
type processedPredictionRow struct {
	predictionTableModel
	MatchLeagueID   string    `db:"match_league_public_id"`
	MatchWeekNumber int       `db:"match_week_number"`
	MatchKickoffAt  time.Time `db:"match_kickoff_at"`
}

func predictionFromRow(row predictionTableModel) prediction.Prediction {
	return prediction.Prediction{
		ID:            row.PublicID,
		UserID:        row.UserID,
		MatchID:       row.MatchID,
		LeagueID:      row.LeagueID,
		PredictedHome: row.PredictedHome,
		PredictedAway: row.PredictedAway,
		ScorePoints:   row.ScorePoints,
		ResultPoints:  row.ResultPoints,
		BonusPoints:   row.BonusPoints,
		TotalPoints:   row.TotalPoints,
		IsProcessed:   row.IsProcessed,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
