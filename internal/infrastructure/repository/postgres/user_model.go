package postgres

import "time"

type userTableModel struct {
	ID                 int64      `db:"id"`
	PublicID           string     `db:"public_id"`
	Name               string     `db:"name"`
	TotalPoints        int        `db:"total_points"`
	WeeklyPoints       int        `db:"weekly_points"`
	TotalPredictions   int        `db:"total_predictions"`
	CorrectPredictions int        `db:"correct_predictions"`
	CurrentStreak      int        `db:"current_streak"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	DeletedAt          *time.Time `db:"deleted_at"`
}
