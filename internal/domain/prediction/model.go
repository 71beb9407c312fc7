package prediction

import "time"

// Prediction is one user's score guess for one match.
type Prediction struct {
	ID             string
	UserID         string
	MatchID        string
	LeagueID       string
	PredictedHome  int
	PredictedAway  int
	ScorePoints    int
	ResultPoints   int
	BonusPoints    int
	TotalPoints    int
	IsProcessed    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
