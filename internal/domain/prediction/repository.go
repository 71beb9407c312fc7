package prediction

import (
	"context"
	"time"
)

// Repository describes prediction persistence needs from use cases.
type Repository interface {
	GetByUserAndMatch(ctx context.Context, userID, matchID string) (Prediction, bool, error)
	ListUnprocessedByMatch(ctx context.Context, matchID string) ([]Prediction, error)
	ListProcessedByUser(ctx context.Context, userID string) ([]ProcessedPrediction, error)
	Upsert(ctx context.Context, p Prediction) error
}

// ProcessedPrediction joins a settled prediction with the match facts
// needed to rebuild user and group aggregates.
type ProcessedPrediction struct {
	Prediction
	MatchLeagueID   string
	MatchWeekNumber int
	MatchKickoffAt  time.Time
}
