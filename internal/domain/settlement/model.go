package settlement

import (
	"time"

	"github.com/matchkick/prediction-league/internal/domain/prediction"
	"github.com/matchkick/prediction-league/internal/domain/standing"
)

// Plan is the full set of writes produced by settling one finished
// match. It is computed in memory and applied in a single transaction
// so a failure leaves no partial settlement behind.
type Plan struct {
	LeagueID    string
	MatchID     string
	HomeScore   int
	AwayScore   int
	Predictions []prediction.Prediction
	UserDeltas  []UserDelta
	Members     []MemberPoints
	Standings   []standing.Standing
	SettledAt   time.Time
}

// UserDelta is the aggregate increment for one affected user.
type UserDelta struct {
	UserID           string
	PointsDelta      int
	PredictionsDelta int
	CorrectDelta     int
	ResetStreak      bool
	StreakDelta      int
}

// MemberPoints carries the rewritten point caches for one group
// membership touched by the settlement.
type MemberPoints struct {
	GroupID          string
	UserID           string
	PointsByLeague   map[string]int
	PointsByGameweek map[string]map[int]int
}
