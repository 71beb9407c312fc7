package usecase

// PointsBreakdown is the scored value of one prediction against the
// final result.
type PointsBreakdown struct {
	ScorePoints  int
	ResultPoints int
	BonusPoints  int
	Total        int
}

const (
	exactScorePoints    = 5
	correctResultPoints = 3
)

// CalculatePoints scores a predicted result against the actual one.
// An exact scoreline earns both tiers, a correct outcome direction
// earns the result tier only, anything else earns nothing. The
// function is pure; callers validate that scores are non-negative.
func CalculatePoints(predictedHome, predictedAway, actualHome, actualAway int) PointsBreakdown {
	var breakdown PointsBreakdown

	if outcome(predictedHome, predictedAway) == outcome(actualHome, actualAway) {
		breakdown.ResultPoints = correctResultPoints
	}
	if predictedHome == actualHome && predictedAway == actualAway {
		breakdown.ScorePoints = exactScorePoints
	}

	breakdown.Total = breakdown.ScorePoints + breakdown.ResultPoints + breakdown.BonusPoints
	return breakdown
}

func outcome(home, away int) int {
	switch {
	case home > away:
		return 1
	case home < away:
		return -1
	default:
		return 0
	}
}
