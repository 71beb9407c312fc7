package usecase

import (
	"sort"
	"strings"

	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/standing"
)

const formLength = 5

// applyResultToRow folds one finished result into a standing row.
// Negative deltas back a result out again, which keeps score
// corrections symmetric with settlements.
func applyResultToRow(row *standing.Standing, goalsFor, goalsAgainst, direction int) {
	row.Played += direction
	row.GoalsFor += direction * goalsFor
	row.GoalsAgainst += direction * goalsAgainst

	switch {
	case goalsFor > goalsAgainst:
		row.Won += direction
	case goalsFor < goalsAgainst:
		row.Lost += direction
	default:
		row.Draw += direction
	}

	row.GoalDifference = row.GoalsFor - row.GoalsAgainst
	row.Points = 3*row.Won + row.Draw
}

// rankStandings sorts rows into table order and assigns positions.
// Rows with identical points, goal difference and goals for share a
// position; team id ascending keeps the order deterministic.
func rankStandings(rows []standing.Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].GoalDifference != rows[j].GoalDifference {
			return rows[i].GoalDifference > rows[j].GoalDifference
		}
		if rows[i].GoalsFor != rows[j].GoalsFor {
			return rows[i].GoalsFor > rows[j].GoalsFor
		}
		return rows[i].TeamID < rows[j].TeamID
	})

	position := 0
	for idx := range rows {
		if idx == 0 || !sameRankKey(rows[idx], rows[idx-1]) {
			position = idx + 1
		}
		rows[idx].Position = position
	}
}

func sameRankKey(a, b standing.Standing) bool {
	return a.Points == b.Points && a.GoalDifference == b.GoalDifference && a.GoalsFor == b.GoalsFor
}

// formString builds the W/D/L string for one team from finished
// matches sorted by kickoff ascending. Only the last formLength
// results are kept, most recent last.
func formString(finished []match.Match, teamID string) string {
	var letters []byte
	for _, m := range finished {
		if !m.HasResult() {
			continue
		}

		var goalsFor, goalsAgainst int
		switch teamID {
		case m.HomeTeamID:
			goalsFor, goalsAgainst = *m.HomeScore, *m.AwayScore
		case m.AwayTeamID:
			goalsFor, goalsAgainst = *m.AwayScore, *m.HomeScore
		default:
			continue
		}

		switch {
		case goalsFor > goalsAgainst:
			letters = append(letters, 'W')
		case goalsFor < goalsAgainst:
			letters = append(letters, 'L')
		default:
			letters = append(letters, 'D')
		}
	}

	if len(letters) > formLength {
		letters = letters[len(letters)-formLength:]
	}
	return string(letters)
}

// sortMatchesByKickoff orders matches chronologically, breaking
// kickoff ties by match id so replays stay deterministic.
func sortMatchesByKickoff(matches []match.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].KickoffAt.Equal(matches[j].KickoffAt) {
			return matches[i].KickoffAt.Before(matches[j].KickoffAt)
		}
		return strings.Compare(matches[i].ID, matches[j].ID) < 0
	})
}
