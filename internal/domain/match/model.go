package match

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
)

// Match is one scheduled game between two teams in a league.
// IsSynced means the finished result has been folded into standings
// and user points; correcting the score flips it back to false.
type Match struct {
	ID         string
	LeagueID   string
	WeekNumber int
	HomeTeam   string
	AwayTeam   string
	HomeTeamID string
	AwayTeamID string
	MatchRefID int64
	KickoffAt  time.Time
	Venue      string
	HomeScore  *int
	AwayScore  *int
	Status     string
	IsSynced   bool
}

// NormalizeStatus folds the raw feed status vocabulary into the five
// canonical values. Unknown statuses pass through uppercased.
func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	switch status {
	case "", "NS", "TBD", StatusScheduled:
		return StatusScheduled
	case StatusLive, "IN_PLAY", "HT", "1H", "2H", "ET", "BT", "P":
		return StatusLive
	case StatusFinished, "FT", "AET", "PEN":
		return StatusFinished
	case StatusPostponed, "PST":
		return StatusPostponed
	case StatusCancelled, "CANC", "ABANDONED", "ABD", "SUSP", "AWARDED", "WO":
		return StatusCancelled
	default:
		return status
	}
}

func IsLiveStatus(status string) bool {
	return NormalizeStatus(status) == StatusLive
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed:
		return true
	default:
		return false
	}
}

// HasResult reports whether both scores are recorded.
func (m Match) HasResult() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}
