package user

import "time"

// User carries the denormalized prediction aggregates shown on
// leaderboards. They are maintained by settlement and can be rebuilt
// from processed predictions.
type User struct {
	ID                 string
	Name               string
	TotalPoints        int
	WeeklyPoints       int
	TotalPredictions   int
	CorrectPredictions int
	CurrentStreak      int
	UpdatedAt          time.Time
}

// Principal identifies the caller of an authorized endpoint.
type Principal struct {
	UserID string
	Name   string
}
