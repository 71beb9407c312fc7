package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/match"
)

func newPredictionFixture(kickoff time.Time, status string) (*stubStore, *PredictionService) {
	store := newStubStore()
	store.matches = []match.Match{
		{
			ID: "m1", LeagueID: "pl", WeekNumber: 1,
			HomeTeamID: "team-a", AwayTeamID: "team-b",
			KickoffAt: kickoff, Status: status,
		},
	}

	svc := NewPredictionService(
		&stubMatchRepo{store: store},
		&stubPredictionRepo{store: store},
		&stubIDGen{},
		4*time.Hour,
		nil,
	)
	return store, svc
}

func TestPredictionServiceSubmit(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	store, svc := newPredictionFixture(now.Add(24*time.Hour), match.StatusScheduled)
	svc.now = fixedNow(now)

	p, err := svc.Submit(context.Background(), "u1", "pl", "m1", 2, 1)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if p.ID == "" || p.PredictedHome != 2 || p.PredictedAway != 1 {
		t.Fatalf("prediction = %+v", p)
	}

	// Resubmitting before lock updates in place, no second row.
	updated, err := svc.Submit(context.Background(), "u1", "pl", "m1", 0, 0)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if updated.ID != p.ID {
		t.Fatalf("resubmit created new prediction %s, want %s", updated.ID, p.ID)
	}
	if len(store.predictions) != 1 {
		t.Fatalf("stored predictions = %d, want 1", len(store.predictions))
	}
	if store.predictions[0].PredictedHome != 0 || store.predictions[0].PredictedAway != 0 {
		t.Fatalf("stored prediction = %+v, want 0-0", store.predictions[0])
	}
}

func TestPredictionServiceLockWindow(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"well before lock", kickoff.Add(-5 * time.Hour), nil},
		{"exactly at lock boundary", kickoff.Add(-4 * time.Hour), ErrStateConflict},
		{"inside lock window", kickoff.Add(-30 * time.Minute), ErrStateConflict},
		{"after kickoff", kickoff.Add(10 * time.Minute), ErrStateConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, svc := newPredictionFixture(kickoff, match.StatusScheduled)
			svc.now = fixedNow(tt.now)

			_, err := svc.Submit(context.Background(), "u1", "pl", "m1", 1, 0)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Submit: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPredictionServiceRejectsStartedMatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)
	for _, status := range []string{match.StatusLive, match.StatusFinished, match.StatusPostponed} {
		_, svc := newPredictionFixture(now.Add(48*time.Hour), status)
		svc.now = fixedNow(now)

		if _, err := svc.Submit(context.Background(), "u1", "pl", "m1", 1, 0); !errors.Is(err, ErrStateConflict) {
			t.Fatalf("status %s: err = %v, want ErrStateConflict", status, err)
		}
	}
}

func TestPredictionServiceValidation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	_, svc := newPredictionFixture(now.Add(24*time.Hour), match.StatusScheduled)
	svc.now = fixedNow(now)

	if _, err := svc.Submit(context.Background(), "", "pl", "m1", 1, 0); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("missing user err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Submit(context.Background(), "u1", "pl", "m1", -1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative score err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Submit(context.Background(), "u1", "pl", "missing", 1, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown match err = %v, want ErrNotFound", err)
	}
}

func TestPredictionServiceGet(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	_, svc := newPredictionFixture(now.Add(24*time.Hour), match.StatusScheduled)
	svc.now = fixedNow(now)

	if _, err := svc.Get(context.Background(), "u1", "m1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if _, err := svc.Submit(context.Background(), "u1", "pl", "m1", 3, 2); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	p, err := svc.Get(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.PredictedHome != 3 || p.PredictedAway != 2 {
		t.Fatalf("prediction = %+v, want 3-2", p)
	}
}
