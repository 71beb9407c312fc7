package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/matchkick/prediction-league/internal/domain/group"
	"github.com/matchkick/prediction-league/internal/domain/user"
)

func newLeaderboardFixture() (*stubStore, *LeaderboardService) {
	store := newStubStore()
	store.users["u1"] = user.User{ID: "u1", Name: "Ana"}
	store.users["u2"] = user.User{ID: "u2", Name: "Ben"}
	store.users["u3"] = user.User{ID: "u3", Name: "Cat"}
	store.groups = []group.Group{{ID: "g1", LeagueID: "pl", Name: "Office"}}
	store.members = []group.Member{
		{GroupID: "g1", UserID: "u3", PointsByLeague: map[string]int{"pl": 11}},
		{GroupID: "g1", UserID: "u1", PointsByLeague: map[string]int{"pl": 11}, PointsByGameweek: map[string]map[int]int{"pl": {2: 8}}},
		{GroupID: "g1", UserID: "u2", PointsByLeague: map[string]int{"pl": 3}, PointsByGameweek: map[string]map[int]int{"pl": {2: 3}}},
	}

	svc := NewLeaderboardService(&stubGroupRepo{store: store}, &stubUserRepo{store: store}, nil)
	return store, svc
}

func TestLeaderboardServiceSharedRanks(t *testing.T) {
	t.Parallel()

	_, svc := newLeaderboardFixture()

	board, err := svc.GroupLeaderboard(context.Background(), "g1", "pl", 0)
	if err != nil {
		t.Fatalf("GroupLeaderboard: %v", err)
	}
	if board.GroupName != "Office" || len(board.Rows) != 3 {
		t.Fatalf("board = %+v", board)
	}

	want := []LeaderboardRow{
		{Rank: 1, UserID: "u1", UserName: "Ana", Points: 11},
		{Rank: 1, UserID: "u3", UserName: "Cat", Points: 11},
		{Rank: 3, UserID: "u2", UserName: "Ben", Points: 3},
	}
	for idx, w := range want {
		if board.Rows[idx] != w {
			t.Fatalf("row %d = %+v, want %+v", idx, board.Rows[idx], w)
		}
	}
}

func TestLeaderboardServiceWeekFilter(t *testing.T) {
	t.Parallel()

	_, svc := newLeaderboardFixture()

	board, err := svc.GroupLeaderboard(context.Background(), "g1", "pl", 2)
	if err != nil {
		t.Fatalf("GroupLeaderboard: %v", err)
	}

	want := []LeaderboardRow{
		{Rank: 1, UserID: "u1", UserName: "Ana", Points: 8},
		{Rank: 2, UserID: "u2", UserName: "Ben", Points: 3},
		{Rank: 3, UserID: "u3", UserName: "Cat", Points: 0},
	}
	for idx, w := range want {
		if board.Rows[idx] != w {
			t.Fatalf("row %d = %+v, want %+v", idx, board.Rows[idx], w)
		}
	}
}

func TestLeaderboardServiceErrors(t *testing.T) {
	t.Parallel()

	_, svc := newLeaderboardFixture()

	if _, err := svc.GroupLeaderboard(context.Background(), "missing", "pl", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown group err = %v, want ErrNotFound", err)
	}
	if _, err := svc.GroupLeaderboard(context.Background(), "g1", "laliga", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out-of-scope league err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.GroupLeaderboard(context.Background(), "g1", "", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty league err = %v, want ErrInvalidInput", err)
	}
}
