package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/matchkick/prediction-league/internal/domain/group"
)

type groupTableModel struct {
	ID          int64          `db:"id"`
	PublicID    string         `db:"public_id"`
	LeagueID    sql.NullString `db:"league_public_id"`
	OwnerUserID string         `db:"owner_user_public_id"`
	Name        string         `db:"name"`
	InviteCode  string         `db:"invite_code"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	DeletedAt   *time.Time     `db:"deleted_at"`
}

type groupMemberTableModel struct {
	ID               int64      `db:"id"`
	GroupID          string     `db:"group_public_id"`
	UserID           string     `db:"user_public_id"`
	PointsByLeague   string     `db:"points_by_league"`
	PointsByGameweek string     `db:"points_by_gameweek"`
	JoinedAt         time.Time  `db:"joined_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

func groupFromRow(row groupTableModel) group.Group {
	return group.Group{
		ID:          row.PublicID,
		LeagueID:    nullStringToString(row.LeagueID),
		OwnerUserID: row.OwnerUserID,
		Name:        row.Name,
		InviteCode:  row.InviteCode,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func groupMemberFromRow(row groupMemberTableModel) group.Member {
	return group.Member{
		GroupID:          row.GroupID,
		UserID:           row.UserID,
		PointsByLeague:   decodeLeaguePoints(row.PointsByLeague),
		PointsByGameweek: decodeGameweekPoints(row.PointsByGameweek),
		JoinedAt:         row.JoinedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func encodeLeaguePoints(value map[string]int) (string, error) {
	if len(value) == 0 {
		return "{}", nil
	}
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode league points: %w", err)
	}
	return string(encoded), nil
}

func decodeLeaguePoints(raw string) map[string]int {
	raw = strings.TrimSpace(raw)
	out := make(map[string]int)
	if raw == "" {
		return out
	}
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return make(map[string]int)
	}
	return out
}

func encodeGameweekPoints(value map[string]map[int]int) (string, error) {
	if len(value) == 0 {
		return "{}", nil
	}
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode gameweek points: %w", err)
	}
	return string(encoded), nil
}

func decodeGameweekPoints(raw string) map[string]map[int]int {
	raw = strings.TrimSpace(raw)
	out := make(map[string]map[int]int)
	if raw == "" {
		return out
	}
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return make(map[string]map[int]int)
	}
	return out
}
