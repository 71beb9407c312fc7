package postgres

import (
	"database/sql"
	"time"
)

type teamTableModel struct {
	ID        int64         `db:"id"`
	PublicID  string        `db:"public_id"`
	Name      string        `db:"name"`
	ShortName string        `db:"short_name"`
	TeamRefID sql.NullInt64 `db:"team_ref_id"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
	DeletedAt *time.Time    `db:"deleted_at"`
}
