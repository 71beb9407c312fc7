package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/matchkick/prediction-league/internal/domain/match"
	qb "github.com/matchkick/prediction-league/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, leagueID, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("public_id", matchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}

	return matchFromRow(row), true, nil
}

func (r *MatchRepository) GetByRefID(ctx context.Context, leagueID string, matchRefID int64) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("match_ref_id", matchRefID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by ref id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by ref id: %w", err)
	}

	return matchFromRow(row), true, nil
}

func (r *MatchRepository) ListByLeague(ctx context.Context, leagueID string) ([]match.Match, error) {
	return r.list(ctx, qb.Eq("league_public_id", leagueID))
}

func (r *MatchRepository) ListByLeagueAndWeek(ctx context.Context, leagueID string, weekNumber int) ([]match.Match, error) {
	return r.list(ctx,
		qb.Eq("league_public_id", leagueID),
		qb.Eq("week_number", weekNumber),
	)
}

func (r *MatchRepository) ListFinishedByLeague(ctx context.Context, leagueID string) ([]match.Match, error) {
	return r.list(ctx,
		qb.Eq("league_public_id", leagueID),
		qb.Eq("status", match.StatusFinished),
		qb.Expr("home_score IS NOT NULL"),
		qb.Expr("away_score IS NOT NULL"),
	)
}

func (r *MatchRepository) list(ctx context.Context, conditions ...qb.Condition) ([]match.Match, error) {
	conditions = append(conditions, qb.IsNull("deleted_at"))
	query, args, err := qb.Select("*").From("matches").
		Where(conditions...).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}

	return out, nil
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	insertModel := matchInsertModel{
		PublicID:   m.ID,
		LeagueID:   m.LeagueID,
		WeekNumber: m.WeekNumber,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		HomeTeamID: stringToNullString(m.HomeTeamID),
		AwayTeamID: stringToNullString(m.AwayTeamID),
		MatchRefID: int64ToNullInt64(m.MatchRefID),
		KickoffAt:  m.KickoffAt,
		Venue:      m.Venue,
		HomeScore:  intPtrToNullInt64(m.HomeScore),
		AwayScore:  intPtrToNullInt64(m.AwayScore),
		Status:     match.NormalizeStatus(m.Status),
		IsSynced:   m.IsSynced,
	}
	query, args, err := qb.InsertModel("matches", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	return nil
}

func (r *MatchRepository) Update(ctx context.Context, m match.Match) error {
	query, args, err := qb.Update("matches").
		Set("week_number", m.WeekNumber).
		Set("home_team", m.HomeTeam).
		Set("away_team", m.AwayTeam).
		Set("home_team_public_id", stringToNullString(m.HomeTeamID)).
		Set("away_team_public_id", stringToNullString(m.AwayTeamID)).
		Set("match_ref_id", int64ToNullInt64(m.MatchRefID)).
		Set("kickoff_at", m.KickoffAt).
		Set("venue", m.Venue).
		Set("home_score", intPtrToNullInt64(m.HomeScore)).
		Set("away_score", intPtrToNullInt64(m.AwayScore)).
		Set("status", match.NormalizeStatus(m.Status)).
		Set("is_synced", m.IsSynced).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", m.ID),
			qb.Eq("league_public_id", m.LeagueID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update match: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update match %s: not found", m.ID)
	}

	return nil
}

func (r *MatchRepository) MarkSyncedByLeague(ctx context.Context, leagueID string) error {
	query, args, err := qb.Update("matches").
		Set("is_synced", true).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("status", match.StatusFinished),
			qb.Expr("home_score IS NOT NULL"),
			qb.Expr("away_score IS NOT NULL"),
			qb.Eq("is_synced", false),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark matches synced query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark matches synced: %w", err)
	}

	return nil
}
