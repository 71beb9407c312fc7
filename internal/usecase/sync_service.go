package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/matchkick/prediction-league/internal/domain/gameweek"
	"github.com/matchkick/prediction-league/internal/domain/league"
	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/team"
	"github.com/matchkick/prediction-league/internal/platform/id"
	"github.com/matchkick/prediction-league/internal/platform/logging"
)

// FixtureProvider is the outbound port to the external fixture feed.
type FixtureProvider interface {
	FetchFixtures(ctx context.Context, leagueRefID int64, weekNumber int) ([]ProviderFixture, error)
}

// ProviderFixture is one fixture as reported by the feed.
type ProviderFixture struct {
	MatchRefID    int64
	WeekNumber    int
	HomeTeamName  string
	AwayTeamName  string
	HomeTeamRefID int64
	AwayTeamRefID int64
	KickoffAt     time.Time
	Venue         string
	Status        string
	HomeScore     *int
	AwayScore     *int
}

const (
	SyncActionCreate      = "CREATE"
	SyncActionUpdate      = "UPDATE"
	SyncActionSkip        = "SKIP"
	SyncActionUnmatchable = "UNMATCHABLE"

	syncStatusSuccess = "success"
	syncStatusFailed  = "failed"
	syncStatusSkipped = "skipped"
)

// SyncPlan is the read-only diff between the feed and local matches
// for one (league, week) pair.
type SyncPlan struct {
	LeagueID       string          `json:"league_id"`
	WeekNumber     int             `json:"week_number"`
	Entries        []SyncPlanEntry `json:"entries"`
	UnmatchedTeams []string        `json:"unmatched_teams,omitempty"`
	CreateCount    int             `json:"create_count"`
	UpdateCount    int             `json:"update_count"`
	SkipCount      int             `json:"skip_count"`
}

type SyncPlanEntry struct {
	Action       string    `json:"action"`
	MatchID      string    `json:"match_id,omitempty"`
	MatchRefID   int64     `json:"match_ref_id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	HomeTeamID   string    `json:"home_team_id,omitempty"`
	AwayTeamID   string    `json:"away_team_id,omitempty"`
	KickoffAt    time.Time `json:"kickoff_at"`
	Venue        string    `json:"venue,omitempty"`
	Status       string    `json:"status"`
	HomeScore    *int      `json:"home_score,omitempty"`
	AwayScore    *int      `json:"away_score,omitempty"`
	CanSync      bool      `json:"can_sync"`
	Reason       string    `json:"reason,omitempty"`
	ChangedField []string  `json:"changed_fields,omitempty"`
}

// SyncExecution reports a partial-success apply of a plan.
type SyncExecution struct {
	LeagueID   string   `json:"league_id"`
	WeekNumber int      `json:"week_number"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// SyncService reconciles the external fixture feed with local matches
// and gameweek links.
type SyncService struct {
	leagueRepo   league.Repository
	teamRepo     team.Repository
	matchRepo    match.Repository
	gameweekRepo gameweek.Repository
	provider     FixtureProvider
	idGen        id.Generator
	newMatcher   func([]team.Team) TeamMatcher
	logger       *logging.Logger
	now          func() time.Time
}

func NewSyncService(
	leagueRepo league.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	gameweekRepo gameweek.Repository,
	provider FixtureProvider,
	idGen id.Generator,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SyncService{
		leagueRepo:   leagueRepo,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		gameweekRepo: gameweekRepo,
		provider:     provider,
		idGen:        idGen,
		newMatcher:   func(teams []team.Team) TeamMatcher { return NewNameMatcher(teams) },
		logger:       logger,
		now:          time.Now,
	}
}

// WithMatcher swaps the team resolution strategy.
func (s *SyncService) WithMatcher(factory func([]team.Team) TeamMatcher) *SyncService {
	if factory != nil {
		s.newMatcher = factory
	}
	return s
}

// PrepareGameweek diffs feed fixtures against local matches without
// writing anything. Fixtures whose teams cannot be resolved become
// UNMATCHABLE entries instead of failing the plan.
func (s *SyncService) PrepareGameweek(ctx context.Context, leagueID string, weekNumber int) (SyncPlan, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.PrepareGameweek")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return SyncPlan{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if weekNumber < 1 {
		return SyncPlan{}, fmt.Errorf("%w: week number must be >= 1", ErrInvalidInput)
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return SyncPlan{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return SyncPlan{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	if item.LeagueRefID <= 0 {
		return SyncPlan{}, fmt.Errorf("%w: league %s has no feed mapping", ErrDependencyUnavailable, leagueID)
	}

	fixtures, err := s.provider.FetchFixtures(ctx, item.LeagueRefID, weekNumber)
	if err != nil {
		return SyncPlan{}, fmt.Errorf("fetch fixtures: %w", err)
	}

	teams, err := s.teamRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return SyncPlan{}, fmt.Errorf("list teams: %w", err)
	}
	matcher := s.newMatcher(teams)

	local, err := s.matchRepo.ListByLeagueAndWeek(ctx, leagueID, weekNumber)
	if err != nil {
		return SyncPlan{}, fmt.Errorf("list matches: %w", err)
	}
	byRefID := make(map[int64]match.Match, len(local))
	byPair := make(map[string]match.Match, len(local))
	for _, m := range local {
		if m.MatchRefID > 0 {
			byRefID[m.MatchRefID] = m
		}
		byPair[m.HomeTeamID+"|"+m.AwayTeamID] = m
	}

	plan := SyncPlan{
		LeagueID:   leagueID,
		WeekNumber: weekNumber,
		Entries:    make([]SyncPlanEntry, 0, len(fixtures)),
	}
	unmatched := make(map[string]struct{})

	for _, fx := range fixtures {
		entry := SyncPlanEntry{
			MatchRefID: fx.MatchRefID,
			HomeTeam:   fx.HomeTeamName,
			AwayTeam:   fx.AwayTeamName,
			KickoffAt:  fx.KickoffAt.UTC(),
			Venue:      fx.Venue,
			Status:     match.NormalizeStatus(fx.Status),
			HomeScore:  fx.HomeScore,
			AwayScore:  fx.AwayScore,
		}

		homeID, homeOK := matcher.MatchTeam(fx.HomeTeamName, fx.HomeTeamRefID)
		awayID, awayOK := matcher.MatchTeam(fx.AwayTeamName, fx.AwayTeamRefID)
		if !homeOK || !awayOK {
			entry.Action = SyncActionUnmatchable
			entry.Reason = "team could not be resolved"
			if !homeOK {
				unmatched[fx.HomeTeamName] = struct{}{}
			}
			if !awayOK {
				unmatched[fx.AwayTeamName] = struct{}{}
			}
			plan.Entries = append(plan.Entries, entry)
			continue
		}
		entry.HomeTeamID = homeID
		entry.AwayTeamID = awayID

		existing, found := byRefID[fx.MatchRefID]
		if !found {
			existing, found = byPair[homeID+"|"+awayID]
		}
		if !found {
			entry.Action = SyncActionCreate
			entry.CanSync = true
			plan.CreateCount++
			plan.Entries = append(plan.Entries, entry)
			continue
		}

		entry.MatchID = existing.ID
		changes := diffMatch(existing, entry)
		if len(changes) == 0 {
			entry.Action = SyncActionSkip
			plan.SkipCount++
			plan.Entries = append(plan.Entries, entry)
			continue
		}

		entry.Action = SyncActionUpdate
		entry.CanSync = true
		entry.ChangedField = changes
		plan.UpdateCount++
		plan.Entries = append(plan.Entries, entry)
	}

	for name := range unmatched {
		plan.UnmatchedTeams = append(plan.UnmatchedTeams, name)
	}
	sort.Strings(plan.UnmatchedTeams)

	return plan, nil
}

// ExecutePlan applies a plan. Entries with CanSync=false are skipped;
// per-entry failures are reported and do not abort the rest.
func (s *SyncService) ExecutePlan(ctx context.Context, plan SyncPlan) (SyncExecution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ExecutePlan")
	defer span.End()

	if strings.TrimSpace(plan.LeagueID) == "" || plan.WeekNumber < 1 {
		return SyncExecution{}, fmt.Errorf("%w: plan needs league id and week number", ErrInvalidInput)
	}

	result := SyncExecution{
		LeagueID:   plan.LeagueID,
		WeekNumber: plan.WeekNumber,
	}

	gw, err := s.ensureGameweek(ctx, plan)
	if err != nil {
		return SyncExecution{}, err
	}

	for _, entry := range plan.Entries {
		if !entry.CanSync || (entry.Action != SyncActionCreate && entry.Action != SyncActionUpdate) {
			result.Skipped++
			continue
		}

		var applyErr error
		switch entry.Action {
		case SyncActionCreate:
			applyErr = s.applyCreate(ctx, plan, gw, entry)
			if applyErr == nil {
				result.Created++
			}
		case SyncActionUpdate:
			applyErr = s.applyUpdate(ctx, plan, gw, entry)
			if applyErr == nil {
				result.Updated++
			}
		}
		if applyErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("fixture ref=%d: %v", entry.MatchRefID, applyErr))
		}
	}

	s.logger.InfoContext(ctx, "gameweek sync executed",
		"league_id", plan.LeagueID,
		"week_number", plan.WeekNumber,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)

	return result, nil
}

// SyncGameweek prepares and immediately applies the plan for one
// (league, week).
func (s *SyncService) SyncGameweek(ctx context.Context, leagueID string, weekNumber int) (SyncExecution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncGameweek")
	defer span.End()

	plan, err := s.PrepareGameweek(ctx, leagueID, weekNumber)
	if err != nil {
		return SyncExecution{}, err
	}

	return s.ExecutePlan(ctx, plan)
}

func (s *SyncService) ensureGameweek(ctx context.Context, plan SyncPlan) (gameweek.GameWeek, error) {
	gw := gameweek.GameWeek{
		LeagueID:   plan.LeagueID,
		WeekNumber: plan.WeekNumber,
	}
	for _, entry := range plan.Entries {
		if entry.KickoffAt.IsZero() {
			continue
		}
		if gw.StartsAt.IsZero() || entry.KickoffAt.Before(gw.StartsAt) {
			gw.StartsAt = entry.KickoffAt
		}
		if entry.KickoffAt.After(gw.EndsAt) {
			gw.EndsAt = entry.KickoffAt
		}
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return gameweek.GameWeek{}, fmt.Errorf("generate gameweek id: %w", err)
	}
	gw.ID = newID

	stored, err := s.gameweekRepo.Upsert(ctx, gw)
	if err != nil {
		return gameweek.GameWeek{}, fmt.Errorf("upsert gameweek: %w", err)
	}
	return stored, nil
}

func (s *SyncService) applyCreate(ctx context.Context, plan SyncPlan, gw gameweek.GameWeek, entry SyncPlanEntry) error {
	// Re-check under execute so replaying a stale plan cannot insert
	// a duplicate for an already linked fixture.
	if entry.MatchRefID > 0 {
		if existing, found, err := s.matchRepo.GetByRefID(ctx, plan.LeagueID, entry.MatchRefID); err != nil {
			return fmt.Errorf("check existing match: %w", err)
		} else if found {
			entry.MatchID = existing.ID
			return s.linkMatch(ctx, gw, existing.ID)
		}
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate match id: %w", err)
	}

	m := match.Match{
		ID:         newID,
		LeagueID:   plan.LeagueID,
		WeekNumber: plan.WeekNumber,
		HomeTeam:   entry.HomeTeam,
		AwayTeam:   entry.AwayTeam,
		HomeTeamID: entry.HomeTeamID,
		AwayTeamID: entry.AwayTeamID,
		MatchRefID: entry.MatchRefID,
		KickoffAt:  entry.KickoffAt,
		Venue:      entry.Venue,
		Status:     entry.Status,
		HomeScore:  entry.HomeScore,
		AwayScore:  entry.AwayScore,
	}
	if err := s.matchRepo.Create(ctx, m); err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	return s.linkMatch(ctx, gw, newID)
}

func (s *SyncService) applyUpdate(ctx context.Context, plan SyncPlan, gw gameweek.GameWeek, entry SyncPlanEntry) error {
	existing, found, err := s.matchRepo.GetByID(ctx, plan.LeagueID, entry.MatchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if !found {
		return fmt.Errorf("match %s disappeared", entry.MatchID)
	}

	scoreChanged := !equalScore(existing.HomeScore, entry.HomeScore) || !equalScore(existing.AwayScore, entry.AwayScore)

	existing.KickoffAt = entry.KickoffAt
	existing.Venue = entry.Venue
	existing.Status = entry.Status
	existing.HomeScore = entry.HomeScore
	existing.AwayScore = entry.AwayScore
	if scoreChanged && existing.IsSynced {
		// A corrected result invalidates everything derived from the
		// old score; a standings rebuild repairs it.
		existing.IsSynced = false
	}

	if err := s.matchRepo.Update(ctx, existing); err != nil {
		return fmt.Errorf("update match: %w", err)
	}

	return s.linkMatch(ctx, gw, existing.ID)
}

func (s *SyncService) linkMatch(ctx context.Context, gw gameweek.GameWeek, matchID string) error {
	link := gameweek.Link{
		GameWeekID: gw.ID,
		MatchID:    matchID,
		IsSynced:   true,
	}
	if err := s.gameweekRepo.UpsertLink(ctx, link); err != nil {
		return fmt.Errorf("upsert gameweek link: %w", err)
	}
	return nil
}

func diffMatch(existing match.Match, entry SyncPlanEntry) []string {
	var changes []string
	if !existing.KickoffAt.UTC().Equal(entry.KickoffAt) {
		changes = append(changes, "kickoff_at")
	}
	if strings.TrimSpace(existing.Venue) != strings.TrimSpace(entry.Venue) {
		changes = append(changes, "venue")
	}
	if match.NormalizeStatus(existing.Status) != entry.Status {
		changes = append(changes, "status")
	}
	if !equalScore(existing.HomeScore, entry.HomeScore) {
		changes = append(changes, "home_score")
	}
	if !equalScore(existing.AwayScore, entry.AwayScore) {
		changes = append(changes, "away_score")
	}
	return changes
}

func equalScore(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SeasonSyncInput drives a multi-gameweek sync run.
type SeasonSyncInput struct {
	LeagueID   string
	Weeks      []int
	MaxWorkers int
	DryRun     bool
}

type SeasonSyncResult struct {
	LeagueID     string               `json:"league_id"`
	TaskCount    int                  `json:"task_count"`
	SuccessCount int                  `json:"success_count"`
	FailedCount  int                  `json:"failed_count"`
	SkippedCount int                  `json:"skipped_count"`
	WorkerCount  int                  `json:"worker_count"`
	DryRun       bool                 `json:"dry_run"`
	Tasks        []SeasonSyncTaskItem `json:"tasks"`
}

type SeasonSyncTaskItem struct {
	WeekNumber int    `json:"week_number"`
	Status     string `json:"status"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// SyncSeason runs prepare+execute for many gameweeks through a
// bounded worker pool. Dry runs stop after prepare and report the
// planned counts.
func (s *SyncService) SyncSeason(ctx context.Context, input SeasonSyncInput) (SeasonSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncSeason")
	defer span.End()

	leagueID := strings.TrimSpace(input.LeagueID)
	if leagueID == "" {
		return SeasonSyncResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	weeks := normalizeWeeks(input.Weeks)
	if len(weeks) == 0 {
		return SeasonSyncResult{}, fmt.Errorf("%w: at least one week is required", ErrInvalidInput)
	}

	workerCount := input.MaxWorkers
	if workerCount < 1 {
		workerCount = 4
	}
	if workerCount > len(weeks) {
		workerCount = len(weeks)
	}

	result := SeasonSyncResult{
		LeagueID:    leagueID,
		TaskCount:   len(weeks),
		WorkerCount: workerCount,
		DryRun:      input.DryRun,
		Tasks:       make([]SeasonSyncTaskItem, 0, len(weeks)),
	}

	results := make(chan SeasonSyncTaskItem, len(weeks))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SeasonSyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, week := range weeks {
		week := week
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := SeasonSyncTaskItem{WeekNumber: week}

			row.Status, row.Created, row.Updated, row.Skipped, row.Message = s.runSeasonTask(ctx, leagueID, week, input.DryRun)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case syncStatusSuccess:
				successCount.Add(1)
			case syncStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return SeasonSyncResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].WeekNumber < result.Tasks[j].WeekNumber
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	return result, nil
}

func (s *SyncService) runSeasonTask(ctx context.Context, leagueID string, week int, dryRun bool) (status string, created, updated, skipped int, message string) {
	plan, err := s.PrepareGameweek(ctx, leagueID, week)
	if err != nil {
		return syncStatusFailed, 0, 0, 0, err.Error()
	}

	if dryRun {
		if plan.CreateCount == 0 && plan.UpdateCount == 0 {
			return syncStatusSkipped, 0, 0, plan.SkipCount, "no changes planned"
		}
		return syncStatusSuccess, plan.CreateCount, plan.UpdateCount, plan.SkipCount, "dry run"
	}

	execution, err := s.ExecutePlan(ctx, plan)
	if err != nil {
		return syncStatusFailed, 0, 0, 0, err.Error()
	}
	if len(execution.Errors) > 0 {
		return syncStatusFailed, execution.Created, execution.Updated, execution.Skipped, strings.Join(execution.Errors, "; ")
	}
	if execution.Created == 0 && execution.Updated == 0 {
		return syncStatusSkipped, 0, 0, execution.Skipped, "no fixture changes"
	}
	return syncStatusSuccess, execution.Created, execution.Updated, execution.Skipped, ""
}

func normalizeWeeks(weeks []int) []int {
	seen := make(map[int]struct{}, len(weeks))
	out := make([]int, 0, len(weeks))
	for _, week := range weeks {
		if week < 1 {
			continue
		}
		if _, ok := seen[week]; ok {
			continue
		}
		seen[week] = struct{}{}
		out = append(out, week)
	}
	sort.Ints(out)
	return out
}
