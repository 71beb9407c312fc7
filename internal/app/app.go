package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/matchkick/prediction-league/internal/config"
	"github.com/matchkick/prediction-league/internal/infrastructure/provider/fixturefeed"
	"github.com/matchkick/prediction-league/internal/infrastructure/repository/postgres"
	"github.com/matchkick/prediction-league/internal/interfaces/httpapi"
	"github.com/matchkick/prediction-league/internal/platform/cache"
	idgen "github.com/matchkick/prediction-league/internal/platform/id"
	"github.com/matchkick/prediction-league/internal/platform/logging"
	"github.com/matchkick/prediction-league/internal/platform/resilience"
	"github.com/matchkick/prediction-league/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// App owns the HTTP server and the resources behind it.
type App struct {
	Server *http.Server
	db     *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	leagueRepo := postgres.NewLeagueRepository(db)
	teamRepo := postgres.NewTeamRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	predictionRepo := postgres.NewPredictionRepository(db)
	userRepo := postgres.NewUserRepository(db)
	groupRepo := postgres.NewGroupRepository(db)
	gameweekRepo := postgres.NewGameweekRepository(db)
	standingRepo := postgres.NewStandingRepository(db)
	settlementRepo := postgres.NewSettlementRepository(db)

	store := cache.NewStore(cfg.CacheTTL)
	if !cfg.CacheEnabled {
		store = cache.NewDisabledStore()
	}

	// Settlement and standings rebuilds serialize per league on the
	// same mutex so they never interleave writes for one league.
	leagueLocks := &resilience.KeyedMutex{}
	ids := idgen.NewRandomGenerator()

	var provider usecase.FixtureProvider = disabledFixtureProvider{}
	if cfg.FeedEnabled {
		provider = fixturefeed.NewClient(fixturefeed.ClientConfig{
			BaseURL:    cfg.FeedBaseURL,
			Token:      cfg.FeedToken,
			Timeout:    cfg.FeedTimeout,
			MaxRetries: cfg.FeedMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FeedCircuitEnabled,
				FailureThreshold: cfg.FeedCircuitFailureCount,
				OpenTimeout:      cfg.FeedCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
			},
		})
	}

	leagueSvc := usecase.NewLeagueService(leagueRepo, teamRepo, store, logger)
	matchSvc := usecase.NewMatchService(leagueRepo, matchRepo, logger)
	predictionSvc := usecase.NewPredictionService(matchRepo, predictionRepo, ids, cfg.PredictionLockWindow, logger)
	settlementSvc := usecase.NewSettlementService(matchRepo, teamRepo, predictionRepo, groupRepo, standingRepo, settlementRepo, leagueLocks, logger)
	standingSvc := usecase.NewStandingService(leagueRepo, teamRepo, matchRepo, standingRepo, leagueLocks, logger)
	syncSvc := usecase.NewSyncService(leagueRepo, teamRepo, matchRepo, gameweekRepo, provider, ids, logger)
	leaderboardSvc := usecase.NewLeaderboardService(groupRepo, userRepo, logger)
	repairSvc := usecase.NewRepairService(userRepo, groupRepo, predictionRepo, logger)

	handler := httpapi.NewHandler(
		leagueSvc,
		matchSvc,
		predictionSvc,
		settlementSvc,
		standingSvc,
		syncSvc,
		leaderboardSvc,
		repairSvc,
		logger,
	).WithDefaultSyncWorkers(cfg.SyncMaxWorkers)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		db.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{Server: server, db: db}, nil
}

// Shutdown stops the HTTP server and closes the database pool.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Server.Shutdown(ctx); err != nil {
		a.db.Close()
		return err
	}
	return a.db.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// disabledFixtureProvider stands in when FEED_ENABLED=false so sync
// endpoints fail with a clear 503 instead of a nil dereference.
type disabledFixtureProvider struct{}

func (disabledFixtureProvider) FetchFixtures(context.Context, int64, int) ([]usecase.ProviderFixture, error) {
	return nil, fmt.Errorf("%w: fixture feed is disabled", usecase.ErrDependencyUnavailable)
}
