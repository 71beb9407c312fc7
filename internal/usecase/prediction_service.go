package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matchkick/prediction-league/internal/domain/match"
	"github.com/matchkick/prediction-league/internal/domain/prediction"
	"github.com/matchkick/prediction-league/internal/platform/id"
	"github.com/matchkick/prediction-league/internal/platform/logging"
)

// PredictionService manages the prediction lifecycle before kickoff.
type PredictionService struct {
	matchRepo      match.Repository
	predictionRepo prediction.Repository
	idGen          id.Generator
	lockWindow     time.Duration
	logger         *logging.Logger
	now            func() time.Time
}

func NewPredictionService(
	matchRepo match.Repository,
	predictionRepo prediction.Repository,
	idGen id.Generator,
	lockWindow time.Duration,
	logger *logging.Logger,
) *PredictionService {
	if lockWindow <= 0 {
		lockWindow = 4 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &PredictionService{
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		idGen:          idGen,
		lockWindow:     lockWindow,
		logger:         logger,
		now:            time.Now,
	}
}

// Submit creates or updates the caller's prediction for a match. It
// is rejected once the match leaves SCHEDULED or once kickoff is
// closer than the lock window.
func (s *PredictionService) Submit(ctx context.Context, userID, leagueID, matchID string, predictedHome, predictedAway int) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Submit")
	defer span.End()

	userID = strings.TrimSpace(userID)
	leagueID = strings.TrimSpace(leagueID)
	matchID = strings.TrimSpace(matchID)
	if userID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if leagueID == "" || matchID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: league id and match id are required", ErrInvalidInput)
	}
	if predictedHome < 0 || predictedAway < 0 {
		return prediction.Prediction{}, fmt.Errorf("%w: predicted scores must be >= 0", ErrInvalidInput)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, leagueID, matchID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	if match.NormalizeStatus(m.Status) != match.StatusScheduled {
		return prediction.Prediction{}, fmt.Errorf("%w: match %s is %s", ErrStateConflict, matchID, match.NormalizeStatus(m.Status))
	}

	now := s.now().UTC()
	if !now.Before(m.KickoffAt.Add(-s.lockWindow)) {
		return prediction.Prediction{}, fmt.Errorf("%w: predictions for match %s are locked", ErrStateConflict, matchID)
	}

	existing, found, err := s.predictionRepo.GetByUserAndMatch(ctx, userID, matchID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}

	p := existing
	if !found {
		newID, idErr := s.idGen.NewID()
		if idErr != nil {
			return prediction.Prediction{}, fmt.Errorf("generate prediction id: %w", idErr)
		}
		p = prediction.Prediction{
			ID:        newID,
			UserID:    userID,
			MatchID:   matchID,
			LeagueID:  leagueID,
			CreatedAt: now,
		}
	}

	p.PredictedHome = predictedHome
	p.PredictedAway = predictedAway
	p.UpdatedAt = now

	if err := s.predictionRepo.Upsert(ctx, p); err != nil {
		return prediction.Prediction{}, fmt.Errorf("upsert prediction: %w", err)
	}

	s.logger.InfoContext(ctx, "prediction saved",
		"user_id", userID,
		"match_id", matchID,
		"predicted", fmt.Sprintf("%d-%d", predictedHome, predictedAway),
	)

	return p, nil
}

// Get returns the caller's prediction for a match.
func (s *PredictionService) Get(ctx context.Context, userID, matchID string) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Get")
	defer span.End()

	userID = strings.TrimSpace(userID)
	matchID = strings.TrimSpace(matchID)
	if userID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if matchID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	p, found, err := s.predictionRepo.GetByUserAndMatch(ctx, userID, matchID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}
	if !found {
		return prediction.Prediction{}, fmt.Errorf("%w: prediction for match=%s", ErrNotFound, matchID)
	}

	return p, nil
}
