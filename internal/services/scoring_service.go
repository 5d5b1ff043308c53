package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/psytest-service/internal/events"
	"github.com/SAP-F-2025/psytest-service/internal/metrics"
	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"github.com/SAP-F-2025/psytest-service/internal/scoring"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

type scoringService struct {
	repo             repositories.Repository
	logger           *slog.Logger
	validator        *validator.Validator
	narrator         NarrativeGenerator
	publisher        events.EventPublisher
	narrativeTimeout time.Duration
	exportBatchSize  int
}

func NewScoringService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	narrator NarrativeGenerator,
	publisher events.EventPublisher,
) ScoringService {
	return newScoringService(repo, logger, validator, narrator, publisher, DefaultServiceManagerConfig())
}

func newScoringService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	narrator NarrativeGenerator,
	publisher events.EventPublisher,
	config ServiceManagerConfig,
) *scoringService {
	if narrator == nil {
		narrator = NoopNarrativeGenerator{}
	}
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	return &scoringService{
		repo:             repo,
		logger:           logger,
		validator:        validator,
		narrator:         narrator,
		publisher:        publisher,
		narrativeTimeout: config.NarrativeTimeout,
		exportBatchSize:  config.ExportBatchSize,
	}
}

// ===== SCORING =====

func (s *scoringService) ScoreSession(ctx context.Context, repo repositories.Repository, session *models.Session) (*ScoredSession, error) {
	test, err := repo.Test().GetByID(ctx, nil, session.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	questions, err := repo.Question().ListByTest(ctx, nil, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	answers, err := repo.Answer().ListBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	rubric, err := repo.Rubric().ListByTest(ctx, nil, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rubric: %w", err)
	}

	outcome := scoring.Score(questions, answers, rubric)
	if outcome.FallbackUsed() {
		metrics.RecordRubricFallback()
		s.logger.Warn("No rubric range matched, using default tier",
			"session_id", session.ID,
			"test_id", session.TestID,
			"percentage", outcome.Percentage)
	}

	s.logger.Debug("Session scored",
		"session_id", session.ID,
		"total_score", outcome.TotalScore,
		"max_score", outcome.MaxScore,
		"source", outcome.Source)

	return &ScoredSession{
		Test:      test,
		Questions: questions,
		Answers:   answers,
		Outcome:   outcome,
	}, nil
}

// Enrich asks the narrative generator for an interpretation and stores it on
// the result. The rubric tier stays authoritative; a failure leaves it alone.
func (s *scoringService) Enrich(ctx context.Context, result *models.Result, scored *ScoredSession) {
	if result == nil || scored == nil {
		return
	}

	genCtx, cancel := context.WithTimeout(ctx, s.narrativeTimeout)
	defer cancel()

	narrative, err := s.narrator.GenerateInterpretation(genCtx, ResultContext{
		TestTitle:  scored.Test.Title,
		Category:   scored.Test.Category,
		TotalScore: result.TotalScore,
		MaxScore:   result.MaxScore,
		Percentage: result.Percentage,
		Level:      result.Level,
		Answers:    textPairs(scored.Questions, scored.Answers),
	})
	if err != nil {
		if errors.Is(err, ErrNarrativeUnavailable) {
			s.logger.Debug("Narrative generator unavailable", "result_id", result.ID)
		} else {
			s.logger.Warn("Failed to generate narrative", "result_id", result.ID, "error", err)
		}
		return
	}

	raw, err := json.Marshal(narrative)
	if err != nil {
		s.logger.Warn("Failed to encode narrative", "result_id", result.ID, "error", err)
		return
	}
	result.Narrative = raw
	result.NeedsSpecialist = narrative.NeedsSpecialist

	if err := s.repo.Result().Update(ctx, nil, result); err != nil {
		s.logger.Warn("Failed to store narrative", "result_id", result.ID, "error", err)
	}
}

// ===== RESULTS =====

func (s *scoringService) GetResult(ctx context.Context, resultID uint, actor Actor) (*models.Result, error) {
	result, err := s.getResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if err := s.checkResultAccess(ctx, result, actor, "view"); err != nil {
		return nil, err
	}
	return result, nil
}

// Recalculate rescores the session behind a result with the current option
// scores and rubric and overwrites the same row.
func (s *scoringService) Recalculate(ctx context.Context, resultID uint, actor Actor) (*models.Result, error) {
	s.logger.Info("Recalculating result", "result_id", resultID, "user_id", actor.UserID)

	if !actor.IsStaff() {
		return nil, NewPermissionError(actor.UserID, resultID, "result", "recalculate", "staff only")
	}

	var (
		result        *models.Result
		scored        *ScoredSession
		previousScore int
		previousLevel string
	)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		result, err = tx.Result().GetByID(ctx, nil, resultID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrResultNotFound
			}
			return fmt.Errorf("failed to get result: %w", err)
		}

		session, err := tx.Session().GetByID(ctx, nil, result.SessionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		scored, err = s.ScoreSession(ctx, tx, session)
		if err != nil {
			return err
		}

		previousScore, previousLevel = result.TotalScore, result.Level

		now := time.Now()
		scored.Outcome.ApplyTo(result)
		result.Narrative = nil
		result.NeedsSpecialist = false
		result.RecalculatedAt = &now

		return tx.Result().Update(ctx, nil, result)
	})
	if err != nil {
		if errors.Is(err, ErrResultNotFound) || errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrTestNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to recalculate result: %w", err)
	}

	s.logger.Info("Result recalculated",
		"result_id", result.ID,
		"previous_score", previousScore,
		"total_score", result.TotalScore,
		"level", result.Level)

	event := events.NewEvent(events.EventResultRecalculated, events.ResultRecalculatedEvent{
		ResultID:       result.ID,
		SessionID:      result.SessionID,
		TestID:         result.TestID,
		PreviousScore:  previousScore,
		PreviousLevel:  previousLevel,
		TotalScore:     result.TotalScore,
		MaxScore:       result.MaxScore,
		Percentage:     result.Percentage,
		Level:          result.Level,
		RecalculatedAt: *result.RecalculatedAt,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish result recalculated event", "result_id", result.ID, "error", err)
	}

	s.Enrich(ctx, result, scored)
	return result, nil
}

func (s *scoringService) getResult(ctx context.Context, id uint) (*models.Result, error) {
	result, err := s.repo.Result().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

func (s *scoringService) checkResultAccess(ctx context.Context, result *models.Result, actor Actor, action string) error {
	if actor.IsStaff() {
		return nil
	}
	session, err := s.repo.Session().GetByID(ctx, nil, result.SessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session.OwnerID != actor.UserID {
		return NewPermissionError(actor.UserID, result.ID, "result", action, "not the session owner")
	}
	return nil
}
