package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/psytest-service/internal/crisis"
	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

type screeningService struct {
	screener  CrisisScreener
	logger    *slog.Logger
	validator *validator.Validator
}

func NewScreeningService(screener CrisisScreener, logger *slog.Logger, validator *validator.Validator) ScreeningService {
	return &screeningService{
		screener:  screener,
		logger:    logger,
		validator: validator,
	}
}

func (s *screeningService) ScreenText(ctx context.Context, req *ScreenTextRequest) (*models.CrisisAssessment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.screener.Analyze(req.Pairs), nil
}

func (s *screeningService) ScreenScore(ctx context.Context, req *ScreenScoreRequest) (*models.CrisisAssessment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.screener.AnalyzeScore(req.Category, *req.Percentage), nil
}

func (s *screeningService) ScreenAnswer(questionText, answerText string) *models.CrisisAssessment {
	return s.screener.Analyze([]models.TextPair{{QuestionText: questionText, AnswerText: answerText}})
}

// ScreenCompletion screens everything the subject answered together with the
// category score of the finished test.
func (s *screeningService) ScreenCompletion(scored *ScoredSession) *models.CrisisAssessment {
	if scored == nil {
		return nil
	}

	byText := s.screener.Analyze(textPairs(scored.Questions, scored.Answers))
	byScore := s.screener.AnalyzeScore(scored.Test.Category, scored.Outcome.Percentage)
	assessment := crisis.Merge(byText, byScore)

	if assessment.HasRisk() {
		s.logger.Debug("Completion screen flagged risk",
			"test_id", scored.Test.ID,
			"severity", assessment.Severity)
	}
	return assessment
}
