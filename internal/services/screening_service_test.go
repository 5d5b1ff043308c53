package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/psytest-service/internal/crisis"
	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/scoring"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

func newScreening() ScreeningService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScreeningService(crisis.MustNewScreener(crisis.DefaultKeywordConfig()), logger, validator.New())
}

func TestScreeningService_ScreenText(t *testing.T) {
	svc := newScreening()
	ctx := context.Background()

	single, err := svc.ScreenText(ctx, &ScreenTextRequest{Pairs: []models.TextPair{
		{QuestionText: "Как ты себя чувствуешь?", AnswerText: "не хочу жить"},
	}})
	if err != nil {
		t.Fatalf("ScreenText failed: %v", err)
	}
	if single.Severity != models.SeverityHigh || single.RequiresImmediateAction {
		t.Errorf("one match should be HIGH, got %s", single.Severity)
	}

	double, _ := svc.ScreenText(ctx, &ScreenTextRequest{Pairs: []models.TextPair{
		{AnswerText: "не хочу жить"},
		{AnswerText: "честно, не хочу жить"},
	}})
	if double.Severity != models.SeverityCritical || !double.RequiresImmediateAction {
		t.Errorf("two matches should escalate to CRITICAL, got %s", double.Severity)
	}

	var ve ValidationErrors
	if _, err := svc.ScreenText(ctx, &ScreenTextRequest{}); !errors.As(err, &ve) {
		t.Errorf("empty request should fail validation, got %v", err)
	}
}

func TestScreeningService_ScreenScore(t *testing.T) {
	svc := newScreening()
	ctx := context.Background()

	low, err := svc.ScreenScore(ctx, &ScreenScoreRequest{Category: models.CategoryAnxiety, Percentage: intPtr(10)})
	if err != nil {
		t.Fatalf("ScreenScore failed: %v", err)
	}
	if !low.HasRisk() || low.Indicators[0].Category != models.RiskAnxiety {
		t.Errorf("expected anxiety indicator, got %+v", low)
	}

	fine, _ := svc.ScreenScore(ctx, &ScreenScoreRequest{Category: models.CategoryAnxiety, Percentage: intPtr(80)})
	if fine.HasRisk() {
		t.Error("80% should not be flagged")
	}

	if _, err := svc.ScreenScore(ctx, &ScreenScoreRequest{Category: "EMOTIONAL", Percentage: intPtr(10)}); err == nil {
		t.Error("unknown category should fail validation")
	}
}

func TestScreeningService_ScreenCompletionUsesOptionLabels(t *testing.T) {
	svc := newScreening()

	questions := []models.Question{
		{ID: 1, Kind: models.KindSingleChoice, Text: "Что ты чувствуешь?", Options: []models.AnswerOption{
			{ID: 10, Text: "всё хорошо", Score: 2},
			{ID: 11, Text: "меня бьют", Score: 0},
		}},
		{ID: 2, Kind: models.KindFreeText, Text: "Расскажи"},
	}
	answers := []models.Answer{
		{QuestionID: 1, OptionID: uintPtr(11)},
		{QuestionID: 2, FreeText: strPtr("ничего особенного")},
	}
	scored := &ScoredSession{
		Test:      &models.Test{ID: 1, Category: models.CategoryBehavior},
		Questions: questions,
		Answers:   answers,
		Outcome:   scoring.Score(questions, answers, nil),
	}

	a := svc.ScreenCompletion(scored)
	if !a.HasRisk() || a.Severity != models.SeverityCritical {
		t.Errorf("selected option label should be screened, got %+v", a)
	}

	if svc.ScreenCompletion(nil) != nil {
		t.Error("nil scored session should yield nil")
	}
}
