package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/psytest-service/internal/events"
	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

type stubNarrator struct {
	narrative *models.Narrative
	err       error
	seen      []ResultContext
}

func (s *stubNarrator) GenerateInterpretation(ctx context.Context, rc ResultContext) (*models.Narrative, error) {
	s.seen = append(s.seen, rc)
	return s.narrative, s.err
}

func completedResult(t *testing.T, f *fixture) (*models.Test, []models.Question, uint) {
	t.Helper()
	test := activeTest()
	questions := f.store.addTest(test, []int{0, 1}, []int{0, 2})
	view := f.start(t, test.ID, "child-1", parent)
	f.answer(t, view.SessionID, questions[0], 1)
	out := f.answer(t, view.SessionID, questions[1], 0)
	return test, questions, *out.ResultID
}

func TestScoringService_RecalculateInPlace(t *testing.T) {
	f := newFixture(t)
	test, questions, resultID := completedResult(t, f)
	ctx := context.Background()

	before, _ := f.store.Result().GetByID(ctx, nil, resultID)
	if before.TotalScore != 1 || before.MaxScore != 3 {
		t.Fatalf("unexpected initial score %d/%d", before.TotalScore, before.MaxScore)
	}

	// an admin corrects the score of the option picked for the first question
	f.store.setOptionScore(test.ID, questions[0].Options[1].ID, 3)

	if _, err := f.scoring.Recalculate(ctx, resultID, parent); err == nil {
		t.Error("parents must not recalculate")
	}

	after, err := f.scoring.Recalculate(ctx, resultID, staff)
	if err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	if after.ID != resultID {
		t.Errorf("result id changed from %d to %d", resultID, after.ID)
	}
	if after.TotalScore != 3 || after.MaxScore != 5 || after.Percentage != 60 {
		t.Errorf("expected 3/5 60%%, got %d/%d %d%%", after.TotalScore, after.MaxScore, after.Percentage)
	}
	if after.RecalculatedAt == nil {
		t.Error("recalculated_at not set")
	}

	if n := f.store.resultCount(before.SessionID); n != 1 {
		t.Errorf("recalculation created %d results", n)
	}

	evs := f.publisher.EventsOfType(events.EventResultRecalculated)
	if len(evs) != 1 {
		t.Fatalf("expected 1 recalculated event, got %d", len(evs))
	}
	data := evs[0].Data.(events.ResultRecalculatedEvent)
	if data.PreviousScore != 1 || data.TotalScore != 3 {
		t.Errorf("unexpected event payload %+v", data)
	}

	if _, err := f.scoring.Recalculate(ctx, 999, staff); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}

func TestScoringService_RubricFallback(t *testing.T) {
	f := newFixture(t)
	test := activeTest()
	questions := f.store.addTest(test, []int{0, 1}, []int{0, 2})
	// the configured rubric leaves 0..49 uncovered
	f.store.setRubric(test.ID, models.InterpretationRange{MinPercent: 50, MaxPercent: 100, Level: "high", Title: "High"})

	view := f.start(t, test.ID, "child-1", parent)
	f.answer(t, view.SessionID, questions[0], 0)
	out := f.answer(t, view.SessionID, questions[1], 0)

	result, _ := f.store.Result().GetByID(context.Background(), nil, *out.ResultID)
	if !result.FallbackUsed || result.TierSource != models.TierFromFallback {
		t.Errorf("expected fallback tier, got %s", result.TierSource)
	}
	if result.Level == "" {
		t.Error("fallback must still produce a tier")
	}
}

func TestScoringService_EnrichStoresNarrative(t *testing.T) {
	f := newFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	narrator := &stubNarrator{narrative: &models.Narrative{Summary: "ok", NeedsSpecialist: true}}
	svc := NewScoringService(f.store, logger, validator.New(), narrator, f.publisher)

	_, _, resultID := completedResult(t, f)
	ctx := context.Background()
	result, _ := f.store.Result().GetByID(ctx, nil, resultID)
	session, _ := f.store.Session().GetByID(ctx, nil, result.SessionID)

	scored, err := svc.ScoreSession(ctx, f.store, session)
	if err != nil {
		t.Fatalf("ScoreSession failed: %v", err)
	}
	svc.Enrich(ctx, result, scored)

	stored, _ := f.store.Result().GetByID(ctx, nil, resultID)
	if !stored.NeedsSpecialist {
		t.Error("needs_specialist not stored")
	}
	var narrative models.Narrative
	if err := json.Unmarshal(stored.Narrative, &narrative); err != nil || narrative.Summary != "ok" {
		t.Errorf("narrative not stored: %v %s", err, stored.Narrative)
	}
	if len(narrator.seen) != 1 || len(narrator.seen[0].Answers) != 2 {
		t.Errorf("narrator should see both answers, got %+v", narrator.seen)
	}
	if stored.Level != result.Level || stored.TotalScore != result.TotalScore {
		t.Error("narrative must not change the rubric tier")
	}

	narrator.err = errors.New("backend down")
	narrator.narrative = nil
	fresh, _ := f.store.Result().GetByID(ctx, nil, resultID)
	svc.Enrich(ctx, fresh, scored)
	again, _ := f.store.Result().GetByID(ctx, nil, resultID)
	if !again.NeedsSpecialist {
		t.Error("a failed generation must leave the stored result alone")
	}
}

func TestScoringService_GetResultOwnership(t *testing.T) {
	f := newFixture(t)
	_, _, resultID := completedResult(t, f)
	ctx := context.Background()

	var perm *PermissionError
	if _, err := f.scoring.GetResult(ctx, resultID, otherParent); !errors.As(err, &perm) {
		t.Errorf("expected PermissionError, got %v", err)
	}
	if _, err := f.scoring.GetResult(ctx, resultID, staff); err != nil {
		t.Errorf("staff should read any result: %v", err)
	}
	if _, err := f.scoring.GetResult(ctx, 12345, parent); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}

func TestScoringService_ExportResults(t *testing.T) {
	f := newFixture(t)
	test, _, _ := completedResult(t, f)

	var buf bytes.Buffer
	if err := f.scoring.ExportResults(context.Background(), test.ID, &buf); err != nil {
		t.Fatalf("ExportResults failed: %v", err)
	}

	wb, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("export is not a workbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(resultsSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	if rows[0][0] != "Result ID" || rows[1][2] != "child-1" {
		t.Errorf("unexpected rows %v", rows)
	}

	if err := f.scoring.ExportResults(context.Background(), 999, &buf); !errors.Is(err, ErrTestNotFound) {
		t.Errorf("expected ErrTestNotFound, got %v", err)
	}
}

func TestNoopNarrativeGenerator(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := (NoopNarrativeGenerator{}).GenerateInterpretation(ctx, ResultContext{}); !errors.Is(err, ErrNarrativeUnavailable) {
		t.Errorf("expected ErrNarrativeUnavailable, got %v", err)
	}
}
