package validator

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

func intPtr(v int) *int { return &v }

func hasRule(errs ValidationErrors, rule string) bool {
	for _, e := range errs {
		if e.Rule == rule {
			return true
		}
	}
	return false
}

func TestValidator_StartSessionRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		req      StartSessionRequest
		wantRule string
	}{
		{"valid", StartSessionRequest{TestID: 1, SubjectID: "child-1", SubjectAge: intPtr(9)}, ""},
		{"missing test", StartSessionRequest{SubjectID: "child-1"}, "required"},
		{"blank subject", StartSessionRequest{TestID: 1, SubjectID: "   "}, "not_blank"},
		{"age out of bounds", StartSessionRequest{TestID: 1, SubjectID: "c", SubjectAge: intPtr(40)}, "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.wantRule == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			if !hasRule(ve, tt.wantRule) {
				t.Errorf("expected rule %s, got %+v", tt.wantRule, ve)
			}
		})
	}
}

func TestValidator_ScreenScoreRequest(t *testing.T) {
	v := New()

	if err := v.Validate(&ScreenScoreRequest{Category: models.CategoryAnxiety, Percentage: intPtr(0)}); err != nil {
		t.Errorf("0%% is a valid percentage: %v", err)
	}

	err := v.Validate(&ScreenScoreRequest{Category: "EMOTIONAL", Percentage: intPtr(101)})
	ve := ToValidationErrors(err)
	if !hasRule(ve, "test_category") || !hasRule(ve, "percent_bound") {
		t.Errorf("expected test_category and percent_bound errors, got %+v", ve)
	}
	for _, e := range ve {
		if e.Field != "category" && e.Field != "percentage" {
			t.Errorf("expected json field names, got %s", e.Field)
		}
	}

	if err := v.Validate(&ScreenScoreRequest{Category: models.CategoryAnxiety}); err == nil {
		t.Error("missing percentage should fail")
	}
}

func TestValidator_ScreenTextRequestDives(t *testing.T) {
	v := New()
	long := make([]byte, 10001)
	for i := range long {
		long[i] = 'a'
	}

	err := v.Validate(&ScreenTextRequest{Pairs: []models.TextPair{{AnswerText: string(long)}}})
	if err == nil {
		t.Fatal("oversized answer text should fail")
	}
	if ve := ToValidationErrors(err); ve[0].Field != "pairs[0].answer_text" {
		t.Errorf("unexpected field path %s", ve[0].Field)
	}
}

func rubric(bounds ...[2]int) *ReplaceRubricRequest {
	req := &ReplaceRubricRequest{}
	for i, b := range bounds {
		req.Ranges = append(req.Ranges, RubricRangeRequest{
			MinPercent: b[0],
			MaxPercent: b[1],
			Level:      string(rune('a' + i)),
			Title:      "tier",
		})
	}
	return req
}

func TestBusinessValidator_ValidateRubric(t *testing.T) {
	bv := New().GetBusinessValidator()

	tests := []struct {
		name     string
		req      *ReplaceRubricRequest
		wantRule string
	}{
		{"contiguous", rubric([2]int{0, 39}, [2]int{40, 79}, [2]int{80, 100}), ""},
		{"unsorted but contiguous", rubric([2]int{80, 100}, [2]int{0, 79}), ""},
		{"single range", rubric([2]int{0, 100}), ""},
		{"gap", rubric([2]int{0, 39}, [2]int{41, 100}), "rubric_gap"},
		{"overlap", rubric([2]int{0, 50}, [2]int{50, 100}), "rubric_overlap"},
		{"missing start", rubric([2]int{10, 100}), "rubric_coverage"},
		{"missing end", rubric([2]int{0, 90}), "rubric_coverage"},
		{"inverted bounds", rubric([2]int{0, 100}, [2]int{60, 40}), "gtefield"},
		{"out of bounds", rubric([2]int{0, 120}), "percent_bound"},
		{"empty", &ReplaceRubricRequest{}, "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateRubric(tt.req)
			if tt.wantRule == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %+v", errs)
				}
				return
			}
			if !hasRule(errs, tt.wantRule) {
				t.Errorf("expected rule %s, got %+v", tt.wantRule, errs)
			}
		})
	}
}

func TestBusinessValidator_DuplicateLevel(t *testing.T) {
	bv := New().GetBusinessValidator()
	req := rubric([2]int{0, 49}, [2]int{50, 100})
	req.Ranges[1].Level = " A "

	if errs := bv.ValidateRubric(req); !hasRule(errs, "rubric_level_unique") {
		t.Errorf("expected duplicate level error, got %+v", errs)
	}
}

func TestToInterpretationRanges(t *testing.T) {
	req := rubric([2]int{50, 100}, [2]int{0, 49})

	rows := req.ToInterpretationRanges(7)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].MinPercent != 0 || rows[0].SortOrder != 0 || rows[1].SortOrder != 1 {
		t.Errorf("rows not ordered by lower bound: %+v", rows)
	}
	if rows[0].TestID != 7 {
		t.Errorf("test id not set")
	}
}
