package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

// BusinessValidator handles rules that span several fields or records
type BusinessValidator struct {
	validate *validator.Validate
}

// ValidateRubric checks a whole rubric: ranges must be well formed, must not
// overlap and must cover 0..100 without gaps. Input order does not matter.
func (bv *BusinessValidator) ValidateRubric(req *ReplaceRubricRequest) ValidationErrors {
	var errs ValidationErrors

	if err := bv.validate.Struct(req); err != nil {
		return ToValidationErrors(err)
	}

	ranges := make([]RubricRangeRequest, len(req.Ranges))
	copy(ranges, req.Ranges)
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].MinPercent < ranges[j].MinPercent
	})

	if ranges[0].MinPercent != 0 {
		errs = append(errs, ValidationError{
			Field:   "ranges",
			Message: "first range must start at 0",
			Value:   ranges[0].MinPercent,
			Rule:    "rubric_coverage",
		})
	}
	if last := ranges[len(ranges)-1]; last.MaxPercent != 100 {
		errs = append(errs, ValidationError{
			Field:   "ranges",
			Message: "last range must end at 100",
			Value:   last.MaxPercent,
			Rule:    "rubric_coverage",
		})
	}

	for i := 1; i < len(ranges); i++ {
		prev, cur := ranges[i-1], ranges[i]
		switch {
		case cur.MinPercent <= prev.MaxPercent:
			errs = append(errs, ValidationError{
				Field:   "ranges",
				Message: fmt.Sprintf("range %d-%d overlaps %d-%d", cur.MinPercent, cur.MaxPercent, prev.MinPercent, prev.MaxPercent),
				Value:   cur.MinPercent,
				Rule:    "rubric_overlap",
			})
		case cur.MinPercent > prev.MaxPercent+1:
			errs = append(errs, ValidationError{
				Field:   "ranges",
				Message: fmt.Sprintf("percentages %d-%d are not covered", prev.MaxPercent+1, cur.MinPercent-1),
				Value:   cur.MinPercent,
				Rule:    "rubric_gap",
			})
		}
	}

	levels := make(map[string]bool, len(ranges))
	for _, r := range ranges {
		key := strings.ToLower(strings.TrimSpace(r.Level))
		if levels[key] {
			errs = append(errs, ValidationError{
				Field:   "ranges.level",
				Message: fmt.Sprintf("level %q is used more than once", r.Level),
				Value:   r.Level,
				Rule:    "rubric_level_unique",
			})
		}
		levels[key] = true
	}

	return errs
}

// ToInterpretationRanges converts a validated request into rows for testID,
// ordered by lower bound.
func (req *ReplaceRubricRequest) ToInterpretationRanges(testID uint) []models.InterpretationRange {
	ranges := make([]RubricRangeRequest, len(req.Ranges))
	copy(ranges, req.Ranges)
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].MinPercent < ranges[j].MinPercent
	})

	out := make([]models.InterpretationRange, 0, len(ranges))
	for i, r := range ranges {
		out = append(out, models.InterpretationRange{
			TestID:          testID,
			MinPercent:      r.MinPercent,
			MaxPercent:      r.MaxPercent,
			Level:           strings.TrimSpace(r.Level),
			Title:           strings.TrimSpace(r.Title),
			Description:     r.Description,
			Recommendations: r.Recommendations,
			SortOrder:       i,
		})
	}
	return out
}
