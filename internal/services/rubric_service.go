package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

const rubricSheet = "Rubric"

type rubricService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewRubricService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) RubricService {
	return &rubricService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *rubricService) Get(ctx context.Context, testID uint) ([]models.InterpretationRange, error) {
	if err := s.ensureTest(ctx, testID); err != nil {
		return nil, err
	}
	ranges, err := s.repo.Rubric().ListByTest(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rubric: %w", err)
	}
	return ranges, nil
}

// Replace swaps the whole rubric of a test. The ranges must cover 0..100
// without gaps or overlaps.
func (s *rubricService) Replace(ctx context.Context, testID uint, req *ReplaceRubricRequest) ([]models.InterpretationRange, error) {
	s.logger.Info("Replacing rubric", "test_id", testID, "ranges", len(req.Ranges))

	if err := s.ensureTest(ctx, testID); err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateRubric(req); len(errs) > 0 {
		return nil, errs
	}

	ranges := req.ToInterpretationRanges(testID)
	if err := s.repo.Rubric().Replace(ctx, nil, testID, ranges); err != nil {
		return nil, fmt.Errorf("failed to replace rubric: %w", err)
	}

	s.logger.Info("Rubric replaced", "test_id", testID)
	return ranges, nil
}

// Import reads a rubric from an xlsx workbook. The sheet named "Rubric", or
// the first sheet, holds a header row followed by one range per row:
// min, max, level, title, description, recommendations.
func (s *rubricService) Import(ctx context.Context, testID uint, r io.Reader) ([]models.InterpretationRange, error) {
	req, err := parseRubricWorkbook(r)
	if err != nil {
		return nil, err
	}
	return s.Replace(ctx, testID, req)
}

func (s *rubricService) ensureTest(ctx context.Context, testID uint) error {
	if _, err := s.repo.Test().GetByID(ctx, nil, testID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to get test: %w", err)
	}
	return nil
}

func parseRubricWorkbook(r io.Reader) (*ReplaceRubricRequest, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRubricFile, err)
	}
	defer f.Close()

	sheet := rubricSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidRubricFile)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRubricFile, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no ranges found", ErrInvalidRubricFile)
	}

	req := &ReplaceRubricRequest{}
	var errs ValidationErrors
	for i, row := range rows[1:] {
		line := i + 2
		if isBlankRow(row) {
			continue
		}

		min, minErr := parsePercentCell(cell(row, 0))
		max, maxErr := parsePercentCell(cell(row, 1))
		if minErr != nil {
			errs = append(errs, *NewValidationError(fmt.Sprintf("row %d min", line), "must be an integer", cell(row, 0)))
		}
		if maxErr != nil {
			errs = append(errs, *NewValidationError(fmt.Sprintf("row %d max", line), "must be an integer", cell(row, 1)))
		}
		if minErr != nil || maxErr != nil {
			continue
		}

		req.Ranges = append(req.Ranges, validator.RubricRangeRequest{
			MinPercent:      min,
			MaxPercent:      max,
			Level:           cell(row, 2),
			Title:           cell(row, 3),
			Description:     cell(row, 4),
			Recommendations: cell(row, 5),
		})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return req, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parsePercentCell(v string) (int, error) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "%")
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	// numeric cells may come back as "40.0"
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", v)
	}
	return int(f), nil
}
