package services

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/psytest-service/internal/repositories"
)

const resultsSheet = "Results"

var resultsHeader = []interface{}{
	"Result ID", "Session ID", "Subject", "Total", "Max", "Percentage",
	"Level", "Title", "Tier Source", "Needs Specialist", "Created At", "Recalculated At",
}

// ExportResults writes every result of a test to an xlsx workbook
func (s *scoringService) ExportResults(ctx context.Context, testID uint, w io.Writer) error {
	if _, err := s.repo.Test().GetByID(ctx, nil, testID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to get test: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(resultsSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetRow("A1", resultsHeader); err != nil {
		return err
	}

	row := 2
	for offset := 0; ; offset += s.exportBatchSize {
		results, total, err := s.repo.Result().ListByTest(ctx, nil, testID, repositories.ResultFilters{
			Limit:  s.exportBatchSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("failed to list results: %w", err)
		}

		for _, r := range results {
			recalculated := ""
			if r.RecalculatedAt != nil {
				recalculated = r.RecalculatedAt.Format("2006-01-02 15:04:05")
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := sw.SetRow(cell, []interface{}{
				r.ID, r.SessionID, r.SubjectID, r.TotalScore, r.MaxScore, r.Percentage,
				r.Level, r.Title, string(r.TierSource), r.NeedsSpecialist,
				r.CreatedAt.Format("2006-01-02 15:04:05"), recalculated,
			}); err != nil {
				return err
			}
			row++
		}

		if len(results) == 0 || int64(offset+len(results)) >= total {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	s.logger.Info("Exported results", "test_id", testID, "rows", row-2)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
