package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

// testService serves the read-only test catalog
type testService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	pageSize  pageLimits
}

func NewTestService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) TestService {
	return &testService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		pageSize:  defaultPageLimits,
	}
}

func (s *testService) List(ctx context.Context, query *ListTestsQuery) (*models.PaginatedResponse, error) {
	if err := s.validator.Validate(query); err != nil {
		return nil, err
	}

	page, size := s.pageSize.normalize(query.Page, query.Size)
	filters := repositories.TestFilters{
		ActiveOnly: true,
		Age:        query.Age,
		Limit:      size,
		Offset:     (page - 1) * size,
		SortBy:     query.SortBy,
		SortOrder:  query.SortDir,
	}
	if query.Category != "" {
		filters.Category = &query.Category
	}

	tests, total, err := s.repo.Test().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	return &models.PaginatedResponse{
		Items: tests,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

func (s *testService) Get(ctx context.Context, testID uint) (*TestSummary, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	count, err := s.repo.Question().CountByTest(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	return &TestSummary{Test: test, QuestionCount: count}, nil
}
