package repositories

import (
	"context"

	"github.com/SAP-F-2025/psytest-service/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for question-specific operations
type QuestionRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)

	// ListByTest returns the questions of a test in delivery order with
	// their options sorted
	ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error)
	CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error)
}
