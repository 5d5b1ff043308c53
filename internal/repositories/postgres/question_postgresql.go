package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/psytest-service/internal/cache"
	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// orderedOptions preloads options in display order
func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).Order("id ASC")
}

// GetByID retrieves a question with its options, with caching
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).
			Preload("Options", orderedOptions).
			First(&dbQuestion, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get question %d: %w", id, err)
		}
		return &dbQuestion, nil
	})
	if err != nil {
		return nil, err
	}

	question.SortOptions()
	return &question, nil
}

// ListByTest returns the test's questions in delivery order, with caching
func (q *QuestionPostgreSQL) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("test:%d", testID)
	var questions []models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &questions, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		dbQuestions := []models.Question{}
		if err := db.WithContext(ctx).
			Where("test_id = ?", testID).
			Preload("Options", orderedOptions).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
			Find(&dbQuestions).Error; err != nil {
			return nil, fmt.Errorf("failed to list questions of test %d: %w", testID, err)
		}
		return dbQuestions, nil
	})
	if err != nil {
		return nil, err
	}

	models.SortQuestions(questions)
	for i := range questions {
		questions[i].SortOptions()
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	db := q.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("test_id = ?", testID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
