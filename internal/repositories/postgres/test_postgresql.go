package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/psytest-service/internal/cache"
	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type TestPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// GetByID retrieves a test without its questions, with caching
func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var test models.Test

	err := t.cacheManager.Test.CacheOrExecute(ctx, cacheKey, &test, cache.TestCacheConfig.TTL, func() (interface{}, error) {
		var dbTest models.Test
		if err := db.WithContext(ctx).First(&dbTest, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get test %d: %w", id, err)
		}
		return &dbTest, nil
	})
	if err != nil {
		return nil, err
	}

	return &test, nil
}

type testPage struct {
	Items []*models.Test `json:"items"`
	Total int64          `json:"total"`
}

// List returns a page of the catalog
func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	db := t.getDB(tx)
	cacheKey := fmt.Sprintf("list:%s", testListKey(filters))
	var page testPage

	err := t.cacheManager.Test.CacheOrExecute(ctx, cacheKey, &page, cache.TestCacheConfig.TTL, func() (interface{}, error) {
		result := testPage{Items: []*models.Test{}}

		query := db.WithContext(ctx).Model(&models.Test{})
		query = t.helpers.ApplyTestFilters(query, filters)

		if err := query.Count(&result.Total).Error; err != nil {
			return nil, fmt.Errorf("failed to count tests: %w", err)
		}

		query = t.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
		if err := query.Find(&result.Items).Error; err != nil {
			return nil, fmt.Errorf("failed to list tests: %w", err)
		}
		return &result, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return page.Items, page.Total, nil
}

func testListKey(f repositories.TestFilters) string {
	category, age := "*", "*"
	if f.Category != nil {
		category = string(*f.Category)
	}
	if f.Age != nil {
		age = fmt.Sprint(*f.Age)
	}
	return fmt.Sprintf("%s:%t:%s:%d:%d:%s:%s", category, f.ActiveOnly, age, f.Limit, f.Offset, f.SortBy, f.SortOrder)
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}
