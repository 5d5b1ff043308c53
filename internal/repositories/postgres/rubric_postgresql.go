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

type RubricPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewRubricPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.RubricRepository {
	return &RubricPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *RubricPostgreSQL) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.InterpretationRange, error) {
	db := r.getDB(tx)
	cacheKey := cache.RubricKey(testID)
	var ranges []models.InterpretationRange

	err := r.cacheManager.Rubric.CacheOrExecute(ctx, cacheKey, &ranges, cache.RubricCacheConfig.TTL, func() (interface{}, error) {
		dbRanges := []models.InterpretationRange{}
		if err := db.WithContext(ctx).
			Where("test_id = ?", testID).
			Order("min_percent ASC, sort_order ASC").
			Find(&dbRanges).Error; err != nil {
			return nil, fmt.Errorf("failed to list rubric of test %d: %w", testID, err)
		}
		return dbRanges, nil
	})
	if err != nil {
		return nil, err
	}

	return ranges, nil
}

// Replace deletes the current ranges and inserts the new ones. Inside an
// outer transaction gorm nests this as a savepoint.
func (r *RubricPostgreSQL) Replace(ctx context.Context, tx *gorm.DB, testID uint, ranges []models.InterpretationRange) error {
	db := r.getDB(tx)

	err := db.WithContext(ctx).Transaction(func(t *gorm.DB) error {
		if err := t.Where("test_id = ?", testID).Delete(&models.InterpretationRange{}).Error; err != nil {
			return fmt.Errorf("failed to clear rubric: %w", err)
		}
		if len(ranges) == 0 {
			return nil
		}
		for i := range ranges {
			ranges[i].ID = 0
			ranges[i].TestID = testID
		}
		if err := t.Create(&ranges).Error; err != nil {
			return fmt.Errorf("failed to insert rubric: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateRubricCache(ctx, r.cacheManager, testID)
	return nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *RubricPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
