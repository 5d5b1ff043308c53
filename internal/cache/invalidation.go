package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeDelete drops keys and only logs failures; a stale entry expires on its own
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// RubricKey is the key of a test's rubric in the Rubric helper
func RubricKey(testID uint) string {
	return fmt.Sprintf("test:%d", testID)
}

// InvalidateRubricCache drops the cached rubric of a test
func InvalidateRubricCache(ctx context.Context, cm *CacheManager, testID uint) {
	SafeDelete(ctx, cm.Rubric, RubricKey(testID))
}
