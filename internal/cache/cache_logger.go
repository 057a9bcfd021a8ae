package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateSurveyCache invalidates all survey-related caches
func InvalidateSurveyCache(ctx context.Context, cm *CacheManager, surveyID uint) {
	SafeDelete(ctx, cm.Survey,
		fmt.Sprintf("id:%d", surveyID),
		fmt.Sprintf("invites:%d", surveyID))

	SafeInvalidatePattern(ctx, cm.Survey, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("survey:%d:*", surveyID))
}

// InvalidateResultCache invalidates result and analytics caches after a
// materialize, manual grade or regenerate touches a survey's results.
func InvalidateResultCache(ctx context.Context, cm *CacheManager, ownerID uint) {
	SafeInvalidatePattern(ctx, cm.Result, fmt.Sprintf("owner:%d:*", ownerID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("survey:%d:*", ownerID))
	SafeInvalidatePattern(ctx, cm.Stats, "analytics:*")
}
