package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reospicespowders/product-backend-sub002/internal/cache"
	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
)

type ResultPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewResultPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Upsert inserts the result or, when a row already exists for the same
// (owner_id, respondent_email, attempt_id), overwrites its scoring columns.
func (r *ResultPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	db := r.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "owner_id"},
			{Name: "respondent_email"},
			{Name: "attempt_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_name", "score", "total_marks", "percentage",
			"grade_band", "questions", "time_taken_secs", "manually_graded", "updated_at",
		}),
	}).Create(result).Error
	if err != nil {
		return fmt.Errorf("failed to upsert result: %w", err)
	}

	r.invalidateOwner(ctx, result.OwnerID)
	return nil
}

func (r *ResultPostgreSQL) Update(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(result).Error; err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}
	r.invalidateOwner(ctx, result.OwnerID)
	return nil
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	db := r.getDB(tx)
	var result models.Result
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, ownerID uint, email string, attemptID uint) (*models.Result, error) {
	db := r.getDB(tx)
	var result models.Result
	if err := db.WithContext(ctx).
		Where("owner_id = ? AND respondent_email = ? AND attempt_id = ?", ownerID, email, attemptID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get result by attempt: %w", err)
	}
	return &result, nil
}

// GetByOwner returns every result of a survey, oldest first. Analytics and
// export both depend on this ordering for attempt numbering.
func (r *ResultPostgreSQL) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Result, error) {
	db := r.getDB(tx)
	var results []*models.Result
	if err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get results by owner: %w", err)
	}
	return results, nil
}

func (r *ResultPostgreSQL) GetByRespondent(ctx context.Context, tx *gorm.DB, ownerID uint, email string) ([]*models.Result, error) {
	db := r.getDB(tx)
	var results []*models.Result
	if err := db.WithContext(ctx).
		Where("owner_id = ? AND respondent_email = ?", ownerID, email).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get results by respondent: %w", err)
	}
	return results, nil
}

// DeleteByOwner removes all results of a survey and reports how many rows
// went away. Regeneration calls this before re-scoring.
func (r *ResultPostgreSQL) DeleteByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error) {
	db := r.getDB(tx)
	res := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&models.Result{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete results by owner: %w", res.Error)
	}

	r.invalidateOwner(ctx, ownerID)
	// Regeneration usually follows an upstream edit to the survey definition;
	// drop the cached copy so re-scoring reads the current bands and keys.
	cache.InvalidateSurveyCache(ctx, r.cacheManager, ownerID)
	return res.RowsAffected, nil
}

func (r *ResultPostgreSQL) CountByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Result{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ResultPostgreSQL) invalidateOwner(ctx context.Context, ownerID uint) {
	cache.InvalidateResultCache(ctx, r.cacheManager, ownerID)
}
