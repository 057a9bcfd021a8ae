package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/reospicespowders/product-backend-sub002/internal/cache"
	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
)

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	db := a.getDB(tx)
	// Attempts are immutable after submission, safe to cache aggressively
	cacheKey := fmt.Sprintf("id:%d", id)
	var attempt models.Attempt

	err := a.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &attempt, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbAttempt models.Attempt
		if err := db.WithContext(ctx).First(&dbAttempt, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get attempt: %w", err)
		}
		return &dbAttempt, nil
	})

	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Attempt{})
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

// GetByOwner returns every attempt of a survey in submission order.
func (a *AttemptPostgreSQL) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Attempt, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt
	if err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempts by owner: %w", err)
	}
	return attempts, nil
}

// GetByRespondent returns one respondent's attempts for a survey in submission order.
func (a *AttemptPostgreSQL) GetByRespondent(ctx context.Context, tx *gorm.DB, ownerID uint, email string) ([]*models.Attempt, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt
	if err := db.WithContext(ctx).
		Where("owner_id = ? AND respondent_email = ?", ownerID, email).
		Order("id ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempts by respondent: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) CountByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
