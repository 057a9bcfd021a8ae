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

type SurveyPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSurveyPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SurveyRepository {
	return &SurveyPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SurveyPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SurveyPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Survey, error) {
	db := s.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var survey models.Survey

	err := s.cacheManager.Survey.CacheOrExecute(ctx, cacheKey, &survey, cache.SurveyCacheConfig.TTL, func() (interface{}, error) {
		var dbSurvey models.Survey
		if err := db.WithContext(ctx).First(&dbSurvey, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get survey: %w", err)
		}
		return &dbSurvey, nil
	})

	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (s *SurveyPostgreSQL) GetWithInvites(ctx context.Context, tx *gorm.DB, id uint) (*models.Survey, error) {
	db := s.getDB(tx)
	var survey models.Survey
	if err := db.WithContext(ctx).
		Preload("Invites").
		First(&survey, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get survey with invites: %w", err)
	}
	return &survey, nil
}

func (s *SurveyPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SurveyFilters) ([]*models.Survey, int64, error) {
	db := s.getDB(tx)
	var surveys []*models.Survey
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Survey{})
	query = s.helpers.ApplySurveyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&surveys).Error; err != nil {
		return nil, 0, err
	}

	return surveys, total, nil
}

func (s *SurveyPostgreSQL) InvitedEmails(ctx context.Context, tx *gorm.DB, surveyID uint) ([]string, error) {
	db := s.getDB(tx)
	var emails []string
	if err := db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("survey_id = ?", surveyID).
		Pluck("email", &emails).Error; err != nil {
		return nil, fmt.Errorf("failed to get invited emails: %w", err)
	}
	return emails, nil
}
