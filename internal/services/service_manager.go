package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/reospicespowders/product-backend-sub002/internal/cache"
	"github.com/reospicespowders/product-backend-sub002/internal/events"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
	"github.com/reospicespowders/product-backend-sub002/internal/validator"
)

// ServiceManagerConfig wires the dependencies every service shares.
type ServiceManagerConfig struct {
	DB           *gorm.DB
	Repo         repositories.Repository
	Logger       *slog.Logger
	Validator    *validator.Validator
	CacheManager *cache.CacheManager
	Publisher    events.EventPublisher
}

// ServiceManager owns the engine's service instances and their lifecycle.
type ServiceManager struct {
	config ServiceManagerConfig

	result    ResultService
	attempt   AttemptService
	analytics AnalyticsService
	export    ExportService
}

func NewServiceManager(config ServiceManagerConfig) (*ServiceManager, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if config.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if config.Validator == nil {
		config.Validator = validator.New()
	}
	if config.CacheManager == nil {
		config.CacheManager = cache.NewCacheManager(nil)
	}

	sm := &ServiceManager{config: config}

	sm.result = NewResultService(config.DB, config.Repo, config.Logger, config.Validator, config.Publisher)
	sm.attempt = NewAttemptService(config.DB, config.Repo, config.Logger, config.Validator, sm.result)
	sm.analytics = NewAnalyticsService(config.DB, config.Repo, config.Logger, config.CacheManager)
	sm.export = NewExportService(config.DB, config.Repo, config.Logger)

	return sm, nil
}

func (sm *ServiceManager) Result() ResultService {
	return sm.result
}

func (sm *ServiceManager) Attempt() AttemptService {
	return sm.attempt
}

func (sm *ServiceManager) Analytics() AnalyticsService {
	return sm.analytics
}

func (sm *ServiceManager) Export() ExportService {
	return sm.export
}

// HealthCheck verifies the shared dependencies are reachable.
func (sm *ServiceManager) HealthCheck(ctx context.Context) error {
	return sm.config.Repo.Ping(ctx)
}

// Shutdown releases broker and store connections.
func (sm *ServiceManager) Shutdown(ctx context.Context) error {
	if sm.config.Publisher != nil {
		if err := sm.config.Publisher.Close(); err != nil {
			sm.config.Logger.Error("Failed to close event publisher", "error", err)
		}
	}
	return sm.config.Repo.Close()
}
