package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
)

// SurveyFilters narrows survey listing queries.
type SurveyFilters struct {
	Kind      *models.SurveyKind
	CreatedBy *string
	Search    *string
	DateFrom  *time.Time
	DateTo    *time.Time
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// AttemptFilters narrows attempt listing queries.
type AttemptFilters struct {
	OwnerID         *uint
	RespondentEmail *string
	IsRedo          *bool
	DateFrom        *time.Time
	DateTo          *time.Time
	SortBy          string
	SortOrder       string
	Limit           int
	Offset          int
}

// SurveyRepository provides read access to survey definitions and invites.
type SurveyRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Survey, error)
	GetWithInvites(ctx context.Context, tx *gorm.DB, id uint) (*models.Survey, error)
	List(ctx context.Context, tx *gorm.DB, filters SurveyFilters) ([]*models.Survey, int64, error)
	InvitedEmails(ctx context.Context, tx *gorm.DB, surveyID uint) ([]string, error)
}

// AttemptRepository stores raw submissions before scoring.
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Attempt, error)
	GetByRespondent(ctx context.Context, tx *gorm.DB, ownerID uint, email string) ([]*models.Attempt, error)
	CountByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error)
}

// ResultRepository stores materialized scores. Upsert keys on
// (owner_id, respondent_email, attempt_id) so re-scoring never duplicates.
type ResultRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, result *models.Result) error
	Update(ctx context.Context, tx *gorm.DB, result *models.Result) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	GetByAttempt(ctx context.Context, tx *gorm.DB, ownerID uint, email string, attemptID uint) (*models.Result, error)
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Result, error)
	GetByRespondent(ctx context.Context, tx *gorm.DB, ownerID uint, email string) ([]*models.Result, error)
	DeleteByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error)
	CountByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error)
}

// UserRepository resolves respondent emails against the directory service.
// Read-only; the directory is owned elsewhere.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmails(ctx context.Context, emails []string) (map[string]*models.User, error)
}
