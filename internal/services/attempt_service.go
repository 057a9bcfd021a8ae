package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
	"github.com/reospicespowders/product-backend-sub002/internal/validator"
)

type attemptService struct {
	db            *gorm.DB
	repo          repositories.Repository
	logger        *slog.Logger
	validator     *validator.Validator
	resultService ResultService
}

func NewAttemptService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, resultService ResultService) AttemptService {
	return &attemptService{
		db:            db,
		repo:          repo,
		logger:        logger,
		validator:     validator,
		resultService: resultService,
	}
}

// Submit validates and stores one raw submission, then materializes its
// result. The question snapshots are normalized here so scoring downstream
// never sees malformed shapes.
func (s *attemptService) Submit(ctx context.Context, req *SubmitAttemptRequest) (*models.Attempt, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Survey().GetByID(ctx, nil, req.OwnerID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}

	questions, err := normalizeQuestions(req.Questions, false)
	if err != nil {
		return nil, err
	}
	external, err := normalizeQuestions(req.ExternalQuestions, true)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.RespondentEmail))

	prior, err := s.repo.Attempt().GetByRespondent(ctx, nil, req.OwnerID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to count prior attempts: %w", err)
	}

	encodedQuestions, err := models.EncodeQuestions(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	encodedExternal, err := models.EncodeQuestions(external)
	if err != nil {
		return nil, fmt.Errorf("failed to encode external questions: %w", err)
	}

	attempt := &models.Attempt{
		OwnerID:           req.OwnerID,
		RespondentEmail:   email,
		ExternalName:      req.ExternalName,
		Questions:         encodedQuestions,
		ExternalQuestions: encodedExternal,
		AttemptNumber:     len(prior) + 1,
		IsRedo:            req.IsRedo || len(prior) > 0,
		TimeTakenSeconds:  req.TimeTakenSeconds,
		StartedAt:         req.StartedAt,
		EndedAt:           req.EndedAt,
	}

	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Attempt submitted",
		"attempt_id", attempt.ID,
		"owner_id", attempt.OwnerID,
		"respondent", attempt.RespondentEmail,
		"attempt_number", attempt.AttemptNumber)

	if s.resultService != nil {
		if _, err := s.resultService.Materialize(ctx, attempt.ID); err != nil {
			// Submission stands; the result can be materialized again later
			s.logger.Error("Failed to materialize result for new attempt",
				"attempt_id", attempt.ID,
				"error", err)
		}
	}

	return attempt, nil
}

func (s *attemptService) GetByID(ctx context.Context, id uint) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}

func (s *attemptService) GetByOwner(ctx context.Context, ownerID uint) ([]*models.Attempt, error) {
	attempts, err := s.repo.Attempt().GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	return attempts, nil
}

// normalizeQuestions enforces the snapshot shape at the ingestion boundary:
// known type, non-empty code, non-negative marks. External questions get the
// sentinel order so they sort ahead of native ones everywhere downstream.
func normalizeQuestions(questions []models.AttemptQuestion, external bool) ([]models.AttemptQuestion, error) {
	if len(questions) == 0 {
		return nil, nil
	}

	out := make([]models.AttemptQuestion, 0, len(questions))
	for i, q := range questions {
		q.Code = strings.TrimSpace(q.Code)
		q.Text = strings.TrimSpace(q.Text)

		if q.Code == "" {
			return nil, NewValidationError("code", fmt.Sprintf("question %d has no code", i), nil)
		}
		if !q.Type.IsValid() {
			return nil, NewValidationError("type", fmt.Sprintf("question %s has unsupported type", q.Code), string(q.Type))
		}
		if q.Marks < 0 {
			q.Marks = 0
		}
		if external {
			q.External = true
			q.Order = models.ExternalQuestionOrder
		}
		q.Score = 0 // scores are assigned by materialization only

		out = append(out, q)
	}
	return out, nil
}
