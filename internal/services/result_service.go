package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/reospicespowders/product-backend-sub002/internal/events"
	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
	"github.com/reospicespowders/product-backend-sub002/internal/validator"
)

type resultService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewResultService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ResultService {
	return &resultService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== MATERIALIZATION =====

// Materialize scores one attempt and persists the derived result. If the
// attempt already has a result the stored row is returned untouched.
func (s *resultService) Materialize(ctx context.Context, attemptID uint) (*models.Result, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	// Idempotency: an already materialized attempt is a no-op
	existing, err := s.repo.Result().GetByAttempt(ctx, nil, attempt.OwnerID, attempt.RespondentEmail, attempt.ID)
	if err == nil {
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing result: %w", err)
	}

	bands, err := s.bandsForOwner(ctx, attempt.OwnerID)
	if err != nil {
		return nil, err
	}

	result, err := s.buildResult(attempt, bands)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Result().Upsert(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to persist result: %w", err)
	}

	s.logger.Info("Result materialized",
		"attempt_id", attempt.ID,
		"owner_id", attempt.OwnerID,
		"respondent", attempt.RespondentEmail,
		"percentage", result.Percentage)

	s.publishEvent(ctx, events.TopicResults, events.TypeResultMaterialized, map[string]interface{}{
		"result_id":  result.ID,
		"owner_id":   result.OwnerID,
		"attempt_id": result.AttemptID,
		"percentage": result.Percentage,
	})

	return result, nil
}

// MaterializeAll scores every attempt of a survey that has no result yet.
// Individual failures are logged and counted, never abort the batch.
func (s *resultService) MaterializeAll(ctx context.Context, ownerID uint) (*MaterializeSummary, error) {
	started := time.Now()

	attempts, err := s.repo.Attempt().GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}

	bands, err := s.bandsForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Result().GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing results: %w", err)
	}
	materialized := make(map[string]bool, len(existing))
	for _, r := range existing {
		materialized[resultIdentity(r.RespondentEmail, r.AttemptID)] = true
	}

	summary := &MaterializeSummary{OwnerID: ownerID, Attempts: len(attempts)}

	for _, attempt := range attempts {
		if materialized[resultIdentity(attempt.RespondentEmail, attempt.ID)] {
			summary.Skipped++
			continue
		}

		result, err := s.buildResult(attempt, bands)
		if err != nil {
			s.logger.Warn("Skipping malformed attempt",
				"attempt_id", attempt.ID,
				"owner_id", ownerID,
				"error", err)
			summary.Failed++
			continue
		}

		if err := s.repo.Result().Upsert(ctx, nil, result); err != nil {
			s.logger.Error("Failed to persist result",
				"attempt_id", attempt.ID,
				"error", err)
			summary.Failed++
			continue
		}
		summary.Materialized++
	}

	summary.Took = time.Since(started)

	s.logger.Info("Bulk materialization completed",
		"owner_id", ownerID,
		"attempts", summary.Attempts,
		"materialized", summary.Materialized,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	s.publishEvent(ctx, events.TopicResults, events.TypeResultMaterialized, map[string]interface{}{
		"owner_id":     ownerID,
		"materialized": summary.Materialized,
		"skipped":      summary.Skipped,
	})

	return summary, nil
}

// Regenerate deletes every result of the survey and rebuilds from attempts.
// The two phases are deliberately not atomic: a crash in between leaves the
// owner with no results, and re-running converges to the full set.
func (s *resultService) Regenerate(ctx context.Context, ownerID uint) (*MaterializeSummary, error) {
	deleted, err := s.repo.Result().DeleteByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete results: %w", err)
	}

	s.logger.Info("Results deleted for regeneration",
		"owner_id", ownerID,
		"deleted", deleted)

	summary, err := s.MaterializeAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	summary.Deleted = deleted

	s.publishEvent(ctx, events.TopicResults, events.TypeResultsRegenerated, map[string]interface{}{
		"owner_id":     ownerID,
		"deleted":      deleted,
		"materialized": summary.Materialized,
	})

	return summary, nil
}

// ===== MANUAL GRADING =====

// ApplyManualGrade overrides the score of manually graded questions on one
// result and recomputes score, total, percentage and grade band.
func (s *resultService) ApplyManualGrade(ctx context.Context, resultID uint, grades []ManualGrade, graderID string) (*models.Result, error) {
	if len(grades) == 0 {
		return nil, NewValidationError("grades", "at least one grade is required", nil)
	}
	for _, g := range grades {
		if err := s.validator.Validate(g); err != nil {
			return nil, err
		}
	}

	result, err := s.repo.Result().GetByID(ctx, nil, resultID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	questions, err := result.QuestionList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode result questions: %w", err)
	}

	byCode := make(map[string]int, len(questions))
	for i, q := range questions {
		byCode[q.Code] = i
	}

	for _, grade := range grades {
		idx, ok := byCode[grade.Code]
		if !ok {
			return nil, NewValidationError("code", "question not found on result", grade.Code)
		}
		q := &questions[idx]
		if !q.Type.IsManuallyScored() {
			return nil, ErrNotManuallyGradable
		}
		if q.Marks > 0 && grade.Score > q.Marks {
			return nil, NewValidationError("score", "score exceeds question marks", grade.Score)
		}
		q.Score = grade.Score
	}

	bands, err := s.bandsForOwner(ctx, result.OwnerID)
	if err != nil {
		return nil, err
	}

	score, totalMarks := sumScores(questions)
	encoded, err := models.EncodeQuestions(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	result.Questions = encoded
	result.Score = score
	result.TotalMarks = totalMarks
	result.Percentage = Percentage(score, totalMarks)
	result.GradeBand = ResolveGradeBand(float64(result.Percentage), bands)
	result.ManuallyGraded = true

	if err := s.repo.Result().Upsert(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to persist manually graded result: %w", err)
	}

	s.logger.Info("Manual grade applied",
		"result_id", result.ID,
		"grader_id", graderID,
		"questions", len(grades),
		"percentage", result.Percentage)

	s.publishEvent(ctx, events.TopicResults, events.TypeResultManuallyGraded, map[string]interface{}{
		"result_id":  result.ID,
		"owner_id":   result.OwnerID,
		"grader_id":  graderID,
		"percentage": result.Percentage,
	})

	return result, nil
}

// ===== READS =====

func (s *resultService) GetByID(ctx context.Context, resultID uint) (*models.Result, error) {
	result, err := s.repo.Result().GetByID(ctx, nil, resultID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

func (s *resultService) GetByOwner(ctx context.Context, ownerID uint) ([]*models.Result, error) {
	results, err := s.repo.Result().GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	return results, nil
}

// ===== HELPERS =====

// buildResult scores the attempt's question snapshot and derives the result
// row. External questions keep the sentinel order so exports sort them first.
func (s *resultService) buildResult(attempt *models.Attempt, bands []models.CriteriaBand) (*models.Result, error) {
	questions, err := attempt.QuestionList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode attempt questions: %w", err)
	}
	external, err := attempt.ExternalQuestionList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode external questions: %w", err)
	}

	scored := make([]models.AttemptQuestion, 0, len(questions)+len(external))
	for _, q := range external {
		q.External = true
		q.Order = models.ExternalQuestionOrder
		q.Score = ScoreQuestion(&q)
		scored = append(scored, q)
	}
	for _, q := range questions {
		q.Score = ScoreQuestion(&q)
		scored = append(scored, q)
	}

	score, totalMarks := sumScores(scored)
	percentage := Percentage(score, totalMarks)

	encoded, err := models.EncodeQuestions(scored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scored questions: %w", err)
	}

	return &models.Result{
		OwnerID:         attempt.OwnerID,
		RespondentEmail: attempt.RespondentEmail,
		AttemptID:       attempt.ID,
		ExternalName:    attempt.ExternalName,
		Score:           score,
		TotalMarks:      totalMarks,
		Percentage:      percentage,
		GradeBand:       ResolveGradeBand(float64(percentage), bands),
		Questions:       encoded,
		TimeTakenSecs:   attempt.TimeTakenSeconds,
	}, nil
}

// bandsForOwner loads the survey's ordered criteria bands. A missing survey
// just means ungraded results, not a failure.
func (s *resultService) bandsForOwner(ctx context.Context, ownerID uint) ([]models.CriteriaBand, error) {
	survey, err := s.repo.Survey().GetByID(ctx, nil, ownerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	bands, err := survey.BandList()
	if err != nil {
		s.logger.Warn("Malformed criteria bands, treating as ungraded",
			"owner_id", ownerID,
			"error", err)
		return nil, nil
	}
	return bands, nil
}

func (s *resultService) publishEvent(ctx context.Context, topic, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, events.NewEvent(eventType, data)); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", eventType,
			"error", err)
	}
}

func sumScores(questions []models.AttemptQuestion) (score, totalMarks float64) {
	for _, q := range questions {
		score += q.Score
		totalMarks += q.Marks
	}
	return score, totalMarks
}

func resultIdentity(email string, attemptID uint) string {
	return fmt.Sprintf("%s#%d", email, attemptID)
}
