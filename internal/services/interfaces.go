package services

import (
	"context"
	"time"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
)

// ===== ATTEMPT INGESTION =====

// AttemptService accepts raw submissions, normalizes their question
// snapshots and hands them to the result service for scoring.
type AttemptService interface {
	Submit(ctx context.Context, req *SubmitAttemptRequest) (*models.Attempt, error)
	GetByID(ctx context.Context, id uint) (*models.Attempt, error)
	GetByOwner(ctx context.Context, ownerID uint) ([]*models.Attempt, error)
}

// SubmitAttemptRequest is the ingestion DTO for one submission.
type SubmitAttemptRequest struct {
	OwnerID           uint                     `json:"owner_id" validate:"required"`
	RespondentEmail   string                   `json:"respondent_email" validate:"required,email"`
	ExternalName      *string                  `json:"external_name,omitempty"`
	Questions         []models.AttemptQuestion `json:"questions" validate:"required,min=1,dive"`
	ExternalQuestions []models.AttemptQuestion `json:"external_questions,omitempty" validate:"dive"`
	TimeTakenSeconds  int                      `json:"time_taken_seconds" validate:"gte=0"`
	StartedAt         *time.Time               `json:"started_at,omitempty"`
	EndedAt           *time.Time               `json:"ended_at,omitempty"`
	IsRedo            bool                     `json:"is_redo"`
}

// ===== RESULT MATERIALIZATION =====

// ResultService turns attempts into persisted, grade-classified results.
type ResultService interface {
	// Materialize scores one attempt and persists its result. An attempt
	// that already has a result is a no-op and returns the stored row.
	Materialize(ctx context.Context, attemptID uint) (*models.Result, error)

	// MaterializeAll scores every attempt of a survey that has no result yet.
	MaterializeAll(ctx context.Context, ownerID uint) (*MaterializeSummary, error)

	// Regenerate deletes all results of a survey and rebuilds them from the
	// stored attempts. Two-phase; safe to re-run until it converges.
	Regenerate(ctx context.Context, ownerID uint) (*MaterializeSummary, error)

	// ApplyManualGrade overrides scores of manually graded questions on one
	// result and recomputes its totals, percentage and grade band.
	ApplyManualGrade(ctx context.Context, resultID uint, grades []ManualGrade, graderID string) (*models.Result, error)

	GetByID(ctx context.Context, resultID uint) (*models.Result, error)
	GetByOwner(ctx context.Context, ownerID uint) ([]*models.Result, error)
}

// ManualGrade assigns a score to one question, addressed by its code.
type ManualGrade struct {
	Code  string  `json:"code" validate:"required"`
	Score float64 `json:"score" validate:"gte=0"`
}

// MaterializeSummary reports what a bulk materialization did.
type MaterializeSummary struct {
	OwnerID      uint          `json:"owner_id"`
	Attempts     int           `json:"attempts"`
	Materialized int           `json:"materialized"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	Deleted      int64         `json:"deleted,omitempty"`
	Took         time.Duration `json:"took"`
}

// ===== ANALYTICS =====

// AnalyticsService folds results across one or many surveys into
// dashboard-ready aggregates.
type AnalyticsService interface {
	Analyze(ctx context.Context, ownerIDs []uint) (*AnalyticsBundle, error)

	// ReducedResults collapses multiple attempts per respondent according
	// to the given policy. Empty policy returns all results unchanged.
	ReducedResults(ctx context.Context, ownerID uint, policy models.ReducePolicy) ([]*models.Result, error)
}

// AnalyticsBundle is the full aggregate over a set of surveys.
type AnalyticsBundle struct {
	OwnerIDs          []uint               `json:"owner_ids"`
	TotalResults      int                  `json:"total_results"`
	Attendees         []Attendee           `json:"attendees"`
	GradeDistribution []GradeBucket        `json:"grade_distribution"`
	WorstQuestions    []QuestionDifficulty `json:"worst_questions"`
	Duration          DurationStats        `json:"duration"`
	CriteriaAverages  []CriteriaAverage    `json:"criteria_averages"`
	MultiTakers       []MultiTaker         `json:"multi_takers"`
}

// Attendee is one reconciled participant across the analyzed surveys.
type Attendee struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Gender   string `json:"gender,omitempty"`
	External bool   `json:"external"`
}

// GradeBucket counts results per resolved grade band.
type GradeBucket struct {
	Band    string   `json:"band"`
	Count   int      `json:"count"`
	Surveys []string `json:"surveys,omitempty"`
}

// QuestionDifficulty ranks a question by how often it was answered wrong.
type QuestionDifficulty struct {
	Code           string  `json:"code"`
	Text           string  `json:"text"`
	Attempts       int     `json:"attempts"`
	Correct        int     `json:"correct"`
	IncorrectRatio float64 `json:"incorrect_ratio"`
}

// DurationStats carries average/min/max time taken, both raw and formatted.
type DurationStats struct {
	AverageSeconds int    `json:"average_seconds"`
	MinSeconds     int    `json:"min_seconds"`
	MaxSeconds     int    `json:"max_seconds"`
	Average        string `json:"average"`
	Min            string `json:"min"`
	Max            string `json:"max"`
}

// CriteriaAverage is the mean percentage of results inside one band.
type CriteriaAverage struct {
	Band              string `json:"band"`
	Count             int    `json:"count"`
	AveragePercentage int    `json:"average_percentage"`
}

// MultiTaker flags a respondent with results on more than one survey.
type MultiTaker struct {
	Email    string `json:"email"`
	OwnerIDs []uint `json:"owner_ids"`
}

// ===== EXPORT =====

// ExportService flattens results into ordered rows and renders workbooks.
type ExportService interface {
	// FlattenResult normalizes one scored attempt into an ordered row list
	// plus the parallel correctness rows.
	FlattenResult(result *models.Result) (*FlattenedResult, error)

	// ExportOwner renders every result of a survey into an xlsx workbook.
	ExportOwner(ctx context.Context, ownerID uint) ([]byte, error)
}

// ExportRow is one key/value cell pair of a flattened result.
type ExportRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FlattenedResult is the tabular form of one result.
type FlattenedResult struct {
	ResultID        uint        `json:"result_id"`
	RespondentEmail string      `json:"respondent_email"`
	Rows            []ExportRow `json:"rows"`
	CorrectnessRows []ExportRow `json:"correctness_rows"`
}
