package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ReducePolicy selects which attempt survives when a respondent has several
// results for the same survey.
type ReducePolicy string

const (
	// ReduceNone keeps every attempt.
	ReduceNone ReducePolicy = ""
	// ReduceHighest keeps the attempt with the highest percentage.
	ReduceHighest ReducePolicy = "highest"
	// ReduceLowest keeps the attempt with the lowest percentage.
	ReduceLowest ReducePolicy = "lowest"
	// ReduceLatest keeps the most recently created result.
	ReduceLatest ReducePolicy = "latest"
	// ReduceEarliest keeps the first created result.
	ReduceEarliest ReducePolicy = "earliest"
)

// IsValid checks if the policy is one of the supported reductions.
func (p ReducePolicy) IsValid() bool {
	switch p {
	case ReduceNone, ReduceHighest, ReduceLowest, ReduceLatest, ReduceEarliest:
		return true
	}
	return false
}

// GradeUngraded is the band title used when a survey defines no criteria
// bands or no band matches the percentage.
const GradeUngraded = "ungraded"

// Result is the materialized score of one attempt. At most one result exists
// per (owner, respondent, attempt); re-materializing the same attempt updates
// the row in place.
type Result struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	OwnerID         uint           `json:"owner_id" gorm:"not null;uniqueIndex:idx_results_owner_email_attempt;index"`
	RespondentEmail string         `json:"respondent_email" gorm:"not null;size:255;uniqueIndex:idx_results_owner_email_attempt"`
	AttemptID       uint           `json:"attempt_id" gorm:"not null;uniqueIndex:idx_results_owner_email_attempt"`
	ExternalName    *string        `json:"external_name,omitempty" gorm:"size:255"`
	Score           float64        `json:"score" gorm:"not null;default:0"`
	TotalMarks      float64        `json:"total_marks" gorm:"not null;default:0"`
	Percentage      int            `json:"percentage" gorm:"not null;default:0"`
	GradeBand       *string        `json:"grade_band,omitempty" gorm:"size:100"`
	Questions       datatypes.JSON `json:"questions" gorm:"type:jsonb"`
	TimeTakenSecs   int            `json:"time_taken_seconds" gorm:"default:0"`
	ManuallyGraded  bool           `json:"manually_graded" gorm:"default:false"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (Result) TableName() string {
	return "results"
}

// QuestionList decodes the scored question snapshots stored on this result.
func (r *Result) QuestionList() ([]AttemptQuestion, error) {
	return decodeQuestions(r.Questions)
}

// GradeTitle returns the resolved band title, or "ungraded" when none matched.
func (r *Result) GradeTitle() string {
	if r.GradeBand == nil || *r.GradeBand == "" {
		return GradeUngraded
	}
	return *r.GradeBand
}

// CriteriaBand is one grading band. Bands are evaluated in stored order and
// the first band whose [From, To] range contains the percentage wins.
type CriteriaBand struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Title string  `json:"title"`
}

// Contains reports whether pct falls inside this band, bounds inclusive.
func (b CriteriaBand) Contains(pct float64) bool {
	return pct >= b.From && pct <= b.To
}

// DecodeBands unmarshals an ordered band list from a JSONB column.
func DecodeBands(raw datatypes.JSON) ([]CriteriaBand, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var bands []CriteriaBand
	if err := json.Unmarshal(raw, &bands); err != nil {
		return nil, err
	}
	return bands, nil
}
