package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SurveyKind distinguishes feedback surveys from graded assessments. Scoring
// treats both the same; analytics only labels them differently.
type SurveyKind string

const (
	KindSurvey     SurveyKind = "survey"
	KindAssessment SurveyKind = "assessment"
)

// Survey is the owner entity results and attempts hang off. It carries the
// ordered grading bands and the multi-attempt reduction policy.
type Survey struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Title         string         `json:"title" gorm:"not null;size:500"`
	Kind          SurveyKind     `json:"kind" gorm:"not null;size:20;default:'survey'"`
	CriteriaBands datatypes.JSON `json:"criteria_bands,omitempty" gorm:"type:jsonb"`
	ReducePolicy  ReducePolicy   `json:"reduce_policy,omitempty" gorm:"size:20"`
	CreatedBy     string         `json:"created_by" gorm:"size:255;index"`
	Invites       []Invite       `json:"invites,omitempty" gorm:"foreignKey:SurveyID"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Survey) TableName() string {
	return "surveys"
}

// BandList decodes the ordered criteria bands, preserving stored order.
func (s *Survey) BandList() ([]CriteriaBand, error) {
	return DecodeBands(s.CriteriaBands)
}

// Invite records an email that was invited to take the survey. Respondents
// who answered without an invite are treated as external participants.
type Invite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SurveyID  uint      `json:"survey_id" gorm:"not null;index:idx_invites_survey_email"`
	Email     string    `json:"email" gorm:"not null;size:255;index:idx_invites_survey_email"`
	CreatedAt time.Time `json:"created_at"`
}

func (Invite) TableName() string {
	return "invites"
}
