package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Attempt is one submission of a survey or assessment by a respondent.
// Questions and ExternalQuestions hold []AttemptQuestion snapshots as JSONB.
type Attempt struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	OwnerID           uint           `json:"owner_id" gorm:"not null;index:idx_attempts_owner_email"`
	RespondentEmail   string         `json:"respondent_email" gorm:"not null;size:255;index:idx_attempts_owner_email"`
	ExternalName      *string        `json:"external_name,omitempty" gorm:"size:255"`
	Questions         datatypes.JSON `json:"questions" gorm:"type:jsonb"`
	ExternalQuestions datatypes.JSON `json:"external_questions,omitempty" gorm:"type:jsonb"`
	AttemptNumber     int            `json:"attempt_number" gorm:"not null;default:1"`
	IsRedo            bool           `json:"is_redo" gorm:"default:false"`
	TimeTakenSeconds  int            `json:"time_taken_seconds" gorm:"default:0"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	EndedAt           *time.Time     `json:"ended_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// QuestionList decodes the native question snapshots of this attempt.
func (a *Attempt) QuestionList() ([]AttemptQuestion, error) {
	return decodeQuestions(a.Questions)
}

// ExternalQuestionList decodes the injected question snapshots of this attempt.
func (a *Attempt) ExternalQuestionList() ([]AttemptQuestion, error) {
	return decodeQuestions(a.ExternalQuestions)
}

func decodeQuestions(raw datatypes.JSON) ([]AttemptQuestion, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var questions []AttemptQuestion
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// EncodeQuestions marshals question snapshots back into a JSONB column value.
func EncodeQuestions(questions []AttemptQuestion) (datatypes.JSON, error) {
	if questions == nil {
		return nil, nil
	}
	raw, err := json.Marshal(questions)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
