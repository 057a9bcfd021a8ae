package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// QuestionType enumerates every question kind the scoring engine understands.
type QuestionType string

const (
	SingleSelect      QuestionType = "single_select"
	SingleSelectImage QuestionType = "single_select_image"
	Dropdown          QuestionType = "dropdown"
	MultiSelect       QuestionType = "multi_select"
	MultiSelectImage  QuestionType = "multi_select_image"
	SingleLineText    QuestionType = "single_line_text"
	EmailAddress      QuestionType = "email_address"
	CommentBox        QuestionType = "comment_box"
	ContactInfo       QuestionType = "contact_info"
	DragDropOrdering  QuestionType = "drag_drop_ordering"
	StarRating        QuestionType = "star_rating"
	SmileRating       QuestionType = "smile_rating"
	Calendar          QuestionType = "calendar"
	DateTime          QuestionType = "date_time"
)

// ExternalQuestionOrder is assigned to questions injected from outside the
// survey definition so they sort ahead of every native question.
const ExternalQuestionOrder = -1

// AllQuestionTypes lists every supported type, used by ingestion validation.
var AllQuestionTypes = []QuestionType{
	SingleSelect, SingleSelectImage, Dropdown,
	MultiSelect, MultiSelectImage,
	SingleLineText, EmailAddress, CommentBox, ContactInfo,
	DragDropOrdering, StarRating, SmileRating,
	Calendar, DateTime,
}

// IsValid checks if the question type is one of the supported kinds.
func (t QuestionType) IsValid() bool {
	for _, qt := range AllQuestionTypes {
		if t == qt {
			return true
		}
	}
	return false
}

// IsSingleAnswer reports whether the type is scored against a single key value.
func (t QuestionType) IsSingleAnswer() bool {
	switch t {
	case SingleSelect, SingleSelectImage, Dropdown, SmileRating, Calendar:
		return true
	}
	return false
}

// IsMultiAnswer reports whether the type is scored per matched key element.
func (t QuestionType) IsMultiAnswer() bool {
	return t == MultiSelect || t == MultiSelectImage
}

// IsManuallyScored reports whether the type has no answer key and only
// receives marks through a manual grading pass.
func (t QuestionType) IsManuallyScored() bool {
	switch t {
	case SingleLineText, EmailAddress, CommentBox, ContactInfo, DateTime:
		return true
	}
	return false
}

// QuestionSnapshot is the frozen copy of a question as it was answered.
// Attempts and results carry snapshots, never references, so later edits to
// the survey definition cannot change historical scores.
type QuestionSnapshot struct {
	Code      string         `json:"code"`
	Text      string         `json:"text"`
	Type      QuestionType   `json:"type"`
	Order     int            `json:"order"`
	Marks     float64        `json:"marks"`
	AnswerKey datatypes.JSON `json:"answer_key,omitempty"`
	Meta      datatypes.JSON `json:"meta,omitempty"`
}

// AttemptQuestion pairs a question snapshot with what the respondent submitted
// and the score awarded for it.
type AttemptQuestion struct {
	QuestionSnapshot
	SubmittedValue datatypes.JSON `json:"submitted_value,omitempty"`
	Score          float64        `json:"score"`
	External       bool           `json:"external,omitempty"`
}

// SelectOption is one choice of a select-family question.
type SelectOption struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	ImageURL *string `json:"image_url,omitempty"`
}

// SelectMeta describes the choices of single_select, single_select_image,
// dropdown, multi_select and multi_select_image questions.
type SelectMeta struct {
	Options []SelectOption `json:"options"`
}

// OrderingMeta describes a drag_drop_ordering question. Positions holds the
// item labels in their authored (correct) order.
type OrderingMeta struct {
	Positions []string `json:"positions"`
}

// RatingField is one row of a star_rating or smile_rating question.
type RatingField struct {
	Label string `json:"label"`
	Scale int    `json:"scale"`
}

// RatingMeta describes the rating rows of star_rating and smile_rating.
type RatingMeta struct {
	Fields []RatingField `json:"fields"`
}

// ContactMeta lists the sub-fields a contact_info question collects.
type ContactMeta struct {
	Fields []string `json:"fields"`
}

// SelectMeta decodes the question meta as a select-family schema.
func (q *QuestionSnapshot) SelectMeta() (SelectMeta, error) {
	var m SelectMeta
	if len(q.Meta) == 0 {
		return m, nil
	}
	err := json.Unmarshal(q.Meta, &m)
	return m, err
}

// OrderingMeta decodes the question meta as an ordering schema.
func (q *QuestionSnapshot) OrderingMeta() (OrderingMeta, error) {
	var m OrderingMeta
	if len(q.Meta) == 0 {
		return m, nil
	}
	err := json.Unmarshal(q.Meta, &m)
	return m, err
}
