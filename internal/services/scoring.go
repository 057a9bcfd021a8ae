package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
)

// scoreFunc computes the awarded score for one answered question.
// Implementations are pure and never return values outside [0, marks];
// malformed payloads degrade to 0 instead of failing, since a submission
// cannot be rejected after the fact.
type scoreFunc func(q *models.AttemptQuestion) float64

var scoreFuncs = map[models.QuestionType]scoreFunc{
	models.SingleSelect:      scoreSingleKey,
	models.SingleSelectImage: scoreSingleKey,
	models.Dropdown:          scoreSingleKey,
	models.SmileRating:       scoreSingleKey,
	models.Calendar:          scoreSingleKey,
	models.MultiSelect:       scoreMultiKey,
	models.MultiSelectImage:  scoreMultiKey,
	models.DragDropOrdering:  scoreOrdering,
	models.StarRating:        scoreStarRating,
	models.SingleLineText:    scoreManualOnly,
	models.EmailAddress:      scoreManualOnly,
	models.CommentBox:        scoreManualOnly,
	models.ContactInfo:       scoreManualOnly,
	models.DateTime:          scoreManualOnly,
}

// ScoreQuestion evaluates one answered question against its answer key.
// Zero-mark questions are structural (section headers and the like) and
// always score 0.
func ScoreQuestion(q *models.AttemptQuestion) float64 {
	if q == nil || q.Marks <= 0 {
		return 0
	}
	fn, ok := scoreFuncs[q.Type]
	if !ok {
		return 0
	}
	score := fn(q)
	if score < 0 {
		return 0
	}
	if score > q.Marks {
		return q.Marks
	}
	return score
}

// IsFullyCorrect reports whether a scorable question earned full marks.
func IsFullyCorrect(q *models.AttemptQuestion) bool {
	return q.Marks > 0 && q.Score == q.Marks
}

// Percentage converts a score into a whole percentage using the engine's
// biased half-up rule: floor(score/total*100 + 0.51). The 0.51 constant is
// calibrated business behavior that downstream grade bands depend on; do
// not replace it with conventional rounding.
func Percentage(score, totalMarks float64) int {
	if totalMarks == 0 {
		return 0
	}
	return int(math.Floor(score/totalMarks*100 + 0.51))
}

// ResolveGradeBand scans bands in stored order and returns the title of the
// first band whose range contains the percentage, bounds inclusive. Bands
// may overlap; the stored order decides. Nil means ungraded.
func ResolveGradeBand(percentage float64, bands []models.CriteriaBand) *string {
	for _, band := range bands {
		if band.Contains(percentage) {
			title := band.Title
			return &title
		}
	}
	return nil
}

// ===== PER-FAMILY SCORING =====

// scoreSingleKey awards full marks when the submitted scalar equals the key.
func scoreSingleKey(q *models.AttemptQuestion) float64 {
	key, ok := decodeScalar(q.AnswerKey)
	if !ok || key == "" {
		return 0 // no answer key means unscored
	}
	submitted, ok := decodeScalar(q.SubmittedValue)
	if !ok {
		return 0
	}
	if submitted == key {
		return q.Marks
	}
	return 0
}

// scoreMultiKey awards partial credit per distinct submitted entry found in
// the answer key.
func scoreMultiKey(q *models.AttemptQuestion) float64 {
	key, ok := decodeScalarList(q.AnswerKey)
	if !ok || len(key) == 0 {
		return 0
	}
	submitted, ok := decodeScalarList(q.SubmittedValue)
	if !ok {
		return 0
	}

	keySet := make(map[string]bool, len(key))
	for _, k := range key {
		keySet[k] = true
	}

	matched := 0
	seen := make(map[string]bool, len(submitted))
	for _, s := range submitted {
		if seen[s] {
			continue
		}
		seen[s] = true
		if keySet[s] {
			matched++
		}
	}

	denom := len(key)
	if denom < 1 {
		denom = 1
	}
	return q.Marks * float64(matched) / float64(denom)
}

// scoreOrdering awards marks/positionCount for every position submitted in
// its authored place.
func scoreOrdering(q *models.AttemptQuestion) float64 {
	key, ok := decodeScalarList(q.AnswerKey)
	if !ok || len(key) == 0 {
		return 0
	}
	submitted, ok := decodeScalarList(q.SubmittedValue)
	if !ok {
		return 0
	}

	perPosition := q.Marks / float64(len(key))
	total := 0.0
	for i, expected := range key {
		if i < len(submitted) && submitted[i] == expected {
			total += perPosition
		}
	}
	return total
}

// scoreStarRating awards marks/fieldCount for every rated sub-field whose
// value equals the keyed value.
func scoreStarRating(q *models.AttemptQuestion) float64 {
	key, ok := decodeScalarMap(q.AnswerKey)
	if !ok || len(key) == 0 {
		return 0
	}
	submitted, ok := decodeScalarMap(q.SubmittedValue)
	if !ok {
		return 0
	}

	perField := q.Marks / float64(len(key))
	total := 0.0
	for field, expected := range key {
		if submitted[field] == expected {
			total += perField
		}
	}
	return total
}

// scoreManualOnly covers free-text families that only a grader can score.
func scoreManualOnly(_ *models.AttemptQuestion) float64 {
	return 0
}

// ===== PAYLOAD DECODING =====

// decodeScalar normalizes a JSON scalar (string, number, bool) to a trimmed
// string for comparison. Arrays, objects and malformed payloads report false.
func decodeScalar(raw datatypes.JSON) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return scalarToString(v)
}

// decodeScalarList accepts a JSON array of scalars, or a lone scalar which
// is treated as a one-element list.
func decodeScalarList(raw datatypes.JSON) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		if s, ok := decodeScalar(raw); ok {
			return []string{s}, true
		}
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := scalarToString(item)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// decodeScalarMap accepts a JSON object of field -> scalar.
func decodeScalarMap(raw datatypes.JSON) (map[string]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	out := make(map[string]string, len(obj))
	for field, v := range obj {
		s, ok := scalarToString(v)
		if !ok {
			return nil, false
		}
		out[field] = s
	}
	return out, true
}

func scalarToString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case nil:
		return "", true
	default:
		return "", false
	}
}
