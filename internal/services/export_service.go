package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
)

type exportService struct {
	db     *gorm.DB
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// ===== ROW FLATTENING =====

// FlattenResult normalizes the heterogeneous question shapes of one scored
// attempt into a uniform ordered key/value sequence, plus the parallel
// correctness rows. Externally injected questions sort before native ones;
// native questions follow their authored order.
func (s *exportService) FlattenResult(result *models.Result) (*FlattenedResult, error) {
	questions, err := result.QuestionList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode result questions: %w", err)
	}

	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})

	flat := &FlattenedResult{
		ResultID:        result.ID,
		RespondentEmail: result.RespondentEmail,
		Rows:            []ExportRow{},
		CorrectnessRows: []ExportRow{},
	}

	for i := range questions {
		q := &questions[i]
		flat.Rows = append(flat.Rows, flattenQuestion(q)...)

		// Correctness is suppressed for structural and injected questions
		if q.Marks <= 0 || q.External {
			continue
		}
		flat.CorrectnessRows = append(flat.CorrectnessRows, ExportRow{
			Key:   "[Answer]: " + q.Text,
			Value: correctnessValue(IsFullyCorrect(q)),
		})
	}

	return flat, nil
}

// flattenQuestion emits the per-type row shape for one question.
func flattenQuestion(q *models.AttemptQuestion) []ExportRow {
	switch {
	case q.Type == models.ContactInfo:
		return flattenContactInfo(q)
	case q.Type == models.StarRating:
		return flattenRating(q)
	case q.Type == models.DragDropOrdering:
		return flattenOrdering(q)
	case q.Type.IsMultiAnswer():
		return flattenMultiSelect(q)
	default:
		// Single-answer and free-text types emit one row each
		value, _ := decodeScalar(q.SubmittedValue)
		return []ExportRow{{Key: q.Text, Value: value}}
	}
}

// flattenContactInfo emits one row per collected sub-field, in the order
// the question's meta declares them.
func flattenContactInfo(q *models.AttemptQuestion) []ExportRow {
	submitted, ok := decodeScalarMap(q.SubmittedValue)
	if !ok {
		return []ExportRow{{Key: q.Text, Value: ""}}
	}

	fields := contactFieldOrder(q, submitted)
	rows := make([]ExportRow, 0, len(fields))
	for _, field := range fields {
		rows = append(rows, ExportRow{Key: field, Value: submitted[field]})
	}
	return rows
}

func contactFieldOrder(q *models.AttemptQuestion, submitted map[string]string) []string {
	var meta models.ContactMeta
	if err := unmarshalMeta(q, &meta); err == nil && len(meta.Fields) > 0 {
		return meta.Fields
	}

	fields := make([]string, 0, len(submitted))
	for field := range submitted {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// flattenRating emits one row per rated sub-field.
func flattenRating(q *models.AttemptQuestion) []ExportRow {
	submitted, ok := decodeScalarMap(q.SubmittedValue)
	if !ok {
		return []ExportRow{{Key: q.Text, Value: ""}}
	}

	var meta models.RatingMeta
	var labels []string
	if err := unmarshalMeta(q, &meta); err == nil && len(meta.Fields) > 0 {
		for _, f := range meta.Fields {
			labels = append(labels, f.Label)
		}
	} else {
		for label := range submitted {
			labels = append(labels, label)
		}
		sort.Strings(labels)
	}

	rows := make([]ExportRow, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, ExportRow{
			Key:   fmt.Sprintf("%s: %s", q.Text, label),
			Value: submitted[label],
		})
	}
	return rows
}

// flattenOrdering emits one row per position in submitted order.
func flattenOrdering(q *models.AttemptQuestion) []ExportRow {
	submitted, ok := decodeScalarList(q.SubmittedValue)
	if !ok {
		return []ExportRow{{Key: q.Text, Value: ""}}
	}

	rows := make([]ExportRow, 0, len(submitted))
	for i, value := range submitted {
		rows = append(rows, ExportRow{
			Key:   fmt.Sprintf("%s| Position:%d", q.Text, i+1),
			Value: value,
		})
	}
	return rows
}

// flattenMultiSelect emits one comma-joined row in submission order.
func flattenMultiSelect(q *models.AttemptQuestion) []ExportRow {
	submitted, ok := decodeScalarList(q.SubmittedValue)
	if !ok {
		return []ExportRow{{Key: q.Text, Value: ""}}
	}
	return []ExportRow{{Key: q.Text, Value: strings.Join(submitted, ", ")}}
}

func correctnessValue(correct bool) string {
	if correct {
		return "TRUE"
	}
	return "FALSE"
}

func unmarshalMeta(q *models.AttemptQuestion, dest interface{}) error {
	if len(q.Meta) == 0 {
		return fmt.Errorf("no meta")
	}
	return json.Unmarshal(q.Meta, dest)
}

// ===== WORKBOOK RENDERING =====

// ExportOwner renders every result of a survey into one xlsx sheet. Columns
// are the union of flattened row keys in first-appearance order, prefixed by
// the fixed respondent columns and followed by the correctness columns.
func (s *exportService) ExportOwner(ctx context.Context, ownerID uint) ([]byte, error) {
	results, err := s.repo.Result().GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	type exportEntry struct {
		result *models.Result
		flat   *FlattenedResult
	}
	entries := make([]exportEntry, 0, len(results))
	flattened := make([]*FlattenedResult, 0, len(results))
	for _, result := range results {
		flat, err := s.FlattenResult(result)
		if err != nil {
			s.logger.Warn("Skipping unflattenable result",
				"result_id", result.ID,
				"error", err)
			continue
		}
		entries = append(entries, exportEntry{result: result, flat: flat})
		flattened = append(flattened, flat)
	}

	fixed := []string{"Email", "Name", "Score", "Total Marks", "Percentage", "Grade", "Time Taken"}
	answerCols, correctnessCols := collectColumns(flattened)

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := append(append(append([]string{}, fixed...), answerCols...), correctnessCols...)
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for i, entry := range entries {
		result, flat := entry.result, entry.flat
		values := map[string]string{}
		for _, row := range flat.Rows {
			values[row.Key] = row.Value
		}
		for _, row := range flat.CorrectnessRows {
			values[row.Key] = row.Value
		}

		name := ""
		if result.ExternalName != nil {
			name = *result.ExternalName
		}
		cells := []interface{}{
			result.RespondentEmail,
			name,
			result.Score,
			result.TotalMarks,
			result.Percentage,
			result.GradeTitle(),
			FormatDuration(result.TimeTakenSecs),
		}
		for _, key := range answerCols {
			cells = append(cells, values[key])
		}
		for _, key := range correctnessCols {
			cells = append(cells, values[key])
		}

		for col, value := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Export rendered",
		"owner_id", ownerID,
		"results", len(flattened),
		"columns", len(header))

	return buf.Bytes(), nil
}

// collectColumns unions row keys across results, preserving first-appearance
// order, answers and correctness kept apart.
func collectColumns(flattened []*FlattenedResult) (answers, correctness []string) {
	seenAnswer := make(map[string]bool)
	seenCorrectness := make(map[string]bool)

	for _, flat := range flattened {
		for _, row := range flat.Rows {
			if !seenAnswer[row.Key] {
				seenAnswer[row.Key] = true
				answers = append(answers, row.Key)
			}
		}
		for _, row := range flat.CorrectnessRows {
			if !seenCorrectness[row.Key] {
				seenCorrectness[row.Key] = true
				correctness = append(correctness, row.Key)
			}
		}
	}
	return answers, correctness
}
