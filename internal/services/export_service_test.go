package services

import (
	"log/slog"
	"testing"

	"gorm.io/datatypes"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
)

func newTestExportService(t *testing.T) *exportService {
	t.Helper()
	return &exportService{logger: slog.Default()}
}

func exportResult(t *testing.T, questions []models.AttemptQuestion) *models.Result {
	t.Helper()
	encoded, err := models.EncodeQuestions(questions)
	if err != nil {
		t.Fatalf("failed to encode questions: %v", err)
	}
	return &models.Result{
		ID:              7,
		RespondentEmail: "a@x.com",
		Questions:       encoded,
	}
}

func TestFlattenResult_RowShapes(t *testing.T) {
	questions := []models.AttemptQuestion{
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q1", Text: "Favorite color", Type: models.SingleSelect, Order: 1, Marks: 5,
				AnswerKey: datatypes.JSON(`"blue"`),
			},
			SubmittedValue: datatypes.JSON(`"blue"`),
			Score:          5,
		},
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q2", Text: "Pick fruits", Type: models.MultiSelect, Order: 2, Marks: 4,
				AnswerKey: datatypes.JSON(`["apple","pear"]`),
			},
			SubmittedValue: datatypes.JSON(`["apple","mango"]`),
			Score:          2,
		},
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q3", Text: "Rank steps", Type: models.DragDropOrdering, Order: 3, Marks: 2,
				AnswerKey: datatypes.JSON(`["first","second"]`),
			},
			SubmittedValue: datatypes.JSON(`["first","second"]`),
			Score:          2,
		},
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q4", Text: "Rate the session", Type: models.StarRating, Order: 4, Marks: 2,
				Meta: datatypes.JSON(`{"fields":[{"label":"Pace","scale":5},{"label":"Depth","scale":5}]}`),
			},
			SubmittedValue: datatypes.JSON(`{"Pace":4,"Depth":5}`),
		},
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q5", Text: "Contact", Type: models.ContactInfo, Order: 5,
				Meta: datatypes.JSON(`{"fields":["Name","Phone"]}`),
			},
			SubmittedValue: datatypes.JSON(`{"Name":"Ada","Phone":"555"}`),
		},
	}

	flat, err := newTestExportService(t).FlattenResult(exportResult(t, questions))
	if err != nil {
		t.Fatalf("FlattenResult() error = %v", err)
	}

	wantRows := []ExportRow{
		{Key: "Favorite color", Value: "blue"},
		{Key: "Pick fruits", Value: "apple, mango"},
		{Key: "Rank steps| Position:1", Value: "first"},
		{Key: "Rank steps| Position:2", Value: "second"},
		{Key: "Rate the session: Pace", Value: "4"},
		{Key: "Rate the session: Depth", Value: "5"},
		{Key: "Name", Value: "Ada"},
		{Key: "Phone", Value: "555"},
	}
	if len(flat.Rows) != len(wantRows) {
		t.Fatalf("FlattenResult() produced %d rows, want %d: %+v", len(flat.Rows), len(wantRows), flat.Rows)
	}
	for i, want := range wantRows {
		if flat.Rows[i] != want {
			t.Errorf("Rows[%d] = %+v, want %+v", i, flat.Rows[i], want)
		}
	}
}

func TestFlattenResult_Correctness(t *testing.T) {
	questions := []models.AttemptQuestion{
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q1", Text: "Scored right", Type: models.SingleSelect, Order: 1, Marks: 5,
			},
			SubmittedValue: datatypes.JSON(`"a"`),
			Score:          5,
		},
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q2", Text: "Scored wrong", Type: models.SingleSelect, Order: 2, Marks: 5,
			},
			SubmittedValue: datatypes.JSON(`"b"`),
			Score:          0,
		},
		{
			// Zero-mark questions never get a correctness row.
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q3", Text: "Section header", Type: models.SingleLineText, Order: 3, Marks: 0,
			},
		},
		{
			// Externally injected questions never get a correctness row.
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q4", Text: "Injected", Type: models.SingleSelect, Order: models.ExternalQuestionOrder, Marks: 5,
			},
			SubmittedValue: datatypes.JSON(`"c"`),
			Score:          5,
			External:       true,
		},
	}

	flat, err := newTestExportService(t).FlattenResult(exportResult(t, questions))
	if err != nil {
		t.Fatalf("FlattenResult() error = %v", err)
	}

	want := []ExportRow{
		{Key: "[Answer]: Scored right", Value: "TRUE"},
		{Key: "[Answer]: Scored wrong", Value: "FALSE"},
	}
	if len(flat.CorrectnessRows) != len(want) {
		t.Fatalf("CorrectnessRows = %+v, want %+v", flat.CorrectnessRows, want)
	}
	for i, w := range want {
		if flat.CorrectnessRows[i] != w {
			t.Errorf("CorrectnessRows[%d] = %+v, want %+v", i, flat.CorrectnessRows[i], w)
		}
	}
}

func TestFlattenResult_ExternalQuestionsSortFirst(t *testing.T) {
	questions := []models.AttemptQuestion{
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "q1", Text: "Native", Type: models.SingleSelect, Order: 1, Marks: 5,
			},
			SubmittedValue: datatypes.JSON(`"a"`),
		},
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "ext", Text: "Injected", Type: models.SingleLineText, Order: models.ExternalQuestionOrder,
			},
			SubmittedValue: datatypes.JSON(`"walk-in"`),
			External:       true,
		},
	}

	flat, err := newTestExportService(t).FlattenResult(exportResult(t, questions))
	if err != nil {
		t.Fatalf("FlattenResult() error = %v", err)
	}
	if len(flat.Rows) != 2 {
		t.Fatalf("FlattenResult() produced %d rows, want 2", len(flat.Rows))
	}
	if flat.Rows[0].Key != "Injected" {
		t.Errorf("Rows[0].Key = %q, want the injected question first", flat.Rows[0].Key)
	}
}

func TestCollectColumns(t *testing.T) {
	flattened := []*FlattenedResult{
		{
			Rows:            []ExportRow{{Key: "A"}, {Key: "B"}},
			CorrectnessRows: []ExportRow{{Key: "[Answer]: A"}},
		},
		{
			Rows:            []ExportRow{{Key: "B"}, {Key: "C"}},
			CorrectnessRows: []ExportRow{{Key: "[Answer]: C"}},
		},
	}

	answers, correctness := collectColumns(flattened)
	wantAnswers := []string{"A", "B", "C"}
	if len(answers) != len(wantAnswers) {
		t.Fatalf("collectColumns() answers = %v, want %v", answers, wantAnswers)
	}
	for i, w := range wantAnswers {
		if answers[i] != w {
			t.Errorf("answers[%d] = %q, want %q", i, answers[i], w)
		}
	}
	if len(correctness) != 2 {
		t.Errorf("collectColumns() correctness = %v, want two columns", correctness)
	}
}
