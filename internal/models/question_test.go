package models

import "testing"

func TestQuestionTypeClassification(t *testing.T) {
	for _, qt := range AllQuestionTypes {
		if !qt.IsValid() {
			t.Errorf("%s should be valid", qt)
		}

		classes := 0
		if qt.IsSingleAnswer() {
			classes++
		}
		if qt.IsMultiAnswer() {
			classes++
		}
		if qt.IsManuallyScored() {
			classes++
		}
		// star_rating and drag_drop_ordering have their own scoring shape
		if qt == StarRating || qt == DragDropOrdering || qt == SmileRating {
			continue
		}
		if classes > 1 {
			t.Errorf("%s belongs to %d scoring families, want at most one", qt, classes)
		}
	}

	if QuestionType("telepathy").IsValid() {
		t.Error("unknown type reported valid")
	}
}

func TestEncodeDecodeQuestions(t *testing.T) {
	questions := []AttemptQuestion{
		{
			QuestionSnapshot: QuestionSnapshot{Code: "q1", Text: "Q", Type: SingleSelect, Order: 2, Marks: 5},
			Score:            5,
			External:         true,
		},
	}

	encoded, err := EncodeQuestions(questions)
	if err != nil {
		t.Fatalf("EncodeQuestions() error = %v", err)
	}

	decoded, err := decodeQuestions(encoded)
	if err != nil {
		t.Fatalf("decodeQuestions() error = %v", err)
	}
	if len(decoded) != 1 || decoded[0].Code != "q1" || decoded[0].Score != 5 || !decoded[0].External {
		t.Errorf("round trip = %+v, want the original snapshot", decoded)
	}
}

func TestEncodeQuestions_Nil(t *testing.T) {
	encoded, err := EncodeQuestions(nil)
	if err != nil || encoded != nil {
		t.Errorf("EncodeQuestions(nil) = %v, %v, want nil, nil", encoded, err)
	}
}
