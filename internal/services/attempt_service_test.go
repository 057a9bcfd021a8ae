package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"gorm.io/datatypes"

	"github.com/reospicespowders/product-backend-sub002/internal/events"
	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/validator"
)

func newAttemptServiceFixture(t *testing.T) (*mockRepository, AttemptService) {
	t.Helper()
	repo := newMockRepository()
	v := validator.New()
	result := NewResultService(nil, repo, slog.Default(), v, events.NewMockEventPublisher())
	return repo, NewAttemptService(nil, repo, slog.Default(), v, result)
}

func submitRequest(ownerID uint, email string) *SubmitAttemptRequest {
	return &SubmitAttemptRequest{
		OwnerID:         ownerID,
		RespondentEmail: email,
		Questions: []models.AttemptQuestion{
			{
				QuestionSnapshot: models.QuestionSnapshot{
					Code:      "q1",
					Text:      "Pick one",
					Type:      models.SingleSelect,
					Marks:     5,
					AnswerKey: datatypes.JSON(`"a"`),
				},
				SubmittedValue: datatypes.JSON(`"a"`),
			},
		},
		TimeTakenSeconds: 30,
	}
}

func TestAttemptService_Submit(t *testing.T) {
	repo, service := newAttemptServiceFixture(t)
	repo.surveys[1] = &models.Survey{ID: 1, Title: "Survey"}

	attempt, err := service.Submit(context.Background(), submitRequest(1, "  A@X.com "))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if attempt.RespondentEmail != "a@x.com" {
		t.Errorf("email = %q, want normalized a@x.com", attempt.RespondentEmail)
	}
	if attempt.AttemptNumber != 1 || attempt.IsRedo {
		t.Errorf("attempt = #%d redo=%v, want first non-redo attempt", attempt.AttemptNumber, attempt.IsRedo)
	}

	// Submission materializes the result immediately.
	results, err := repo.Result().GetByOwner(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("GetByOwner() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("stored %d results after submit, want 1", len(results))
	}
	if results[0].Percentage != 100 {
		t.Errorf("result.Percentage = %d, want 100", results[0].Percentage)
	}
}

func TestAttemptService_SubmitNumbersRepeats(t *testing.T) {
	repo, service := newAttemptServiceFixture(t)
	repo.surveys[1] = &models.Survey{ID: 1, Title: "Survey"}

	if _, err := service.Submit(context.Background(), submitRequest(1, "a@x.com")); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	second, err := service.Submit(context.Background(), submitRequest(1, "A@x.com"))
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}

	if second.AttemptNumber != 2 {
		t.Errorf("second.AttemptNumber = %d, want 2", second.AttemptNumber)
	}
	if !second.IsRedo {
		t.Error("second.IsRedo = false, want true")
	}
}

func TestAttemptService_SubmitRejections(t *testing.T) {
	repo, service := newAttemptServiceFixture(t)
	repo.surveys[1] = &models.Survey{ID: 1, Title: "Survey"}

	t.Run("unknown survey", func(t *testing.T) {
		_, err := service.Submit(context.Background(), submitRequest(99, "a@x.com"))
		if !errors.Is(err, ErrSurveyNotFound) {
			t.Errorf("Submit() error = %v, want ErrSurveyNotFound", err)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := service.Submit(context.Background(), submitRequest(1, "not-an-email"))
		if err == nil {
			t.Error("Submit() accepted an invalid email")
		}
	})

	t.Run("no questions", func(t *testing.T) {
		req := submitRequest(1, "a@x.com")
		req.Questions = nil
		if _, err := service.Submit(context.Background(), req); err == nil {
			t.Error("Submit() accepted a submission without questions")
		}
	})
}

func TestNormalizeQuestions(t *testing.T) {
	t.Run("rejects empty code", func(t *testing.T) {
		_, err := normalizeQuestions([]models.AttemptQuestion{
			{QuestionSnapshot: models.QuestionSnapshot{Code: "  ", Type: models.SingleSelect}},
		}, false)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("normalizeQuestions() error = %v, want ValidationError", err)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := normalizeQuestions([]models.AttemptQuestion{
			{QuestionSnapshot: models.QuestionSnapshot{Code: "q1", Type: "telepathy"}},
		}, false)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("normalizeQuestions() error = %v, want ValidationError", err)
		}
	})

	t.Run("clamps negative marks and resets scores", func(t *testing.T) {
		out, err := normalizeQuestions([]models.AttemptQuestion{
			{
				QuestionSnapshot: models.QuestionSnapshot{Code: "q1", Type: models.SingleSelect, Marks: -3},
				Score:            7,
			},
		}, false)
		if err != nil {
			t.Fatalf("normalizeQuestions() error = %v", err)
		}
		if out[0].Marks != 0 || out[0].Score != 0 {
			t.Errorf("normalized = marks %v score %v, want both 0", out[0].Marks, out[0].Score)
		}
	})

	t.Run("external questions get the sentinel order", func(t *testing.T) {
		out, err := normalizeQuestions([]models.AttemptQuestion{
			{QuestionSnapshot: models.QuestionSnapshot{Code: "ext", Type: models.SingleLineText, Order: 5}},
		}, true)
		if err != nil {
			t.Fatalf("normalizeQuestions() error = %v", err)
		}
		if !out[0].External || out[0].Order != models.ExternalQuestionOrder {
			t.Errorf("normalized = %+v, want external with sentinel order", out[0])
		}
	})
}
