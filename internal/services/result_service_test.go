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

const passFailBands = `[{"from":0,"to":49,"title":"Fail"},{"from":50,"to":100,"title":"Pass"}]`

type resultServiceFixture struct {
	repo      *mockRepository
	publisher *events.MockEventPublisher
	service   ResultService
}

func newResultServiceFixture(t *testing.T) *resultServiceFixture {
	t.Helper()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher()
	service := NewResultService(nil, repo, slog.Default(), validator.New(), publisher)
	return &resultServiceFixture{repo: repo, publisher: publisher, service: service}
}

func (f *resultServiceFixture) addSurvey(id uint, bands string) {
	survey := &models.Survey{ID: id, Title: "Survey", Kind: models.KindAssessment}
	if bands != "" {
		survey.CriteriaBands = datatypes.JSON(bands)
	}
	f.repo.surveys[id] = survey
}

func (f *resultServiceFixture) addAttempt(t *testing.T, ownerID uint, email string, questions []models.AttemptQuestion) *models.Attempt {
	t.Helper()
	encoded, err := models.EncodeQuestions(questions)
	if err != nil {
		t.Fatalf("failed to encode questions: %v", err)
	}
	attempt := &models.Attempt{
		OwnerID:          ownerID,
		RespondentEmail:  email,
		Questions:        encoded,
		TimeTakenSeconds: 90,
	}
	if err := f.repo.Attempt().Create(context.Background(), nil, attempt); err != nil {
		t.Fatalf("failed to create attempt: %v", err)
	}
	return attempt
}

func answeredQuestion(code string, marks float64, key, submitted string) models.AttemptQuestion {
	return models.AttemptQuestion{
		QuestionSnapshot: models.QuestionSnapshot{
			Code:      code,
			Text:      "Q " + code,
			Type:      models.SingleSelect,
			Marks:     marks,
			AnswerKey: datatypes.JSON(key),
		},
		SubmittedValue: datatypes.JSON(submitted),
	}
}

func TestResultService_Materialize(t *testing.T) {
	f := newResultServiceFixture(t)
	f.addSurvey(1, passFailBands)
	attempt := f.addAttempt(t, 1, "a@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"right"`),
		answeredQuestion("q2", 5, `"right"`, `"wrong"`),
	})

	result, err := f.service.Materialize(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	if result.Score != 5 || result.TotalMarks != 10 {
		t.Errorf("result score = %v/%v, want 5/10", result.Score, result.TotalMarks)
	}
	if result.Percentage != 50 {
		t.Errorf("result.Percentage = %d, want 50", result.Percentage)
	}
	if result.GradeTitle() != "Pass" {
		t.Errorf("result.GradeTitle() = %q, want Pass", result.GradeTitle())
	}
	if result.TimeTakenSecs != 90 {
		t.Errorf("result.TimeTakenSecs = %d, want 90", result.TimeTakenSecs)
	}

	if published := f.publisher.GetPublishedEvents(); len(published) != 1 {
		t.Errorf("published %d events, want 1", len(published))
	}
}

func TestResultService_MaterializeIsIdempotent(t *testing.T) {
	f := newResultServiceFixture(t)
	f.addSurvey(1, passFailBands)
	attempt := f.addAttempt(t, 1, "a@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"right"`),
	})

	first, err := f.service.Materialize(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("first Materialize() error = %v", err)
	}
	second, err := f.service.Materialize(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("second Materialize() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("re-materialization created a new row: %d != %d", first.ID, second.ID)
	}
	if count, _ := f.repo.Result().CountByOwner(context.Background(), nil, 1); count != 1 {
		t.Errorf("stored %d results, want 1", count)
	}
}

func TestResultService_MaterializeMissingAttempt(t *testing.T) {
	f := newResultServiceFixture(t)

	_, err := f.service.Materialize(context.Background(), 999)
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("Materialize() error = %v, want ErrAttemptNotFound", err)
	}
}

func TestResultService_MaterializeWithoutSurveyIsUngraded(t *testing.T) {
	f := newResultServiceFixture(t)
	attempt := f.addAttempt(t, 42, "a@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"right"`),
	})

	result, err := f.service.Materialize(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if result.GradeTitle() != models.GradeUngraded {
		t.Errorf("result.GradeTitle() = %q, want %q", result.GradeTitle(), models.GradeUngraded)
	}
}

func TestResultService_MaterializeAll(t *testing.T) {
	f := newResultServiceFixture(t)
	f.addSurvey(1, passFailBands)
	first := f.addAttempt(t, 1, "a@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"right"`),
	})
	f.addAttempt(t, 1, "b@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"wrong"`),
	})

	// Pre-materialize one attempt; the bulk run must skip it.
	if _, err := f.service.Materialize(context.Background(), first.ID); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	summary, err := f.service.MaterializeAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("MaterializeAll() error = %v", err)
	}

	if summary.Attempts != 2 || summary.Materialized != 1 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 attempts, 1 materialized, 1 skipped", summary)
	}
	if count, _ := f.repo.Result().CountByOwner(context.Background(), nil, 1); count != 2 {
		t.Errorf("stored %d results, want 2", count)
	}
}

func TestResultService_RegenerateConverges(t *testing.T) {
	f := newResultServiceFixture(t)
	f.addSurvey(1, passFailBands)
	f.addAttempt(t, 1, "a@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"right"`),
	})
	f.addAttempt(t, 1, "a@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"wrong"`),
	})

	if _, err := f.service.MaterializeAll(context.Background(), 1); err != nil {
		t.Fatalf("MaterializeAll() error = %v", err)
	}

	summary, err := f.service.Regenerate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if summary.Deleted != 2 || summary.Materialized != 2 {
		t.Errorf("summary = %+v, want 2 deleted and 2 rebuilt", summary)
	}

	// A second run converges to the same set.
	again, err := f.service.Regenerate(context.Background(), 1)
	if err != nil {
		t.Fatalf("second Regenerate() error = %v", err)
	}
	if again.Deleted != 2 || again.Materialized != 2 {
		t.Errorf("second summary = %+v, want 2 deleted and 2 rebuilt", again)
	}
	if count, _ := f.repo.Result().CountByOwner(context.Background(), nil, 1); count != 2 {
		t.Errorf("stored %d results after regenerate, want 2", count)
	}
}

func TestResultService_ApplyManualGrade(t *testing.T) {
	f := newResultServiceFixture(t)
	f.addSurvey(1, passFailBands)

	essay := models.AttemptQuestion{
		QuestionSnapshot: models.QuestionSnapshot{
			Code:  "essay",
			Text:  "Explain your answer",
			Type:  models.CommentBox,
			Marks: 5,
		},
		SubmittedValue: datatypes.JSON(`"a thorough explanation"`),
	}
	attempt := f.addAttempt(t, 1, "a@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"right"`),
		essay,
	})

	result, err := f.service.Materialize(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if result.Percentage != 50 {
		t.Fatalf("pre-grading percentage = %d, want 50", result.Percentage)
	}

	graded, err := f.service.ApplyManualGrade(context.Background(), result.ID, []ManualGrade{
		{Code: "essay", Score: 5},
	}, "grader-1")
	if err != nil {
		t.Fatalf("ApplyManualGrade() error = %v", err)
	}

	if graded.Score != 10 || graded.Percentage != 100 {
		t.Errorf("graded result = %v at %d%%, want 10 at 100%%", graded.Score, graded.Percentage)
	}
	if graded.GradeTitle() != "Pass" {
		t.Errorf("graded.GradeTitle() = %q, want Pass", graded.GradeTitle())
	}
	if !graded.ManuallyGraded {
		t.Error("graded.ManuallyGraded = false, want true")
	}
}

func TestResultService_ApplyManualGradeRejections(t *testing.T) {
	f := newResultServiceFixture(t)
	f.addSurvey(1, passFailBands)
	attempt := f.addAttempt(t, 1, "a@x.com", []models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"right"`),
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "essay", Text: "Essay", Type: models.CommentBox, Marks: 5,
			},
		},
	})
	result, err := f.service.Materialize(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	t.Run("auto-scored question is not gradable", func(t *testing.T) {
		_, err := f.service.ApplyManualGrade(context.Background(), result.ID, []ManualGrade{
			{Code: "q1", Score: 3},
		}, "grader-1")
		if !errors.Is(err, ErrNotManuallyGradable) {
			t.Errorf("ApplyManualGrade() error = %v, want ErrNotManuallyGradable", err)
		}
	})

	t.Run("score above marks is rejected", func(t *testing.T) {
		_, err := f.service.ApplyManualGrade(context.Background(), result.ID, []ManualGrade{
			{Code: "essay", Score: 9},
		}, "grader-1")
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("ApplyManualGrade() error = %v, want ValidationError", err)
		}
	})

	t.Run("unknown question code is rejected", func(t *testing.T) {
		_, err := f.service.ApplyManualGrade(context.Background(), result.ID, []ManualGrade{
			{Code: "missing", Score: 1},
		}, "grader-1")
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("ApplyManualGrade() error = %v, want ValidationError", err)
		}
	})

	t.Run("empty grade list is rejected", func(t *testing.T) {
		_, err := f.service.ApplyManualGrade(context.Background(), result.ID, nil, "grader-1")
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("ApplyManualGrade() error = %v, want ValidationError", err)
		}
	})
}

func TestResultService_ExternalQuestionsInResult(t *testing.T) {
	f := newResultServiceFixture(t)
	f.addSurvey(1, passFailBands)

	native, err := models.EncodeQuestions([]models.AttemptQuestion{
		answeredQuestion("q1", 5, `"right"`, `"right"`),
	})
	if err != nil {
		t.Fatalf("failed to encode questions: %v", err)
	}
	injected, err := models.EncodeQuestions([]models.AttemptQuestion{
		{
			QuestionSnapshot: models.QuestionSnapshot{
				Code: "walkin", Text: "Walk-in name", Type: models.SingleLineText,
			},
			SubmittedValue: datatypes.JSON(`"Ada"`),
		},
	})
	if err != nil {
		t.Fatalf("failed to encode external questions: %v", err)
	}

	attempt := &models.Attempt{
		OwnerID:           1,
		RespondentEmail:   "a@x.com",
		Questions:         native,
		ExternalQuestions: injected,
	}
	if err := f.repo.Attempt().Create(context.Background(), nil, attempt); err != nil {
		t.Fatalf("failed to create attempt: %v", err)
	}

	result, err := f.service.Materialize(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	questions, err := result.QuestionList()
	if err != nil {
		t.Fatalf("QuestionList() error = %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("result holds %d questions, want 2", len(questions))
	}
	if !questions[0].External || questions[0].Order != models.ExternalQuestionOrder {
		t.Errorf("injected question = %+v, want external with sentinel order", questions[0])
	}
	// Zero-mark injected questions do not move the percentage.
	if result.Percentage != 100 {
		t.Errorf("result.Percentage = %d, want 100", result.Percentage)
	}
}
