package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
)

// Validator wraps go-playground struct validation plus the engine's own
// question-type checks, applied once at the ingestion boundary so scoring
// never sees malformed shapes.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// question_type accepts only the supported scoring types
	_ = v.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return models.QuestionType(fl.Field().String()).IsValid()
	})

	return &Validator{validate: v}
}

// Validate runs struct tag validation and flattens field errors into one
// readable error.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return fmt.Errorf("validation failed: %w", err)
	}

	messages := make([]string, 0, len(invalid))
	for _, fieldErr := range invalid {
		messages = append(messages, fmt.Sprintf("%s failed on %s", fieldErr.Field(), fieldErr.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// Var validates a single value against a tag expression.
func (v *Validator) Var(value interface{}, tag string) error {
	return v.validate.Var(value, tag)
}
