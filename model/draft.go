package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Blank-form defaults.
const (
	DefaultDuration     = 5
	DefaultAnxietyLevel = 3
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
}

// ErrInvalidDraft wraps every draft validation failure.
var ErrInvalidDraft = errors.New("invalid task")

// Draft holds the editable fields of a task as entered in the form.
type Draft struct {
	Title        string   `validate:"nonblank"`
	Category     Category `validate:"category"`
	Trigger      string   `validate:"nonblank"`
	Goal         string   `validate:"nonblank"`
	Instructions []string `validate:"min=1,dive,nonblank"`
	Duration     int      `validate:"gt=0"`
	AnxietyLevel int8     `validate:"min=1,max=5"`
}

// NewDraft returns the values of a blank form.
func NewDraft() Draft {
	return Draft{
		Category:     CategoryContamination,
		Instructions: []string{},
		Duration:     DefaultDuration,
		AnxietyLevel: DefaultAnxietyLevel,
	}
}

// DraftFrom pre-fills a form from an existing task.
func DraftFrom(t Task) Draft {
	return Draft{
		Title:        t.Title,
		Category:     t.Category,
		Trigger:      t.Trigger,
		Goal:         t.Goal,
		Instructions: append([]string{}, t.Instructions...),
		Duration:     t.Duration,
		AnxietyLevel: t.AnxietyLevel,
	}
}

// Normalize trims instructions and drops the empty ones.
func (d Draft) Normalize() Draft {
	steps := make([]string, 0, len(d.Instructions))
	for _, s := range d.Instructions {
		s = strings.TrimSpace(s)
		if s != "" {
			steps = append(steps, s)
		}
	}
	d.Instructions = steps
	return d
}

// Validate checks the normalized draft. All failures are reported together.
func (d Draft) Validate() error {
	err := validate.Struct(d.Normalize())
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(msgs, "; "))
}

// NewTask builds an available task with a fresh id and no history.
func (d Draft) NewTask() (Task, error) {
	if err := d.Validate(); err != nil {
		return Task{}, err
	}
	d = d.Normalize()
	return Task{
		ID:           NewID(),
		Title:        d.Title,
		Category:     d.Category,
		Trigger:      d.Trigger,
		Goal:         d.Goal,
		Instructions: d.Instructions,
		Duration:     d.Duration,
		AnxietyLevel: d.AnxietyLevel,
		Status:       StatusAvailable,
		Completions:  []time.Time{},
	}, nil
}

// ApplyTo returns t edited with the draft values; id, status and
// completions are kept.
func (d Draft) ApplyTo(t Task) (Task, error) {
	if err := d.Validate(); err != nil {
		return Task{}, err
	}
	d = d.Normalize()
	return t.Updated(TaskPatch{
		Title:        &d.Title,
		Category:     &d.Category,
		Trigger:      &d.Trigger,
		Goal:         &d.Goal,
		Instructions: d.Instructions,
		Duration:     &d.Duration,
		AnxietyLevel: &d.AnxietyLevel,
	}), nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "nonblank":
		if strings.HasPrefix(fe.Field(), "Instructions") {
			return "instructions must not contain blank steps"
		}
		return fmt.Sprintf("%s must not be empty", field)
	case "category":
		return fmt.Sprintf("unknown category %q", fe.Value())
	case "min":
		if fe.Kind().String() == "slice" {
			return "at least one instruction is required"
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
