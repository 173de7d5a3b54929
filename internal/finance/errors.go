package finance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTerminalStatus    = errors.New("booking is already cancelled or completed")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrUnknownAction     = errors.New("unknown booking action")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every rejected field of a submission.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns field -> message, handy for form rendering.
func (errs ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field] = e.Message
	}
	return out
}

func (errs *ValidationErrors) add(field, message string) {
	*errs = append(*errs, ValidationError{Field: field, Message: message})
}

func (errs ValidationErrors) orNil() error {
	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

// IsValidation reports whether err carries field validation failures.
func IsValidation(err error) bool {
	var many ValidationErrors
	if errors.As(err, &many) {
		return true
	}
	var one ValidationError
	return errors.As(err, &one)
}
