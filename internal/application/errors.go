package application

import (
	"errors"
	"strings"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserGone           = errors.New("user no longer exists")
	ErrEventNotFound      = errors.New("event not found")
	ErrForbidden          = errors.New("not the event organizer")
	ErrCapacityExceeded   = errors.New("event is at full capacity")
)

// ValidationError carries every rule an input broke. Nothing is written to
// the store when an operation returns it.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func validationFailed(fields ...validation.FieldError) error {
	return &ValidationError{Fields: fields}
}

// validate runs the struct rules on in and wraps failures in *ValidationError.
func validate(in any) error {
	if fields := validation.Struct(in); len(fields) > 0 {
		return validationFailed(fields...)
	}
	return nil
}
