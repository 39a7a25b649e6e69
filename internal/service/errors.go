package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"tips-service/internal/policy"
)

var (
	// ErrInvalidCredentials is shared by unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates a missing, invalid or expired bearer token.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrConflict is returned when a username or email is already taken.
	ErrConflict = errors.New("username or email already exists")
	// ErrNotFound is returned when the target record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is the common class of every authorization denial.
	ErrForbidden          = errors.New("forbidden")
	ErrAccountDeactivated = fmt.Errorf("%w: account deactivated", ErrForbidden)
	ErrAccountBlocked     = fmt.Errorf("%w: account blocked", ErrForbidden)
	ErrNotAdmin           = fmt.Errorf("%w: admin privileges required", ErrForbidden)
	ErrNotOwner           = fmt.Errorf("%w: not the owner", ErrForbidden)
)

// ValidationError carries field-level messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validationFailure converts ozzo validation output into a ValidationError.
// Internal rule errors pass through unchanged.
func validationFailure(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return &ValidationError{Fields: fields}
}

func fieldFailure(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Fields: map[string]string{field: err.Error()}}
}

func decisionError(d policy.Decision) error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case policy.ReasonUnauthenticated:
		return ErrUnauthenticated
	case policy.ReasonDeactivated:
		return ErrAccountDeactivated
	case policy.ReasonBlocked:
		return ErrAccountBlocked
	case policy.ReasonNotAdmin:
		return ErrNotAdmin
	case policy.ReasonNotOwner:
		return ErrNotOwner
	}
	return ErrForbidden
}
