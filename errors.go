package lingua

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConstraint is the sentinel matched by every ConstraintError.
var ErrConstraint = errors.New("lingua: constraint violation")

// SchemaInferenceError is returned when a migration name does not follow a
// recognized naming convention and the target table cannot be derived.
type SchemaInferenceError struct {
	Name string // the migration name that failed inference
}

// Error returns the error string.
func (e *SchemaInferenceError) Error() string {
	return fmt.Sprintf("lingua: cannot infer table name from migration name %q", e.Name)
}

// NewSchemaInferenceError returns a new SchemaInferenceError for the given
// migration name.
func NewSchemaInferenceError(name string) *SchemaInferenceError {
	return &SchemaInferenceError{Name: name}
}

// IsSchemaInference returns true if the error is a SchemaInferenceError.
func IsSchemaInference(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaInferenceError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation. The
// translation writer converts a unique (foreign key, locale) violation into
// a single update retry before surfacing it.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("lingua: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e *ConstraintError) Unwrap() error {
	return e.wrap
}

// Is reports whether the target error matches ErrConstraint.
func (e *ConstraintError) Is(err error) bool {
	return err == ErrConstraint
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return &ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstraintError
	return errors.As(err, &e) || errors.Is(err, ErrConstraint)
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
// Each supported driver reports the violation with its own message, so the
// check is textual, the same way the drivers themselves are classified by
// higher-level data layers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"UNIQUE constraint failed",            // sqlite
		"duplicate key value violates unique", // postgres
		"Duplicate entry",                     // mysql
		"violates unique constraint",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
