package library

import (
	"errors"
	"fmt"
)

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptySchemaNameSupplied = errors.New("empty schema name supplied")
var ErrStorageFailure = errors.New("storage operation failed")

// NotFoundError reports that a referenced entity does not exist,
// identified either by id or by a unique name.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Entity, e.Key)
}

// ValidationError reports a field-level invariant violation detected
// before any write was attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ConflictError reports a business-rule violation, such as trying to issue
// a loan for a title with no available copy.
type ConflictError struct {
	Rule string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Rule)
}

// ConstraintViolationError reports a storage-layer uniqueness, foreign-key or
// check-constraint failure that was not caught by a prior existence check.
// Code is the SQLSTATE class, Constraint the violated constraint's name.
type ConstraintViolationError struct {
	Code       string
	Constraint string
}

func (e ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violated (%s): %s", e.Code, e.Constraint)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

// IsConflict reports whether err is, or wraps, a ConflictError.
func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// IsConstraintViolation reports whether err is, or wraps, a ConstraintViolationError.
func IsConstraintViolation(err error) bool {
	var target ConstraintViolationError
	return errors.As(err, &target)
}
