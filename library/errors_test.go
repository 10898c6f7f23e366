package library_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arkadyvb/libris/library"
)

func Test_ErrorPredicates_MatchTheirOwnKind(t *testing.T) {
	notFound := library.NotFoundError{Entity: "reader", Key: int64(5)}
	validation := library.ValidationError{Field: "user_email", Reason: "must be a valid email address"}
	conflict := library.ConflictError{Rule: "no available copy of this book"}
	constraint := library.ConstraintViolationError{Code: "23505", Constraint: "user_cards_user_email_key"}

	assert.True(t, library.IsNotFound(notFound))
	assert.True(t, library.IsValidation(validation))
	assert.True(t, library.IsConflict(conflict))
	assert.True(t, library.IsConstraintViolation(constraint))

	assert.False(t, library.IsNotFound(validation))
	assert.False(t, library.IsValidation(conflict))
	assert.False(t, library.IsConflict(constraint))
	assert.False(t, library.IsConstraintViolation(notFound))
}

func Test_ErrorPredicates_When_TheErrorIsWrapped(t *testing.T) {
	// arrange
	wrapped := fmt.Errorf("handling request: %w", library.NotFoundError{Entity: "book", Key: "Dune"})

	// assert
	assert.True(t, library.IsNotFound(wrapped))
	assert.False(t, library.IsConflict(wrapped))
}

func Test_ErrorMessages_NameTheirSubject(t *testing.T) {
	assert.Equal(t, "reader not found: 5", library.NotFoundError{Entity: "reader", Key: int64(5)}.Error())
	assert.Equal(t, "validation failed on fine_amount: must be at least 100",
		library.ValidationError{Field: "fine_amount", Reason: "must be at least 100"}.Error())
	assert.Equal(t, "conflict: loan is already returned",
		library.ConflictError{Rule: "loan is already returned"}.Error())
	assert.Equal(t, "constraint violated (23503): fines_user_id_fkey",
		library.ConstraintViolationError{Code: "23503", Constraint: "fines_user_id_fkey"}.Error())
}
