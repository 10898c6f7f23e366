package adapters_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

func Test_AsConstraintViolation_When_ErrIsAPGXUniqueViolation(t *testing.T) {
	// arrange
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "user_cards_user_email_key"}

	// act
	violation, ok := adapters.AsConstraintViolation(fmt.Errorf("insert failed: %w", pgxErr))

	// assert
	require.True(t, ok)
	assert.Equal(t, adapters.SQLStateUniqueViolation, violation.Code)
	assert.Equal(t, "user_cards_user_email_key", violation.Constraint)
}

func Test_AsConstraintViolation_When_ErrIsAPQForeignKeyViolation(t *testing.T) {
	// arrange
	pqErr := &pq.Error{Code: "23503", Constraint: "fines_user_id_fkey"}

	// act
	violation, ok := adapters.AsConstraintViolation(pqErr)

	// assert
	require.True(t, ok)
	assert.Equal(t, adapters.SQLStateForeignKeyViolation, violation.Code)
	assert.Equal(t, "fines_user_id_fkey", violation.Constraint)
}

func Test_AsConstraintViolation_When_ErrIsACheckViolation(t *testing.T) {
	// arrange
	pgxErr := &pgconn.PgError{Code: "23514", ConstraintName: "fines_fine_amount_check"}

	// act
	violation, ok := adapters.AsConstraintViolation(pgxErr)

	// assert
	require.True(t, ok)
	assert.Equal(t, adapters.SQLStateCheckViolation, violation.Code)
}

func Test_AsConstraintViolation_When_ErrIsNotAConstraintViolation(t *testing.T) {
	// arrange
	pgxErr := &pgconn.PgError{Code: "42P01"} // undefined table

	// act
	_, ok := adapters.AsConstraintViolation(pgxErr)

	// assert
	assert.False(t, ok)
}

func Test_AsConstraintViolation_When_ErrIsAPlainError(t *testing.T) {
	// act
	_, ok := adapters.AsConstraintViolation(errors.New("connection refused"))

	// assert
	assert.False(t, ok)
}
