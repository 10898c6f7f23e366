package postgresengine

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

// deferredErrRows mimics drivers that report a statement failure only after
// iteration ends, the way pgx defers execution errors to Rows.Err.
type deferredErrRows struct {
	err error
}

func (r *deferredErrRows) Next() bool          { return false }
func (r *deferredErrRows) Scan(_ ...any) error { return nil }
func (r *deferredErrRows) Err() error          { return r.err }
func (r *deferredErrRows) Close() error        { return nil }

type stubQuerier struct {
	rows adapters.DBRows
}

func (q *stubQuerier) Query(_ context.Context, _ string) (adapters.DBRows, error) {
	return q.rows, nil
}

func Test_QueryOneRow_When_TheDriverDefersTheExecutionError(t *testing.T) {
	// setup
	store := &Store{clock: time.Now}
	driverErr := &pgconn.PgError{Code: "23505", ConstraintName: "user_cards_user_email_key"}

	// act
	scanErr := store.queryOneRow(t.Context(), &stubQuerier{rows: &deferredErrRows{err: driverErr}}, "INSERT")

	// assert
	require.Error(t, scanErr)
	assert.NotErrorIs(t, scanErr, errNoRows)
	assert.True(t, library.IsConstraintViolation(store.mapStorageError(scanErr)))
}

func Test_QueryOneRow_When_TheResultSetIsEmpty(t *testing.T) {
	// setup
	store := &Store{clock: time.Now}

	// act
	scanErr := store.queryOneRow(t.Context(), &stubQuerier{rows: &deferredErrRows{}}, "SELECT")

	// assert
	assert.ErrorIs(t, scanErr, errNoRows)
}
