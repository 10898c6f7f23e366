package adapters

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE classes for integrity-constraint violations.
const (
	SQLStateUniqueViolation     = "23505"
	SQLStateForeignKeyViolation = "23503"
	SQLStateCheckViolation      = "23514"
	SQLStateNotNullViolation    = "23502"
)

// ConstraintViolation describes an integrity-constraint failure in a
// driver-independent shape.
type ConstraintViolation struct {
	Code       string
	Constraint string
}

// AsConstraintViolation classifies a driver error as an integrity-constraint
// violation. It understands pgconn.PgError (pgx) and pq.Error (lib/pq, used
// by the sql.DB and sqlx.DB adapters). The second return value reports
// whether err was a constraint violation at all.
func AsConstraintViolation(err error) (ConstraintViolation, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && isConstraintCode(pgxErr.Code) {
		return ConstraintViolation{Code: pgxErr.Code, Constraint: pgxErr.ConstraintName}, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && isConstraintCode(string(pqErr.Code)) {
		return ConstraintViolation{Code: string(pqErr.Code), Constraint: pqErr.Constraint}, true
	}

	return ConstraintViolation{}, false
}

func isConstraintCode(code string) bool {
	switch code {
	case SQLStateUniqueViolation, SQLStateForeignKeyViolation, SQLStateCheckViolation, SQLStateNotNullViolation:
		return true
	default:
		return false
	}
}
