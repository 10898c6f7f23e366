package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

const (
	defaultLibrarySchema = "library"
	defaultAuditSchema   = "audit"
	defaultStaffSchema   = "staff"

	dialectPostgres = "postgres"

	tableSections     = "sections"
	tableRacks        = "racks"
	tableShelves      = "shelves"
	tableAuthors      = "authors"
	tableGenres       = "genres"
	tableCategories   = "categories"
	tablePublishers   = "publishers"
	tableBooks        = "books"
	tableAuthorsBooks = "authors_books"
	tableBookCopies   = "book_copies"
	tableLocations    = "book_locations"
	tableLoans        = "loans"
	tableUserCards    = "user_cards"
	tableFines        = "fines"
	tableCardLogs     = "card_logs"
	tableBookLogs     = "book_logs"
	tableFineLogs     = "fine_logs"
	tableOverallLogs  = "overall_logs"
	tableEmployees    = "employees"
	tableCredentials  = "employee_credentials"

	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgTxBeginFailed    = "failed to begin transaction"
	logMsgTxCommitFailed   = "failed to commit transaction"
	logMsgTxRolledBack     = "transaction rolled back"
	logMsgSQLExecuted      = "executed sql"
	logMsgOperation        = "library operation: "
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrOperation       = "operation"
	logAttrDurationMS      = "duration_ms"
	logAttrRowsAffected    = "rows_affected"

	metricOperationDuration = "library_operation_duration"
	metricOperationErrors   = "library_operation_errors"
	metricLoanConflicts     = "library_loan_conflicts"

	statusSuccess = "success"
	statusError   = "error"

	opAddBook       = "add_book"
	opAddCopy       = "add_copy"
	opUpdateCopy    = "update_copy"
	opDeleteCopy    = "delete_copy"
	opIssueLoan     = "issue_loan"
	opReturnLoan    = "return_loan"
	opCreateReader  = "create_reader"
	opUpdateReader  = "update_reader"
	opDeleteReader  = "delete_reader"
	opCreateFine    = "create_fine"
	opUpdateFine    = "update_fine"
	opDeleteFine    = "delete_fine"
	opShelving      = "shelving"
	opRegisterStaff = "register_staff"
)

var errNoRows = errors.New("no rows in result set")

// Store is the PostgreSQL-backed implementation of the library operations.
// It is configured via functional options and safe for concurrent use.
type Store struct {
	db               adapters.DBAdapter
	librarySchema    string
	auditSchema      string
	staffSchema      string
	warehouseShelfID int64
	clock            func() time.Time
	logger           library.Logger
	contextualLogger library.ContextualLogger
	metricsCollector library.MetricsCollector
	tracingCollector library.TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Store, error) {
	if pool == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(pool), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	store := &Store{
		db:            db,
		librarySchema: defaultLibrarySchema,
		auditSchema:   defaultAuditSchema,
		staffSchema:   defaultStaffSchema,
		clock:         time.Now,
	}

	for _, option := range options {
		if err := option(store); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// LibrarySchema returns the configured domain schema name.
func (s *Store) LibrarySchema() string {
	return s.librarySchema
}

// AuditSchema returns the configured audit schema name.
func (s *Store) AuditSchema() string {
	return s.auditSchema
}

// builder returns a goqu SQL builder for the Postgres dialect.
func (s *Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// libTable qualifies a domain table with the configured library schema.
func (s *Store) libTable(name string) exp.IdentifierExpression {
	return goqu.S(s.librarySchema).Table(name)
}

// auditTable qualifies an audit table with the configured audit schema.
func (s *Store) auditTable(name string) exp.IdentifierExpression {
	return goqu.S(s.auditSchema).Table(name)
}

// staffTable qualifies a staff table with the configured staff schema.
func (s *Store) staffTable(name string) exp.IdentifierExpression {
	return goqu.S(s.staffSchema).Table(name)
}

// querier is the read surface shared by the pool adapter and an open transaction.
type querier interface {
	Query(ctx context.Context, query string) (adapters.DBRows, error)
}

// execer is the write surface shared by the pool adapter and an open transaction.
type execer interface {
	Exec(ctx context.Context, query string) (adapters.DBResult, error)
}

// withinTransaction runs fn inside a single transaction scoped to one
// operation. The transaction is committed when fn returns nil and rolled
// back on any error or panic, including context cancellation mid-flight.
func (s *Store) withinTransaction(ctx context.Context, operation string, fn func(tx adapters.DBTx) error) error {
	start := s.clock()

	tx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.logError(ctx, logMsgTxBeginFailed, beginErr, logAttrOperation, operation)
		s.recordError(operation)

		return s.mapStorageError(beginErr)
	}

	committed := false
	defer func() {
		if !committed {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				s.logWarn(ctx, logMsgTxRolledBack, logAttrOperation, operation, logAttrError, rollbackErr.Error())
			}
		}
	}()

	if fnErr := fn(tx); fnErr != nil {
		s.recordError(operation)

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(ctx, logMsgTxCommitFailed, commitErr, logAttrOperation, operation)
		s.recordError(operation)

		return s.mapStorageError(commitErr)
	}
	committed = true

	s.recordDuration(operation, statusSuccess, s.clock().Sub(start))
	s.logOperation(ctx, operation, logAttrDurationMS, toMilliseconds(s.clock().Sub(start)))

	return nil
}

// mapStorageError converts a driver error into the store's error taxonomy:
// integrity-constraint failures become library.ConstraintViolationError,
// everything else is joined with library.ErrStorageFailure.
func (s *Store) mapStorageError(err error) error {
	if err == nil {
		return nil
	}

	if violation, ok := adapters.AsConstraintViolation(err); ok {
		return library.ConstraintViolationError{Code: violation.Code, Constraint: violation.Constraint}
	}

	return errors.Join(library.ErrStorageFailure, err)
}

// queryOneRow executes sqlQuery and scans the single result row into dest.
// Returns errNoRows when the result set is genuinely empty; a deferred
// execution error (pgx reports statement failures only via Rows.Err) is
// surfaced as-is so it stays classifiable.
func (s *Store) queryOneRow(ctx context.Context, q querier, sqlQuery string, dest ...any) error {
	start := s.clock()

	rows, queryErr := q.Query(ctx, sqlQuery)
	if queryErr != nil {
		return queryErr
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}

		return errNoRows
	}

	if scanErr := rows.Scan(dest...); scanErr != nil {
		return scanErr
	}

	s.logSQL(ctx, sqlQuery, s.clock().Sub(start))

	return nil
}

// execStatement executes sqlQuery and returns the number of affected rows.
func (s *Store) execStatement(ctx context.Context, e execer, sqlQuery string) (int64, error) {
	start := s.clock()

	result, execErr := e.Exec(ctx, sqlQuery)
	if execErr != nil {
		return 0, execErr
	}

	s.logSQL(ctx, sqlQuery, s.clock().Sub(start))

	return result.RowsAffected()
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, "failed to close database rows", logAttrError, closeErr.Error())
	}
}

// toSQL finalizes a goqu expression, logging build failures.
func (s *Store) toSQL(ctx context.Context, stmt interface{ ToSQL() (string, []interface{}, error) }) (string, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, toSQLErr)

		return "", errors.Join(library.ErrStorageFailure, toSQLErr)
	}

	return sqlQuery, nil
}
