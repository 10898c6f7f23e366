package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

// RegisterEmployee creates a staff identity together with its login
// credential in one transaction. The password hash is produced by the caller
// (see the staffauth package); usernames are unique.
func (s *Store) RegisterEmployee(ctx context.Context, employee library.Employee, username string, passwordHash []byte) (library.Employee, error) {
	ctx, finish := s.traceOperation(ctx, opRegisterStaff)

	validated, validateErr := library.BuildEmployee(
		employee.LastName, employee.FirstName, employee.MiddleName,
		employee.PassportSeries, employee.PassportNumber)
	if validateErr != nil {
		finish(statusError)

		return library.Employee{}, validateErr
	}
	if usernameErr := library.ValidateUsername(username); usernameErr != nil {
		finish(statusError)

		return library.Employee{}, usernameErr
	}
	if len(passwordHash) == 0 {
		finish(statusError)

		return library.Employee{}, library.ValidationError{Field: "password", Reason: "hash must not be empty"}
	}

	txErr := s.withinTransaction(ctx, opRegisterStaff, func(tx adapters.DBTx) error {
		insertEmployeeSQL, buildErr := s.toSQL(ctx, s.builder().
			Insert(s.staffTable(tableEmployees)).
			Rows(goqu.Record{
				"employee_lname":           validated.LastName,
				"employee_fname":           validated.FirstName,
				"employee_mname":           nullableString(validated.MiddleName),
				"employee_passport_series": validated.PassportSeries,
				"employee_passport_number": validated.PassportNumber,
			}).
			Returning("employee_id"))
		if buildErr != nil {
			return buildErr
		}

		if scanErr := s.queryOneRow(ctx, tx, insertEmployeeSQL, &validated.ID); scanErr != nil {
			return s.mapStorageError(scanErr)
		}

		insertCredentialSQL, buildErr := s.toSQL(ctx, s.builder().
			Insert(s.staffTable(tableCredentials)).
			Rows(goqu.Record{
				"employee_id":   validated.ID,
				"username":      username,
				"password_hash": string(passwordHash),
			}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, insertCredentialSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		return nil
	})
	if txErr != nil {
		finish(statusError)

		return library.Employee{}, txErr
	}

	finish(statusSuccess)

	return validated, nil
}

// FindCredential looks up a staff credential by username for login checks.
func (s *Store) FindCredential(ctx context.Context, username string) (library.EmployeeCredential, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.staffTable(tableCredentials)).
		Select("credential_id", "employee_id", "password_hash").
		Where(goqu.Ex{"username": username}))
	if buildErr != nil {
		return library.EmployeeCredential{}, buildErr
	}

	credential := library.EmployeeCredential{Username: username}
	var passwordHash string
	scanErr := s.queryOneRow(ctx, s.db, selectSQL, &credential.ID, &credential.EmployeeID, &passwordHash)
	if scanErr == errNoRows {
		return library.EmployeeCredential{}, library.NotFoundError{Entity: "credential", Key: username}
	}
	if scanErr != nil {
		return library.EmployeeCredential{}, s.mapStorageError(scanErr)
	}
	credential.PasswordHash = []byte(passwordHash)

	return credential, nil
}
