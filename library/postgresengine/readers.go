package postgresengine

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

// CreateReader registers a new library card. Email uniqueness is enforced by
// the database; a duplicate surfaces as a constraint violation.
func (s *Store) CreateReader(ctx context.Context, input library.ReaderInput) (library.UserCard, error) {
	ctx, finish := s.traceOperation(ctx, opCreateReader)

	card, cardErr := library.BuildUserCard(
		input.LastName, input.FirstName, input.MiddleName,
		input.PassportSeries, input.PassportNumber,
		input.Email, input.Status, input.Photo)
	if cardErr != nil {
		finish(statusError)

		return library.UserCard{}, cardErr
	}
	card.RegistrationDate = dateOnly(s.clock())

	txErr := s.withinTransaction(ctx, opCreateReader, func(tx adapters.DBTx) error {
		insertSQL, buildErr := s.toSQL(ctx, s.builder().
			Insert(s.libTable(tableUserCards)).
			Rows(goqu.Record{
				"user_lname":           card.LastName,
				"user_fname":           card.FirstName,
				"user_mname":           nullableString(card.MiddleName),
				"user_passport_series": card.PassportSeries,
				"user_passport_number": card.PassportNumber,
				"user_email":           card.Email,
				"status":               string(card.Status),
				"photo":                card.Photo,
				"registration_date":    card.RegistrationDate,
			}).
			Returning("user_id"))
		if buildErr != nil {
			return buildErr
		}

		if scanErr := s.queryOneRow(ctx, tx, insertSQL, &card.ID); scanErr != nil {
			return s.mapStorageError(scanErr)
		}

		change := s.rowChange(tableUserCards, card.ID, library.ChangeOperationInsert, map[string]any{
			"user_lname": card.LastName,
			"user_fname": card.FirstName,
			"user_email": card.Email,
			"status":     string(card.Status),
		})

		return s.mapStorageError(s.appendChanges(ctx, tx, []library.ChangeRecord{change}))
	})
	if txErr != nil {
		finish(statusError)

		return library.UserCard{}, txErr
	}

	finish(statusSuccess)

	return card, nil
}

// ListReaders returns the denormalized reader listing: identity, the titles
// currently on loan, and the total of all recorded fines.
func (s *Store) ListReaders(ctx context.Context) ([]library.ReaderListing, error) {
	return s.queryReaderListings(ctx, nil)
}

// GetReader returns the listing row for a single reader.
func (s *Store) GetReader(ctx context.Context, readerID int64) (library.ReaderListing, error) {
	listings, queryErr := s.queryReaderListings(ctx, goqu.Ex{"u.user_id": readerID})
	if queryErr != nil {
		return library.ReaderListing{}, queryErr
	}
	if len(listings) == 0 {
		return library.ReaderListing{}, library.NotFoundError{Entity: "reader", Key: readerID}
	}

	return listings[0], nil
}

// UpdateReader applies a partial update to a reader and records a field-level
// audit diff. The merged result is re-validated against the card invariants.
func (s *Store) UpdateReader(ctx context.Context, readerID int64, update library.ReaderUpdate) (library.UserCard, error) {
	ctx, finish := s.traceOperation(ctx, opUpdateReader)

	var result library.UserCard

	txErr := s.withinTransaction(ctx, opUpdateReader, func(tx adapters.DBTx) error {
		current, lockErr := s.lockReader(ctx, tx, readerID)
		if lockErr != nil {
			return lockErr
		}

		next := current
		if update.LastName != nil {
			next.LastName = *update.LastName
		}
		if update.FirstName != nil {
			next.FirstName = *update.FirstName
		}
		if update.MiddleName != nil {
			next.MiddleName = *update.MiddleName
		}
		if update.PassportSeries != nil {
			next.PassportSeries = *update.PassportSeries
		}
		if update.PassportNumber != nil {
			next.PassportNumber = *update.PassportNumber
		}
		if update.Email != nil {
			next.Email = *update.Email
		}
		if update.Status != nil {
			next.Status = *update.Status
		}
		if update.Photo != nil {
			next.Photo = update.Photo
		}

		validated, validateErr := library.BuildUserCard(
			next.LastName, next.FirstName, next.MiddleName,
			next.PassportSeries, next.PassportNumber,
			next.Email, next.Status, next.Photo)
		if validateErr != nil {
			return validateErr
		}
		validated.ID = current.ID
		validated.RegistrationDate = current.RegistrationDate

		updateSQL, buildErr := s.toSQL(ctx, s.builder().
			Update(s.libTable(tableUserCards)).
			Set(goqu.Record{
				"user_lname":           validated.LastName,
				"user_fname":           validated.FirstName,
				"user_mname":           nullableString(validated.MiddleName),
				"user_passport_series": validated.PassportSeries,
				"user_passport_number": validated.PassportNumber,
				"user_email":           validated.Email,
				"status":               string(validated.Status),
				"photo":                validated.Photo,
			}).
			Where(goqu.Ex{"user_id": readerID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, updateSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		changes := library.DiffFields(tableUserCards, readerID,
			readerAuditFields(current), readerAuditFields(validated), s.clock())
		if auditErr := s.appendChanges(ctx, tx, changes); auditErr != nil {
			return s.mapStorageError(auditErr)
		}

		result = validated

		return nil
	})
	if txErr != nil {
		finish(statusError)

		return library.UserCard{}, txErr
	}

	finish(statusSuccess)

	return result, nil
}

// DeleteReader removes a reader together with all dependent rows, children
// first: copies on current loans are made Available again, then fines, loan
// history and finally the card itself are removed.
func (s *Store) DeleteReader(ctx context.Context, readerID int64) error {
	ctx, finish := s.traceOperation(ctx, opDeleteReader)

	txErr := s.withinTransaction(ctx, opDeleteReader, func(tx adapters.DBTx) error {
		current, lockErr := s.lockReader(ctx, tx, readerID)
		if lockErr != nil {
			return lockErr
		}

		releaseSQL, buildErr := s.toSQL(ctx, s.builder().
			Update(s.libTable(tableBookCopies)).
			Set(goqu.Record{"status": string(library.CopyStatusAvailable)}).
			Where(goqu.C("copy_id").In(
				s.builder().
					From(s.libTable(tableLoans)).
					Select("copy_id").
					Where(goqu.Ex{"user_id": readerID, "return_date": nil}),
			)))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, releaseSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		for _, table := range []string{tableFines, tableLoans} {
			deleteSQL, buildErr := s.toSQL(ctx, s.builder().
				Delete(s.libTable(table)).
				Where(goqu.Ex{"user_id": readerID}))
			if buildErr != nil {
				return buildErr
			}

			if _, execErr := s.execStatement(ctx, tx, deleteSQL); execErr != nil {
				return s.mapStorageError(execErr)
			}
		}

		deleteCardSQL, buildErr := s.toSQL(ctx, s.builder().
			Delete(s.libTable(tableUserCards)).
			Where(goqu.Ex{"user_id": readerID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, deleteCardSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		change := s.rowChange(tableUserCards, readerID, library.ChangeOperationDelete, readerAuditFields(current))

		return s.mapStorageError(s.appendChanges(ctx, tx, []library.ChangeRecord{change}))
	})
	if txErr != nil {
		finish(statusError)

		return txErr
	}

	finish(statusSuccess)

	return nil
}

// lockReader loads a reader row under FOR UPDATE.
func (s *Store) lockReader(ctx context.Context, tx adapters.DBTx, readerID int64) (library.UserCard, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableUserCards)).
		Select("user_lname", "user_fname", "user_mname",
			"user_passport_series", "user_passport_number",
			"user_email", "status", "photo", "registration_date").
		Where(goqu.Ex{"user_id": readerID}).
		ForUpdate(exp.Wait))
	if buildErr != nil {
		return library.UserCard{}, buildErr
	}

	card := library.UserCard{ID: readerID}
	var middleName *string
	var status string
	scanErr := s.queryOneRow(ctx, tx, selectSQL,
		&card.LastName, &card.FirstName, &middleName,
		&card.PassportSeries, &card.PassportNumber,
		&card.Email, &status, &card.Photo, &card.RegistrationDate)
	if scanErr == errNoRows {
		return library.UserCard{}, library.NotFoundError{Entity: "reader", Key: readerID}
	}
	if scanErr != nil {
		return library.UserCard{}, s.mapStorageError(scanErr)
	}

	if middleName != nil {
		card.MiddleName = *middleName
	}
	card.Status = library.CardStatus(status)

	return card, nil
}

// queryReaderListings runs the shared reader aggregate, optionally filtered.
// Borrowed titles and the fine total come from scalar subqueries so that the
// two one-to-many joins cannot multiply each other.
func (s *Store) queryReaderListings(ctx context.Context, filter goqu.Ex) ([]library.ReaderListing, error) {
	borrowedDS := s.builder().
		From(s.libTable(tableLoans).As("ln")).
		InnerJoin(s.libTable(tableBookCopies).As("c"), goqu.On(goqu.Ex{"c.copy_id": goqu.I("ln.copy_id")})).
		InnerJoin(s.libTable(tableBooks).As("b"), goqu.On(goqu.Ex{"b.book_id": goqu.I("c.book_id")})).
		Select(goqu.L("string_agg(b.book_name, ?)", authorNameSeparator)).
		Where(goqu.Ex{"ln.user_id": goqu.I("u.user_id"), "ln.return_date": nil})

	finesDS := s.builder().
		From(s.libTable(tableFines).As("f")).
		Select(goqu.L("COALESCE(SUM(f.fine_amount), 0)")).
		Where(goqu.Ex{"f.user_id": goqu.I("u.user_id")})

	ds := s.builder().
		From(s.libTable(tableUserCards).As("u")).
		Select(
			goqu.I("u.user_id"),
			goqu.I("u.user_lname"),
			goqu.I("u.user_fname"),
			goqu.I("u.user_mname"),
			goqu.I("u.user_email"),
			goqu.I("u.registration_date"),
			goqu.I("u.status"),
			borrowedDS,
			finesDS,
		).
		Order(goqu.I("u.user_id").Asc())

	if filter != nil {
		ds = ds.Where(filter)
	}

	listSQL, buildErr := s.toSQL(ctx, ds)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.db.Query(ctx, listSQL)
	if queryErr != nil {
		return nil, s.mapStorageError(queryErr)
	}
	defer s.closeRows(ctx, rows)

	listings := make([]library.ReaderListing, 0)

	for rows.Next() {
		var (
			listing    library.ReaderListing
			lastName   string
			firstName  string
			middleName *string
			status     string
			borrowed   *string
		)

		if scanErr := rows.Scan(
			&listing.ID, &lastName, &firstName, &middleName,
			&listing.Email, &listing.RegistrationDate, &status,
			&borrowed, &listing.TotalFines,
		); scanErr != nil {
			return nil, s.mapStorageError(scanErr)
		}

		middle := ""
		if middleName != nil {
			middle = *middleName
		}
		listing.FullName = library.FormatPersonName(lastName, firstName, middle)
		listing.Status = library.CardStatus(status)
		if borrowed != nil && *borrowed != "" {
			listing.BorrowedBooks = strings.Split(*borrowed, authorNameSeparator)
		} else {
			listing.BorrowedBooks = []string{}
		}

		listings = append(listings, listing)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, s.mapStorageError(rowsErr)
	}

	return listings, nil
}

// readerAuditFields is the audited field set for a reader row.
func readerAuditFields(card library.UserCard) map[string]any {
	return map[string]any{
		"user_lname":           card.LastName,
		"user_fname":           card.FirstName,
		"user_mname":           card.MiddleName,
		"user_passport_series": card.PassportSeries,
		"user_passport_number": card.PassportNumber,
		"user_email":           card.Email,
		"status":               string(card.Status),
		"photo":                card.Photo,
	}
}
