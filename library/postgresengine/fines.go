package postgresengine

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

// CreateFine records a monetary penalty against a reader. A zero fine date
// defaults to today.
func (s *Store) CreateFine(ctx context.Context, input library.FineInput) (library.Fine, error) {
	ctx, finish := s.traceOperation(ctx, opCreateFine)

	fineDate := input.FineDate
	if fineDate.IsZero() {
		fineDate = s.clock()
	}
	fineDate = dateOnly(fineDate)

	fine, fineErr := library.BuildFine(input.UserID, input.Amount, fineDate, input.Paid)
	if fineErr != nil {
		finish(statusError)

		return library.Fine{}, fineErr
	}

	txErr := s.withinTransaction(ctx, opCreateFine, func(tx adapters.DBTx) error {
		if _, readerErr := s.readerStatus(ctx, tx, fine.UserID); readerErr != nil {
			return readerErr
		}

		insertSQL, buildErr := s.toSQL(ctx, s.builder().
			Insert(s.libTable(tableFines)).
			Rows(goqu.Record{
				"fine_amount": fine.Amount,
				"fine_date":   fine.FineDate,
				"fine_paid":   fine.Paid,
				"user_id":     fine.UserID,
			}).
			Returning("fine_id"))
		if buildErr != nil {
			return buildErr
		}

		if scanErr := s.queryOneRow(ctx, tx, insertSQL, &fine.ID); scanErr != nil {
			return s.mapStorageError(scanErr)
		}

		change := s.rowChange(tableFines, fine.ID, library.ChangeOperationInsert, map[string]any{
			"fine_amount": fine.Amount,
			"fine_paid":   fine.Paid,
			"user_id":     fine.UserID,
		})

		return s.mapStorageError(s.appendChanges(ctx, tx, []library.ChangeRecord{change}))
	})
	if txErr != nil {
		finish(statusError)

		return library.Fine{}, txErr
	}

	finish(statusSuccess)

	return fine, nil
}

// ListFines returns the denormalized fine listing: the owning reader and the
// titles that reader has not yet returned.
func (s *Store) ListFines(ctx context.Context) ([]library.FineListing, error) {
	return s.queryFineListings(ctx, nil)
}

// GetFine returns the listing row for a single fine.
func (s *Store) GetFine(ctx context.Context, fineID int64) (library.FineListing, error) {
	listings, queryErr := s.queryFineListings(ctx, goqu.Ex{"f.fine_id": fineID})
	if queryErr != nil {
		return library.FineListing{}, queryErr
	}
	if len(listings) == 0 {
		return library.FineListing{}, library.NotFoundError{Entity: "fine", Key: fineID}
	}

	return listings[0], nil
}

// UpdateFine applies a partial update (amount, paid flag) to a fine and
// records a field-level audit diff.
func (s *Store) UpdateFine(ctx context.Context, fineID int64, update library.FineUpdate) (library.Fine, error) {
	ctx, finish := s.traceOperation(ctx, opUpdateFine)

	if update.Amount != nil && *update.Amount < library.MinFineAmount {
		finish(statusError)

		return library.Fine{}, library.ValidationError{Field: "fine_amount", Reason: "must be at least 100"}
	}

	var result library.Fine

	txErr := s.withinTransaction(ctx, opUpdateFine, func(tx adapters.DBTx) error {
		current, lockErr := s.lockFine(ctx, tx, fineID)
		if lockErr != nil {
			return lockErr
		}

		next := current
		if update.Amount != nil {
			next.Amount = *update.Amount
		}
		if update.Paid != nil {
			next.Paid = *update.Paid
		}

		updateSQL, buildErr := s.toSQL(ctx, s.builder().
			Update(s.libTable(tableFines)).
			Set(goqu.Record{"fine_amount": next.Amount, "fine_paid": next.Paid}).
			Where(goqu.Ex{"fine_id": fineID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, updateSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		changes := library.DiffFields(tableFines, fineID,
			map[string]any{"fine_amount": current.Amount, "fine_paid": current.Paid},
			map[string]any{"fine_amount": next.Amount, "fine_paid": next.Paid},
			s.clock())
		if auditErr := s.appendChanges(ctx, tx, changes); auditErr != nil {
			return s.mapStorageError(auditErr)
		}

		result = next

		return nil
	})
	if txErr != nil {
		finish(statusError)

		return library.Fine{}, txErr
	}

	finish(statusSuccess)

	return result, nil
}

// DeleteFine removes a fine row.
func (s *Store) DeleteFine(ctx context.Context, fineID int64) error {
	ctx, finish := s.traceOperation(ctx, opDeleteFine)

	txErr := s.withinTransaction(ctx, opDeleteFine, func(tx adapters.DBTx) error {
		current, lockErr := s.lockFine(ctx, tx, fineID)
		if lockErr != nil {
			return lockErr
		}

		deleteSQL, buildErr := s.toSQL(ctx, s.builder().
			Delete(s.libTable(tableFines)).
			Where(goqu.Ex{"fine_id": fineID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, deleteSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		change := s.rowChange(tableFines, fineID, library.ChangeOperationDelete, map[string]any{
			"fine_amount": current.Amount,
			"fine_paid":   current.Paid,
			"user_id":     current.UserID,
		})

		return s.mapStorageError(s.appendChanges(ctx, tx, []library.ChangeRecord{change}))
	})
	if txErr != nil {
		finish(statusError)

		return txErr
	}

	finish(statusSuccess)

	return nil
}

// lockFine loads a fine row under FOR UPDATE.
func (s *Store) lockFine(ctx context.Context, tx adapters.DBTx, fineID int64) (library.Fine, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableFines)).
		Select("fine_amount", "fine_date", "fine_paid", "user_id").
		Where(goqu.Ex{"fine_id": fineID}).
		ForUpdate(exp.Wait))
	if buildErr != nil {
		return library.Fine{}, buildErr
	}

	fine := library.Fine{ID: fineID}
	scanErr := s.queryOneRow(ctx, tx, selectSQL, &fine.Amount, &fine.FineDate, &fine.Paid, &fine.UserID)
	if scanErr == errNoRows {
		return library.Fine{}, library.NotFoundError{Entity: "fine", Key: fineID}
	}
	if scanErr != nil {
		return library.Fine{}, s.mapStorageError(scanErr)
	}

	return fine, nil
}

// queryFineListings runs the shared fine aggregate, optionally filtered.
// The unreturned titles come from a scalar subquery over the reader's current
// loans, independent of which copy the fine was accrued for.
func (s *Store) queryFineListings(ctx context.Context, filter goqu.Ex) ([]library.FineListing, error) {
	unreturnedDS := s.builder().
		From(s.libTable(tableLoans).As("ln")).
		InnerJoin(s.libTable(tableBookCopies).As("c"), goqu.On(goqu.Ex{"c.copy_id": goqu.I("ln.copy_id")})).
		InnerJoin(s.libTable(tableBooks).As("b"), goqu.On(goqu.Ex{"b.book_id": goqu.I("c.book_id")})).
		Select(goqu.L("string_agg(b.book_name, ?)", authorNameSeparator)).
		Where(goqu.Ex{"ln.user_id": goqu.I("u.user_id"), "ln.return_date": nil})

	ds := s.builder().
		From(s.libTable(tableFines).As("f")).
		InnerJoin(s.libTable(tableUserCards).As("u"), goqu.On(goqu.Ex{"u.user_id": goqu.I("f.user_id")})).
		Select(
			goqu.I("f.fine_id"),
			goqu.I("u.user_lname"),
			goqu.I("u.user_fname"),
			goqu.I("u.user_mname"),
			goqu.I("u.user_email"),
			goqu.I("f.fine_amount"),
			goqu.I("f.fine_date"),
			goqu.I("f.fine_paid"),
			unreturnedDS,
		).
		Order(goqu.I("f.fine_id").Asc())

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

	listings := make([]library.FineListing, 0)

	for rows.Next() {
		var (
			listing    library.FineListing
			lastName   string
			firstName  string
			middleName *string
			unreturned *string
		)

		if scanErr := rows.Scan(
			&listing.FineID, &lastName, &firstName, &middleName,
			&listing.ReaderEmail, &listing.Amount, &listing.FineDate,
			&listing.Paid, &unreturned,
		); scanErr != nil {
			return nil, s.mapStorageError(scanErr)
		}

		middle := ""
		if middleName != nil {
			middle = *middleName
		}
		listing.ReaderName = library.FormatPersonName(lastName, firstName, middle)
		if unreturned != nil && *unreturned != "" {
			listing.UnreturnedBooks = strings.Split(*unreturned, authorNameSeparator)
		} else {
			listing.UnreturnedBooks = []string{}
		}

		listings = append(listings, listing)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, s.mapStorageError(rowsErr)
	}

	return listings, nil
}
