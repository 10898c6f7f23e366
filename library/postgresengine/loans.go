package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

// IssueLoan lends one copy of the requested title to a reader. The copy is
// chosen as the Available copy with the lowest id, locked with FOR UPDATE so
// that concurrent requests for the last copy serialize: exactly one wins, the
// others observe no Available copy and fail with a conflict.
func (s *Store) IssueLoan(ctx context.Context, input library.IssueLoanInput) (library.Loan, error) {
	ctx, finish := s.traceOperation(ctx, opIssueLoan)

	loanDate := dateOnly(s.clock())
	if !input.DueDate.After(loanDate) {
		finish(statusError)

		return library.Loan{}, library.ValidationError{Field: "due_date", Reason: "must be after the loan date"}
	}
	if input.BookTitle == "" {
		finish(statusError)

		return library.Loan{}, library.ValidationError{Field: "book_name", Reason: "must not be empty"}
	}

	var result library.Loan

	txErr := s.withinTransaction(ctx, opIssueLoan, func(tx adapters.DBTx) error {
		readerStatus, readerErr := s.readerStatus(ctx, tx, input.ReaderID)
		if readerErr != nil {
			return readerErr
		}
		if readerStatus != library.CardStatusActive {
			return library.ConflictError{Rule: "reader card is not active"}
		}

		bookID, findErr := s.findBookIDByTitle(ctx, tx, input.BookTitle)
		if findErr != nil {
			return findErr
		}

		copyID, pickErr := s.pickAvailableCopy(ctx, tx, bookID)
		if pickErr != nil {
			return pickErr
		}

		updateCopySQL, buildErr := s.toSQL(ctx, s.builder().
			Update(s.libTable(tableBookCopies)).
			Set(goqu.Record{"status": string(library.CopyStatusCheckedOut)}).
			Where(goqu.Ex{"copy_id": copyID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, updateCopySQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		insertLoanSQL, buildErr := s.toSQL(ctx, s.builder().
			Insert(s.libTable(tableLoans)).
			Rows(goqu.Record{
				"loan_date": loanDate,
				"due_date":  dateOnly(input.DueDate),
				"copy_id":   copyID,
				"user_id":   input.ReaderID,
			}).
			Returning("loan_id"))
		if buildErr != nil {
			return buildErr
		}

		var loanID int64
		if scanErr := s.queryOneRow(ctx, tx, insertLoanSQL, &loanID); scanErr != nil {
			return s.mapStorageError(scanErr)
		}

		changes := []library.ChangeRecord{
			s.rowChange(tableLoans, input.ReaderID, library.ChangeOperationInsert, map[string]any{
				"loan_id":   loanID,
				"loan_date": loanDate.Format(time.DateOnly),
				"due_date":  dateOnly(input.DueDate).Format(time.DateOnly),
				"copy_id":   copyID,
				"user_id":   input.ReaderID,
			}),
		}
		changes = append(changes, library.DiffFields(tableBookCopies, bookID,
			map[string]any{"status": string(library.CopyStatusAvailable)},
			map[string]any{"status": string(library.CopyStatusCheckedOut)},
			s.clock())...)
		if auditErr := s.appendChanges(ctx, tx, changes); auditErr != nil {
			return s.mapStorageError(auditErr)
		}

		result = library.Loan{
			ID:       loanID,
			LoanDate: loanDate,
			DueDate:  dateOnly(input.DueDate),
			CopyID:   copyID,
			UserID:   input.ReaderID,
		}

		return nil
	})
	if txErr != nil {
		if library.IsConflict(txErr) {
			s.recordLoanConflict()
		}
		finish(statusError)

		return library.Loan{}, txErr
	}

	finish(statusSuccess)

	return result, nil
}

// ReturnLoan closes a current loan: the return date is stamped and the copy
// becomes Available again. Returning an already-closed loan is a conflict.
func (s *Store) ReturnLoan(ctx context.Context, loanID int64) (library.Loan, error) {
	ctx, finish := s.traceOperation(ctx, opReturnLoan)

	var result library.Loan

	txErr := s.withinTransaction(ctx, opReturnLoan, func(tx adapters.DBTx) error {
		loan, lockErr := s.lockLoan(ctx, tx, loanID)
		if lockErr != nil {
			return lockErr
		}
		if loan.ReturnDate != nil {
			return library.ConflictError{Rule: "loan is already returned"}
		}

		returnDate := dateOnly(s.clock())

		updateLoanSQL, buildErr := s.toSQL(ctx, s.builder().
			Update(s.libTable(tableLoans)).
			Set(goqu.Record{"return_date": returnDate}).
			Where(goqu.Ex{"loan_id": loanID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, updateLoanSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		lockedCopy, copyErr := s.lockCopy(ctx, tx, loan.CopyID)
		if copyErr != nil {
			return copyErr
		}

		updateCopySQL, buildErr := s.toSQL(ctx, s.builder().
			Update(s.libTable(tableBookCopies)).
			Set(goqu.Record{"status": string(library.CopyStatusAvailable)}).
			Where(goqu.Ex{"copy_id": loan.CopyID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, updateCopySQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		changes := library.DiffFields(tableLoans, loan.UserID,
			map[string]any{"return_date": nil},
			map[string]any{"return_date": returnDate.Format(time.DateOnly)},
			s.clock())
		changes = append(changes, library.DiffFields(tableBookCopies, lockedCopy.BookID,
			map[string]any{"status": string(lockedCopy.Status)},
			map[string]any{"status": string(library.CopyStatusAvailable)},
			s.clock())...)
		if auditErr := s.appendChanges(ctx, tx, changes); auditErr != nil {
			return s.mapStorageError(auditErr)
		}

		loan.ReturnDate = &returnDate
		result = loan

		return nil
	})
	if txErr != nil {
		finish(statusError)

		return library.Loan{}, txErr
	}

	finish(statusSuccess)

	return result, nil
}

// pickAvailableCopy locks and returns the lowest-id Available copy of a book.
// Reports a conflict when every copy is checked out, damaged or lost.
func (s *Store) pickAvailableCopy(ctx context.Context, tx adapters.DBTx, bookID int64) (int64, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableBookCopies)).
		Select("copy_id").
		Where(goqu.Ex{"book_id": bookID, "status": string(library.CopyStatusAvailable)}).
		Order(goqu.I("copy_id").Asc()).
		Limit(1).
		ForUpdate(exp.Wait))
	if buildErr != nil {
		return 0, buildErr
	}

	var copyID int64
	scanErr := s.queryOneRow(ctx, tx, selectSQL, &copyID)
	if scanErr == errNoRows {
		return 0, library.ConflictError{Rule: "no available copy of this book"}
	}
	if scanErr != nil {
		return 0, s.mapStorageError(scanErr)
	}

	return copyID, nil
}

// lockLoan loads a loan row under FOR UPDATE.
func (s *Store) lockLoan(ctx context.Context, tx adapters.DBTx, loanID int64) (library.Loan, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableLoans)).
		Select("loan_date", "due_date", "return_date", "copy_id", "user_id").
		Where(goqu.Ex{"loan_id": loanID}).
		ForUpdate(exp.Wait))
	if buildErr != nil {
		return library.Loan{}, buildErr
	}

	loan := library.Loan{ID: loanID}
	scanErr := s.queryOneRow(ctx, tx, selectSQL,
		&loan.LoanDate, &loan.DueDate, &loan.ReturnDate, &loan.CopyID, &loan.UserID)
	if scanErr == errNoRows {
		return library.Loan{}, library.NotFoundError{Entity: "loan", Key: loanID}
	}
	if scanErr != nil {
		return library.Loan{}, s.mapStorageError(scanErr)
	}

	return loan, nil
}

// readerStatus resolves a reader's card status.
func (s *Store) readerStatus(ctx context.Context, tx adapters.DBTx, readerID int64) (library.CardStatus, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableUserCards)).
		Select("status").
		Where(goqu.Ex{"user_id": readerID}))
	if buildErr != nil {
		return "", buildErr
	}

	var status string
	scanErr := s.queryOneRow(ctx, tx, selectSQL, &status)
	if scanErr == errNoRows {
		return "", library.NotFoundError{Entity: "reader", Key: readerID}
	}
	if scanErr != nil {
		return "", s.mapStorageError(scanErr)
	}

	return library.CardStatus(status), nil
}

// dateOnly truncates a timestamp to its calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
