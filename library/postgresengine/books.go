package postgresengine

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

const authorNameSeparator = "|"

// AddBook registers a catalog entry together with its author, category and
// genre. Category and genre are resolved by name upsert; the author is matched
// by last name and created when absent. Re-adding an existing title reuses the
// catalog entry and only links the author if the link is missing.
func (s *Store) AddBook(ctx context.Context, input library.AddBookInput) (library.BookWithAuthor, error) {
	ctx, finish := s.traceOperation(ctx, opAddBook)

	book, bookErr := library.BuildBook(input.Title, input.PublishingYear, input.PagesNumber, s.clock())
	if bookErr != nil {
		finish(statusError)

		return library.BookWithAuthor{}, bookErr
	}

	author, authorErr := library.BuildAuthor(
		input.AuthorLastName, input.AuthorFirstName, input.AuthorMiddleName,
		input.AuthorBirthYear, input.AuthorDeathYear, s.clock())
	if authorErr != nil {
		finish(statusError)

		return library.BookWithAuthor{}, authorErr
	}

	if input.CategoryName == "" || input.GenreName == "" {
		finish(statusError)

		return library.BookWithAuthor{}, library.ValidationError{Field: "category_name", Reason: "category and genre must not be empty"}
	}

	var result library.BookWithAuthor

	txErr := s.withinTransaction(ctx, opAddBook, func(tx adapters.DBTx) error {
		categoryID, categoryErr := s.upsertNamed(ctx, tx, tableCategories, "category_id", "category_name", input.CategoryName)
		if categoryErr != nil {
			return s.mapStorageError(categoryErr)
		}

		genreID, genreErr := s.upsertNamed(ctx, tx, tableGenres, "genre_id", "genre_name", input.GenreName)
		if genreErr != nil {
			return s.mapStorageError(genreErr)
		}

		resolvedAuthor, authorCreated, resolveErr := s.findOrCreateAuthor(ctx, tx, author)
		if resolveErr != nil {
			return s.mapStorageError(resolveErr)
		}

		storedBook, created, storeErr := s.findOrCreateBook(ctx, tx, book, categoryID, genreID)
		if storeErr != nil {
			return s.mapStorageError(storeErr)
		}

		if linkErr := s.ensureAuthorLink(ctx, tx, resolvedAuthor.ID, storedBook.ID); linkErr != nil {
			return s.mapStorageError(linkErr)
		}

		changes := make([]library.ChangeRecord, 0, 2)
		if authorCreated {
			changes = append(changes, s.rowChange(tableAuthors, resolvedAuthor.ID, library.ChangeOperationInsert, map[string]any{
				"author_lname": resolvedAuthor.LastName,
				"author_fname": resolvedAuthor.FirstName,
				"author_mname": resolvedAuthor.MiddleName,
				"birth_year":   resolvedAuthor.BirthYear,
				"death_year":   resolvedAuthor.DeathYear,
			}))
		}
		if created {
			changes = append(changes, s.rowChange(tableBooks, storedBook.ID, library.ChangeOperationInsert, map[string]any{
				"book_name":       storedBook.Title,
				"publishing_year": storedBook.PublishingYear,
				"pages_number":    storedBook.PagesNumber,
				"category_id":     storedBook.CategoryID,
				"genre_id":        storedBook.GenreID,
			}))
		}
		if auditErr := s.appendChanges(ctx, tx, changes); auditErr != nil {
			return s.mapStorageError(auditErr)
		}

		result = library.BookWithAuthor{
			Book:         storedBook,
			CategoryName: input.CategoryName,
			GenreName:    input.GenreName,
			Author:       resolvedAuthor,
		}

		return nil
	})
	if txErr != nil {
		finish(statusError)

		return library.BookWithAuthor{}, txErr
	}

	finish(statusSuccess)

	return result, nil
}

// AddCopy registers a physical copy of an existing catalog entry. The
// publisher is resolved by name upsert, the copy starts as Available, and it
// is placed on the requested shelf or on the warehouse shelf when none is
// given.
func (s *Store) AddCopy(ctx context.Context, input library.AddCopyInput) (library.CopyView, error) {
	ctx, finish := s.traceOperation(ctx, opAddCopy)

	if input.BookTitle == "" {
		finish(statusError)

		return library.CopyView{}, library.ValidationError{Field: "book_name", Reason: "must not be empty"}
	}
	if input.PublisherName == "" {
		finish(statusError)

		return library.CopyView{}, library.ValidationError{Field: "publisher_name", Reason: "must not be empty"}
	}

	var result library.CopyView

	txErr := s.withinTransaction(ctx, opAddCopy, func(tx adapters.DBTx) error {
		bookID, findErr := s.findBookIDByTitle(ctx, tx, input.BookTitle)
		if findErr != nil {
			return findErr
		}

		publisherID, publisherErr := s.upsertNamed(ctx, tx, tablePublishers, "publisher_id", "publisher_name", input.PublisherName)
		if publisherErr != nil {
			return s.mapStorageError(publisherErr)
		}

		shelfID := s.warehouseShelfID
		if input.ShelfID != nil {
			shelfID = *input.ShelfID
		}

		insertCopySQL, buildErr := s.toSQL(ctx, s.builder().
			Insert(s.libTable(tableBookCopies)).
			Rows(goqu.Record{
				"photo":        input.Photo,
				"status":       string(library.CopyStatusAvailable),
				"book_id":      bookID,
				"publisher_id": publisherID,
			}).
			Returning("copy_id"))
		if buildErr != nil {
			return buildErr
		}

		var copyID int64
		if scanErr := s.queryOneRow(ctx, tx, insertCopySQL, &copyID); scanErr != nil {
			return s.mapStorageError(scanErr)
		}

		insertLocationSQL, buildErr := s.toSQL(ctx, s.builder().
			Insert(s.libTable(tableLocations)).
			Rows(goqu.Record{"shelf_id": shelfID, "copy_id": copyID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, insertLocationSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		shelfNumber, shelfErr := s.shelfNumberByID(ctx, tx, shelfID)
		if shelfErr != nil {
			return shelfErr
		}

		change := s.rowChange(tableBookCopies, bookID, library.ChangeOperationInsert, map[string]any{
			"copy_id":      copyID,
			"status":       string(library.CopyStatusAvailable),
			"book_id":      bookID,
			"publisher_id": publisherID,
			"shelf_id":     shelfID,
		})
		if auditErr := s.appendChanges(ctx, tx, []library.ChangeRecord{change}); auditErr != nil {
			return s.mapStorageError(auditErr)
		}

		result = library.CopyView{
			Copy: library.BookCopy{
				ID:          copyID,
				Photo:       input.Photo,
				Status:      library.CopyStatusAvailable,
				BookID:      bookID,
				PublisherID: publisherID,
			},
			BookTitle:     input.BookTitle,
			PublisherName: input.PublisherName,
			ShelfNumber:   shelfNumber,
		}

		return nil
	})
	if txErr != nil {
		finish(statusError)

		return library.CopyView{}, txErr
	}

	finish(statusSuccess)

	return result, nil
}

// ListBooks returns the denormalized copy listing: one row per physical copy
// with catalog data, aggregated author names and the flattened location.
func (s *Store) ListBooks(ctx context.Context) ([]library.BookListing, error) {
	return s.queryBookListings(ctx, nil)
}

// GetBookCopy returns the listing row for a single copy.
func (s *Store) GetBookCopy(ctx context.Context, copyID int64) (library.BookListing, error) {
	listings, queryErr := s.queryBookListings(ctx, goqu.Ex{"c.copy_id": copyID})
	if queryErr != nil {
		return library.BookListing{}, queryErr
	}
	if len(listings) == 0 {
		return library.BookListing{}, library.NotFoundError{Entity: "book copy", Key: copyID}
	}

	return listings[0], nil
}

// UpdateCopy applies a partial update (photo, status) to a copy and records a
// field-level audit diff for every changed column.
func (s *Store) UpdateCopy(ctx context.Context, copyID int64, update library.CopyUpdate) (library.BookCopy, error) {
	ctx, finish := s.traceOperation(ctx, opUpdateCopy)

	if update.Status != nil && !update.Status.IsValid() {
		finish(statusError)

		return library.BookCopy{}, library.ValidationError{Field: "status", Reason: "must be Available, CheckedOut, Damaged or Lost"}
	}

	var result library.BookCopy

	txErr := s.withinTransaction(ctx, opUpdateCopy, func(tx adapters.DBTx) error {
		current, lockErr := s.lockCopy(ctx, tx, copyID)
		if lockErr != nil {
			return lockErr
		}

		next := current
		if update.Photo != nil {
			next.Photo = update.Photo
		}
		if update.Status != nil {
			next.Status = *update.Status
		}

		updateSQL, buildErr := s.toSQL(ctx, s.builder().
			Update(s.libTable(tableBookCopies)).
			Set(goqu.Record{"photo": next.Photo, "status": string(next.Status)}).
			Where(goqu.Ex{"copy_id": copyID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, updateSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		changes := library.DiffFields(tableBookCopies, current.BookID,
			map[string]any{"photo": current.Photo, "status": string(current.Status)},
			map[string]any{"photo": next.Photo, "status": string(next.Status)},
			s.clock())
		if auditErr := s.appendChanges(ctx, tx, changes); auditErr != nil {
			return s.mapStorageError(auditErr)
		}

		result = next

		return nil
	})
	if txErr != nil {
		finish(statusError)

		return library.BookCopy{}, txErr
	}

	finish(statusSuccess)

	return result, nil
}

// DeleteCopy removes a physical copy together with its dependents, children
// first: loan history for the copy, then its shelf placement, then the copy
// row itself. The catalog entry is left untouched.
func (s *Store) DeleteCopy(ctx context.Context, copyID int64) error {
	ctx, finish := s.traceOperation(ctx, opDeleteCopy)

	txErr := s.withinTransaction(ctx, opDeleteCopy, func(tx adapters.DBTx) error {
		current, lockErr := s.lockCopy(ctx, tx, copyID)
		if lockErr != nil {
			return lockErr
		}

		for _, table := range []string{tableLoans, tableLocations} {
			deleteSQL, buildErr := s.toSQL(ctx, s.builder().
				Delete(s.libTable(table)).
				Where(goqu.Ex{"copy_id": copyID}))
			if buildErr != nil {
				return buildErr
			}

			if _, execErr := s.execStatement(ctx, tx, deleteSQL); execErr != nil {
				return s.mapStorageError(execErr)
			}
		}

		deleteCopySQL, buildErr := s.toSQL(ctx, s.builder().
			Delete(s.libTable(tableBookCopies)).
			Where(goqu.Ex{"copy_id": copyID}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, deleteCopySQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		change := s.rowChange(tableBookCopies, current.BookID, library.ChangeOperationDelete, map[string]any{
			"copy_id":      copyID,
			"photo":        current.Photo,
			"status":       string(current.Status),
			"book_id":      current.BookID,
			"publisher_id": current.PublisherID,
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

// upsertNamed resolves a name-unique lookup row (category, genre, publisher,
// section) to its id, inserting it when absent.
func (s *Store) upsertNamed(ctx context.Context, tx adapters.DBTx, table, idColumn, nameColumn, name string) (int64, error) {
	upsertSQL, buildErr := s.toSQL(ctx, s.builder().
		Insert(s.libTable(table)).
		Rows(goqu.Record{nameColumn: name}).
		OnConflict(goqu.DoUpdate(nameColumn, goqu.Record{nameColumn: name})).
		Returning(idColumn))
	if buildErr != nil {
		return 0, buildErr
	}

	var id int64
	if scanErr := s.queryOneRow(ctx, tx, upsertSQL, &id); scanErr != nil {
		return 0, scanErr
	}

	return id, nil
}

// findOrCreateAuthor matches an author by last name only and creates the
// record when no author with that last name exists yet. author_lname carries
// a unique constraint, so the insert races through ON CONFLICT instead of
// read-then-insert: concurrent callers converge on one row. The returned flag
// reports whether this call created the row.
func (s *Store) findOrCreateAuthor(ctx context.Context, tx adapters.DBTx, author library.Author) (library.Author, bool, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableAuthors)).
		Select("author_id", "author_fname", "author_mname", "birth_year", "death_year").
		Where(goqu.Ex{"author_lname": author.LastName}))
	if buildErr != nil {
		return library.Author{}, false, buildErr
	}

	existing := library.Author{LastName: author.LastName}
	var middleName *string
	scanErr := s.queryOneRow(ctx, tx, selectSQL,
		&existing.ID, &existing.FirstName, &middleName, &existing.BirthYear, &existing.DeathYear)
	if scanErr == nil {
		if middleName != nil {
			existing.MiddleName = *middleName
		}

		return existing, false, nil
	}
	if scanErr != errNoRows {
		return library.Author{}, false, scanErr
	}

	upsertSQL, buildErr := s.toSQL(ctx, s.builder().
		Insert(s.libTable(tableAuthors)).
		Rows(goqu.Record{
			"author_lname": author.LastName,
			"author_fname": author.FirstName,
			"author_mname": nullableString(author.MiddleName),
			"birth_year":   author.BirthYear,
			"death_year":   author.DeathYear,
		}).
		OnConflict(goqu.DoUpdate("author_lname", goqu.Record{"author_lname": author.LastName})).
		Returning("author_id"))
	if buildErr != nil {
		return library.Author{}, false, buildErr
	}

	if upsertScanErr := s.queryOneRow(ctx, tx, upsertSQL, &author.ID); upsertScanErr != nil {
		return library.Author{}, false, upsertScanErr
	}

	return author, true, nil
}

// findOrCreateBook matches a catalog entry by title and creates it when
// absent. book_name carries a unique constraint, so creation goes through
// ON CONFLICT and concurrent callers converge on one row. The returned flag
// reports whether a new row was inserted.
func (s *Store) findOrCreateBook(ctx context.Context, tx adapters.DBTx, book library.Book, categoryID, genreID int64) (library.Book, bool, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableBooks)).
		Select("book_id", "publishing_year", "pages_number", "category_id", "genre_id").
		Where(goqu.Ex{"book_name": book.Title}))
	if buildErr != nil {
		return library.Book{}, false, buildErr
	}

	existing := library.Book{Title: book.Title}
	scanErr := s.queryOneRow(ctx, tx, selectSQL,
		&existing.ID, &existing.PublishingYear, &existing.PagesNumber, &existing.CategoryID, &existing.GenreID)
	if scanErr == nil {
		return existing, false, nil
	}
	if scanErr != errNoRows {
		return library.Book{}, false, scanErr
	}

	book.CategoryID = categoryID
	book.GenreID = genreID

	upsertSQL, buildErr := s.toSQL(ctx, s.builder().
		Insert(s.libTable(tableBooks)).
		Rows(goqu.Record{
			"book_name":       book.Title,
			"publishing_year": book.PublishingYear,
			"pages_number":    book.PagesNumber,
			"category_id":     categoryID,
			"genre_id":        genreID,
		}).
		OnConflict(goqu.DoUpdate("book_name", goqu.Record{"book_name": book.Title})).
		Returning("book_id"))
	if buildErr != nil {
		return library.Book{}, false, buildErr
	}

	if upsertScanErr := s.queryOneRow(ctx, tx, upsertSQL, &book.ID); upsertScanErr != nil {
		return library.Book{}, false, upsertScanErr
	}

	return book, true, nil
}

// ensureAuthorLink inserts the author-book link if it does not exist yet.
// (author_id, book_id) is unique, so a concurrent duplicate resolves to a
// no-op via ON CONFLICT DO NOTHING.
func (s *Store) ensureAuthorLink(ctx context.Context, tx adapters.DBTx, authorID, bookID int64) error {
	insertSQL, buildErr := s.toSQL(ctx, s.builder().
		Insert(s.libTable(tableAuthorsBooks)).
		Rows(goqu.Record{"author_id": authorID, "book_id": bookID}).
		OnConflict(goqu.DoNothing()))
	if buildErr != nil {
		return buildErr
	}

	_, execErr := s.execStatement(ctx, tx, insertSQL)

	return execErr
}

// findBookIDByTitle resolves a catalog entry by exact title.
func (s *Store) findBookIDByTitle(ctx context.Context, tx adapters.DBTx, title string) (int64, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableBooks)).
		Select("book_id").
		Where(goqu.Ex{"book_name": title}).
		Limit(1))
	if buildErr != nil {
		return 0, buildErr
	}

	var bookID int64
	scanErr := s.queryOneRow(ctx, tx, selectSQL, &bookID)
	if scanErr == errNoRows {
		return 0, library.NotFoundError{Entity: "book", Key: title}
	}
	if scanErr != nil {
		return 0, s.mapStorageError(scanErr)
	}

	return bookID, nil
}

// shelfNumberByID resolves a shelf's display number.
func (s *Store) shelfNumberByID(ctx context.Context, tx adapters.DBTx, shelfID int64) (string, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableShelves)).
		Select("shelf_number").
		Where(goqu.Ex{"shelf_id": shelfID}))
	if buildErr != nil {
		return "", buildErr
	}

	var shelfNumber string
	scanErr := s.queryOneRow(ctx, tx, selectSQL, &shelfNumber)
	if scanErr == errNoRows {
		return "", library.NotFoundError{Entity: "shelf", Key: shelfID}
	}
	if scanErr != nil {
		return "", s.mapStorageError(scanErr)
	}

	return shelfNumber, nil
}

// lockCopy loads a copy row under FOR UPDATE so concurrent status changes and
// deletes serialize on the row.
func (s *Store) lockCopy(ctx context.Context, tx adapters.DBTx, copyID int64) (library.BookCopy, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableBookCopies)).
		Select("photo", "status", "book_id", "publisher_id").
		Where(goqu.Ex{"copy_id": copyID}).
		ForUpdate(exp.Wait))
	if buildErr != nil {
		return library.BookCopy{}, buildErr
	}

	lockedCopy := library.BookCopy{ID: copyID}
	var status string
	scanErr := s.queryOneRow(ctx, tx, selectSQL, &lockedCopy.Photo, &status, &lockedCopy.BookID, &lockedCopy.PublisherID)
	if scanErr == errNoRows {
		return library.BookCopy{}, library.NotFoundError{Entity: "book copy", Key: copyID}
	}
	if scanErr != nil {
		return library.BookCopy{}, s.mapStorageError(scanErr)
	}
	lockedCopy.Status = library.CopyStatus(status)

	return lockedCopy, nil
}

// queryBookListings runs the shared listing aggregate, optionally filtered.
func (s *Store) queryBookListings(ctx context.Context, filter goqu.Ex) ([]library.BookListing, error) {
	ds := s.builder().
		From(s.libTable(tableBookCopies).As("c")).
		InnerJoin(s.libTable(tableBooks).As("b"), goqu.On(goqu.Ex{"c.book_id": goqu.I("b.book_id")})).
		InnerJoin(s.libTable(tableGenres).As("g"), goqu.On(goqu.Ex{"b.genre_id": goqu.I("g.genre_id")})).
		LeftJoin(s.libTable(tableAuthorsBooks).As("ab"), goqu.On(goqu.Ex{"ab.book_id": goqu.I("b.book_id")})).
		LeftJoin(s.libTable(tableAuthors).As("a"), goqu.On(goqu.Ex{"a.author_id": goqu.I("ab.author_id")})).
		LeftJoin(s.libTable(tableLocations).As("l"), goqu.On(goqu.Ex{"l.copy_id": goqu.I("c.copy_id")})).
		LeftJoin(s.libTable(tableShelves).As("sh"), goqu.On(goqu.Ex{"sh.shelf_id": goqu.I("l.shelf_id")})).
		LeftJoin(s.libTable(tableRacks).As("r"), goqu.On(goqu.Ex{"r.rack_id": goqu.I("sh.rack_id")})).
		LeftJoin(s.libTable(tableSections).As("sec"), goqu.On(goqu.Ex{"sec.section_id": goqu.I("r.section_id")})).
		Select(
			goqu.I("c.copy_id"),
			goqu.I("b.book_name"),
			goqu.I("g.genre_name"),
			goqu.L("string_agg(DISTINCT a.author_lname || ' ' || a.author_fname, ?)", authorNameSeparator),
			goqu.L("COALESCE(sec.section_name, '')"),
			goqu.L("COALESCE(r.rack_name, '')"),
			goqu.L("COALESCE(sh.shelf_number, '')"),
			goqu.I("c.photo"),
			goqu.I("c.status"),
		).
		GroupBy(
			goqu.I("c.copy_id"),
			goqu.I("b.book_name"),
			goqu.I("g.genre_name"),
			goqu.I("sec.section_name"),
			goqu.I("r.rack_name"),
			goqu.I("sh.shelf_number"),
		).
		Order(goqu.I("c.copy_id").Asc())

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

	listings := make([]library.BookListing, 0)

	for rows.Next() {
		var (
			listing    library.BookListing
			authorsAgg *string
			section    string
			rack       string
			shelf      string
			status     string
		)

		if scanErr := rows.Scan(
			&listing.CopyID, &listing.Title, &listing.Genre, &authorsAgg,
			&section, &rack, &shelf, &listing.Photo, &status,
		); scanErr != nil {
			return nil, s.mapStorageError(scanErr)
		}

		listing.Status = library.CopyStatus(status)
		listing.Location = library.FormatLocation(section, rack, shelf)
		if authorsAgg != nil && *authorsAgg != "" {
			listing.Authors = strings.Split(*authorsAgg, authorNameSeparator)
		} else {
			listing.Authors = []string{}
		}

		listings = append(listings, listing)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, s.mapStorageError(rowsErr)
	}

	return listings, nil
}

// nullableString maps an empty string to SQL NULL.
func nullableString(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}
