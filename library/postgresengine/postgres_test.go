package postgresengine_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvb/libris/library"
)

func Test_AddBook_When_TheTitleIsNew(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// act
	book := seedBook(t, store, "Dune")

	// assert
	assert.NotZero(t, book.Book.ID)
	assert.Equal(t, "Dune", book.Book.Title)
	assert.Equal(t, "Science Fiction", book.CategoryName)
	assert.Equal(t, "Novel", book.GenreName)
	assert.NotZero(t, book.Author.ID)
}

func Test_AddBook_When_TheTitleAlreadyExists(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	first := seedBook(t, store, "Dune")

	// act
	second := seedBook(t, store, "Dune")

	// assert
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.Equal(t, first.Author.ID, second.Author.ID)
}

func Test_AddBook_When_TheAuthorLastNameIsAlreadyKnown(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	first := seedBook(t, store, "Dune")

	// act
	second, addErr := store.AddBook(t.Context(), library.AddBookInput{
		Title:           "Dune Messiah",
		PublishingYear:  1969,
		PagesNumber:     256,
		CategoryName:    "Science Fiction",
		GenreName:       "Novel",
		AuthorLastName:  "Herbert",
		AuthorFirstName: "Frank",
		AuthorBirthYear: 1920,
	})

	// assert
	require.NoError(t, addErr)
	assert.NotEqual(t, first.Book.ID, second.Book.ID)
	assert.Equal(t, first.Author.ID, second.Author.ID)
}

func Test_AddBook_Concurrent_CallsConvergeOnOneRowSet(t *testing.T) {
	// setup
	store, pool := newTestStore(t)
	const workers = 4

	// act
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, addErr := store.AddBook(t.Context(), library.AddBookInput{
				Title:           "Dune",
				PublishingYear:  1965,
				PagesNumber:     412,
				CategoryName:    "Science Fiction",
				GenreName:       "Novel",
				AuthorLastName:  "Herbert",
				AuthorFirstName: "Frank",
				AuthorBirthYear: 1920,
			})
			results <- addErr
		}()
	}

	wg.Wait()
	close(results)

	// assert
	for addErr := range results {
		require.NoError(t, addErr)
	}

	for table, where := range map[string]string{
		"authors":       "author_lname = 'Herbert'",
		"books":         "book_name = 'Dune'",
		"authors_books": "TRUE",
	} {
		var count int64
		require.NoError(t, pool.QueryRow(t.Context(), fmt.Sprintf(
			"SELECT count(*) FROM %s.%s WHERE %s", store.LibrarySchema(), table, where)).Scan(&count))
		assert.EqualValues(t, 1, count, table)
	}
}

func Test_AddBook_RecordsTheNewAuthorInTheAuditTrail(t *testing.T) {
	// setup
	store, pool := newTestStore(t)

	// act
	seedBook(t, store, "Dune")

	// assert
	var logRows int64
	require.NoError(t, pool.QueryRow(t.Context(), fmt.Sprintf(
		"SELECT count(*) FROM %s.overall_logs WHERE table_name = 'authors'", store.AuditSchema())).Scan(&logRows))
	assert.EqualValues(t, 1, logRows)
}

func Test_AddCopy_When_NoShelfIsGiven(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")

	// act
	view := seedCopy(t, store, "Dune")

	// assert
	assert.NotZero(t, view.Copy.ID)
	assert.Equal(t, library.CopyStatusAvailable, view.Copy.Status)
	assert.Equal(t, library.DefaultShelfLabel, view.ShelfNumber)
}

func Test_AddCopy_When_TheBookDoesNotExist(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// act
	_, addErr := store.AddCopy(t.Context(), library.AddCopyInput{
		BookTitle:     "Nonexistent",
		PublisherName: "Chilton Books",
	})

	// assert
	require.Error(t, addErr)
	assert.True(t, library.IsNotFound(addErr))
}

func Test_ListBooks_AggregatesAuthorsAndLocation(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")
	view := seedCopy(t, store, "Dune")

	// act
	listings, listErr := store.ListBooks(t.Context())

	// assert
	require.NoError(t, listErr)
	require.Len(t, listings, 1)
	assert.Equal(t, view.Copy.ID, listings[0].CopyID)
	assert.Equal(t, "Dune", listings[0].Title)
	assert.Equal(t, "Novel", listings[0].Genre)
	assert.Equal(t, []string{"Herbert Frank"}, listings[0].Authors)
	assert.Contains(t, listings[0].Location, library.DefaultSectionLabel)
	assert.Equal(t, library.CopyStatusAvailable, listings[0].Status)
}

func Test_UpdateCopy_When_TheStatusChanges(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")
	view := seedCopy(t, store, "Dune")
	damaged := library.CopyStatusDamaged

	// act
	updated, updateErr := store.UpdateCopy(t.Context(), view.Copy.ID, library.CopyUpdate{Status: &damaged})

	// assert
	require.NoError(t, updateErr)
	assert.Equal(t, library.CopyStatusDamaged, updated.Status)

	listing, getErr := store.GetBookCopy(t.Context(), view.Copy.ID)
	require.NoError(t, getErr)
	assert.Equal(t, library.CopyStatusDamaged, listing.Status)
}

func Test_UpdateCopy_When_TheCopyDoesNotExist(t *testing.T) {
	// setup
	store, _ := newTestStore(t)
	lost := library.CopyStatusLost

	// act
	_, updateErr := store.UpdateCopy(t.Context(), 424242, library.CopyUpdate{Status: &lost})

	// assert
	require.Error(t, updateErr)
	assert.True(t, library.IsNotFound(updateErr))
}

func Test_DeleteCopy_When_LoanHistoryExists(t *testing.T) {
	// setup
	store, pool := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")
	view := seedCopy(t, store, "Dune")
	reader := seedReader(t, store, "anna.smith@example.com")

	// two closed loans on the same copy
	for i := 0; i < 2; i++ {
		loan, issueErr := store.IssueLoan(t.Context(), library.IssueLoanInput{
			BookTitle: "Dune",
			DueDate:   dueInTwoWeeks(),
			ReaderID:  reader.ID,
		})
		require.NoError(t, issueErr)
		_, returnErr := store.ReturnLoan(t.Context(), loan.ID)
		require.NoError(t, returnErr)
	}

	// act
	deleteErr := store.DeleteCopy(t.Context(), view.Copy.ID)

	// assert
	require.NoError(t, deleteErr)

	var loanRows int64
	require.NoError(t, pool.QueryRow(t.Context(), fmt.Sprintf(
		"SELECT count(*) FROM %s.loans WHERE copy_id = %d", store.LibrarySchema(), view.Copy.ID)).Scan(&loanRows))
	assert.Zero(t, loanRows)

	var locationRows int64
	require.NoError(t, pool.QueryRow(t.Context(), fmt.Sprintf(
		"SELECT count(*) FROM %s.book_locations WHERE copy_id = %d", store.LibrarySchema(), view.Copy.ID)).Scan(&locationRows))
	assert.Zero(t, locationRows)

	_, getErr := store.GetBookCopy(t.Context(), view.Copy.ID)
	assert.True(t, library.IsNotFound(getErr))
}

func Test_IssueLoan_When_OneCopyIsAvailable(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")
	view := seedCopy(t, store, "Dune")
	reader := seedReader(t, store, "anna.smith@example.com")

	// act
	loan, issueErr := store.IssueLoan(t.Context(), library.IssueLoanInput{
		BookTitle: "Dune",
		DueDate:   dueInTwoWeeks(),
		ReaderID:  reader.ID,
	})

	// assert
	require.NoError(t, issueErr)
	assert.Equal(t, view.Copy.ID, loan.CopyID)
	assert.Equal(t, reader.ID, loan.UserID)
	assert.Nil(t, loan.ReturnDate)

	listing, getErr := store.GetBookCopy(t.Context(), view.Copy.ID)
	require.NoError(t, getErr)
	assert.Equal(t, library.CopyStatusCheckedOut, listing.Status)
}

func Test_IssueLoan_When_NoCopyIsAvailable(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")
	seedCopy(t, store, "Dune")
	reader := seedReader(t, store, "anna.smith@example.com")
	other := seedReader(t, store, "bob.jones@example.com")

	_, firstErr := store.IssueLoan(t.Context(), library.IssueLoanInput{
		BookTitle: "Dune",
		DueDate:   dueInTwoWeeks(),
		ReaderID:  reader.ID,
	})
	require.NoError(t, firstErr)

	// act
	_, secondErr := store.IssueLoan(t.Context(), library.IssueLoanInput{
		BookTitle: "Dune",
		DueDate:   dueInTwoWeeks(),
		ReaderID:  other.ID,
	})

	// assert
	require.Error(t, secondErr)
	assert.True(t, library.IsConflict(secondErr))
}

func Test_IssueLoan_When_TheReaderIsInactive(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")
	seedCopy(t, store, "Dune")
	reader := seedReader(t, store, "anna.smith@example.com")

	inactive := library.CardStatusInactive
	_, updateErr := store.UpdateReader(t.Context(), reader.ID, library.ReaderUpdate{Status: &inactive})
	require.NoError(t, updateErr)

	// act
	_, issueErr := store.IssueLoan(t.Context(), library.IssueLoanInput{
		BookTitle: "Dune",
		DueDate:   dueInTwoWeeks(),
		ReaderID:  reader.ID,
	})

	// assert
	require.Error(t, issueErr)
	assert.True(t, library.IsConflict(issueErr))
}

func Test_IssueLoan_Concurrent_When_OnlyOneCopyExists(t *testing.T) {
	// setup
	store, _ := newTestStore(t)
	const workers = 8

	// arrange
	seedBook(t, store, "Dune")
	seedCopy(t, store, "Dune")

	readers := make([]library.UserCard, workers)
	for i := range readers {
		readers[i] = seedReader(t, store, "reader"+string(rune('a'+i))+"@example.com")
	}

	// act
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(readerID int64) {
			defer wg.Done()
			_, issueErr := store.IssueLoan(t.Context(), library.IssueLoanInput{
				BookTitle: "Dune",
				DueDate:   dueInTwoWeeks(),
				ReaderID:  readerID,
			})
			results <- issueErr
		}(readers[i].ID)
	}
	wg.Wait()
	close(results)

	// assert
	successes := 0
	conflicts := 0
	for issueErr := range results {
		switch {
		case issueErr == nil:
			successes++
		case library.IsConflict(issueErr):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", issueErr)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func Test_ReturnLoan_When_TheLoanIsCurrent(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")
	view := seedCopy(t, store, "Dune")
	reader := seedReader(t, store, "anna.smith@example.com")

	loan, issueErr := store.IssueLoan(t.Context(), library.IssueLoanInput{
		BookTitle: "Dune",
		DueDate:   dueInTwoWeeks(),
		ReaderID:  reader.ID,
	})
	require.NoError(t, issueErr)

	// act
	returned, returnErr := store.ReturnLoan(t.Context(), loan.ID)

	// assert
	require.NoError(t, returnErr)
	require.NotNil(t, returned.ReturnDate)

	listing, getErr := store.GetBookCopy(t.Context(), view.Copy.ID)
	require.NoError(t, getErr)
	assert.Equal(t, library.CopyStatusAvailable, listing.Status)
}

func Test_ReturnLoan_When_TheLoanIsAlreadyReturned(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	seedBook(t, store, "Dune")
	seedCopy(t, store, "Dune")
	reader := seedReader(t, store, "anna.smith@example.com")

	loan, issueErr := store.IssueLoan(t.Context(), library.IssueLoanInput{
		BookTitle: "Dune",
		DueDate:   dueInTwoWeeks(),
		ReaderID:  reader.ID,
	})
	require.NoError(t, issueErr)
	_, firstReturnErr := store.ReturnLoan(t.Context(), loan.ID)
	require.NoError(t, firstReturnErr)

	// act
	_, secondReturnErr := store.ReturnLoan(t.Context(), loan.ID)

	// assert
	require.Error(t, secondReturnErr)
	assert.True(t, library.IsConflict(secondReturnErr))
}
