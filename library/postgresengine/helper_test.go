package postgresengine_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine"
)

const testDSNEnv = "LIBRIS_TEST_POSTGRES_DSN"

// newTestStore connects to the test database and prepares a fresh set of
// schemas for this test, so tests can run in parallel without clashing.
// Tests are skipped when no test database is configured.
func newTestStore(t *testing.T, options ...postgresengine.Option) (*postgresengine.Store, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("set %s to run database tests", testDSNEnv)
	}

	ctx := t.Context()

	pool, poolErr := pgxpool.New(ctx, dsn)
	require.NoError(t, poolErr)
	t.Cleanup(pool.Close)

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	librarySchema := "library_" + suffix
	auditSchema := "audit_" + suffix
	staffSchema := "staff_" + suffix

	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, schema := range []string{librarySchema, auditSchema, staffSchema} {
			_, _ = pool.Exec(cleanupCtx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))
		}
	})

	options = append([]postgresengine.Option{
		postgresengine.WithSchemaNames(librarySchema, auditSchema, staffSchema),
	}, options...)

	store, storeErr := postgresengine.NewStoreFromPGXPool(pool, options...)
	require.NoError(t, storeErr)

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.EnsureDefaultWarehouse(ctx))

	return store, pool
}

func seedBook(t *testing.T, store *postgresengine.Store, title string) library.BookWithAuthor {
	t.Helper()

	book, addErr := store.AddBook(t.Context(), library.AddBookInput{
		Title:           title,
		PublishingYear:  1965,
		PagesNumber:     412,
		CategoryName:    "Science Fiction",
		GenreName:       "Novel",
		AuthorLastName:  "Herbert",
		AuthorFirstName: "Frank",
		AuthorBirthYear: 1920,
	})
	require.NoError(t, addErr)

	return book
}

func seedCopy(t *testing.T, store *postgresengine.Store, title string) library.CopyView {
	t.Helper()

	view, addErr := store.AddCopy(t.Context(), library.AddCopyInput{
		BookTitle:     title,
		PublisherName: "Chilton Books",
	})
	require.NoError(t, addErr)

	return view
}

func seedReader(t *testing.T, store *postgresengine.Store, email string) library.UserCard {
	t.Helper()

	card, createErr := store.CreateReader(t.Context(), library.ReaderInput{
		LastName:       "Smith",
		FirstName:      "Anna",
		PassportSeries: 1234,
		PassportNumber: 567890,
		Email:          email,
		Status:         library.CardStatusActive,
	})
	require.NoError(t, createErr)

	return card
}

func dueInTwoWeeks() time.Time {
	return time.Now().UTC().AddDate(0, 0, 14)
}
