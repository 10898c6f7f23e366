package library_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvb/libris/library"
)

func Test_BuildAuthor_When_AllFieldsAreValid(t *testing.T) {
	// setup
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	deathYear := 1986

	// act
	author, err := library.BuildAuthor("Herbert", "Frank", "Patrick", 1920, &deathYear, now)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Herbert", author.LastName)
	assert.Equal(t, 1920, author.BirthYear)
	require.NotNil(t, author.DeathYear)
	assert.Equal(t, 1986, *author.DeathYear)
}

func Test_BuildAuthor_When_BirthYearIsInTheFuture(t *testing.T) {
	// setup
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// act
	_, err := library.BuildAuthor("Herbert", "Frank", "", 2030, nil, now)

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_BuildAuthor_When_DeathYearPrecedesBirthYear(t *testing.T) {
	// setup
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	deathYear := 1900

	// act
	_, err := library.BuildAuthor("Herbert", "Frank", "", 1920, &deathYear, now)

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_BuildBook_When_AllFieldsAreValid(t *testing.T) {
	// setup
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// act
	book, err := library.BuildBook("Dune", 1965, 412, now)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, 1965, book.PublishingYear)
	assert.Equal(t, 412, book.PagesNumber)
}

func Test_BuildBook_When_TitleIsEmpty(t *testing.T) {
	// act
	_, err := library.BuildBook("", 1965, 412, time.Now())

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_BuildBook_When_PagesNumberIsZero(t *testing.T) {
	// act
	_, err := library.BuildBook("Dune", 1965, 0, time.Now())

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_BuildUserCard_When_AllFieldsAreValid(t *testing.T) {
	// act
	card, err := library.BuildUserCard(
		"Smith", "Anna", "", 1234, 567890,
		"anna.smith@example.com", library.CardStatusActive, nil)

	// assert
	require.NoError(t, err)
	assert.Equal(t, library.CardStatusActive, card.Status)
	assert.Equal(t, 1234, card.PassportSeries)
}

func Test_BuildUserCard_When_PassportSeriesIsOutOfRange(t *testing.T) {
	// act
	_, err := library.BuildUserCard(
		"Smith", "Anna", "", 999, 567890,
		"anna.smith@example.com", library.CardStatusActive, nil)

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_BuildUserCard_When_EmailIsMalformed(t *testing.T) {
	// act
	_, err := library.BuildUserCard(
		"Smith", "Anna", "", 1234, 567890,
		"not-an-email", library.CardStatusActive, nil)

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_BuildUserCard_When_StatusIsUnknown(t *testing.T) {
	// act
	_, err := library.BuildUserCard(
		"Smith", "Anna", "", 1234, 567890,
		"anna.smith@example.com", library.CardStatus("Suspended"), nil)

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_BuildFine_When_AmountIsBelowMinimum(t *testing.T) {
	// act
	_, err := library.BuildFine(1, 99, time.Now(), false)

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_BuildFine_When_AmountEqualsTheMinimum(t *testing.T) {
	// act
	fine, err := library.BuildFine(1, library.MinFineAmount, time.Now(), false)

	// assert
	require.NoError(t, err)
	assert.Equal(t, library.MinFineAmount, fine.Amount)
}

func Test_ValidatePasswordPlaintext_When_PasswordIsTooShort(t *testing.T) {
	// act
	err := library.ValidatePasswordPlaintext("short")

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_CopyStatus_IsValid(t *testing.T) {
	assert.True(t, library.CopyStatusAvailable.IsValid())
	assert.True(t, library.CopyStatusCheckedOut.IsValid())
	assert.True(t, library.CopyStatusDamaged.IsValid())
	assert.True(t, library.CopyStatusLost.IsValid())
	assert.False(t, library.CopyStatus("Misplaced").IsValid())
}
