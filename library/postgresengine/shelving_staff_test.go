package postgresengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/staffauth"
)

func Test_Shelving_BuildAndListTheHierarchy(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// act
	section, sectionErr := store.CreateSection(t.Context(), "Fiction")
	require.NoError(t, sectionErr)
	rack, rackErr := store.CreateRack(t.Context(), "Rack A", section.ID)
	require.NoError(t, rackErr)
	shelf, shelfErr := store.CreateShelf(t.Context(), "3", rack.ID)
	require.NoError(t, shelfErr)

	// assert
	sections, listErr := store.ListSections(t.Context())
	require.NoError(t, listErr)
	// the default warehouse section exists alongside the new one
	require.Len(t, sections, 2)

	racks, racksErr := store.ListRacks(t.Context(), section.ID)
	require.NoError(t, racksErr)
	require.Len(t, racks, 1)
	assert.Equal(t, rack.ID, racks[0].ID)

	shelves, shelvesErr := store.ListShelves(t.Context(), rack.ID)
	require.NoError(t, shelvesErr)
	require.Len(t, shelves, 1)
	assert.Equal(t, shelf.ID, shelves[0].ID)
}

func Test_CreateSection_When_TheNameAlreadyExists(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	first, firstErr := store.CreateSection(t.Context(), "Fiction")
	require.NoError(t, firstErr)

	// act
	second, secondErr := store.CreateSection(t.Context(), "Fiction")

	// assert
	require.NoError(t, secondErr)
	assert.Equal(t, first.ID, second.ID)
}

func Test_GetSection_And_RenameSection(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	created, createErr := store.CreateSection(t.Context(), "Fiction")
	require.NoError(t, createErr)

	// act
	renameErr := store.RenameSection(t.Context(), created.ID, "Science Fiction")

	// assert
	require.NoError(t, renameErr)
	section, getErr := store.GetSection(t.Context(), created.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "Science Fiction", section.Name)
}

func Test_RenameShelf_When_TheShelfIsUnknown(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// act
	renameErr := store.RenameShelf(t.Context(), 424242, "7")

	// assert
	require.Error(t, renameErr)
	assert.True(t, library.IsNotFound(renameErr))
}

func Test_GetRack_When_TheRackIsUnknown(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// act
	_, getErr := store.GetRack(t.Context(), 424242)

	// assert
	require.Error(t, getErr)
	assert.True(t, library.IsNotFound(getErr))
}

func Test_AddCopy_When_AnExplicitShelfIsGiven(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	section, sectionErr := store.CreateSection(t.Context(), "Fiction")
	require.NoError(t, sectionErr)
	rack, rackErr := store.CreateRack(t.Context(), "Rack A", section.ID)
	require.NoError(t, rackErr)
	shelf, shelfErr := store.CreateShelf(t.Context(), "3", rack.ID)
	require.NoError(t, shelfErr)

	seedBook(t, store, "Dune")

	// act
	view, addErr := store.AddCopy(t.Context(), library.AddCopyInput{
		BookTitle:     "Dune",
		PublisherName: "Chilton Books",
		ShelfID:       &shelf.ID,
	})

	// assert
	require.NoError(t, addErr)
	assert.Equal(t, "3", view.ShelfNumber)

	listing, getErr := store.GetBookCopy(t.Context(), view.Copy.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "Fiction, Rack A, shelf 3", listing.Location)
}

func Test_DeleteShelf_When_ACopyIsStillPlacedOnIt(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	section, sectionErr := store.CreateSection(t.Context(), "Fiction")
	require.NoError(t, sectionErr)
	rack, rackErr := store.CreateRack(t.Context(), "Rack A", section.ID)
	require.NoError(t, rackErr)
	shelf, shelfErr := store.CreateShelf(t.Context(), "3", rack.ID)
	require.NoError(t, shelfErr)

	seedBook(t, store, "Dune")
	_, addErr := store.AddCopy(t.Context(), library.AddCopyInput{
		BookTitle:     "Dune",
		PublisherName: "Chilton Books",
		ShelfID:       &shelf.ID,
	})
	require.NoError(t, addErr)

	// act
	deleteErr := store.DeleteShelf(t.Context(), shelf.ID)

	// assert
	require.Error(t, deleteErr)
	assert.True(t, library.IsConstraintViolation(deleteErr))
}

func Test_DeleteSection_When_ItIsEmpty(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	section, sectionErr := store.CreateSection(t.Context(), "Fiction")
	require.NoError(t, sectionErr)

	// act
	deleteErr := store.DeleteSection(t.Context(), section.ID)

	// assert
	require.NoError(t, deleteErr)
	deleteAgainErr := store.DeleteSection(t.Context(), section.ID)
	assert.True(t, library.IsNotFound(deleteAgainErr))
}

func Test_RegisterEmployee_And_FindCredential_RoundTrip(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	hash, hashErr := staffauth.HashPassword("correct horse battery staple")
	require.NoError(t, hashErr)

	// act
	employee, registerErr := store.RegisterEmployee(t.Context(), library.Employee{
		LastName:       "Jones",
		FirstName:      "Mary",
		PassportSeries: 1234,
		PassportNumber: 567890,
	}, "head.librarian", hash)

	// assert
	require.NoError(t, registerErr)
	assert.NotZero(t, employee.ID)

	credential, findErr := store.FindCredential(t.Context(), "head.librarian")
	require.NoError(t, findErr)
	assert.Equal(t, employee.ID, credential.EmployeeID)
	assert.NoError(t, staffauth.VerifyPassword(credential.PasswordHash, "correct horse battery staple"))
}

func Test_RegisterEmployee_When_TheUsernameIsTaken(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// arrange
	hash, hashErr := staffauth.HashPassword("correct horse battery staple")
	require.NoError(t, hashErr)

	employee := library.Employee{
		LastName:       "Jones",
		FirstName:      "Mary",
		PassportSeries: 1234,
		PassportNumber: 567890,
	}
	_, firstErr := store.RegisterEmployee(t.Context(), employee, "head.librarian", hash)
	require.NoError(t, firstErr)

	// act
	_, secondErr := store.RegisterEmployee(t.Context(), employee, "head.librarian", hash)

	// assert
	require.Error(t, secondErr)
	assert.True(t, library.IsConstraintViolation(secondErr))
}

func Test_FindCredential_When_TheUsernameIsUnknown(t *testing.T) {
	// setup
	store, _ := newTestStore(t)

	// act
	_, findErr := store.FindCredential(t.Context(), "nobody")

	// assert
	require.Error(t, findErr)
	assert.True(t, library.IsNotFound(findErr))
}
