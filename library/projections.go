package library

import (
	"fmt"
	"strings"
	"time"
)

// Default labels substituted into a location string when a copy has no
// resolvable shelving segment. They mirror the designated warehouse shelf
// used as the AddCopy default.
const (
	DefaultSectionLabel = "Main Warehouse"
	DefaultRackLabel    = "In Warehouse"
	DefaultShelfLabel   = "In Warehouse"
)

// BookListing is the denormalized read model for one copy+location pair:
// catalog data, all author names, and the flattened shelf path.
type BookListing struct {
	CopyID   int64
	Title    string
	Genre    string
	Authors  []string
	Location string
	Photo    *string
	Status   CopyStatus
}

// ReaderListing is the denormalized read model for one reader: identity,
// the titles currently on loan, and the total of all recorded fines.
type ReaderListing struct {
	ID               int64
	FullName         string
	Email            string
	RegistrationDate time.Time
	BorrowedBooks    []string
	TotalFines       int64
	Status           CardStatus
}

// FineListing is the denormalized read model for one fine: the owning
// reader and the titles of all books that reader has not yet returned
// (independent of which copy the fine was accrued for).
type FineListing struct {
	FineID          int64
	ReaderName      string
	ReaderEmail     string
	Amount          int64
	FineDate        time.Time
	UnreturnedBooks []string
	Paid            bool
}

// FormatLocation flattens a Section/Rack/Shelf chain into the display string
// used by the book listing. Missing segments fall back to the warehouse labels.
func FormatLocation(sectionName, rackName, shelfNumber string) string {
	if sectionName == "" {
		sectionName = DefaultSectionLabel
	}
	if rackName == "" {
		rackName = DefaultRackLabel
	}
	if shelfNumber == "" {
		return fmt.Sprintf("%s, %s, %s", sectionName, rackName, DefaultShelfLabel)
	}

	return fmt.Sprintf("%s, %s, shelf %s", sectionName, rackName, shelfNumber)
}

// FormatPersonName joins last, first and middle name, skipping empty parts.
func FormatPersonName(lastName, firstName, middleName string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{lastName, firstName, middleName} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, " ")
}
