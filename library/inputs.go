package library

import "time"

// AddBookInput is the request for the add-book workflow. Category, genre and
// author are resolved by upsert; the author is matched by last name only.
type AddBookInput struct {
	Title            string
	PublishingYear   int
	PagesNumber      int
	CategoryName     string
	GenreName        string
	AuthorLastName   string
	AuthorFirstName  string
	AuthorMiddleName string
	AuthorBirthYear  int
	AuthorDeathYear  *int
}

// BookWithAuthor is the resolved view returned by the add-book workflow.
type BookWithAuthor struct {
	Book         Book
	CategoryName string
	GenreName    string
	Author       Author
}

// AddCopyInput is the request for the add-copy workflow. The book must
// already exist; the publisher is resolved by upsert. A nil ShelfID places
// the copy on the designated warehouse shelf.
type AddCopyInput struct {
	BookTitle     string
	PublisherName string
	Photo         *string
	ShelfID       *int64
}

// CopyView is the resolved view returned by the add-copy workflow.
type CopyView struct {
	Copy          BookCopy
	BookTitle     string
	PublisherName string
	ShelfNumber   string
}

// CopyUpdate is a partial-field update for a copy; nil fields are left unchanged.
type CopyUpdate struct {
	Photo  *string
	Status *CopyStatus
}

// IssueLoanInput is the request for the issue-loan workflow.
type IssueLoanInput struct {
	BookTitle string
	DueDate   time.Time
	ReaderID  int64
}

// ReaderInput is the request for creating a reader.
type ReaderInput struct {
	LastName       string
	FirstName      string
	MiddleName     string
	PassportSeries int
	PassportNumber int
	Email          string
	Status         CardStatus
	Photo          *string
}

// ReaderUpdate is a partial-field update for a reader; nil fields are left unchanged.
type ReaderUpdate struct {
	LastName       *string
	FirstName      *string
	MiddleName     *string
	PassportSeries *int
	PassportNumber *int
	Email          *string
	Status         *CardStatus
	Photo          *string
}

// FineInput is the request for recording a fine against a reader.
// A zero FineDate defaults to today.
type FineInput struct {
	UserID   int64
	Amount   int64
	FineDate time.Time
	Paid     bool
}

// FineUpdate is a partial-field update for a fine; nil fields are left unchanged.
type FineUpdate struct {
	Amount *int64
	Paid   *bool
}
