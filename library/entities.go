package library

import (
	"regexp"
	"time"
)

// CopyStatus is the single source of truth for whether a physical copy can be
// loaned out.
type CopyStatus string

const (
	CopyStatusAvailable  CopyStatus = "Available"
	CopyStatusCheckedOut CopyStatus = "CheckedOut"
	CopyStatusDamaged    CopyStatus = "Damaged"
	CopyStatusLost       CopyStatus = "Lost"
)

// IsValid reports whether the status is one of the four enumerated values.
func (s CopyStatus) IsValid() bool {
	switch s {
	case CopyStatusAvailable, CopyStatusCheckedOut, CopyStatusDamaged, CopyStatusLost:
		return true
	default:
		return false
	}
}

// CardStatus is the lifecycle state of a reader's library card.
type CardStatus string

const (
	CardStatusActive   CardStatus = "Active"
	CardStatusInactive CardStatus = "Inactive"
)

// IsValid reports whether the status is one of the two enumerated values.
func (s CardStatus) IsValid() bool {
	return s == CardStatusActive || s == CardStatusInactive
}

const (
	maxNameLength  = 100
	maxTitleLength = 255
	maxPhotoLength = 255
	maxEmailLength = 255

	// MinFineAmount is the smallest chargeable fine, in minor currency units.
	MinFineAmount = int64(100)

	minPassportSeries = 1000
	maxPassportSeries = 9999
	minPassportNumber = 100000
	maxPassportNumber = 999999

	minPasswordLength = 8
)

var emailRX = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Section is the root of the shelving hierarchy.
type Section struct {
	ID   int64
	Name string
}

// Rack belongs to exactly one Section.
type Rack struct {
	ID        int64
	Name      string
	SectionID int64
}

// Shelf belongs to exactly one Rack; (Number, RackID) is unique.
type Shelf struct {
	ID     int64
	Number string
	RackID int64
}

// Author is a person who wrote one or more catalog entries.
type Author struct {
	ID         int64
	LastName   string
	FirstName  string
	MiddleName string
	BirthYear  int
	DeathYear  *int
}

// Genre has a unique name.
type Genre struct {
	ID   int64
	Name string
}

// Category has a unique name.
type Category struct {
	ID   int64
	Name string
}

// Publisher has a unique name.
type Publisher struct {
	ID   int64
	Name string
}

// Book is the catalog entry (title level), independent of physical copies.
type Book struct {
	ID             int64
	Title          string
	PublishingYear int
	PagesNumber    int
	CategoryID     int64
	GenreID        int64
}

// BookCopy is one physical copy of a Book from one Publisher.
type BookCopy struct {
	ID          int64
	Photo       *string
	Status      CopyStatus
	BookID      int64
	PublisherID int64
}

// BookLocation is the current shelf placement of a copy; a copy has at most one.
type BookLocation struct {
	ID      int64
	ShelfID int64
	CopyID  int64
}

// Loan is one lending event for one copy to one reader.
// A loan is current while ReturnDate is nil.
type Loan struct {
	ID         int64
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	CopyID     int64
	UserID     int64
}

// UserCard identifies a library member entitled to borrow copies.
type UserCard struct {
	ID               int64
	LastName         string
	FirstName        string
	MiddleName       string
	PassportSeries   int
	PassportNumber   int
	Email            string
	Status           CardStatus
	Photo            *string
	RegistrationDate time.Time
}

// Fine is a monetary penalty recorded against a reader.
// Amount is in minor currency units.
type Fine struct {
	ID       int64
	Amount   int64
	FineDate time.Time
	Paid     bool
	UserID   int64
}

// Employee is a staff identity, kept in a separate schema from the
// library domain tables.
type Employee struct {
	ID             int64
	LastName       string
	FirstName      string
	MiddleName     string
	PassportSeries int
	PassportNumber int
}

// EmployeeCredential is a staff login credential. PasswordHash is a bcrypt
// hash; the plaintext must be at least 8 characters before hashing.
type EmployeeCredential struct {
	ID           int64
	EmployeeID   int64
	Username     string
	PasswordHash []byte
}

// BuildAuthor validates the author invariants and returns a new Author value.
// BirthYear must be positive and not in the future; DeathYear, if present,
// must be after BirthYear and not in the future.
func BuildAuthor(lastName, firstName, middleName string, birthYear int, deathYear *int, now time.Time) (Author, error) {
	if lastName == "" || len(lastName) > maxNameLength {
		return Author{}, ValidationError{Field: "author_lname", Reason: "must be 1 to 100 characters"}
	}
	if firstName == "" || len(firstName) > maxNameLength {
		return Author{}, ValidationError{Field: "author_fname", Reason: "must be 1 to 100 characters"}
	}
	if len(middleName) > maxNameLength {
		return Author{}, ValidationError{Field: "author_mname", Reason: "must be at most 100 characters"}
	}

	currentYear := now.Year()
	if birthYear <= 0 || birthYear > currentYear {
		return Author{}, ValidationError{Field: "birth_year", Reason: "must be positive and not in the future"}
	}
	if deathYear != nil && (*deathYear <= birthYear || *deathYear > currentYear) {
		return Author{}, ValidationError{Field: "death_year", Reason: "must be after birth year and not in the future"}
	}

	return Author{
		LastName:   lastName,
		FirstName:  firstName,
		MiddleName: middleName,
		BirthYear:  birthYear,
		DeathYear:  deathYear,
	}, nil
}

// BuildBook validates the catalog-entry invariants and returns a new Book value.
func BuildBook(title string, publishingYear, pagesNumber int, now time.Time) (Book, error) {
	if title == "" || len(title) > maxTitleLength {
		return Book{}, ValidationError{Field: "book_name", Reason: "must be 1 to 255 characters"}
	}
	if publishingYear <= 0 || publishingYear > now.Year() {
		return Book{}, ValidationError{Field: "publishing_year", Reason: "must be positive and not in the future"}
	}
	if pagesNumber <= 0 {
		return Book{}, ValidationError{Field: "pages_number", Reason: "must be positive"}
	}

	return Book{
		Title:          title,
		PublishingYear: publishingYear,
		PagesNumber:    pagesNumber,
	}, nil
}

// BuildUserCard validates the reader invariants and returns a new UserCard value.
func BuildUserCard(
	lastName, firstName, middleName string,
	passportSeries, passportNumber int,
	email string,
	status CardStatus,
	photo *string,
) (UserCard, error) {

	if lastName == "" || len(lastName) > maxNameLength {
		return UserCard{}, ValidationError{Field: "user_lname", Reason: "must be 1 to 100 characters"}
	}
	if firstName == "" || len(firstName) > maxNameLength {
		return UserCard{}, ValidationError{Field: "user_fname", Reason: "must be 1 to 100 characters"}
	}
	if len(middleName) > maxNameLength {
		return UserCard{}, ValidationError{Field: "user_mname", Reason: "must be at most 100 characters"}
	}
	if passportSeries < minPassportSeries || passportSeries > maxPassportSeries {
		return UserCard{}, ValidationError{Field: "user_passport_series", Reason: "must be between 1000 and 9999"}
	}
	if passportNumber < minPassportNumber || passportNumber > maxPassportNumber {
		return UserCard{}, ValidationError{Field: "user_passport_number", Reason: "must be between 100000 and 999999"}
	}
	if email == "" || len(email) > maxEmailLength || !emailRX.MatchString(email) {
		return UserCard{}, ValidationError{Field: "user_email", Reason: "must be a valid email address"}
	}
	if !status.IsValid() {
		return UserCard{}, ValidationError{Field: "status", Reason: "must be Active or Inactive"}
	}
	if photo != nil && len(*photo) > maxPhotoLength {
		return UserCard{}, ValidationError{Field: "photo", Reason: "must be at most 255 characters"}
	}

	return UserCard{
		LastName:       lastName,
		FirstName:      firstName,
		MiddleName:     middleName,
		PassportSeries: passportSeries,
		PassportNumber: passportNumber,
		Email:          email,
		Status:         status,
		Photo:          photo,
	}, nil
}

// BuildFine validates the fine invariants and returns a new Fine value.
func BuildFine(userID, amount int64, fineDate time.Time, paid bool) (Fine, error) {
	if amount < MinFineAmount {
		return Fine{}, ValidationError{Field: "fine_amount", Reason: "must be at least 100"}
	}
	if userID < 1 {
		return Fine{}, ValidationError{Field: "user_id", Reason: "must be a valid reader id"}
	}

	return Fine{
		Amount:   amount,
		FineDate: fineDate,
		Paid:     paid,
		UserID:   userID,
	}, nil
}

// BuildEmployee validates the staff identity invariants and returns a new Employee value.
func BuildEmployee(lastName, firstName, middleName string, passportSeries, passportNumber int) (Employee, error) {
	if lastName == "" || len(lastName) > maxNameLength {
		return Employee{}, ValidationError{Field: "employee_lname", Reason: "must be 1 to 100 characters"}
	}
	if firstName == "" || len(firstName) > maxNameLength {
		return Employee{}, ValidationError{Field: "employee_fname", Reason: "must be 1 to 100 characters"}
	}
	if len(middleName) > maxNameLength {
		return Employee{}, ValidationError{Field: "employee_mname", Reason: "must be at most 100 characters"}
	}
	if passportSeries < minPassportSeries || passportSeries > maxPassportSeries {
		return Employee{}, ValidationError{Field: "employee_passport_series", Reason: "must be between 1000 and 9999"}
	}
	if passportNumber < minPassportNumber || passportNumber > maxPassportNumber {
		return Employee{}, ValidationError{Field: "employee_passport_number", Reason: "must be between 100000 and 999999"}
	}

	return Employee{
		LastName:       lastName,
		FirstName:      firstName,
		MiddleName:     middleName,
		PassportSeries: passportSeries,
		PassportNumber: passportNumber,
	}, nil
}

// ValidatePasswordPlaintext checks the plaintext password policy applied
// before hashing.
func ValidatePasswordPlaintext(plaintext string) error {
	if len(plaintext) < minPasswordLength {
		return ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if len(plaintext) > 72 {
		return ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}

	return nil
}

// ValidateUsername checks the staff username policy.
func ValidateUsername(username string) error {
	if username == "" || len(username) > maxNameLength {
		return ValidationError{Field: "username", Reason: "must be 1 to 100 characters"}
	}

	return nil
}
