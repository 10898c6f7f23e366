package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arkadyvb/libris/library"
)

type issueLoanRequest struct {
	Title    string `json:"title"`
	DueDate  string `json:"due_date"`
	ReaderID int64  `json:"reader_id"`
}

// IssueLoan lends one available copy of the requested title to a reader.
func (h *Handlers) IssueLoan(c *fiber.Ctx) error {
	var req issueLoanRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	dueDate, dateErr := time.Parse(time.DateOnly, req.DueDate)
	if dateErr != nil {
		return respondError(c, library.ValidationError{Field: "due_date", Reason: "must be a date in YYYY-MM-DD format"})
	}

	loan, issueErr := h.store.IssueLoan(c.UserContext(), library.IssueLoanInput{
		BookTitle: req.Title,
		DueDate:   dueDate,
		ReaderID:  req.ReaderID,
	})
	if issueErr != nil {
		return respondError(c, issueErr)
	}

	return respondData(c, fiber.StatusCreated, fiber.Map{
		"loan_id":   loan.ID,
		"copy_id":   loan.CopyID,
		"user_id":   loan.UserID,
		"loan_date": loan.LoanDate.Format(time.DateOnly),
		"due_date":  loan.DueDate.Format(time.DateOnly),
	})
}

// ReturnLoan closes a current loan and makes the copy available again.
func (h *Handlers) ReturnLoan(c *fiber.Ctx) error {
	loanID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	loan, returnErr := h.store.ReturnLoan(c.UserContext(), loanID)
	if returnErr != nil {
		return respondError(c, returnErr)
	}

	returnDate := ""
	if loan.ReturnDate != nil {
		returnDate = loan.ReturnDate.Format(time.DateOnly)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"loan_id":     loan.ID,
		"copy_id":     loan.CopyID,
		"return_date": returnDate,
	})
}
