package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arkadyvb/libris/library"
)

type fineRequest struct {
	ReaderID int64  `json:"reader_id"`
	Amount   int64  `json:"amount"`
	FineDate string `json:"fine_date"`
	Paid     bool   `json:"paid"`
}

type fineUpdateRequest struct {
	Amount *int64 `json:"amount"`
	Paid   *bool  `json:"paid"`
}

// ListFines returns the denormalized fine listing.
func (h *Handlers) ListFines(c *fiber.Ctx) error {
	listings, listErr := h.store.ListFines(c.UserContext())
	if listErr != nil {
		return respondError(c, listErr)
	}

	return respondData(c, fiber.StatusOK, listings)
}

// GetFine returns the listing row for one fine.
func (h *Handlers) GetFine(c *fiber.Ctx) error {
	fineID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	listing, getErr := h.store.GetFine(c.UserContext(), fineID)
	if getErr != nil {
		return respondError(c, getErr)
	}

	return respondData(c, fiber.StatusOK, listing)
}

// CreateFine records a fine against a reader.
func (h *Handlers) CreateFine(c *fiber.Ctx) error {
	var req fineRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	var fineDate time.Time
	if req.FineDate != "" {
		parsed, dateErr := time.Parse(time.DateOnly, req.FineDate)
		if dateErr != nil {
			return respondError(c, library.ValidationError{Field: "fine_date", Reason: "must be a date in YYYY-MM-DD format"})
		}
		fineDate = parsed
	}

	fine, createErr := h.store.CreateFine(c.UserContext(), library.FineInput{
		UserID:   req.ReaderID,
		Amount:   req.Amount,
		FineDate: fineDate,
		Paid:     req.Paid,
	})
	if createErr != nil {
		return respondError(c, createErr)
	}

	return respondData(c, fiber.StatusCreated, fiber.Map{
		"fine_id":   fine.ID,
		"amount":    fine.Amount,
		"fine_date": fine.FineDate.Format(time.DateOnly),
		"paid":      fine.Paid,
	})
}

// UpdateFine applies a partial update to a fine.
func (h *Handlers) UpdateFine(c *fiber.Ctx) error {
	fineID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	var req fineUpdateRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	fine, updateErr := h.store.UpdateFine(c.UserContext(), fineID, library.FineUpdate{
		Amount: req.Amount,
		Paid:   req.Paid,
	})
	if updateErr != nil {
		return respondError(c, updateErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"fine_id": fine.ID,
		"amount":  fine.Amount,
		"paid":    fine.Paid,
	})
}

// DeleteFine removes a fine.
func (h *Handlers) DeleteFine(c *fiber.Ctx) error {
	fineID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	if deleteErr := h.store.DeleteFine(c.UserContext(), fineID); deleteErr != nil {
		return respondError(c, deleteErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{"fine_id": fineID})
}
