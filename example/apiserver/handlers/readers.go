package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arkadyvb/libris/library"
)

type readerRequest struct {
	LastName       string  `json:"last_name"`
	FirstName      string  `json:"first_name"`
	MiddleName     string  `json:"middle_name"`
	PassportSeries int     `json:"passport_series"`
	PassportNumber int     `json:"passport_number"`
	Email          string  `json:"email"`
	Status         string  `json:"status"`
	Photo          *string `json:"photo"`
}

type readerUpdateRequest struct {
	LastName       *string `json:"last_name"`
	FirstName      *string `json:"first_name"`
	MiddleName     *string `json:"middle_name"`
	PassportSeries *int    `json:"passport_series"`
	PassportNumber *int    `json:"passport_number"`
	Email          *string `json:"email"`
	Status         *string `json:"status"`
	Photo          *string `json:"photo"`
}

// ListReaders returns the denormalized reader listing.
func (h *Handlers) ListReaders(c *fiber.Ctx) error {
	listings, listErr := h.store.ListReaders(c.UserContext())
	if listErr != nil {
		return respondError(c, listErr)
	}

	return respondData(c, fiber.StatusOK, listings)
}

// GetReader returns the listing row for one reader.
func (h *Handlers) GetReader(c *fiber.Ctx) error {
	readerID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	listing, getErr := h.store.GetReader(c.UserContext(), readerID)
	if getErr != nil {
		return respondError(c, getErr)
	}

	return respondData(c, fiber.StatusOK, listing)
}

// CreateReader registers a new library card.
func (h *Handlers) CreateReader(c *fiber.Ctx) error {
	var req readerRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	status := library.CardStatus(req.Status)
	if req.Status == "" {
		status = library.CardStatusActive
	}

	card, createErr := h.store.CreateReader(c.UserContext(), library.ReaderInput{
		LastName:       req.LastName,
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		PassportSeries: req.PassportSeries,
		PassportNumber: req.PassportNumber,
		Email:          req.Email,
		Status:         status,
		Photo:          req.Photo,
	})
	if createErr != nil {
		return respondError(c, createErr)
	}

	return respondData(c, fiber.StatusCreated, fiber.Map{
		"user_id":           card.ID,
		"email":             card.Email,
		"status":            card.Status,
		"registration_date": card.RegistrationDate,
	})
}

// UpdateReader applies a partial update to a reader.
func (h *Handlers) UpdateReader(c *fiber.Ctx) error {
	readerID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	var req readerUpdateRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	update := library.ReaderUpdate{
		LastName:       req.LastName,
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		PassportSeries: req.PassportSeries,
		PassportNumber: req.PassportNumber,
		Email:          req.Email,
		Photo:          req.Photo,
	}
	if req.Status != nil {
		status := library.CardStatus(*req.Status)
		update.Status = &status
	}

	card, updateErr := h.store.UpdateReader(c.UserContext(), readerID, update)
	if updateErr != nil {
		return respondError(c, updateErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"user_id": card.ID,
		"email":   card.Email,
		"status":  card.Status,
	})
}

// DeleteReader removes a reader and all dependent rows.
func (h *Handlers) DeleteReader(c *fiber.Ctx) error {
	readerID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	if deleteErr := h.store.DeleteReader(c.UserContext(), readerID); deleteErr != nil {
		return respondError(c, deleteErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{"user_id": readerID})
}
