package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arkadyvb/libris/library"
)

type addBookRequest struct {
	Title            string  `json:"title"`
	PublishingYear   int     `json:"publishing_year"`
	PagesNumber      int     `json:"pages_number"`
	Category         string  `json:"category"`
	Genre            string  `json:"genre"`
	AuthorLastName   string  `json:"author_last_name"`
	AuthorFirstName  string  `json:"author_first_name"`
	AuthorMiddleName string  `json:"author_middle_name"`
	AuthorBirthYear  int     `json:"author_birth_year"`
	AuthorDeathYear  *int    `json:"author_death_year"`
	Photo            *string `json:"photo"`
}

type addCopyRequest struct {
	Title     string  `json:"title"`
	Publisher string  `json:"publisher"`
	Photo     *string `json:"photo"`
	ShelfID   *int64  `json:"shelf_id"`
}

type updateCopyRequest struct {
	Photo  *string `json:"photo"`
	Status *string `json:"status"`
}

// ListBooks returns the denormalized copy listing.
func (h *Handlers) ListBooks(c *fiber.Ctx) error {
	listings, listErr := h.store.ListBooks(c.UserContext())
	if listErr != nil {
		return respondError(c, listErr)
	}

	return respondData(c, fiber.StatusOK, listings)
}

// GetBookCopy returns the listing row for one copy.
func (h *Handlers) GetBookCopy(c *fiber.Ctx) error {
	copyID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	listing, getErr := h.store.GetBookCopy(c.UserContext(), copyID)
	if getErr != nil {
		return respondError(c, getErr)
	}

	return respondData(c, fiber.StatusOK, listing)
}

// AddBook registers a catalog entry with its author, category and genre.
func (h *Handlers) AddBook(c *fiber.Ctx) error {
	var req addBookRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	result, addErr := h.store.AddBook(c.UserContext(), library.AddBookInput{
		Title:            req.Title,
		PublishingYear:   req.PublishingYear,
		PagesNumber:      req.PagesNumber,
		CategoryName:     req.Category,
		GenreName:        req.Genre,
		AuthorLastName:   req.AuthorLastName,
		AuthorFirstName:  req.AuthorFirstName,
		AuthorMiddleName: req.AuthorMiddleName,
		AuthorBirthYear:  req.AuthorBirthYear,
		AuthorDeathYear:  req.AuthorDeathYear,
	})
	if addErr != nil {
		return respondError(c, addErr)
	}

	return respondData(c, fiber.StatusCreated, fiber.Map{
		"book_id":   result.Book.ID,
		"title":     result.Book.Title,
		"category":  result.CategoryName,
		"genre":     result.GenreName,
		"author_id": result.Author.ID,
	})
}

// AddCopy registers a physical copy of an existing catalog entry.
func (h *Handlers) AddCopy(c *fiber.Ctx) error {
	var req addCopyRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	result, addErr := h.store.AddCopy(c.UserContext(), library.AddCopyInput{
		BookTitle:     req.Title,
		PublisherName: req.Publisher,
		Photo:         req.Photo,
		ShelfID:       req.ShelfID,
	})
	if addErr != nil {
		return respondError(c, addErr)
	}

	return respondData(c, fiber.StatusCreated, fiber.Map{
		"copy_id":   result.Copy.ID,
		"title":     result.BookTitle,
		"publisher": result.PublisherName,
		"shelf":     result.ShelfNumber,
		"status":    result.Copy.Status,
	})
}

// UpdateCopy applies a partial update to a copy.
func (h *Handlers) UpdateCopy(c *fiber.Ctx) error {
	copyID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	var req updateCopyRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	update := library.CopyUpdate{Photo: req.Photo}
	if req.Status != nil {
		status := library.CopyStatus(*req.Status)
		update.Status = &status
	}

	updated, updateErr := h.store.UpdateCopy(c.UserContext(), copyID, update)
	if updateErr != nil {
		return respondError(c, updateErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"copy_id": updated.ID,
		"status":  updated.Status,
		"photo":   updated.Photo,
	})
}

// DeleteCopy removes a copy together with its loan history and placement.
func (h *Handlers) DeleteCopy(c *fiber.Ctx) error {
	copyID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	if deleteErr := h.store.DeleteCopy(c.UserContext(), copyID); deleteErr != nil {
		return respondError(c, deleteErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{"copy_id": copyID})
}
