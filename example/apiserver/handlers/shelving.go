package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arkadyvb/libris/library"
)

type sectionRequest struct {
	Name string `json:"name"`
}

type rackRequest struct {
	Name      string `json:"name"`
	SectionID int64  `json:"section_id"`
}

type shelfRequest struct {
	Number string `json:"number"`
	RackID int64  `json:"rack_id"`
}

// ListSections returns all shelving sections.
func (h *Handlers) ListSections(c *fiber.Ctx) error {
	sections, listErr := h.store.ListSections(c.UserContext())
	if listErr != nil {
		return respondError(c, listErr)
	}

	return respondData(c, fiber.StatusOK, sections)
}

// CreateSection adds a section.
func (h *Handlers) CreateSection(c *fiber.Ctx) error {
	var req sectionRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	section, createErr := h.store.CreateSection(c.UserContext(), req.Name)
	if createErr != nil {
		return respondError(c, createErr)
	}

	return respondData(c, fiber.StatusCreated, section)
}

// GetSection returns a single section.
func (h *Handlers) GetSection(c *fiber.Ctx) error {
	sectionID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	section, getErr := h.store.GetSection(c.UserContext(), sectionID)
	if getErr != nil {
		return respondError(c, getErr)
	}

	return respondData(c, fiber.StatusOK, section)
}

// RenameSection changes a section's name.
func (h *Handlers) RenameSection(c *fiber.Ctx) error {
	sectionID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	var req sectionRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	if renameErr := h.store.RenameSection(c.UserContext(), sectionID, req.Name); renameErr != nil {
		return respondError(c, renameErr)
	}

	return respondData(c, fiber.StatusOK, library.Section{ID: sectionID, Name: req.Name})
}

// DeleteSection removes a section and everything under it.
func (h *Handlers) DeleteSection(c *fiber.Ctx) error {
	sectionID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	if deleteErr := h.store.DeleteSection(c.UserContext(), sectionID); deleteErr != nil {
		return respondError(c, deleteErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{"section_id": sectionID})
}

// ListRacks returns the racks of a section.
func (h *Handlers) ListRacks(c *fiber.Ctx) error {
	sectionID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	racks, listErr := h.store.ListRacks(c.UserContext(), sectionID)
	if listErr != nil {
		return respondError(c, listErr)
	}

	return respondData(c, fiber.StatusOK, racks)
}

// CreateRack adds a rack under a section.
func (h *Handlers) CreateRack(c *fiber.Ctx) error {
	var req rackRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	rack, createErr := h.store.CreateRack(c.UserContext(), req.Name, req.SectionID)
	if createErr != nil {
		return respondError(c, createErr)
	}

	return respondData(c, fiber.StatusCreated, rack)
}

// GetRack returns a single rack.
func (h *Handlers) GetRack(c *fiber.Ctx) error {
	rackID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	rack, getErr := h.store.GetRack(c.UserContext(), rackID)
	if getErr != nil {
		return respondError(c, getErr)
	}

	return respondData(c, fiber.StatusOK, rack)
}

// RenameRack changes a rack's name.
func (h *Handlers) RenameRack(c *fiber.Ctx) error {
	rackID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	var req rackRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	if renameErr := h.store.RenameRack(c.UserContext(), rackID, req.Name); renameErr != nil {
		return respondError(c, renameErr)
	}

	rack, getErr := h.store.GetRack(c.UserContext(), rackID)
	if getErr != nil {
		return respondError(c, getErr)
	}

	return respondData(c, fiber.StatusOK, rack)
}

// DeleteRack removes a rack and its shelves.
func (h *Handlers) DeleteRack(c *fiber.Ctx) error {
	rackID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	if deleteErr := h.store.DeleteRack(c.UserContext(), rackID); deleteErr != nil {
		return respondError(c, deleteErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{"rack_id": rackID})
}

// ListShelves returns the shelves of a rack.
func (h *Handlers) ListShelves(c *fiber.Ctx) error {
	rackID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	shelves, listErr := h.store.ListShelves(c.UserContext(), rackID)
	if listErr != nil {
		return respondError(c, listErr)
	}

	return respondData(c, fiber.StatusOK, shelves)
}

// CreateShelf adds a shelf under a rack.
func (h *Handlers) CreateShelf(c *fiber.Ctx) error {
	var req shelfRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	shelf, createErr := h.store.CreateShelf(c.UserContext(), req.Number, req.RackID)
	if createErr != nil {
		return respondError(c, createErr)
	}

	return respondData(c, fiber.StatusCreated, shelf)
}

// GetShelf returns a single shelf.
func (h *Handlers) GetShelf(c *fiber.Ctx) error {
	shelfID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	shelf, getErr := h.store.GetShelf(c.UserContext(), shelfID)
	if getErr != nil {
		return respondError(c, getErr)
	}

	return respondData(c, fiber.StatusOK, shelf)
}

// RenameShelf changes a shelf's number.
func (h *Handlers) RenameShelf(c *fiber.Ctx) error {
	shelfID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	var req shelfRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	if renameErr := h.store.RenameShelf(c.UserContext(), shelfID, req.Number); renameErr != nil {
		return respondError(c, renameErr)
	}

	shelf, getErr := h.store.GetShelf(c.UserContext(), shelfID)
	if getErr != nil {
		return respondError(c, getErr)
	}

	return respondData(c, fiber.StatusOK, shelf)
}

// DeleteShelf removes a shelf.
func (h *Handlers) DeleteShelf(c *fiber.Ctx) error {
	shelfID, idErr := parseIDParam(c, "id")
	if idErr != nil {
		return respondError(c, idErr)
	}

	if deleteErr := h.store.DeleteShelf(c.UserContext(), shelfID); deleteErr != nil {
		return respondError(c, deleteErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{"shelf_id": shelfID})
}
