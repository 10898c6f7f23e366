package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arkadyvb/libris/library/postgresengine"
	"github.com/arkadyvb/libris/library/staffauth"
)

// Handlers bundles the HTTP handlers with their dependencies.
type Handlers struct {
	store  *postgresengine.Store
	tokens *staffauth.TokenIssuer
}

// NewHandlers creates the handler set for the given store and token issuer.
func NewHandlers(store *postgresengine.Store, tokens *staffauth.TokenIssuer) *Handlers {
	return &Handlers{store: store, tokens: tokens}
}

// Register mounts all routes on the app. Everything under /api except the
// login endpoint requires a valid staff token.
func (h *Handlers) Register(app *fiber.App) {
	app.Post("/api/login", h.Login)

	api := app.Group("/api", h.AuthRequired)

	api.Post("/staff/register", h.RegisterEmployee)

	api.Get("/books", h.ListBooks)
	api.Get("/books/copies/:id", h.GetBookCopy)
	api.Post("/books/add", h.AddBook)
	api.Post("/books/add-copy", h.AddCopy)
	api.Patch("/books/copies/:id", h.UpdateCopy)
	api.Delete("/books/copies/:id", h.DeleteCopy)

	api.Get("/readers", h.ListReaders)
	api.Get("/readers/:id", h.GetReader)
	api.Post("/readers", h.CreateReader)
	api.Patch("/readers/:id", h.UpdateReader)
	api.Delete("/readers/:id", h.DeleteReader)

	api.Get("/fines", h.ListFines)
	api.Get("/fines/:id", h.GetFine)
	api.Post("/fines", h.CreateFine)
	api.Patch("/fines/:id", h.UpdateFine)
	api.Delete("/fines/:id", h.DeleteFine)

	api.Post("/loans/new", h.IssueLoan)
	api.Post("/loans/:id/return", h.ReturnLoan)

	api.Get("/shelving/sections", h.ListSections)
	api.Post("/shelving/sections", h.CreateSection)
	api.Get("/shelving/sections/:id", h.GetSection)
	api.Put("/shelving/sections/:id", h.RenameSection)
	api.Delete("/shelving/sections/:id", h.DeleteSection)
	api.Get("/shelving/sections/:id/racks", h.ListRacks)
	api.Post("/shelving/racks", h.CreateRack)
	api.Get("/shelving/racks/:id", h.GetRack)
	api.Put("/shelving/racks/:id", h.RenameRack)
	api.Delete("/shelving/racks/:id", h.DeleteRack)
	api.Get("/shelving/racks/:id/shelves", h.ListShelves)
	api.Post("/shelving/shelves", h.CreateShelf)
	api.Get("/shelving/shelves/:id", h.GetShelf)
	api.Put("/shelving/shelves/:id", h.RenameShelf)
	api.Delete("/shelving/shelves/:id", h.DeleteShelf)
}
