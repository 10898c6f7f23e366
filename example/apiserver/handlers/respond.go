// Package handlers wires the HTTP surface of the API server to the library
// store: request decoding, staff authentication and error mapping.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/staffauth"
)

// respondError maps the library error taxonomy onto HTTP status codes and a
// uniform JSON error envelope.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case library.IsNotFound(err):
		status = fiber.StatusNotFound
	case library.IsValidation(err):
		status = fiber.StatusUnprocessableEntity
	case library.IsConflict(err):
		status = fiber.StatusConflict
	case library.IsConstraintViolation(err):
		status = fiber.StatusConflict
	case errors.Is(err, staffauth.ErrInvalidCredentials), errors.Is(err, staffauth.ErrInvalidToken):
		status = fiber.StatusUnauthorized
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// respondData wraps a successful payload in the JSON success envelope.
func respondData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, parseErr := c.ParamsInt(name)
	if parseErr != nil || id < 1 {
		return 0, library.ValidationError{Field: name, Reason: "must be a positive integer"}
	}

	return int64(id), nil
}
