package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/staffauth"
)

const claimsLocalKey = "staff_claims"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerEmployeeRequest struct {
	LastName       string `json:"last_name"`
	FirstName      string `json:"first_name"`
	MiddleName     string `json:"middle_name"`
	PassportSeries int    `json:"passport_series"`
	PassportNumber int    `json:"passport_number"`
	Username       string `json:"username"`
	Password       string `json:"password"`
}

// Login checks a staff credential and returns a session token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	credential, findErr := h.store.FindCredential(c.UserContext(), req.Username)
	if findErr != nil {
		if library.IsNotFound(findErr) {
			return respondError(c, staffauth.ErrInvalidCredentials)
		}

		return respondError(c, findErr)
	}

	if verifyErr := staffauth.VerifyPassword(credential.PasswordHash, req.Password); verifyErr != nil {
		return respondError(c, verifyErr)
	}

	token, issueErr := h.tokens.Issue(credential.EmployeeID, credential.Username)
	if issueErr != nil {
		return respondError(c, issueErr)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{"token": token})
}

// RegisterEmployee creates a staff identity with a login credential.
func (h *Handlers) RegisterEmployee(c *fiber.Ctx) error {
	var req registerEmployeeRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return respondError(c, library.ValidationError{Field: "body", Reason: "invalid json"})
	}

	passwordHash, hashErr := staffauth.HashPassword(req.Password)
	if hashErr != nil {
		return respondError(c, hashErr)
	}

	employee, registerErr := h.store.RegisterEmployee(c.UserContext(), library.Employee{
		LastName:       req.LastName,
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		PassportSeries: req.PassportSeries,
		PassportNumber: req.PassportNumber,
	}, req.Username, passwordHash)
	if registerErr != nil {
		return respondError(c, registerErr)
	}

	return respondData(c, fiber.StatusCreated, fiber.Map{"employee_id": employee.ID})
}

// AuthRequired validates the bearer token and stores the verified claims in
// the request locals.
func (h *Handlers) AuthRequired(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return respondError(c, staffauth.ErrInvalidToken)
	}

	claims, verifyErr := h.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
	if verifyErr != nil {
		return respondError(c, verifyErr)
	}

	c.Locals(claimsLocalKey, claims)

	return c.Next()
}
