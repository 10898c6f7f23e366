package staffauth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretLength = 32

// Sentinel errors for token issuing and verification.
var (
	ErrWeakTokenSecret = errors.New("token secret must be at least 32 bytes")
	ErrInvalidToken    = errors.New("invalid or expired token")
)

// Claims is the verified content of a staff session token.
type Claims struct {
	EmployeeID int64
	Username   string
	TokenID    string
	ExpiresAt  time.Time
}

// TokenIssuer issues and verifies HS256 session tokens for staff logins.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. The secret must be at least 32 bytes.
func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakTokenSecret
	}

	return &TokenIssuer{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		clock:  time.Now,
	}, nil
}

// WithClock overrides the issuer's time source. Intended for tests.
func (t *TokenIssuer) WithClock(clock func() time.Time) *TokenIssuer {
	t.clock = clock

	return t
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issue creates a signed session token for an employee.
func (t *TokenIssuer) Issue(employeeID int64, username string) (string, error) {
	now := t.clock()

	claims := sessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(employeeID, 10),
			Issuer:    t.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates a session token and returns its claims.
func (t *TokenIssuer) Verify(tokenString string) (Claims, error) {
	parsed, parseErr := jwt.ParseWithClaims(tokenString, &sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}

			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if parseErr != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	employeeID, convErr := strconv.ParseInt(claims.Subject, 10, 64)
	if convErr != nil {
		return Claims{}, ErrInvalidToken
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return Claims{
		EmployeeID: employeeID,
		Username:   claims.Username,
		TokenID:    claims.ID,
		ExpiresAt:  expiresAt,
	}, nil
}
