package staffauth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/arkadyvb/libris/library"
)

// ErrInvalidCredentials is returned when a username/password pair does not
// match a stored credential. Callers should not distinguish between an
// unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword validates the plaintext password policy and returns its
// bcrypt hash at the default cost.
func HashPassword(plaintext string) ([]byte, error) {
	if validateErr := library.ValidatePasswordPlaintext(plaintext); validateErr != nil {
		return nil, validateErr
	}

	hash, hashErr := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if hashErr != nil {
		return nil, hashErr
	}

	return hash, nil
}

// VerifyPassword compares a stored bcrypt hash against a plaintext candidate.
func VerifyPassword(hash []byte, plaintext string) error {
	if compareErr := bcrypt.CompareHashAndPassword(hash, []byte(plaintext)); compareErr != nil {
		return ErrInvalidCredentials
	}

	return nil
}
