package staffauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/staffauth"
)

func Test_HashPassword_When_PasswordMeetsThePolicy(t *testing.T) {
	// act
	hash, err := staffauth.HashPassword("correct horse battery staple")

	// assert
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NoError(t, staffauth.VerifyPassword(hash, "correct horse battery staple"))
}

func Test_HashPassword_When_PasswordIsTooShort(t *testing.T) {
	// act
	_, err := staffauth.HashPassword("short")

	// assert
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
}

func Test_VerifyPassword_When_PasswordIsWrong(t *testing.T) {
	// arrange
	hash, hashErr := staffauth.HashPassword("correct horse battery staple")
	require.NoError(t, hashErr)

	// act
	err := staffauth.VerifyPassword(hash, "incorrect horse")

	// assert
	assert.ErrorIs(t, err, staffauth.ErrInvalidCredentials)
}

func Test_VerifyPassword_When_HashIsGarbage(t *testing.T) {
	// act
	err := staffauth.VerifyPassword([]byte("not a bcrypt hash"), "whatever")

	// assert
	assert.ErrorIs(t, err, staffauth.ErrInvalidCredentials)
}
