package staffauth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvb/libris/library/staffauth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func Test_NewTokenIssuer_When_TheSecretIsTooShort(t *testing.T) {
	// act
	_, err := staffauth.NewTokenIssuer([]byte("weak"), "libris", time.Hour)

	// assert
	assert.ErrorIs(t, err, staffauth.ErrWeakTokenSecret)
}

func Test_Issue_And_Verify_RoundTrip(t *testing.T) {
	// setup
	issuer, issuerErr := staffauth.NewTokenIssuer([]byte(testSecret), "libris", time.Hour)
	require.NoError(t, issuerErr)

	// act
	token, issueErr := issuer.Issue(42, "head.librarian")
	require.NoError(t, issueErr)
	claims, verifyErr := issuer.Verify(token)

	// assert
	require.NoError(t, verifyErr)
	assert.Equal(t, int64(42), claims.EmployeeID)
	assert.Equal(t, "head.librarian", claims.Username)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func Test_Verify_When_TheTokenHasExpired(t *testing.T) {
	// setup
	issuer, issuerErr := staffauth.NewTokenIssuer([]byte(testSecret), "libris", time.Minute)
	require.NoError(t, issuerErr)

	past := time.Now().Add(-2 * time.Hour)
	issuer.WithClock(func() time.Time { return past })

	token, issueErr := issuer.Issue(42, "head.librarian")
	require.NoError(t, issueErr)

	// act
	issuer.WithClock(time.Now)
	_, verifyErr := issuer.Verify(token)

	// assert
	assert.ErrorIs(t, verifyErr, staffauth.ErrInvalidToken)
}

func Test_Verify_When_TheTokenWasSignedWithADifferentSecret(t *testing.T) {
	// setup
	issuer, issuerErr := staffauth.NewTokenIssuer([]byte(testSecret), "libris", time.Hour)
	require.NoError(t, issuerErr)

	other, otherErr := staffauth.NewTokenIssuer([]byte("ffffffffffffffffffffffffffffffff"), "libris", time.Hour)
	require.NoError(t, otherErr)

	token, issueErr := other.Issue(42, "head.librarian")
	require.NoError(t, issueErr)

	// act
	_, verifyErr := issuer.Verify(token)

	// assert
	assert.ErrorIs(t, verifyErr, staffauth.ErrInvalidToken)
}

func Test_Verify_When_TheIssuerDoesNotMatch(t *testing.T) {
	// setup
	issuer, issuerErr := staffauth.NewTokenIssuer([]byte(testSecret), "libris", time.Hour)
	require.NoError(t, issuerErr)

	other, otherErr := staffauth.NewTokenIssuer([]byte(testSecret), "someone-else", time.Hour)
	require.NoError(t, otherErr)

	token, issueErr := other.Issue(42, "head.librarian")
	require.NoError(t, issueErr)

	// act
	_, verifyErr := issuer.Verify(token)

	// assert
	assert.ErrorIs(t, verifyErr, staffauth.ErrInvalidToken)
}

func Test_Verify_When_TheTokenIsGarbage(t *testing.T) {
	// setup
	issuer, issuerErr := staffauth.NewTokenIssuer([]byte(testSecret), "libris", time.Hour)
	require.NoError(t, issuerErr)

	// act
	_, verifyErr := issuer.Verify("not.a.token")

	// assert
	assert.ErrorIs(t, verifyErr, staffauth.ErrInvalidToken)
}
