package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_IssueVerify(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	tok, exp, err := m.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	uid, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestJWTManager_RejectsTampered(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	tok, _, err := m.Issue("user-1")
	require.NoError(t, err)

	_, err = m.Verify(tok + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	tok, _, err := m.Issue("user-1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsOtherSecret(t *testing.T) {
	tok, _, err := NewJWTManager("one", time.Hour).Issue("user-1")
	require.NoError(t, err)

	_, err = NewJWTManager("two", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsUnsignedToken(t *testing.T) {
	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RequiresUserID(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	tok, _, err := m.Issue("")
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
