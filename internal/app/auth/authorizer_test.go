package auth

import (
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/user"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthorizer() *Authorizer {
	return &Authorizer{
		Cost:             bcrypt.MinCost,
		Secret:           "secret",
		AccessTokenTTL:   time.Minute,
		AuthorizationTTL: time.Hour,
	}
}

func newUser(t *testing.T, a *Authorizer, role access.Role) *user.User {
	t.Helper()
	u, err := user.NewUser("u1", user.Profile{Email: "a@b.c", Password: "password", Role: role}, a)
	require.NoError(t, err)
	return u
}

func TestAuthorize(t *testing.T) {
	a := newAuthorizer()
	u := newUser(t, a, access.RoleAthlete)

	_, err := a.Authorize(u, "wrong-password", user.Device{})
	require.ErrorIs(t, err, user.ErrInvalidCredentials)

	auth, err := a.Authorize(u, "password", user.Device{OS: "linux"})
	require.NoError(t, err)
	assert.NotEmpty(t, auth.ID)
	assert.Len(t, auth.Secret, 32)
	assert.True(t, auth.IsActive())
}

func TestAccessTokenRoundTrip(t *testing.T) {
	a := newAuthorizer()
	u := newUser(t, a, access.RoleCoach)
	auth, err := a.Authorize(u, "password", user.Device{})
	require.NoError(t, err)

	token, err := a.GenerateAccessToken(u, auth)
	require.NoError(t, err)

	data, err := a.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, auth.ID, data.Authorization)
	assert.Equal(t, access.Caller{ID: "u1", Role: access.RoleCoach}, data.Caller())
}

func TestValidateAccessTokenRejects(t *testing.T) {
	a := newAuthorizer()
	u := newUser(t, a, access.RoleAthlete)
	auth, err := a.Authorize(u, "password", user.Device{})
	require.NoError(t, err)

	other := newAuthorizer()
	other.Secret = "another"
	forged, err := other.GenerateAccessToken(u, auth)
	require.NoError(t, err)
	_, err = a.ValidateAccessToken(forged)
	require.ErrorIs(t, err, ErrAccessTokenInvalid)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":  auth.ID,
		"sub":  u.UserID,
		"role": "ATHLETE",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(a.Secret))
	require.NoError(t, err)
	_, err = a.ValidateAccessToken(expired)
	require.ErrorIs(t, err, ErrAccessTokenExpired)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti": auth.ID,
		"sub": u.UserID,
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(a.Secret))
	require.NoError(t, err)
	_, err = a.ValidateAccessToken(noRole)
	require.ErrorIs(t, err, ErrAccessTokenInvalid)
}
