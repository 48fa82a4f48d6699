package user

import (
	"testing"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) string {
	return "hash:" + password
}

func (plainHasher) Authorize(u *User, password string, dev Device) (*Authorization, error) {
	if u.PasswordHash != "hash:"+password {
		return nil, ErrInvalidCredentials
	}
	return &Authorization{ID: "a1", Secret: "s1", ValidUntil: time.Now().Add(time.Hour), Device: dev}, nil
}

func TestNewUserDefaultsToAthlete(t *testing.T) {
	u, err := NewUser("u1", Profile{Email: "a@b.c", Password: "password"}, plainHasher{})
	require.NoError(t, err)

	assert.Equal(t, access.RoleAthlete, u.Role)
	assert.Equal(t, "hash:password", u.PasswordHash)
	events := u.PopEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventCreated, events[0].Type())
}

func TestNewUserCoachRules(t *testing.T) {
	coach := "c1"

	_, err := NewUser("u1", Profile{Role: access.RoleCoach, CoachID: &coach}, plainHasher{})
	require.ErrorIs(t, err, ErrCoachNotAllowed)

	_, err = NewUser("u1", Profile{Role: "OWNER"}, plainHasher{})
	require.ErrorIs(t, err, domain.ErrValidation)

	u, err := NewUser("u1", Profile{Role: access.RoleAthlete, CoachID: &coach}, plainHasher{})
	require.NoError(t, err)
	assert.Equal(t, &coach, u.CoachID)
}

func TestAuthorizeAndLogout(t *testing.T) {
	u, err := NewUser("u1", Profile{Email: "a@b.c", Password: "password"}, plainHasher{})
	require.NoError(t, err)
	u.PopEvents()

	_, err = u.Authorize(plainHasher{}, "wrong", Device{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	a, err := u.Authorize(plainHasher{}, "password", Device{OS: "linux"})
	require.NoError(t, err)
	assert.True(t, a.IsActive())
	assert.Same(t, a, u.GetAuthBySecret("s1"))

	require.NoError(t, u.Logout(a.ID))
	assert.False(t, a.IsActive())
	require.ErrorIs(t, u.Logout(a.ID), ErrUnauthorized)

	events := u.PopEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventNewLogin, events[0].Type())
	assert.Equal(t, EventLogout, events[1].Type())
}
