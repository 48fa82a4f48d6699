package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
)

var (
	ErrUserNotFound        = fmt.Errorf("%w: user not found", domain.ErrNotFound)
	ErrUserExists          = fmt.Errorf("%w: user already exists", domain.ErrConflict)
	ErrUserEmailDuplicate  = fmt.Errorf("%w: email is not unique", ErrUserExists)
	ErrDeviceExists        = errors.New("device already exists")
	ErrAuthorizationExists = errors.New("authorization already exists")
	ErrInvalidCredentials  = fmt.Errorf("%w: email or password is invalid", domain.ErrUnauthorized)
	ErrUnauthorized        = fmt.Errorf("%w: authorization is not active", domain.ErrUnauthorized)
	ErrInvalidRole         = fmt.Errorf("%w: unknown role", domain.ErrValidation)
	ErrCoachNotAllowed     = fmt.Errorf("%w: only athletes can have a coach", domain.ErrValidation)
	ErrCoachNotFound       = fmt.Errorf("%w: coach not found", domain.ErrValidation)
)

const (
	EventCreated  = "user.created"
	EventNewLogin = "user.login"
	EventLogout   = "user.logout"
)

type Authorizer interface {
	Hash(password string) string
	Authorize(u *User, password string, dev Device) (*Authorization, error)
}

type Device struct {
	Browser   string `diff:"browser"`
	OS        string `diff:"os"`
	IPAddress string `diff:"ip_address"`
	Model     string `diff:"device_model"`
}

type Authorization struct {
	ID         string     `diff:"-"`
	Secret     string     `diff:"-"`
	CreatedAt  time.Time  `diff:"-"`
	ValidUntil time.Time  `diff:"-"`
	LogoutAt   *time.Time `diff:"-"`
	Device     Device     `diff:"-"`
}

func (a *Authorization) IsActive() bool {
	return time.Now().Before(a.ValidUntil) && a.LogoutAt == nil
}

type Profile struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      access.Role
	CoachID   *string
}

type User struct {
	domain.Aggregate `diff:"-"`
	UserID           string           `diff:"-"`
	Email            string           `diff:"email"`
	PasswordHash     string           `diff:"password_hash"`
	FirstName        string           `diff:"first_name"`
	LastName         string           `diff:"last_name"`
	Role             access.Role      `diff:"-"`
	CoachID          *string          `diff:"-"`
	CreatedAt        time.Time        `diff:"-"`
	UpdatedAt        time.Time        `diff:"-"`
	Authorizations   []*Authorization `diff:"-"`
}

// NewUser registers a user. Role defaults to ATHLETE, and only athletes may
// name a coach. Whether the coach exists is checked by the caller.
func NewUser(userID string, p Profile, hasher Authorizer) (*User, error) {
	if p.Role == "" {
		p.Role = access.RoleAthlete
	}
	if !p.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, p.Role)
	}
	if p.CoachID != nil && p.Role != access.RoleAthlete {
		return nil, ErrCoachNotAllowed
	}

	now := time.Now().UTC()
	u := &User{
		UserID:       userID,
		Email:        p.Email,
		PasswordHash: hasher.Hash(p.Password),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Role:         p.Role,
		CoachID:      p.CoachID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.PushEvent(&CreatedEvent{
		At:        u.CreatedAt,
		UserID:    u.UserID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	})
	return u, nil
}

func (u *User) Caller() access.Caller {
	return access.Caller{ID: u.UserID, Role: u.Role}
}

func (u *User) GetAuthByID(authID string) *Authorization {
	for _, a := range u.Authorizations {
		if a.ID == authID {
			return a
		}
	}
	return nil
}

func (u *User) GetAuthBySecret(secret string) *Authorization {
	for _, a := range u.Authorizations {
		if a.Secret == secret {
			return a
		}
	}
	return nil
}

func (u *User) Authorize(a Authorizer, password string, dev Device) (*Authorization, error) {
	auth, err := a.Authorize(u, password, dev)
	if err != nil {
		return nil, err
	}

	u.Authorizations = append(u.Authorizations, auth)

	u.PushEvent(&LoginEvent{
		At:     time.Now().UTC(),
		UserID: u.UserID,
		ID:     auth.ID,
		Device: auth.Device,
	})

	return auth, nil
}

func (u *User) Logout(authID string) error {
	auth := u.GetAuthByID(authID)

	if auth == nil {
		return fmt.Errorf("%w: provided identifier not found", ErrUnauthorized)
	}

	if auth.LogoutAt != nil {
		return fmt.Errorf("%w: authorization already closed", ErrUnauthorized)
	}

	now := time.Now().UTC()
	auth.LogoutAt = &now

	u.PushEvent(&LogoutEvent{
		At:     now,
		UserID: u.UserID,
		ID:     auth.ID,
	})

	return nil
}

type CreatedEvent struct {
	At        time.Time   `json:"at"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      access.Role `json:"role"`
}

func (e CreatedEvent) Type() string {
	return EventCreated
}

func (e CreatedEvent) PublishedAt() time.Time {
	return e.At
}

func (e CreatedEvent) Key() string {
	return e.UserID
}

type LoginEvent struct {
	At     time.Time `json:"at"`
	UserID string    `json:"user_id"`
	ID     string    `json:"authorization_id"`
	Device Device    `json:"device"`
}

func (e LoginEvent) Type() string {
	return EventNewLogin
}

func (e LoginEvent) PublishedAt() time.Time {
	return e.At
}

type LogoutEvent struct {
	At     time.Time `json:"at"`
	UserID string    `json:"user_id"`
	ID     string    `json:"authorization_id"`
}

func (e LogoutEvent) Type() string {
	return EventLogout
}

func (e LogoutEvent) PublishedAt() time.Time {
	return e.At
}
