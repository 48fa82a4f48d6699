package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/user"
	"github.com/google/uuid"
)

type Service struct {
	logger     *slog.Logger
	Authorizer *Authorizer
}

func NewService(auth *Authorizer, logger *slog.Logger) *Service {
	return &Service{
		logger:     logger,
		Authorizer: auth,
	}
}

func (s *Service) CreateUser(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	profile user.Profile,
) (u *user.User, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if profile.CoachID != nil {
			coach, err := ctx.UserStorage.GetByID(ctx.Context(), *profile.CoachID)
			if errors.Is(err, user.ErrUserNotFound) {
				return user.ErrCoachNotFound
			}
			if err != nil {
				return err
			}
			if coach.Role != access.RoleCoach {
				return fmt.Errorf("%w: %s is not a coach", user.ErrCoachNotFound, coach.UserID)
			}
		}

		created, err := user.NewUser(uuid.NewString(), profile, s.Authorizer)
		if err != nil {
			return err
		}
		if err := ctx.UserStorage.Add(ctx.Context(), created); err != nil {
			return err
		}

		u = created
		return ctx.Commit()
	})
	if err == nil {
		s.logger.Info("user registered", "user_id", u.UserID, "role", u.Role)
	}
	return
}

func (s *Service) Login(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	device user.Device,
	email string,
	password string,
) (tokens Tokens, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		u, err := ctx.UserStorage.GetByEmail(ctx.Context(), email)
		if err != nil {
			return user.ErrInvalidCredentials
		}

		a, err := u.Authorize(s.Authorizer, password, device)
		if err != nil {
			return err
		}

		accessToken, err := s.Authorizer.GenerateAccessToken(u, a)
		if err != nil {
			return err
		}

		if err := ctx.UserStorage.Persist(ctx.Context(), u); err != nil {
			return err
		}

		tokens = Tokens{
			AccessToken:  accessToken,
			RefreshToken: a.Secret,
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) Logout(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
	authID string,
) error {
	return uow.Atomic(ctx, func(ctx *AtomicContext) error {
		u, err := ctx.UserStorage.GetByID(ctx.Context(), userID)
		if err != nil {
			return err
		}

		if err := u.Logout(authID); err != nil {
			return err
		}

		if err := ctx.UserStorage.Persist(ctx.Context(), u); err != nil {
			return err
		}

		return ctx.Commit()
	})
}

// Refresh issues a new access token for an active authorization identified by
// its refresh secret.
func (s *Service) Refresh(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	refreshToken string,
) (tokens Tokens, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		u, err := ctx.UserStorage.GetByAuthSecret(ctx.Context(), refreshToken)
		if err != nil {
			return user.ErrUnauthorized
		}

		a := u.GetAuthBySecret(refreshToken)
		if a == nil || !a.IsActive() {
			return user.ErrUnauthorized
		}

		tokens.AccessToken, err = s.Authorizer.GenerateAccessToken(u, a)
		if err != nil {
			return err
		}
		tokens.RefreshToken = a.Secret
		return ctx.Commit()
	})
	return
}

func (s *Service) Me(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
) (u *user.User, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if u, err = ctx.UserStorage.GetByID(ctx.Context(), userID); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

type Tokens struct {
	AccessToken  string
	RefreshToken string
}
