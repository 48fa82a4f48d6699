package userstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/adapter/storage/pgutil"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/user"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
)

type PostgresStorage struct {
	base   *pgutil.BasePostgresStorage
	logger *slog.Logger
}

func NewPostgresStorage(db storage.DBContext, logger *slog.Logger) *PostgresStorage {
	return &PostgresStorage{
		base:   pgutil.NewBasePostgresStorage(db),
		logger: logger,
	}
}

func (s *PostgresStorage) Add(ctx context.Context, u *user.User) error {
	q := sqlf.InsertInto("users").
		Set("user_id", u.UserID).
		Set("email", u.Email).
		Set("password_hash", u.PasswordHash).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("role", string(u.Role)).
		Set("coach_id", u.CoachID).
		Set("created_at", u.CreatedAt).
		Set("updated_at", u.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		switch {
		case pgutil.ViolatesConstraint(err, "users_pkey"):
			return errors.Join(fmt.Errorf("user exists: %w", err), user.ErrUserExists)
		case pgutil.ViolatesConstraint(err, "users_email_key"):
			return user.ErrUserEmailDuplicate
		case pgutil.ViolatesForeignKey(err):
			return user.ErrCoachNotFound
		}
		return storage.InternalError(err)
	}

	for _, a := range u.Authorizations {
		if err := s.addAuth(ctx, u.UserID, a); err != nil {
			return err
		}
	}

	s.base.MarkSeen(u.UserID, u)

	return nil
}

func (s *PostgresStorage) addAuth(ctx context.Context, userID string, a *user.Authorization) error {
	addAuth := sqlf.InsertInto("authorizations").
		Set("authorization_id", a.ID).
		Set("secret", a.Secret).
		Set("logout_at", a.LogoutAt).
		Set("created_at", a.CreatedAt).
		Set("valid_until", a.ValidUntil).
		Set("user_id", userID)

	addDevice := sqlf.InsertInto("devices").
		Set("authorization_id", a.ID).
		Set("os", a.Device.OS).
		Set("device_model", a.Device.Model).
		Set("ip_address", a.Device.IPAddress).
		Set("browser", a.Device.Browser)

	if _, err := addAuth.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "authorizations_pkey") {
			return user.ErrAuthorizationExists
		}
		return storage.InternalError(err)
	}

	if _, err := addDevice.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "devices_pkey") {
			return user.ErrDeviceExists
		}
		return storage.InternalError(err)
	}

	return nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	whereClause string,
	whereArgs ...any,
) ([]*user.User, error) {
	var tmp userWithAuthRow

	q := sqlf.From("users u").
		LeftJoin("authorizations a", "u.user_id = a.user_id").
		LeftJoin("devices d", "d.authorization_id = a.authorization_id").
		Where(whereClause, whereArgs...).
		Select("u.user_id").To(&tmp.UserID).
		Select("u.email").To(&tmp.Email).
		Select("u.password_hash").To(&tmp.PasswordHash).
		Select("u.first_name").To(&tmp.FirstName).
		Select("u.last_name").To(&tmp.LastName).
		Select("u.role").To(&tmp.Role).
		Select("u.coach_id").To(&tmp.CoachID).
		Select("u.created_at").To(&tmp.CreatedAt).
		Select("u.updated_at").To(&tmp.UpdatedAt).
		Select("a.authorization_id").To(&tmp.AuthorizationID).
		Select("a.secret").To(&tmp.Secret).
		Select("a.valid_until").To(&tmp.AuthValidUntil).
		Select("a.logout_at").To(&tmp.LogoutAt).
		Select("a.created_at").To(&tmp.AuthCreatedAt).
		Select("d.os").To(&tmp.OS).
		Select("d.browser").To(&tmp.Browser).
		Select("d.device_model").To(&tmp.Model).
		Select("d.ip_address").To(&tmp.IPAddress).
		OrderBy("a.created_at")

	var fetchedRows []userWithAuthRow

	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		fetchedRows = append(fetchedRows, tmp)
	})

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storage.InternalError(err)
	}

	users := rowsToDomain(fetchedRows)
	for _, u := range users {
		s.base.MarkSeen(u.UserID, u)
	}
	return users, nil
}

func (s *PostgresStorage) getOne(ctx context.Context, whereClause string, whereArgs ...any) (*user.User, error) {
	users, err := s.get(ctx, whereClause, whereArgs...)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, user.ErrUserNotFound
	}
	return users[0], nil
}

func (s *PostgresStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getOne(ctx, "u.email = ?", email)
}

func (s *PostgresStorage) GetByID(ctx context.Context, userID string) (*user.User, error) {
	return s.getOne(ctx, "u.user_id = ?", userID)
}

// GetByAuthSecret looks a user up by the refresh secret of one of their
// authorizations. All of the user's authorizations are loaded.
func (s *PostgresStorage) GetByAuthSecret(ctx context.Context, secret string) (*user.User, error) {
	return s.getOne(ctx, "u.user_id = (SELECT user_id FROM authorizations WHERE secret = ?)", secret)
}

func (s *PostgresStorage) Exists(ctx context.Context, userID string) (bool, error) {
	var count int
	q := sqlf.From("users").
		Select("COUNT(*)").To(&count).
		Where("user_id = ?", userID)

	if err := q.QueryRowAndClose(ctx, s.base.DB); err != nil {
		return false, storage.InternalError(err)
	}
	return count > 0, nil
}

func (s *PostgresStorage) Persist(ctx context.Context, u *user.User) error {
	dbState, err := s.GetByID(ctx, u.UserID)
	if err != nil {
		return err
	}
	s.base.MarkSeen(u.UserID, u)

	if log, _ := diff.Diff(dbState, u); len(log) != 0 {
		q := sqlf.Update("users").
			Set("updated_at", time.Now().UTC()).
			Where("user_id = ?", u.UserID)
		q = pgutil.MakeUpdateQuery(q, log)

		res, err := q.ExecAndClose(ctx, s.base.DB)
		if err := pgutil.AssertUpdated(res, err, fmt.Errorf("can't persist user: %w", user.ErrUserNotFound)); err != nil {
			return err
		}
	}

	dbAuthSet := make(map[string]*user.Authorization)
	for _, a := range dbState.Authorizations {
		dbAuthSet[a.ID] = a
	}

	for _, a := range u.Authorizations {
		source, ok := dbAuthSet[a.ID]
		if !ok {
			if err := s.addAuth(ctx, u.UserID, a); err != nil {
				return err
			}
			continue
		}
		if err := s.persistAuth(ctx, source, a); err != nil {
			return err
		}
	}

	return nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}

func (s *PostgresStorage) persistAuth(ctx context.Context, source, changed *user.Authorization) error {
	if source.ValidUntil.Equal(changed.ValidUntil) && sameTime(source.LogoutAt, changed.LogoutAt) {
		return s.persistDevice(ctx, source.ID, &source.Device, &changed.Device)
	}

	q := sqlf.Update("authorizations").
		Set("valid_until", changed.ValidUntil).
		Set("logout_at", changed.LogoutAt).
		Where("authorization_id = ?", source.ID)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		return storage.InternalError(err)
	}
	return s.persistDevice(ctx, source.ID, &source.Device, &changed.Device)
}

func (s *PostgresStorage) persistDevice(ctx context.Context, id string, source, changed *user.Device) error {
	log, _ := diff.Diff(source, changed)
	if len(log) == 0 {
		return nil
	}

	q := sqlf.Update("devices").Where("authorization_id = ?", id)
	q = pgutil.MakeUpdateQuery(q, log)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		return storage.InternalError(err)
	}
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

type userWithAuthRow struct {
	UserID       string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	CoachID      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	AuthorizationID *string
	Secret          *string
	LogoutAt        *time.Time
	AuthCreatedAt   *time.Time
	AuthValidUntil  *time.Time

	IPAddress *string
	Browser   *string
	OS        *string
	Model     *string
}

func rowsToDomain(rows []userWithAuthRow) []*user.User {
	usersMap := make(map[string]*user.User)
	var order []string

	for _, row := range rows {
		if _, ok := usersMap[row.UserID]; !ok {
			usersMap[row.UserID] = &user.User{
				UserID:         row.UserID,
				Email:          row.Email,
				PasswordHash:   row.PasswordHash,
				FirstName:      row.FirstName,
				LastName:       row.LastName,
				Role:           access.Role(row.Role),
				CoachID:        row.CoachID,
				CreatedAt:      row.CreatedAt,
				UpdatedAt:      row.UpdatedAt,
				Authorizations: make([]*user.Authorization, 0),
			}
			order = append(order, row.UserID)
		}
		if row.AuthorizationID != nil {
			a := &user.Authorization{
				ID:         *row.AuthorizationID,
				Secret:     *row.Secret,
				CreatedAt:  *row.AuthCreatedAt,
				ValidUntil: *row.AuthValidUntil,
				LogoutAt:   row.LogoutAt,
				Device: user.Device{
					Browser:   deref(row.Browser),
					OS:        deref(row.OS),
					IPAddress: deref(row.IPAddress),
					Model:     deref(row.Model),
				},
			}
			usersMap[row.UserID].Authorizations = append(usersMap[row.UserID].Authorizations, a)
		}
	}

	users := make([]*user.User, 0, len(usersMap))
	for _, id := range order {
		users = append(users, usersMap[id])
	}
	return users
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
