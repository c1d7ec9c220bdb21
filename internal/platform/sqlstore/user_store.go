package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/store"
)

const userColumns = "id, email, roles, password_hash, created_at, updated_at"

// UserStore implements store.UserStore on database/sql.
type UserStore struct {
	db      store.DBTX
	dialect store.Dialect
	logger  *slog.Logger
}

// NewUserStore creates a UserStore. If logger is nil, a default logger is used.
func NewUserStore(db store.DBTX, dialect store.Dialect, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	switch {
	case user.ID == uuid.Nil:
		return domain.ErrEmptyUserID
	case user.Email == "":
		return domain.ErrEmptyEmail
	case user.HashedPassword == "":
		return domain.ErrEmptyHashedPassword
	}

	roles, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}

	query := s.dialect.Rebind(`
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err = s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		string(roles),
		user.HashedPassword,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("attempt to create user with existing email",
				slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "create", "insert failed", MapError(err))
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := s.dialect.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	return s.getOne(ctx, query, id, slog.String("user_id", id.String()))
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := s.dialect.Rebind("SELECT " + userColumns + " FROM users WHERE email = ?")
	return s.getOne(ctx, query, email, slog.String("lookup", "email"))
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any, attr slog.Attr) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		user  domain.User
		roles []byte
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&roles,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", attr)
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user", slog.String("error", err.Error()), attr)
		return nil, store.NewStoreError("user", "get", "query failed", MapError(err))
	}

	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &user.Roles); err != nil {
			return nil, store.NewStoreError("user", "get", "invalid roles column", err)
		}
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

// WithTx implements store.UserStore.WithTx.
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: tx, dialect: s.dialect, logger: s.logger}
}
