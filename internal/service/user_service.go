package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/store"
)

// UserService provides registration and credential checks.
type UserService interface {
	// Register validates and stores a new user with a hashed password.
	// Returns *domain.ValidationErrors for invalid input and
	// store.ErrEmailExists when the email is taken.
	// Hooks run inside the registration transaction after the insert; an
	// error from any hook rolls the new user back.
	Register(ctx context.Context, email, password string, hooks ...RegisterHook) (*domain.User, error)

	// Authenticate returns the user for a matching email and password, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID. Returns store.ErrUserNotFound if absent.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	db        *sql.DB
	hasher    auth.PasswordHasher
	logger    *slog.Logger
	now       func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) (*UserServiceImpl, error) {
	if userStore == nil || db == nil || hasher == nil || logger == nil {
		return nil, errors.New("user service requires a store, a database, a hasher and a logger")
	}
	return &UserServiceImpl{
		userStore: userStore,
		db:        db,
		hasher:    hasher,
		logger:    logger.With(slog.String("component", "user_service")),
		now:       time.Now,
	}, nil
}

// RegisterHook runs against a newly inserted user before its registration
// commits.
type RegisterHook func(ctx context.Context, user *domain.User) error

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user inside a transaction.
func (s *UserServiceImpl) Register(ctx context.Context, email, password string, hooks ...RegisterHook) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	email = NormalizeEmail(email)

	user, err := domain.NewUser(email, password, s.now().UTC().Truncate(time.Microsecond))
	if err != nil {
		log.DebugContext(ctx, "rejected registration", slog.String("error", err.Error()))
		return nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		log.ErrorContext(ctx, "failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		if _, err := txStore.GetByEmail(ctx, email); err == nil {
			return store.ErrEmailExists
		} else if !errors.Is(err, store.ErrUserNotFound) {
			return err
		}
		if err := txStore.Create(ctx, user); err != nil {
			return err
		}
		for _, hook := range hooks {
			if err := hook(ctx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.DebugContext(ctx, "attempted to register an existing email", slog.String("email", email))
			return nil, store.ErrEmailExists
		}
		log.ErrorContext(ctx, "failed to save user to database",
			slog.String("email", email),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Authenticate checks email and password.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		log.ErrorContext(ctx, "failed to look up user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		log.ErrorContext(ctx, "failed to compare password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to retrieve user",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}
