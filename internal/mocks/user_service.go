package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/stretchr/testify/mock"
)

// UserService is a testify mock of service.UserService.
type UserService struct {
	mock.Mock
}

var _ service.UserService = (*UserService)(nil)

// Register implements service.UserService. Hooks run against the stubbed
// user, and a hook error is returned in place of it.
func (m *UserService) Register(
	ctx context.Context,
	email, password string,
	hooks ...service.RegisterHook,
) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*domain.User)
	if err := args.Error(1); err != nil {
		return user, err
	}
	for _, hook := range hooks {
		if err := hook(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Authenticate implements service.UserService.
func (m *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

// GetUser implements service.UserService.
func (m *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}
