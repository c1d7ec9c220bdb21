package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/stretchr/testify/mock"
)

// TaskService is a testify mock of service.TaskService.
type TaskService struct {
	mock.Mock
}

var _ service.TaskService = (*TaskService)(nil)

// List implements service.TaskService.
func (m *TaskService) List(ctx context.Context, params service.ListParams) ([]*domain.Task, error) {
	args := m.Called(ctx, params)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

// Get implements service.TaskService.
func (m *TaskService) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

// Create implements service.TaskService.
func (m *TaskService) Create(ctx context.Context, input domain.TaskInput, ownerID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, input, ownerID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

// Update implements service.TaskService.
func (m *TaskService) Update(
	ctx context.Context,
	id uuid.UUID,
	input domain.TaskInput,
	mode service.UpdateMode,
) (*domain.Task, error) {
	args := m.Called(ctx, id, input, mode)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

// Delete implements service.TaskService.
func (m *TaskService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
