package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/task-api/internal/domain"
)

// Common service errors.
var (
	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// or a wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TaskServiceError wraps unexpected failures from the task service with the
// operation that produced them.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError wraps err. Client-facing validation errors are
// returned unchanged so their messages reach the caller intact.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		return err
	}
	if errors.Is(err, domain.ErrValidationFailed) {
		return err
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
