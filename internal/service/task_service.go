package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/events"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/store"
)

// UpdateMode selects PATCH or PUT semantics for Update.
type UpdateMode int

const (
	// UpdatePartial applies only the fields present in the input.
	UpdatePartial UpdateMode = iota
	// UpdateFull resolves every mutable field, defaulting the absent ones.
	UpdateFull
)

// ListParams selects and orders tasks for List.
type ListParams struct {
	// Filters holds raw filter values by key. Only "status" is honoured.
	Filters map[string]string
	// Sort is a task field name; unknown names fall back to createdAt ASC.
	Sort string
	// Order is "DESC" (any case) for descending, anything else ascending.
	Order string
	// OwnerID scopes results to one owner unless it is uuid.Nil.
	OwnerID uuid.UUID
	Limit   int
	Offset  int
}

// DefaultSortField is used when ListParams.Sort is empty or not sortable.
const DefaultSortField = "createdAt"

var sortableFields = map[string]bool{
	"createdAt": true,
	"dueAt":     true,
	"priority":  true,
	"title":     true,
	"position":  true,
}

// TaskService defines the task use cases.
type TaskService interface {
	// List returns the tasks selected by params.
	List(ctx context.Context, params ListParams) ([]*domain.Task, error)

	// Get returns the task with id, or nil if there is none.
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Create validates input and stores a new task owned by ownerID.
	Create(ctx context.Context, input domain.TaskInput, ownerID uuid.UUID) (*domain.Task, error)

	// Update applies input to the task with id. It returns nil if there is
	// no such task.
	Update(ctx context.Context, id uuid.UUID, input domain.TaskInput, mode UpdateMode) (*domain.Task, error)

	// Delete removes the task with id and reports whether it existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// TaskServiceOption configures a taskServiceImpl.
type TaskServiceOption func(*taskServiceImpl)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.now = now
	}
}

type taskServiceImpl struct {
	tasks   store.TaskStore
	db      *sql.DB
	emitter events.EventEmitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	db *sql.DB,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if tasks == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "task store cannot be nil"}
	}
	if db == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "database connection cannot be nil"}
	}
	if emitter == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	if logger == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "logger cannot be nil"}
	}

	s := &taskServiceImpl{
		tasks:   tasks,
		db:      db,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "task_service")),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *taskServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// List implements TaskService.
func (s *taskServiceImpl) List(ctx context.Context, params ListParams) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	q, err := buildListQuery(params)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.Find(ctx, q)
	if err != nil {
		log.ErrorContext(ctx, "failed to list tasks", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list", "failed to query tasks", err)
	}
	return tasks, nil
}

func buildListQuery(params ListParams) (store.TaskQuery, error) {
	var q store.TaskQuery

	if params.OwnerID != uuid.Nil {
		q.Criteria = append(q.Criteria, store.Criterion{Field: "ownerId", Value: params.OwnerID.String()})
	}
	if raw, ok := params.Filters["status"]; ok {
		status, found := domain.LookupTaskStatus(raw)
		if !found {
			return store.TaskQuery{}, domain.NewFieldError("filter[status]", domain.ErrInvalidFilterValue,
				"Invalid status filter value: %s", raw)
		}
		q.Criteria = append(q.Criteria, store.Criterion{Field: "status", Value: status.String()})
	}

	field, dir := params.Sort, store.ParseDirection(params.Order)
	switch {
	case field == "":
		field = DefaultSortField
	case !sortableFields[field]:
		field, dir = DefaultSortField, store.Asc
	}
	q.Order = []store.OrderKey{
		{Field: field, Direction: dir},
		{Field: "id", Direction: store.Asc},
	}

	if params.Limit > 0 {
		q.Limit = params.Limit
	}
	if params.Offset > 0 {
		q.Offset = params.Offset
	}
	return q, nil
}

// Get implements TaskService.
func (s *taskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, nil
		}
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to get task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("get", "failed to retrieve task", err)
	}
	return task, nil
}

// Create implements TaskService.
func (s *taskServiceImpl) Create(ctx context.Context, input domain.TaskInput, ownerID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if ownerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	now := s.timestamp()
	task := &domain.Task{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Priority:  domain.DefaultTaskPriority,
		Status:    domain.DefaultTaskStatus,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := applyTaskInput(task, input, applyCreate); err != nil {
		return nil, err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		if err := txTasks.Create(ctx, task); err != nil {
			return err
		}
		if len(task.Tags) > 0 {
			return txTasks.SetTags(ctx, task.ID, task.Tags)
		}
		return nil
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to create task",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create", "failed to save task", err)
	}

	log.InfoContext(ctx, "task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	s.emit(ctx, events.TaskCreated, task)
	return task, nil
}

// Update implements TaskService.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	id uuid.UUID,
	input domain.TaskInput,
	mode UpdateMode,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	am := applyPartial
	if mode == UpdateFull {
		am = applyFull
	}

	var (
		updated *domain.Task
		changed bool
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		current, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		next := current.Clone()
		delta, err := applyTaskInput(next, input, am)
		if err != nil {
			return err
		}
		if !delta.fields && !delta.tags {
			updated = current
			return nil
		}

		next.UpdatedAt = s.timestamp()
		if err := txTasks.Update(ctx, next); err != nil {
			return err
		}
		if delta.tags {
			if err := txTasks.SetTags(ctx, next.ID, next.Tags); err != nil {
				return err
			}
		}
		updated, changed = next, true
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, nil
		}
		var fieldErr *domain.FieldError
		if !errors.As(err, &fieldErr) {
			log.ErrorContext(ctx, "failed to update task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, NewTaskServiceError("update", "failed to update task", err)
	}

	if changed {
		log.InfoContext(ctx, "task updated", slog.String("task_id", id.String()))
		s.emit(ctx, events.TaskUpdated, updated)
	}
	return updated, nil
}

// Delete implements TaskService.
func (s *taskServiceImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deleted *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		task, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := txTasks.Delete(ctx, id); err != nil {
			return err
		}
		deleted = task
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return false, nil
		}
		log.ErrorContext(ctx, "failed to delete task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return false, NewTaskServiceError("delete", "failed to delete task", err)
	}

	log.InfoContext(ctx, "task deleted", slog.String("task_id", id.String()))
	s.emit(ctx, events.TaskDeleted, deleted)
	return true, nil
}

// emit publishes a committed change. Handler failures are logged only; the
// change itself has already been persisted.
func (s *taskServiceImpl) emit(ctx context.Context, t events.EventType, task *domain.Task) {
	event := events.NewTaskEvent(t, task.ID, task.OwnerID, s.timestamp())
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "task event handler failed",
			slog.String("event_type", string(t)),
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
	}
}

type applyMode int

const (
	applyCreate applyMode = iota
	applyFull
	applyPartial
)

// resolves reports whether absent fields are resolved to defaults.
func (m applyMode) resolves() bool {
	return m != applyPartial
}

type taskDelta struct {
	fields bool
	tags   bool
}

// applyTaskInput validates input and writes it into task according to mode.
// The first invalid field aborts with a *domain.FieldError.
func applyTaskInput(task *domain.Task, input domain.TaskInput, mode applyMode) (taskDelta, error) {
	var d taskDelta

	if input.OwnerID.Set {
		return d, domain.NewFieldError("ownerId", domain.ErrOwnerNotAllowed, "The task owner cannot be set")
	}

	switch {
	case input.Title.Null:
		return d, domain.NewFieldError("title", domain.ErrMissingField, "Title is required")
	case input.Title.Set:
		title := strings.TrimSpace(input.Title.Value)
		if err := domain.ValidateTitle(title); err != nil {
			return d, err
		}
		d.fields = setIfChanged(&task.Title, title) || d.fields
	case mode.resolves():
		return d, domain.NewFieldError("title", domain.ErrMissingField, "Title is required")
	}

	if input.Description.Set || mode.resolves() {
		var desc *string
		if input.Description.HasValue() {
			v := input.Description.Value
			desc = &v
		}
		if !equalStringPtr(task.Description, desc) {
			task.Description, d.fields = desc, true
		}
	}

	if input.DueAt.Set || mode.resolves() {
		var due *time.Time
		if input.DueAt.HasValue() {
			ts, err := domain.ParseDueAt(input.DueAt.Value)
			if err != nil {
				return d, err
			}
			ts = ts.Truncate(time.Microsecond)
			due = &ts
		}
		if !equalTimePtr(task.DueAt, due) {
			task.DueAt, d.fields = due, true
		}
	}

	priority, err := resolveEnum(input.Priority, mode, "priority", domain.DefaultTaskPriority, domain.ParseTaskPriority)
	if err != nil {
		return d, err
	}
	if priority != nil {
		d.fields = setIfChanged(&task.Priority, *priority) || d.fields
	}

	status, err := resolveEnum(input.Status, mode, "status", domain.DefaultTaskStatus, domain.ParseTaskStatus)
	if err != nil {
		return d, err
	}
	if status != nil {
		d.fields = setIfChanged(&task.Status, *status) || d.fields
	}

	switch {
	case input.Position.Null && mode == applyCreate:
		d.fields = setIfChanged(&task.Position, 0) || d.fields
	case input.Position.Null:
		return d, domain.NewFieldError("position", domain.ErrInvalidValue, "Position cannot be null")
	case input.Position.Set:
		pos, err := parsePosition(input.Position.Value)
		if err != nil {
			return d, err
		}
		d.fields = setIfChanged(&task.Position, pos) || d.fields
	case mode == applyFull:
		return d, domain.NewFieldError("position", domain.ErrMissingField, "Position is required")
	}

	if input.Tags.Set {
		names, err := domain.NormalizeTagNames(input.Tags.Value)
		if err != nil {
			return d, err
		}
		if !domain.SameTagSet(task.Tags, names) {
			task.Tags, d.tags = names, true
		}
	}

	return d, nil
}

// resolveEnum returns the enum value to apply, or nil to leave the field
// untouched. An explicit null falls back to the default on create only.
func resolveEnum[T comparable](
	in domain.Optional[string],
	mode applyMode,
	field string,
	def T,
	parse func(string) (T, error),
) (*T, error) {
	switch {
	case in.Null && mode == applyCreate:
		return &def, nil
	case in.Null:
		return nil, domain.NewFieldError(field, domain.ErrInvalidValue, "%s cannot be null", capitalize(field))
	case in.Set:
		v, err := parse(in.Value)
		if err != nil {
			return nil, domain.NewFieldError(field, domain.ErrInvalidEnumValue, "Invalid %s value: %s", field, in.Value)
		}
		return &v, nil
	case mode.resolves():
		return &def, nil
	}
	return nil, nil
}

// parsePosition accepts integer or decimal text and truncates toward zero.
func parsePosition(raw domain.NumberText) (int, error) {
	text := strings.TrimSpace(string(raw))
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, domain.NewFieldError("position", domain.ErrInvalidNumber, "Position must be a number: %s", text)
	}
	return int(f), nil
}

func setIfChanged[T comparable](dst *T, v T) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
