package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/events"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/stretchr/testify/require"
)

// fakeTaskStore is an in-memory store.TaskStore that evaluates TaskQuery
// the way the SQL builder does, including priority rank ordering.
type fakeTaskStore struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*domain.Task
	queries []store.TaskQuery
	setTags int
	updates int
	failErr error
}

func newFakeTaskStore(tasks ...*domain.Task) *fakeTaskStore {
	f := &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, t := range tasks {
		f.tasks[t.ID] = t.Clone()
	}
	return f
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	if err := task.Validate(); err != nil {
		return err
	}
	c := task.Clone()
	c.Tags = []string{}
	f.tasks[task.ID] = c
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (f *fakeTaskStore) Find(_ context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.queries = append(f.queries, q)

	var out []*domain.Task
	for _, t := range f.tasks {
		if matchesAll(t, q.Criteria) {
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range q.Order {
			c := compareField(out[i], out[j], o.Field)
			if c == 0 {
				continue
			}
			if o.Direction == store.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []*domain.Task{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	c := task.Clone()
	c.Tags = cur.Tags
	f.tasks[task.ID] = c
	f.updates++
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) SetTags(_ context.Context, taskID uuid.UUID, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Tags = append([]string{}, names...)
	sort.Strings(t.Tags)
	f.setTags++
	return nil
}

func (f *fakeTaskStore) WithTx(*sql.Tx) store.TaskStore {
	return f
}

func matchesAll(t *domain.Task, criteria []store.Criterion) bool {
	for _, c := range criteria {
		switch c.Field {
		case "ownerId":
			if t.OwnerID.String() != c.Value {
				return false
			}
		case "status":
			if t.Status.String() != c.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func compareField(a, b *domain.Task, field string) int {
	switch field {
	case "priority":
		return a.Priority.Rank() - b.Priority.Rank()
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "position":
		return a.Position - b.Position
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "dueAt":
		switch {
		case a.DueAt == nil && b.DueAt == nil:
			return 0
		case a.DueAt == nil:
			return 1
		case b.DueAt == nil:
			return -1
		}
		return a.DueAt.Compare(*b.DueAt)
	case "id":
		return strings.Compare(a.ID.String(), b.ID.String())
	}
	return 0
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu      sync.Mutex
	emitted []eventRecord
	err     error
}

type eventRecord struct {
	Type   string
	TaskID uuid.UUID
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitted = append(e.emitted, eventRecord{Type: string(event.Type), TaskID: event.TaskID})
	return e.err
}

func (e *recordingEmitter) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.emitted))
	for _, ev := range e.emitted {
		out = append(out, ev.Type)
	}
	return out
}

// newTxDB returns a sqlmock database expecting n committed transactions.
func newTxDB(t *testing.T, n int) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	return db, mock
}
