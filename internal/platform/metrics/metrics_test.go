package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	for _, path := range []string{"/api/tasks/" + uuid.NewString(), "/api/tasks/" + uuid.NewString(), "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/tasks/{id}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/health", "GET", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestHandleEventCountsByType(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(m)

	for _, typ := range []events.EventType{events.TaskCreated, events.TaskCreated, events.TaskDeleted} {
		require.NoError(t, emitter.EmitEvent(ctx, events.NewTaskEvent(typ, uuid.New(), uuid.New(), time.Now())))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.taskEvents.WithLabelValues(string(events.TaskCreated))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.taskEvents.WithLabelValues(string(events.TaskDeleted))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.taskEvents.WithLabelValues(string(events.TaskUpdated))))
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NoError(t, m.HandleEvent(context.Background(),
		events.NewTaskEvent(events.TaskUpdated, uuid.New(), uuid.New(), time.Now())))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `taskapi_task_events_total{type="task.updated"} 1`), body)
}
