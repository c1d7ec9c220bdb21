package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	buf, base := logger.NewTestLogger()

	var traceID string
	handler := chimw.RequestID(TraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("handled", slog.String("k", "v"))
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	require.Len(t, traceID, 32)
	assert.Equal(t, traceID, rr.Header().Get(TraceIDHeader))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, "handled", last["msg"])
	assert.Equal(t, traceID, last["trace_id"])
	assert.Equal(t, "/api/tasks", last["path"])
	assert.NotEmpty(t, last["request_id"])
}
