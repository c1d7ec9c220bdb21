package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/task-api/internal/config"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/platform/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer runs the full stack over a migrated in-memory SQLite database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	_, log := logger.NewTestLogger()

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "debug"},
		Database: config.DatabaseConfig{
			Driver: sqlstore.DriverSQLite,
			URL:    ":memory:",
		},
		Auth: config.AuthConfig{
			JWTSecret:            "thisisasecretkeythatis32charslong!!",
			TokenLifetimeMinutes: 60,
			BCryptCost:           4,
		},
	}

	db, dialect, err := sqlstore.Open(ctx, cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(ctx, db, dialect, log, sqlstore.MigrateUp))

	app, err := newApplication(cfg, log, db, dialect)
	require.NoError(t, err)

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path, body string) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c *client) register(email string) {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/register",
		fmt.Sprintf(`{"email":%q,"password":"password123"}`, email))
	require.Equal(c.t, http.StatusCreated, status, string(body))

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(body, &resp))
	require.True(c.t, resp.Success)
	c.token = resp.Token
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL}

	status, body := c.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))

	status, body = c.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "taskapi_http_requests_total")
}

func TestTasksRequireToken(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL}

	status, body := c.do(http.MethodGet, "/api/tasks", "")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "trace_id")
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL}
	c.register("ada@example.com")

	status, _ := c.do(http.MethodPost, "/api/register", `{"email":"ADA@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, body := c.do(http.MethodPost, "/api/register", `{"email":"bad","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	errs := decode[map[string]any](t, body)["errors"].(map[string]any)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	status, _ = c.do(http.MethodPost, "/api/login", `{"email":"ada@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodPost, "/api/login", `{"email":"ada@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL}
	c.register("owner@example.com")

	status, body := c.do(http.MethodPost, "/api/tasks",
		`{"title":"A","priority":"high","dueAt":"2025-05-01T10:00:00Z","tags":["work","urgent"]}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	a := decode[map[string]any](t, body)
	assert.Equal(t, "pending", a["status"])
	assert.Equal(t, []any{"urgent", "work"}, a["tags"])

	status, body = c.do(http.MethodPost, "/api/tasks", `{"title":"B","priority":"low","status":"completed"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = c.do(http.MethodPost, "/api/tasks", `{"title":"C","priority":"medium"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = c.do(http.MethodGet, "/api/tasks?filter%5Bstatus%5D=pending&sort=priority&order=DESC", "")
	require.Equal(t, http.StatusOK, status, string(body))
	list := decode[[]map[string]any](t, body)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0]["title"])
	assert.Equal(t, "C", list[1]["title"])

	status, _ = c.do(http.MethodGet, "/api/tasks?filter%5Bstatus%5D=archived", "")
	assert.Equal(t, http.StatusBadRequest, status)

	id := a["id"].(string)

	status, body = c.do(http.MethodPatch, "/api/tasks/"+id, `{"status":"done","dueAt":null}`)
	require.Equal(t, http.StatusOK, status, string(body))
	patched := decode[map[string]any](t, body)
	assert.Equal(t, "done", patched["status"])
	assert.Equal(t, "high", patched["priority"])
	assert.Nil(t, patched["dueAt"])
	assert.NotEqual(t, a["updatedAt"], patched["updatedAt"])

	status, body = c.do(http.MethodPut, "/api/tasks/"+id, `{"title":"A2"}`)
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	status, body = c.do(http.MethodPut, "/api/tasks/"+id, `{"title":"A2","position":"7"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	replaced := decode[map[string]any](t, body)
	assert.Equal(t, "medium", replaced["priority"])
	assert.Equal(t, "pending", replaced["status"])
	assert.Equal(t, float64(7), replaced["position"])
	assert.Equal(t, []any{"urgent", "work"}, replaced["tags"])

	status, _ = c.do(http.MethodPatch, "/api/tasks/"+id, `{"ownerId":"someone-else"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.do(http.MethodDelete, "/api/tasks/"+id, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = c.do(http.MethodGet, "/api/tasks/"+id, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTasksAreScopedToOwner(t *testing.T) {
	srv := newTestServer(t)
	alice := &client{t: t, base: srv.URL}
	alice.register("alice@example.com")
	bob := &client{t: t, base: srv.URL}
	bob.register("bob@example.com")

	status, body := alice.do(http.MethodPost, "/api/tasks", `{"title":"private"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	id := decode[map[string]any](t, body)["id"].(string)

	status, body = bob.do(http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		status, _ = bob.do(method, "/api/tasks/"+id, `{"title":"mine"}`)
		assert.Equal(t, http.StatusNotFound, status, method)
	}

	status, _ = alice.do(http.MethodGet, "/api/tasks/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, status)
}
