package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/config"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/mocks"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "thisisasecretkeythatis32charslong!!"

func newAuthRouter(t *testing.T, users service.UserService) (http.Handler, auth.JWTService) {
	t.Helper()
	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            testJWTSecret,
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	h := NewAuthHandler(users, jwtService)
	r := chi.NewRouter()
	r.Post("/api/register", h.Register)
	r.Post("/api/login", h.Login)
	return r, jwtService
}

func sampleUser(email string) *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Email:          email,
		Roles:          []string{domain.RoleUser},
		HashedPassword: "$2a$04$hash",
		CreatedAt:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestAuthHandler_Register(t *testing.T) {
	users := new(mocks.UserService)
	user := sampleUser("jane@example.com")
	users.On("Register", mock.Anything, "jane@example.com", "password123").Return(user, nil)
	router, jwtService := newAuthRouter(t, users)

	rr := doRequest(t, router, http.MethodPost, "/api/register",
		`{"email":"jane@example.com","password":"password123"}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody[AuthResponse](t, rr)
	assert.True(t, body.Success)
	assert.Equal(t, user.ID, body.User.ID)
	assert.Equal(t, []string{domain.RoleUser}, body.User.Roles)
	assert.NotContains(t, rr.Body.String(), "password")

	claims, err := jwtService.ValidateToken(context.Background(), body.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthHandler_RegisterTokenFailure(t *testing.T) {
	users := new(mocks.UserService)
	users.On("Register", mock.Anything, "jane@example.com", "password123").
		Return(sampleUser("jane@example.com"), nil)
	jwtService := &mocks.MockJWTService{Err: errors.New("signing failed")}
	r := chi.NewRouter()
	r.Post("/api/register", NewAuthHandler(users, jwtService).Register)

	rr := doRequest(t, r, http.MethodPost, "/api/register",
		`{"email":"jane@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody[shared.ErrorResponse](t, rr)
	assert.Equal(t, "Failed to generate authentication token", body.Message)
	assert.NotContains(t, rr.Body.String(), "signing failed")
	users.AssertExpectations(t)
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	verrs := &domain.ValidationErrors{}
	verrs.Add("email", "This value is not a valid email address.")
	verrs.Add("password", "This value is too short. It should have 8 characters or more.")

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantMsg    string
		wantFields []string
	}{
		{
			name:       "malformed",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request format",
		},
		{
			name:       "validation",
			body:       `{"email":"nope","password":"short"}`,
			serviceErr: verrs,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Validation failed",
			wantFields: []string{"email", "password"},
		},
		{
			name:       "duplicate",
			body:       `{"email":"jane@example.com","password":"password123"}`,
			serviceErr: store.ErrEmailExists,
			wantStatus: http.StatusConflict,
			wantMsg:    "Email already exists",
		},
		{
			name:       "unexpected",
			body:       `{"email":"jane@example.com","password":"password123"}`,
			serviceErr: errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mocks.UserService)
			if tt.serviceErr != nil {
				users.On("Register", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}
			router, _ := newAuthRouter(t, users)

			rr := doRequest(t, router, http.MethodPost, "/api/register", tt.body)

			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decodeBody[shared.ErrorResponse](t, rr)
			assert.Equal(t, tt.wantMsg, body.Message)
			for _, f := range tt.wantFields {
				assert.NotEmpty(t, body.Errors[f], "missing messages for %s", f)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	user := sampleUser("sam@example.com")

	tests := []struct {
		name       string
		body       string
		setup      func(*mocks.UserService)
		wantStatus int
	}{
		{
			name: "success",
			body: `{"email":"sam@example.com","password":"s3cret-pass"}`,
			setup: func(m *mocks.UserService) {
				m.On("Authenticate", mock.Anything, "sam@example.com", "s3cret-pass").Return(user, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "bad_credentials",
			body: `{"email":"sam@example.com","password":"wrong"}`,
			setup: func(m *mocks.UserService) {
				m.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing_password",
			body:       `{"email":"sam@example.com"}`,
			setup:      func(*mocks.UserService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed",
			body:       `{`,
			setup:      func(*mocks.UserService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mocks.UserService)
			tt.setup(users)
			router, _ := newAuthRouter(t, users)

			rr := doRequest(t, router, http.MethodPost, "/api/login", tt.body)

			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus == http.StatusOK {
				body := decodeBody[AuthResponse](t, rr)
				assert.True(t, body.Success)
				assert.NotEmpty(t, body.Token)
				assert.Equal(t, "sam@example.com", body.User.Email)
			}
			users.AssertExpectations(t)
		})
	}
}
