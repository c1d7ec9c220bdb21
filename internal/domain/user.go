package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RoleUser is granted to every registered user.
const RoleUser = "ROLE_USER"

var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
)

// User is a registered account. Password carries the plaintext only between
// registration and hashing; it is never persisted.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"    validate:"required,email,max=180"`
	Roles          []string  `json:"roles"`
	Password       string    `json:"-"        validate:"required,min=8,max=72" field:"password"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewUser creates a user with a fresh ID and the default role. The caller
// must hash the password before storing the user.
func NewUser(email, password string, now time.Time) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Roles:     []string{RoleUser},
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks registration rules and returns *ValidationErrors on
// failure. Users loaded from a store have no plaintext password and are not
// expected to pass.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	return ValidateStruct(u)
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
