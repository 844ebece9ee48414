// Package account stores user records. Identity issuance and authentication
// live elsewhere; this is only the directory the rest of the system references
// users by.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailRequired = errors.New("email is required")
	ErrEmailTaken    = errors.New("email already registered")
	// ErrStorageUnavailable marks store I/O failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type Store interface {
	// Create inserts a new user. Emails are unique.
	Create(ctx context.Context, email, name string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	// List returns users ordered by created_at desc.
	List(ctx context.Context) ([]User, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
