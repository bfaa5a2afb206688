package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/domain/model"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// Create persists a new user.
	// Returns ErrDuplicateUser if the username or email is taken.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail looks up a user by lowercased email.
	// Returns ErrUserNotFound if no account uses the email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile persists full name, bio and avatar.
	UpdateProfile(ctx context.Context, user *model.User) error

	// Search matches username or full name case-insensitively.
	Search(ctx context.Context, query string, page model.PageRequest) (model.Page[model.UserSummary], error)
}
