package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/infrastructure/metrics"
)

const userColumns = `id, username, email, password_hash, full_name, bio, avatar, is_verified, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user. Unique violations on username or email map to
// ErrDuplicateUser.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	observe(metrics.DBQueryInsert, metrics.TableUsers)
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Bio,
		user.Avatar,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// UpdateProfile persists full name, bio and avatar.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	const query = `
		UPDATE users
		SET full_name = $2, bio = $3, avatar = $4, updated_at = $5
		WHERE id = $1
	`

	user.UpdatedAt = time.Now()

	observe(metrics.DBQueryUpdate, metrics.TableUsers)
	tag, err := r.db.Exec(ctx, query, user.ID, user.FullName, user.Bio, user.Avatar, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// Search matches username or full name case-insensitively, newest accounts first.
func (r *UserRepository) Search(ctx context.Context, q string, page model.PageRequest) (model.Page[model.UserSummary], error) {
	const query = `
		SELECT id, username, full_name, avatar, is_verified, COUNT(*) OVER()
		FROM users
		WHERE username ILIKE $1 OR full_name ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	observe(metrics.DBQuerySelect, metrics.TableUsers)
	rows, err := r.db.Query(ctx, query, containsPattern(q), page.Limit, page.Offset())
	if err != nil {
		return model.Page[model.UserSummary]{}, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := []model.UserSummary{}
	var total int64
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Avatar, &u.IsVerified, &total); err != nil {
			return model.Page[model.UserSummary]{}, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.UserSummary]{}, fmt.Errorf("error iterating users: %w", err)
	}

	return model.Page[model.UserSummary]{Items: users, PageRequest: page, Total: total}, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	observe(metrics.DBQuerySelect, metrics.TableUsers)

	var u model.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Bio,
		&u.Avatar,
		&u.IsVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
