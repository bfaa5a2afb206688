package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/infrastructure/metrics"
)

// FollowRepository implements repository.FollowRepository using PostgreSQL.
type FollowRepository struct {
	db DBTX
}

func NewFollowRepository(db DBTX) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts the edge. A duplicate maps to ErrAlreadyFollowing and an
// unknown user to ErrUserNotFound.
func (r *FollowRepository) Create(ctx context.Context, follow *model.Follow) error {
	const query = `
		INSERT INTO follows (id, follower_id, following_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	observe(metrics.DBQueryInsert, metrics.TableFollows)
	_, err := r.db.Exec(ctx, query, follow.ID, follow.FollowerID, follow.FollowingID, follow.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return repository.ErrAlreadyFollowing
		case isForeignKeyViolation(err):
			return repository.ErrUserNotFound
		}
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID uuid.UUID) error {
	const query = `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`

	observe(metrics.DBQueryDelete, metrics.TableFollows)
	tag, err := r.db.Exec(ctx, query, followerID, followingID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFollowing
	}
	return nil
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`

	observe(metrics.DBQuerySelect, metrics.TableFollows)
	var exists bool
	if err := r.db.QueryRow(ctx, query, followerID, followingID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return exists, nil
}

// Followers lists users following userID, most recent first.
func (r *FollowRepository) Followers(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	const query = `
		SELECT f.id, f.follower_id, f.following_id, f.created_at,
		       u.id, u.username, u.full_name, u.avatar, u.is_verified, COUNT(*) OVER()
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, page)
}

// Following lists users userID follows, most recent first.
func (r *FollowRepository) Following(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	const query = `
		SELECT f.id, f.follower_id, f.following_id, f.created_at,
		       u.id, u.username, u.full_name, u.avatar, u.is_verified, COUNT(*) OVER()
		FROM follows f JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, page)
}

func (r *FollowRepository) list(ctx context.Context, query string, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	observe(metrics.DBQuerySelect, metrics.TableFollows)
	rows, err := r.db.Query(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return model.Page[model.Follow]{}, fmt.Errorf("failed to query follows: %w", err)
	}
	defer rows.Close()

	follows := []model.Follow{}
	var total int64
	for rows.Next() {
		var f model.Follow
		err := rows.Scan(&f.ID, &f.FollowerID, &f.FollowingID, &f.CreatedAt,
			&f.User.ID, &f.User.Username, &f.User.FullName, &f.User.Avatar, &f.User.IsVerified, &total)
		if err != nil {
			return model.Page[model.Follow]{}, fmt.Errorf("failed to scan follow: %w", err)
		}
		follows = append(follows, f)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Follow]{}, fmt.Errorf("error iterating follows: %w", err)
	}

	return model.Page[model.Follow]{Items: follows, PageRequest: page, Total: total}, nil
}

var _ repository.FollowRepository = (*FollowRepository)(nil)
