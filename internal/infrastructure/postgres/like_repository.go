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

// LikeRepository implements repository.LikeRepository using PostgreSQL.
// The like row and the video counter change in a single statement.
type LikeRepository struct {
	db DBTX
}

func NewLikeRepository(db DBTX) *LikeRepository {
	return &LikeRepository{db: db}
}

// Like inserts the like and increments likes_count, returning the new count.
func (r *LikeRepository) Like(ctx context.Context, videoID, userID uuid.UUID) (int64, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO likes (id, video_id, user_id, created_at)
			SELECT $1, v.id, $3, $4 FROM videos v WHERE v.id = $2
			ON CONFLICT (video_id, user_id) DO NOTHING
			RETURNING video_id
		)
		UPDATE videos SET likes_count = likes_count + 1
		WHERE id IN (SELECT video_id FROM inserted)
		RETURNING likes_count
	`

	observe(metrics.DBQueryInsert, metrics.TableLikes)
	var count int64
	err := r.db.QueryRow(ctx, query, uuid.New(), videoID, userID, time.Now()).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to like video: %w", err)
	}

	// Nothing inserted: either the video is missing or the like exists.
	exists, err := videoExists(ctx, r.db, videoID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, repository.ErrVideoNotFound
	}
	return 0, repository.ErrAlreadyLiked
}

// Unlike removes the like and decrements likes_count, returning the new count.
func (r *LikeRepository) Unlike(ctx context.Context, videoID, userID uuid.UUID) (int64, error) {
	const query = `
		WITH deleted AS (
			DELETE FROM likes WHERE video_id = $1 AND user_id = $2
			RETURNING video_id
		)
		UPDATE videos SET likes_count = GREATEST(likes_count - 1, 0)
		WHERE id IN (SELECT video_id FROM deleted)
		RETURNING likes_count
	`

	observe(metrics.DBQueryDelete, metrics.TableLikes)
	var count int64
	if err := r.db.QueryRow(ctx, query, videoID, userID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrLikeNotFound
		}
		return 0, fmt.Errorf("failed to unlike video: %w", err)
	}
	return count, nil
}

// List returns the users who liked a video, newest first.
func (r *LikeRepository) List(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Like], error) {
	const query = `
		SELECT l.id, l.video_id, l.user_id, l.created_at,
		       u.username, u.full_name, u.avatar, u.is_verified, COUNT(*) OVER()
		FROM likes l JOIN users u ON u.id = l.user_id
		WHERE l.video_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2 OFFSET $3
	`

	observe(metrics.DBQuerySelect, metrics.TableLikes)
	rows, err := r.db.Query(ctx, query, videoID, page.Limit, page.Offset())
	if err != nil {
		return model.Page[model.Like]{}, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	likes := []model.Like{}
	var total int64
	for rows.Next() {
		var l model.Like
		err := rows.Scan(&l.ID, &l.VideoID, &l.UserID, &l.CreatedAt,
			&l.User.Username, &l.User.FullName, &l.User.Avatar, &l.User.IsVerified, &total)
		if err != nil {
			return model.Page[model.Like]{}, fmt.Errorf("failed to scan like: %w", err)
		}
		l.User.ID = l.UserID
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Like]{}, fmt.Errorf("error iterating likes: %w", err)
	}

	return model.Page[model.Like]{Items: likes, PageRequest: page, Total: total}, nil
}

// Exists reports whether userID liked videoID.
func (r *LikeRepository) Exists(ctx context.Context, videoID, userID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM likes WHERE video_id = $1 AND user_id = $2)`

	observe(metrics.DBQuerySelect, metrics.TableLikes)
	var exists bool
	if err := r.db.QueryRow(ctx, query, videoID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

func videoExists(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	observe(metrics.DBQuerySelect, metrics.TableVideos)
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check video: %w", err)
	}
	return exists, nil
}

var _ repository.LikeRepository = (*LikeRepository)(nil)
