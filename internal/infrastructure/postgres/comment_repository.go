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

const commentColumns = `
	c.id, c.video_id, c.user_id, c.content, c.created_at, c.updated_at,
	u.username, u.full_name, u.avatar, u.is_verified`

// CommentRepository implements repository.CommentRepository using PostgreSQL.
type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts the comment and increments comments_count in one statement.
func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	const query = `
		WITH inserted AS (
			INSERT INTO comments (id, video_id, user_id, content, created_at, updated_at)
			SELECT $1, v.id, $3, $4, $5, $5 FROM videos v WHERE v.id = $2
			RETURNING video_id
		)
		UPDATE videos SET comments_count = comments_count + 1
		WHERE id IN (SELECT video_id FROM inserted)
		RETURNING comments_count
	`

	observe(metrics.DBQueryInsert, metrics.TableComments)
	var count int64
	err := r.db.QueryRow(ctx, query,
		comment.ID,
		comment.VideoID,
		comment.UserID,
		comment.Content,
		comment.CreatedAt,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrVideoNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`

	observe(metrics.DBQuerySelect, metrics.TableComments)
	comment, err := scanComment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}

// ListByVideo returns comments with their authors, newest first.
func (r *CommentRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Comment], error) {
	query := `SELECT ` + commentColumns + `, COUNT(*) OVER()
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.video_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`

	observe(metrics.DBQuerySelect, metrics.TableComments)
	rows, err := r.db.Query(ctx, query, videoID, page.Limit, page.Offset())
	if err != nil {
		return model.Page[model.Comment]{}, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	var total int64
	for rows.Next() {
		c, err := scanComment(rows, &total)
		if err != nil {
			return model.Page[model.Comment]{}, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Comment]{}, fmt.Errorf("error iterating comments: %w", err)
	}

	return model.Page[model.Comment]{Items: comments, PageRequest: page, Total: total}, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, comment *model.Comment) error {
	const query = `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`

	comment.UpdatedAt = time.Now()

	observe(metrics.DBQueryUpdate, metrics.TableComments)
	tag, err := r.db.Exec(ctx, query, comment.ID, comment.Content, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrCommentNotFound
	}
	return nil
}

// Delete removes the comment and decrements comments_count in one statement.
func (r *CommentRepository) Delete(ctx context.Context, comment *model.Comment) error {
	const query = `
		WITH deleted AS (
			DELETE FROM comments WHERE id = $1
			RETURNING video_id
		)
		UPDATE videos SET comments_count = GREATEST(comments_count - 1, 0)
		WHERE id IN (SELECT video_id FROM deleted)
		RETURNING comments_count
	`

	observe(metrics.DBQueryDelete, metrics.TableComments)
	var count int64
	if err := r.db.QueryRow(ctx, query, comment.ID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func scanComment(row scanner, extra ...any) (*model.Comment, error) {
	var c model.Comment
	dest := []any{
		&c.ID,
		&c.VideoID,
		&c.UserID,
		&c.Content,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.Author.Username,
		&c.Author.FullName,
		&c.Author.Avatar,
		&c.Author.IsVerified,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	c.Author.ID = c.UserID
	return &c, nil
}

var _ repository.CommentRepository = (*CommentRepository)(nil)
