package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/infrastructure/metrics"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// trendingWindow bounds trending videos and hashtags to recent uploads.
const trendingWindow = 7 * 24 * time.Hour

const videoColumns = `
	v.id, v.user_id, v.title, v.description, v.hashtags, v.location, v.visibility, v.status,
	v.original_url, v.hls_url, v.thumbnail_url, v.duration_sec,
	v.likes_count, v.comments_count, v.views_count, v.created_at, v.updated_at,
	u.username, u.full_name, u.avatar, u.is_verified`

// VideoRepository implements repository.VideoRepository using PostgreSQL.
type VideoRepository struct {
	db DBTX
}

// NewVideoRepository creates a new VideoRepository instance.
func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create persists a new video entity.
func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	const query = `
		INSERT INTO videos (id, user_id, title, description, hashtags, location, visibility, status, original_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	observe(metrics.DBQueryInsert, metrics.TableVideos)
	_, err := r.db.Exec(ctx, query,
		video.ID,
		video.UserID,
		video.Title,
		video.Description,
		nonNilTags(video.Hashtags),
		video.Location,
		video.Visibility.String(),
		video.Status.String(),
		nullString(video.OriginalURL),
		video.CreatedAt,
		video.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrUserNotFound
		}
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetByID retrieves a video with its owner summary.
func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	query := `SELECT ` + videoColumns + `
		FROM videos v JOIN users u ON u.id = v.user_id
		WHERE v.id = $1
	`

	observe(metrics.DBQuerySelect, metrics.TableVideos)
	video, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}

	return video, nil
}

// IncrementViews bumps the view counter and returns the new value.
func (r *VideoRepository) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `UPDATE videos SET views_count = views_count + 1 WHERE id = $1 RETURNING views_count`

	observe(metrics.DBQueryUpdate, metrics.TableVideos)
	var views int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&views); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrVideoNotFound
		}
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

// List returns public videos, newest first.
func (r *VideoRepository) List(ctx context.Context, filter repository.VideoFilter, page model.PageRequest) (model.Page[*model.Video], error) {
	query := `SELECT ` + videoColumns + `, COUNT(*) OVER()
		FROM videos v JOIN users u ON u.id = v.user_id
		WHERE v.visibility = 'public'
		  AND ($1 = '' OR $1 = ANY(v.hashtags))
		  AND ($2::uuid IS NULL OR v.user_id = $2)
		ORDER BY v.created_at DESC
		LIMIT $3 OFFSET $4
	`

	return r.queryPage(ctx, page, query,
		strings.ToLower(filter.Hashtag), nullUUID(filter.UserID), page.Limit, page.Offset())
}

// Trending returns public videos from the last 7 days ordered by views,
// likes and recency.
func (r *VideoRepository) Trending(ctx context.Context, page model.PageRequest) (model.Page[*model.Video], error) {
	query := `SELECT ` + videoColumns + `, COUNT(*) OVER()
		FROM videos v JOIN users u ON u.id = v.user_id
		WHERE v.visibility = 'public' AND v.created_at >= $1
		ORDER BY v.views_count DESC, v.likes_count DESC, v.created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryPage(ctx, page, query, time.Now().Add(-trendingWindow), page.Limit, page.Offset())
}

// Feed returns public videos of followed users plus the user's own.
func (r *VideoRepository) Feed(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[*model.Video], error) {
	query := `SELECT ` + videoColumns + `, COUNT(*) OVER()
		FROM videos v JOIN users u ON u.id = v.user_id
		WHERE v.visibility = 'public'
		  AND (v.user_id = $1 OR v.user_id IN (SELECT following_id FROM follows WHERE follower_id = $1))
		ORDER BY v.created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryPage(ctx, page, query, userID, page.Limit, page.Offset())
}

// Search matches title or description case-insensitively, or an exact hashtag.
func (r *VideoRepository) Search(ctx context.Context, q string, page model.PageRequest) (model.Page[*model.Video], error) {
	query := `SELECT ` + videoColumns + `, COUNT(*) OVER()
		FROM videos v JOIN users u ON u.id = v.user_id
		WHERE v.visibility = 'public'
		  AND (v.title ILIKE $1 OR v.description ILIKE $1 OR $2 = ANY(v.hashtags))
		ORDER BY v.created_at DESC
		LIMIT $3 OFFSET $4
	`

	return r.queryPage(ctx, page, query, containsPattern(q), strings.ToLower(q), page.Limit, page.Offset())
}

// Update persists metadata and processing state of an existing video.
func (r *VideoRepository) Update(ctx context.Context, video *model.Video) error {
	const query = `
		UPDATE videos
		SET title = $2, description = $3, hashtags = $4, location = $5, visibility = $6, status = $7,
		    original_url = $8, hls_url = $9, thumbnail_url = $10, duration_sec = $11, updated_at = $12
		WHERE id = $1
	`

	video.UpdatedAt = time.Now()

	observe(metrics.DBQueryUpdate, metrics.TableVideos)
	tag, err := r.db.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		nonNilTags(video.Hashtags),
		video.Location,
		video.Visibility.String(),
		video.Status.String(),
		nullString(video.OriginalURL),
		nullString(video.HLSURL),
		nullString(video.ThumbnailURL),
		video.DurationSec,
		video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// UpdateStatus updates only the status field of a video.
func (r *VideoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	const query = `
		UPDATE videos
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	observe(metrics.DBQueryUpdate, metrics.TableVideos)
	tag, err := r.db.Exec(ctx, query, id, status.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update video status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// Delete removes the video; likes and comments cascade.
func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	observe(metrics.DBQueryDelete, metrics.TableVideos)
	tag, err := r.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}
	return nil
}

// Hashtags aggregates usage of public hashtags containing q.
func (r *VideoRepository) Hashtags(ctx context.Context, q string, page model.PageRequest) (model.Page[model.HashtagStat], error) {
	const query = `
		SELECT tag, COUNT(*) AS uses, MAX(v.created_at) AS last_used, COUNT(*) OVER()
		FROM videos v, unnest(v.hashtags) AS tag
		WHERE v.visibility = 'public' AND tag ILIKE $1
		GROUP BY tag
		ORDER BY uses DESC, last_used DESC
		LIMIT $2 OFFSET $3
	`

	observe(metrics.DBQuerySelect, metrics.TableVideos)
	rows, err := r.db.Query(ctx, query, containsPattern(q), page.Limit, page.Offset())
	if err != nil {
		return model.Page[model.HashtagStat]{}, fmt.Errorf("failed to query hashtags: %w", err)
	}

	stats, total, err := collectHashtags(rows, true)
	if err != nil {
		return model.Page[model.HashtagStat]{}, err
	}
	return model.Page[model.HashtagStat]{Items: stats, PageRequest: page, Total: total}, nil
}

// TrendingHashtags aggregates hashtags of public videos from the last 7 days.
func (r *VideoRepository) TrendingHashtags(ctx context.Context, limit int) ([]model.HashtagStat, error) {
	const query = `
		SELECT tag, COUNT(*) AS uses, MAX(v.created_at) AS last_used
		FROM videos v, unnest(v.hashtags) AS tag
		WHERE v.visibility = 'public' AND v.created_at >= $1
		GROUP BY tag
		ORDER BY uses DESC, last_used DESC
		LIMIT $2
	`

	observe(metrics.DBQuerySelect, metrics.TableVideos)
	rows, err := r.db.Query(ctx, query, time.Now().Add(-trendingWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending hashtags: %w", err)
	}

	stats, _, err := collectHashtags(rows, false)
	return stats, err
}

func (r *VideoRepository) queryPage(ctx context.Context, page model.PageRequest, query string, args ...any) (model.Page[*model.Video], error) {
	observe(metrics.DBQuerySelect, metrics.TableVideos)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Page[*model.Video]{}, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]*model.Video, 0, page.Limit)
	var total int64
	for rows.Next() {
		video, err := scanVideo(rows, &total)
		if err != nil {
			return model.Page[*model.Video]{}, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return model.Page[*model.Video]{}, fmt.Errorf("error iterating videos: %w", err)
	}

	return model.Page[*model.Video]{Items: videos, PageRequest: page, Total: total}, nil
}

func collectHashtags(rows pgx.Rows, withTotal bool) ([]model.HashtagStat, int64, error) {
	defer rows.Close()

	stats := []model.HashtagStat{}
	var total int64
	for rows.Next() {
		var s model.HashtagStat
		dest := []any{&s.Tag, &s.Count, &s.LastUsed}
		if withTotal {
			dest = append(dest, &total)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan hashtag: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating hashtags: %w", err)
	}
	return stats, total, nil
}

// scanVideo scans videoColumns followed by any extra destinations.
// pgx.Row and pgx.Rows both satisfy scanner.
func scanVideo(row scanner, extra ...any) (*model.Video, error) {
	var (
		video        model.Video
		visibility   string
		status       string
		originalURL  *string
		hlsURL       *string
		thumbnailURL *string
	)

	dest := []any{
		&video.ID,
		&video.UserID,
		&video.Title,
		&video.Description,
		&video.Hashtags,
		&video.Location,
		&visibility,
		&status,
		&originalURL,
		&hlsURL,
		&thumbnailURL,
		&video.DurationSec,
		&video.LikesCount,
		&video.CommentsCount,
		&video.ViewsCount,
		&video.CreatedAt,
		&video.UpdatedAt,
		&video.Owner.Username,
		&video.Owner.FullName,
		&video.Owner.Avatar,
		&video.Owner.IsVerified,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	video.Visibility = model.Visibility(visibility)
	video.Status = model.Status(status)
	video.OriginalURL = derefString(originalURL)
	video.HLSURL = derefString(hlsURL)
	video.ThumbnailURL = derefString(thumbnailURL)
	video.Owner.ID = video.UserID
	if video.Hashtags == nil {
		video.Hashtags = []string{}
	}

	return &video, nil
}

// Compile-time verification that VideoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*VideoRepository)(nil)
