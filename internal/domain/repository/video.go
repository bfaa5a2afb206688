package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/domain/model"
)

// VideoFilter narrows a video listing. Zero values mean no filter.
type VideoFilter struct {
	Hashtag string
	UserID  uuid.UUID
}

// VideoRepository defines the interface for video persistence operations.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
// Listings only return public videos.
type VideoRepository interface {
	// Create persists a new video entity.
	Create(ctx context.Context, video *model.Video) error

	// GetByID retrieves a video with its owner summary.
	// Returns nil and ErrVideoNotFound if the video does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)

	// IncrementViews bumps the view counter and returns the new value.
	IncrementViews(ctx context.Context, id uuid.UUID) (int64, error)

	// List returns public videos, newest first.
	List(ctx context.Context, filter VideoFilter, page model.PageRequest) (model.Page[*model.Video], error)

	// Trending returns public videos from the last 7 days ordered by views,
	// likes and recency.
	Trending(ctx context.Context, page model.PageRequest) (model.Page[*model.Video], error)

	// Feed returns public videos uploaded by users that userID follows,
	// plus userID's own videos.
	Feed(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[*model.Video], error)

	// Search matches title and description case-insensitively, or an exact hashtag.
	Search(ctx context.Context, query string, page model.PageRequest) (model.Page[*model.Video], error)

	// Update persists metadata and processing state of an existing video.
	// Returns ErrVideoNotFound if the video does not exist.
	Update(ctx context.Context, video *model.Video) error

	// UpdateStatus updates only the status field of a video.
	// Returns ErrVideoNotFound if the video does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error

	// Delete removes the video together with its likes and comments.
	// Returns ErrVideoNotFound if the video does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Hashtags aggregates usage of hashtags containing query, most used first.
	Hashtags(ctx context.Context, query string, page model.PageRequest) (model.Page[model.HashtagStat], error)

	// TrendingHashtags aggregates hashtags of videos from the last 7 days.
	TrendingHashtags(ctx context.Context, limit int) ([]model.HashtagStat, error)
}
