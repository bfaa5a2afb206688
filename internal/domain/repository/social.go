package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/domain/model"
)

// LikeRepository maintains likes together with the video like counter.
type LikeRepository interface {
	// Like inserts the like and increments the counter in one statement.
	// Returns ErrAlreadyLiked on a duplicate and ErrVideoNotFound when the
	// video does not exist. The new like count is returned.
	Like(ctx context.Context, videoID, userID uuid.UUID) (int64, error)

	// Unlike removes the like and decrements the counter.
	// Returns ErrLikeNotFound if the user had not liked the video.
	Unlike(ctx context.Context, videoID, userID uuid.UUID) (int64, error)

	// List returns the users who liked a video, newest first.
	List(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Like], error)

	// Exists reports whether userID liked videoID.
	Exists(ctx context.Context, videoID, userID uuid.UUID) (bool, error)
}

// CommentRepository maintains comments together with the video comment counter.
type CommentRepository interface {
	// Create inserts the comment and increments the counter.
	// Returns ErrVideoNotFound when the video does not exist.
	Create(ctx context.Context, comment *model.Comment) error

	// GetByID returns ErrCommentNotFound if the comment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)

	// ListByVideo returns comments with their authors, newest first.
	ListByVideo(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Comment], error)

	// UpdateContent persists an edited comment.
	UpdateContent(ctx context.Context, comment *model.Comment) error

	// Delete removes the comment and decrements the counter.
	Delete(ctx context.Context, comment *model.Comment) error
}

// FollowRepository maintains the directed follow graph.
type FollowRepository interface {
	// Create returns ErrAlreadyFollowing on a duplicate edge.
	Create(ctx context.Context, follow *model.Follow) error

	// Delete returns ErrNotFollowing if the edge does not exist.
	Delete(ctx context.Context, followerID, followingID uuid.UUID) error

	// Exists reports whether followerID follows followingID.
	Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)

	// Followers lists users following userID. Follow.User is the follower.
	Followers(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error)

	// Following lists users userID follows. Follow.User is the followee.
	Following(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error)
}
