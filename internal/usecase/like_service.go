package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/invalidation"
)

// LikeService toggles likes and reports like counts.
type LikeService interface {
	// Like returns the new like count, or ErrAlreadyLiked.
	Like(ctx context.Context, userID, videoID uuid.UUID) (int64, error)
	// Unlike returns the new like count, or ErrLikeNotFound.
	Unlike(ctx context.Context, userID, videoID uuid.UUID) (int64, error)
	ListLikes(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Like], error)
	IsLiked(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
}

type likeService struct {
	likes  repository.LikeRepository
	videos repository.VideoRepository
	events EventEmitter
}

func NewLikeService(likes repository.LikeRepository, videos repository.VideoRepository, events EventEmitter) LikeService {
	return &likeService{likes: likes, videos: videos, events: events}
}

func (s *likeService) Like(ctx context.Context, userID, videoID uuid.UUID) (int64, error) {
	count, err := s.likes.Like(ctx, videoID, userID)
	if err != nil {
		return 0, err
	}
	return count, s.emit(ctx, videoID, userID)
}

func (s *likeService) Unlike(ctx context.Context, userID, videoID uuid.UUID) (int64, error) {
	count, err := s.likes.Unlike(ctx, videoID, userID)
	if err != nil {
		return 0, err
	}
	return count, s.emit(ctx, videoID, userID)
}

func (s *likeService) emit(ctx context.Context, videoID, userID uuid.UUID) error {
	if err := s.events.Emit(ctx, invalidation.LikeChanged(videoID, userID)); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

// ListLikes returns ErrVideoNotFound rather than an empty page for an
// unknown video.
func (s *likeService) ListLikes(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Like], error) {
	if err := page.Validate(); err != nil {
		return model.Page[model.Like]{}, err
	}
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		return model.Page[model.Like]{}, err
	}
	return s.likes.List(ctx, videoID, page)
}

func (s *likeService) IsLiked(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	return s.likes.Exists(ctx, videoID, userID)
}
