package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/invalidation"
)

// CommentService manages comments. Only the author may edit or delete.
type CommentService interface {
	AddComment(ctx context.Context, userID, videoID uuid.UUID, content string) (*model.Comment, error)
	ListComments(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Comment], error)
	UpdateComment(ctx context.Context, userID, commentID uuid.UUID, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error
}

type commentService struct {
	comments repository.CommentRepository
	videos   repository.VideoRepository
	events   EventEmitter
}

func NewCommentService(comments repository.CommentRepository, videos repository.VideoRepository, events EventEmitter) CommentService {
	return &commentService{comments: comments, videos: videos, events: events}
}

// AddComment re-reads the comment so the response carries the author.
func (s *commentService) AddComment(ctx context.Context, userID, videoID uuid.UUID, content string) (*model.Comment, error) {
	comment, err := model.NewComment(videoID, userID, content)
	if err != nil {
		return nil, err
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if err := s.emit(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *commentService) ListComments(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Comment], error) {
	if err := page.Validate(); err != nil {
		return model.Page[model.Comment]{}, err
	}
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		return model.Page[model.Comment]{}, err
	}
	return s.comments.ListByVideo(ctx, videoID, page)
}

func (s *commentService) UpdateComment(ctx context.Context, userID, commentID uuid.UUID, content string) (*model.Comment, error) {
	comment, err := s.authored(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}

	if err := comment.Edit(content); err != nil {
		return nil, err
	}

	if err := s.comments.UpdateContent(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	if err := s.emit(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	comment, err := s.authored(ctx, userID, commentID)
	if err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, comment); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	return s.emit(ctx, comment)
}

func (s *commentService) authored(ctx context.Context, userID, commentID uuid.UUID) (*model.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrForbidden
	}
	return comment, nil
}

func (s *commentService) emit(ctx context.Context, c *model.Comment) error {
	if err := s.events.Emit(ctx, invalidation.CommentChanged(c.VideoID, c.UserID)); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}
