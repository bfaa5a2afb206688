package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/invalidation"
)

// FollowService maintains the follow graph.
type FollowService interface {
	Follow(ctx context.Context, followerID, followingID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error
	Followers(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error)
	Following(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error)
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
}

type followService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	events  EventEmitter
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, events EventEmitter) FollowService {
	return &followService{follows: follows, users: users, events: events}
}

func (s *followService) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	follow, err := model.NewFollow(followerID, followingID)
	if errors.Is(err, model.ErrSelfFollow) {
		return ErrCannotFollowSelf
	}
	if err != nil {
		return err
	}

	if _, err := s.users.GetByID(ctx, followingID); err != nil {
		return err
	}

	if err := s.follows.Create(ctx, follow); err != nil {
		return fmt.Errorf("create follow: %w", err)
	}

	return s.emit(ctx, followerID, followingID)
}

func (s *followService) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return ErrCannotFollowSelf
	}

	if err := s.follows.Delete(ctx, followerID, followingID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}

	return s.emit(ctx, followerID, followingID)
}

func (s *followService) emit(ctx context.Context, followerID, followingID uuid.UUID) error {
	if err := s.events.Emit(ctx, invalidation.FollowChanged(followerID, followingID)); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

func (s *followService) Followers(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	if err := s.checkUser(ctx, userID, page); err != nil {
		return model.Page[model.Follow]{}, err
	}
	return s.follows.Followers(ctx, userID, page)
}

func (s *followService) Following(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	if err := s.checkUser(ctx, userID, page); err != nil {
		return model.Page[model.Follow]{}, err
	}
	return s.follows.Following(ctx, userID, page)
}

func (s *followService) checkUser(ctx context.Context, userID uuid.UUID, page model.PageRequest) error {
	if err := page.Validate(); err != nil {
		return err
	}
	_, err := s.users.GetByID(ctx, userID)
	return err
}

func (s *followService) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	return s.follows.Exists(ctx, followerID, followingID)
}
