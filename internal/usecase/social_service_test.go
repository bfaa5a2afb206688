package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/invalidation"
)

var firstPage = model.PageRequest{Page: 1, Limit: 20}

func TestLikeService_LikeUnlike(t *testing.T) {
	userID, videoID := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		call      func(svc LikeService) (int64, error)
		likes     *mockLikeRepository
		emitErr   error
		wantCount int64
		wantErr   error
		wantEvent bool
	}{
		{
			name:      "like",
			call:      func(svc LikeService) (int64, error) { return svc.Like(context.Background(), userID, videoID) },
			likes:     &mockLikeRepository{likeFn: func(ctx context.Context, v, u uuid.UUID) (int64, error) { return 7, nil }},
			wantCount: 7,
			wantEvent: true,
		},
		{
			name: "like twice",
			call: func(svc LikeService) (int64, error) { return svc.Like(context.Background(), userID, videoID) },
			likes: &mockLikeRepository{likeFn: func(ctx context.Context, v, u uuid.UUID) (int64, error) {
				return 0, repository.ErrAlreadyLiked
			}},
			wantErr: repository.ErrAlreadyLiked,
		},
		{
			name:      "unlike",
			call:      func(svc LikeService) (int64, error) { return svc.Unlike(context.Background(), userID, videoID) },
			likes:     &mockLikeRepository{unlikeFn: func(ctx context.Context, v, u uuid.UUID) (int64, error) { return 6, nil }},
			wantCount: 6,
			wantEvent: true,
		},
		{
			name: "unlike without like",
			call: func(svc LikeService) (int64, error) { return svc.Unlike(context.Background(), userID, videoID) },
			likes: &mockLikeRepository{unlikeFn: func(ctx context.Context, v, u uuid.UUID) (int64, error) {
				return 0, repository.ErrLikeNotFound
			}},
			wantErr: repository.ErrLikeNotFound,
		},
		{
			name:    "invalidation error",
			call:    func(svc LikeService) (int64, error) { return svc.Like(context.Background(), userID, videoID) },
			likes:   &mockLikeRepository{},
			emitErr: errors.New("bad pattern"),
			wantErr: errors.New("invalidate cache"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &mockEmitter{}
			if tt.emitErr != nil {
				events.emitFn = func(ctx context.Context, e invalidation.Event) error { return tt.emitErr }
			}
			svc := NewLikeService(tt.likes, &mockVideoRepository{}, events)

			count, err := tt.call(svc)
			assertErr(t, err, tt.wantErr)
			if tt.wantErr == nil && count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			got := events.emitted()
			if tt.wantEvent {
				if len(got) != 1 || got[0] != invalidation.LikeChanged(videoID, userID) {
					t.Errorf("events = %+v", got)
				}
			} else if len(got) != 0 {
				t.Errorf("unexpected events %+v", got)
			}
		})
	}
}

func TestLikeService_ListLikes(t *testing.T) {
	t.Run("unknown video", func(t *testing.T) {
		svc := NewLikeService(&mockLikeRepository{}, &mockVideoRepository{}, &mockEmitter{})
		_, err := svc.ListLikes(context.Background(), uuid.New(), firstPage)
		assertErr(t, err, repository.ErrVideoNotFound)
	})

	t.Run("lists", func(t *testing.T) {
		videos := &mockVideoRepository{getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) {
			return &model.Video{ID: id}, nil
		}}
		likes := &mockLikeRepository{listFn: func(ctx context.Context, v uuid.UUID, p model.PageRequest) (model.Page[model.Like], error) {
			return model.Page[model.Like]{Items: []model.Like{{VideoID: v}}, PageRequest: p, Total: 1}, nil
		}}
		svc := NewLikeService(likes, videos, &mockEmitter{})
		page, err := svc.ListLikes(context.Background(), uuid.New(), firstPage)
		if err != nil {
			t.Fatalf("ListLikes() error = %v", err)
		}
		if page.Total != 1 || len(page.Items) != 1 {
			t.Errorf("page = %+v", page)
		}
	})
}

func TestCommentService_AddComment(t *testing.T) {
	userID, videoID := uuid.New(), uuid.New()

	t.Run("returns comment with author", func(t *testing.T) {
		comments := &mockCommentRepository{}
		comments.getByIDFn = func(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
			return &model.Comment{ID: id, VideoID: videoID, UserID: userID, Content: "nice", Author: model.UserSummary{Username: "bob"}}, nil
		}
		events := &mockEmitter{}
		svc := NewCommentService(comments, &mockVideoRepository{}, events)

		c, err := svc.AddComment(context.Background(), userID, videoID, "  nice  ")
		if err != nil {
			t.Fatalf("AddComment() error = %v", err)
		}
		if c.Author.Username != "bob" {
			t.Errorf("author = %+v", c.Author)
		}
		got := events.emitted()
		if len(got) != 1 || got[0] != invalidation.CommentChanged(videoID, userID) {
			t.Errorf("events = %+v", got)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		svc := NewCommentService(&mockCommentRepository{}, &mockVideoRepository{}, &mockEmitter{})
		_, err := svc.AddComment(context.Background(), userID, videoID, "   ")
		assertErr(t, err, model.ErrEmptyComment)
	})

	t.Run("unknown video", func(t *testing.T) {
		comments := &mockCommentRepository{createFn: func(ctx context.Context, c *model.Comment) error {
			return repository.ErrVideoNotFound
		}}
		events := &mockEmitter{}
		svc := NewCommentService(comments, &mockVideoRepository{}, events)
		_, err := svc.AddComment(context.Background(), userID, videoID, "hi")
		assertErr(t, err, repository.ErrVideoNotFound)
		if len(events.emitted()) != 0 {
			t.Error("failed create must not invalidate")
		}
	})
}

func TestCommentService_EditDelete(t *testing.T) {
	authorID, videoID, commentID := uuid.New(), uuid.New(), uuid.New()
	stored := func() *model.Comment {
		return &model.Comment{ID: commentID, VideoID: videoID, UserID: authorID, Content: "old"}
	}

	tests := []struct {
		name    string
		userID  uuid.UUID
		call    func(svc CommentService, userID uuid.UUID) error
		wantErr error
	}{
		{
			name:   "author edits",
			userID: authorID,
			call: func(svc CommentService, userID uuid.UUID) error {
				c, err := svc.UpdateComment(context.Background(), userID, commentID, "new")
				if err == nil && c.Content != "new" {
					return errors.New("content not updated")
				}
				return err
			},
		},
		{
			name:   "other user edits",
			userID: uuid.New(),
			call: func(svc CommentService, userID uuid.UUID) error {
				_, err := svc.UpdateComment(context.Background(), userID, commentID, "new")
				return err
			},
			wantErr: ErrForbidden,
		},
		{
			name:   "edit too long",
			userID: authorID,
			call: func(svc CommentService, userID uuid.UUID) error {
				_, err := svc.UpdateComment(context.Background(), userID, commentID, string(make([]byte, 501))+"x")
				return err
			},
			wantErr: model.ErrCommentTooLong,
		},
		{
			name:   "author deletes",
			userID: authorID,
			call: func(svc CommentService, userID uuid.UUID) error {
				return svc.DeleteComment(context.Background(), userID, commentID)
			},
		},
		{
			name:   "other user deletes",
			userID: uuid.New(),
			call: func(svc CommentService, userID uuid.UUID) error {
				return svc.DeleteComment(context.Background(), userID, commentID)
			},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments := &mockCommentRepository{
				getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Comment, error) { return stored(), nil },
			}
			events := &mockEmitter{}
			svc := NewCommentService(comments, &mockVideoRepository{}, events)

			err := tt.call(svc, tt.userID)
			assertErr(t, err, tt.wantErr)
			want := 1
			if tt.wantErr != nil {
				want = 0
			}
			if len(events.emitted()) != want {
				t.Errorf("events = %d, want %d", len(events.emitted()), want)
			}
		})
	}
}

func TestCommentService_ListComments(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockVideoRepository{}, &mockEmitter{})
	_, err := svc.ListComments(context.Background(), uuid.New(), firstPage)
	assertErr(t, err, repository.ErrVideoNotFound)

	_, err = svc.ListComments(context.Background(), uuid.New(), model.PageRequest{})
	assertErr(t, err, model.ErrInvalidPageRequest)
}

func TestFollowService_Follow(t *testing.T) {
	followerID, followingID := uuid.New(), uuid.New()

	tests := []struct {
		name        string
		followingID uuid.UUID
		setup       func(follows *mockFollowRepository, users *mockUserRepository)
		wantErr     error
	}{
		{name: "success", followingID: followingID},
		{name: "self", followingID: followerID, wantErr: ErrCannotFollowSelf},
		{
			name:        "unknown user",
			followingID: followingID,
			setup: func(follows *mockFollowRepository, users *mockUserRepository) {
				users.getByIDFn = func(ctx context.Context, id uuid.UUID) (*model.User, error) {
					return nil, repository.ErrUserNotFound
				}
			},
			wantErr: repository.ErrUserNotFound,
		},
		{
			name:        "already following",
			followingID: followingID,
			setup: func(follows *mockFollowRepository, users *mockUserRepository) {
				follows.createFn = func(ctx context.Context, f *model.Follow) error {
					return repository.ErrAlreadyFollowing
				}
			},
			wantErr: repository.ErrAlreadyFollowing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			follows := &mockFollowRepository{}
			users := &mockUserRepository{}
			if tt.setup != nil {
				tt.setup(follows, users)
			}
			events := &mockEmitter{}
			svc := NewFollowService(follows, users, events)

			err := svc.Follow(context.Background(), followerID, tt.followingID)
			assertErr(t, err, tt.wantErr)
			got := events.emitted()
			if tt.wantErr != nil {
				if len(got) != 0 {
					t.Errorf("unexpected events %+v", got)
				}
				return
			}
			if len(got) != 1 || got[0] != invalidation.FollowChanged(followerID, tt.followingID) {
				t.Errorf("events = %+v", got)
			}
		})
	}
}

func TestFollowService_Unfollow(t *testing.T) {
	followerID, followingID := uuid.New(), uuid.New()

	svc := NewFollowService(&mockFollowRepository{}, &mockUserRepository{}, &mockEmitter{})
	assertErr(t, svc.Unfollow(context.Background(), followerID, followerID), ErrCannotFollowSelf)

	follows := &mockFollowRepository{deleteFn: func(ctx context.Context, a, b uuid.UUID) error {
		return repository.ErrNotFollowing
	}}
	svc = NewFollowService(follows, &mockUserRepository{}, &mockEmitter{})
	assertErr(t, svc.Unfollow(context.Background(), followerID, followingID), repository.ErrNotFollowing)

	events := &mockEmitter{}
	svc = NewFollowService(&mockFollowRepository{}, &mockUserRepository{}, events)
	assertErr(t, svc.Unfollow(context.Background(), followerID, followingID), nil)
	if len(events.emitted()) != 1 {
		t.Errorf("events = %d, want 1", len(events.emitted()))
	}
}

func TestFollowService_Lists(t *testing.T) {
	users := &mockUserRepository{getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
		return nil, repository.ErrUserNotFound
	}}
	svc := NewFollowService(&mockFollowRepository{}, users, &mockEmitter{})

	_, err := svc.Followers(context.Background(), uuid.New(), firstPage)
	assertErr(t, err, repository.ErrUserNotFound)
	_, err = svc.Following(context.Background(), uuid.New(), firstPage)
	assertErr(t, err, repository.ErrUserNotFound)

	var listed uuid.UUID
	follows := &mockFollowRepository{followersFn: func(ctx context.Context, id uuid.UUID, p model.PageRequest) (model.Page[model.Follow], error) {
		listed = id
		return model.Page[model.Follow]{PageRequest: p}, nil
	}}
	svc = NewFollowService(follows, &mockUserRepository{}, &mockEmitter{})
	userID := uuid.New()
	if _, err := svc.Followers(context.Background(), userID, firstPage); err != nil {
		t.Fatalf("Followers() error = %v", err)
	}
	if listed != userID {
		t.Errorf("listed %s, want %s", listed, userID)
	}
}
