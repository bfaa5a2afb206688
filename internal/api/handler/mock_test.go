package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/api/middleware"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/usecase"
)

var testPages = Pagination{DefaultLimit: 20, MaxLimit: 50}

// newRequest builds a request with chi URL params and, when userID is not
// uuid.Nil, an authenticated caller.
func newRequest(method, target string, body io.Reader, userID uuid.UUID, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != uuid.Nil {
		ctx = middleware.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

type mockVideoService struct {
	createVideoFn    func(ctx context.Context, input usecase.CreateVideoInput) (*usecase.CreateVideoOutput, error)
	triggerProcessFn func(ctx context.Context, userID, videoID uuid.UUID) error
	getVideoFn       func(ctx context.Context, videoID uuid.UUID) (*model.Video, error)
	listVideosFn     func(ctx context.Context, input usecase.ListVideosInput) (model.Page[*model.Video], error)
	trendingFn       func(ctx context.Context, page model.PageRequest) (model.Page[*model.Video], error)
	feedFn           func(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[*model.Video], error)
	updateVideoFn    func(ctx context.Context, userID, videoID uuid.UUID, patch model.VideoPatch) (*model.Video, error)
	deleteVideoFn    func(ctx context.Context, userID, videoID uuid.UUID) error
}

func (m *mockVideoService) CreateVideo(ctx context.Context, input usecase.CreateVideoInput) (*usecase.CreateVideoOutput, error) {
	if m.createVideoFn != nil {
		return m.createVideoFn(ctx, input)
	}
	return nil, nil
}

func (m *mockVideoService) TriggerProcess(ctx context.Context, userID, videoID uuid.UUID) error {
	if m.triggerProcessFn != nil {
		return m.triggerProcessFn(ctx, userID, videoID)
	}
	return nil
}

func (m *mockVideoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	if m.getVideoFn != nil {
		return m.getVideoFn(ctx, videoID)
	}
	return nil, nil
}

func (m *mockVideoService) ListVideos(ctx context.Context, input usecase.ListVideosInput) (model.Page[*model.Video], error) {
	if m.listVideosFn != nil {
		return m.listVideosFn(ctx, input)
	}
	return model.Page[*model.Video]{PageRequest: input.Page}, nil
}

func (m *mockVideoService) Trending(ctx context.Context, page model.PageRequest) (model.Page[*model.Video], error) {
	if m.trendingFn != nil {
		return m.trendingFn(ctx, page)
	}
	return model.Page[*model.Video]{PageRequest: page}, nil
}

func (m *mockVideoService) Feed(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[*model.Video], error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, userID, page)
	}
	return model.Page[*model.Video]{PageRequest: page}, nil
}

func (m *mockVideoService) UpdateVideo(ctx context.Context, userID, videoID uuid.UUID, patch model.VideoPatch) (*model.Video, error) {
	if m.updateVideoFn != nil {
		return m.updateVideoFn(ctx, userID, videoID, patch)
	}
	return nil, nil
}

func (m *mockVideoService) DeleteVideo(ctx context.Context, userID, videoID uuid.UUID) error {
	if m.deleteVideoFn != nil {
		return m.deleteVideoFn(ctx, userID, videoID)
	}
	return nil
}

type mockAuthService struct {
	registerFn      func(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error)
	loginFn         func(ctx context.Context, email, password string) (*usecase.AuthOutput, error)
	getProfileFn    func(ctx context.Context, userID uuid.UUID) (*model.User, error)
	updateProfileFn func(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*usecase.AuthOutput, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, usecase.ErrInvalidCredentials
}

func (m *mockAuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID)
	}
	return &model.User{ID: userID, Username: "alice"}, nil
}

func (m *mockAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, patch)
	}
	return &model.User{ID: userID, Username: "alice"}, nil
}

type mockLikeService struct {
	likeFn      func(ctx context.Context, userID, videoID uuid.UUID) (int64, error)
	unlikeFn    func(ctx context.Context, userID, videoID uuid.UUID) (int64, error)
	listLikesFn func(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Like], error)
	isLikedFn   func(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
}

func (m *mockLikeService) Like(ctx context.Context, userID, videoID uuid.UUID) (int64, error) {
	if m.likeFn != nil {
		return m.likeFn(ctx, userID, videoID)
	}
	return 1, nil
}

func (m *mockLikeService) Unlike(ctx context.Context, userID, videoID uuid.UUID) (int64, error) {
	if m.unlikeFn != nil {
		return m.unlikeFn(ctx, userID, videoID)
	}
	return 0, nil
}

func (m *mockLikeService) ListLikes(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Like], error) {
	if m.listLikesFn != nil {
		return m.listLikesFn(ctx, videoID, page)
	}
	return model.Page[model.Like]{PageRequest: page}, nil
}

func (m *mockLikeService) IsLiked(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	if m.isLikedFn != nil {
		return m.isLikedFn(ctx, userID, videoID)
	}
	return false, nil
}

type mockCommentService struct {
	addCommentFn    func(ctx context.Context, userID, videoID uuid.UUID, content string) (*model.Comment, error)
	listCommentsFn  func(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Comment], error)
	updateCommentFn func(ctx context.Context, userID, commentID uuid.UUID, content string) (*model.Comment, error)
	deleteCommentFn func(ctx context.Context, userID, commentID uuid.UUID) error
}

func (m *mockCommentService) AddComment(ctx context.Context, userID, videoID uuid.UUID, content string) (*model.Comment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, userID, videoID, content)
	}
	return &model.Comment{ID: uuid.New(), VideoID: videoID, UserID: userID, Content: content}, nil
}

func (m *mockCommentService) ListComments(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Comment], error) {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, videoID, page)
	}
	return model.Page[model.Comment]{PageRequest: page}, nil
}

func (m *mockCommentService) UpdateComment(ctx context.Context, userID, commentID uuid.UUID, content string) (*model.Comment, error) {
	if m.updateCommentFn != nil {
		return m.updateCommentFn(ctx, userID, commentID, content)
	}
	return &model.Comment{ID: commentID, UserID: userID, Content: content}, nil
}

func (m *mockCommentService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	if m.deleteCommentFn != nil {
		return m.deleteCommentFn(ctx, userID, commentID)
	}
	return nil
}

type mockFollowService struct {
	followFn      func(ctx context.Context, followerID, followingID uuid.UUID) error
	unfollowFn    func(ctx context.Context, followerID, followingID uuid.UUID) error
	followersFn   func(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error)
	followingFn   func(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error)
	isFollowingFn func(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
}

func (m *mockFollowService) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if m.followFn != nil {
		return m.followFn(ctx, followerID, followingID)
	}
	return nil
}

func (m *mockFollowService) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if m.unfollowFn != nil {
		return m.unfollowFn(ctx, followerID, followingID)
	}
	return nil
}

func (m *mockFollowService) Followers(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	if m.followersFn != nil {
		return m.followersFn(ctx, userID, page)
	}
	return model.Page[model.Follow]{PageRequest: page}, nil
}

func (m *mockFollowService) Following(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	if m.followingFn != nil {
		return m.followingFn(ctx, userID, page)
	}
	return model.Page[model.Follow]{PageRequest: page}, nil
}

func (m *mockFollowService) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	if m.isFollowingFn != nil {
		return m.isFollowingFn(ctx, followerID, followingID)
	}
	return false, nil
}

type mockSearchService struct {
	usersFn            func(ctx context.Context, query string, page model.PageRequest) (model.Page[model.UserSummary], error)
	videosFn           func(ctx context.Context, query string, page model.PageRequest) (model.Page[*model.Video], error)
	hashtagsFn         func(ctx context.Context, query string, page model.PageRequest) (model.Page[model.HashtagStat], error)
	trendingHashtagsFn func(ctx context.Context, limit int) ([]model.HashtagStat, error)
}

func (m *mockSearchService) Users(ctx context.Context, query string, page model.PageRequest) (model.Page[model.UserSummary], error) {
	if m.usersFn != nil {
		return m.usersFn(ctx, query, page)
	}
	return model.Page[model.UserSummary]{PageRequest: page}, nil
}

func (m *mockSearchService) Videos(ctx context.Context, query string, page model.PageRequest) (model.Page[*model.Video], error) {
	if m.videosFn != nil {
		return m.videosFn(ctx, query, page)
	}
	return model.Page[*model.Video]{PageRequest: page}, nil
}

func (m *mockSearchService) Hashtags(ctx context.Context, query string, page model.PageRequest) (model.Page[model.HashtagStat], error) {
	if m.hashtagsFn != nil {
		return m.hashtagsFn(ctx, query, page)
	}
	return model.Page[model.HashtagStat]{PageRequest: page}, nil
}

func (m *mockSearchService) TrendingHashtags(ctx context.Context, limit int) ([]model.HashtagStat, error) {
	if m.trendingHashtagsFn != nil {
		return m.trendingHashtagsFn(ctx, limit)
	}
	return nil, nil
}
