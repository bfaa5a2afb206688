package usecase

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/invalidation"
	"github.com/hszk-dev/clipshare/internal/transcoder"
)

// mockVideoRepository provides a configurable mock for VideoRepository.
type mockVideoRepository struct {
	createFn           func(ctx context.Context, video *model.Video) error
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*model.Video, error)
	incrementViewsFn   func(ctx context.Context, id uuid.UUID) (int64, error)
	listFn             func(ctx context.Context, filter repository.VideoFilter, page model.PageRequest) (model.Page[*model.Video], error)
	trendingFn         func(ctx context.Context, page model.PageRequest) (model.Page[*model.Video], error)
	feedFn             func(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[*model.Video], error)
	searchFn           func(ctx context.Context, query string, page model.PageRequest) (model.Page[*model.Video], error)
	updateFn           func(ctx context.Context, video *model.Video) error
	updateStatusFn     func(ctx context.Context, id uuid.UUID, status model.Status) error
	deleteFn           func(ctx context.Context, id uuid.UUID) error
	hashtagsFn         func(ctx context.Context, query string, page model.PageRequest) (model.Page[model.HashtagStat], error)
	trendingHashtagsFn func(ctx context.Context, limit int) ([]model.HashtagStat, error)
}

func (m *mockVideoRepository) Create(ctx context.Context, video *model.Video) error {
	if m.createFn != nil {
		return m.createFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	if m.incrementViewsFn != nil {
		return m.incrementViewsFn(ctx, id)
	}
	return 1, nil
}

func (m *mockVideoRepository) List(ctx context.Context, filter repository.VideoFilter, page model.PageRequest) (model.Page[*model.Video], error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, page)
	}
	return model.Page[*model.Video]{PageRequest: page}, nil
}

func (m *mockVideoRepository) Trending(ctx context.Context, page model.PageRequest) (model.Page[*model.Video], error) {
	if m.trendingFn != nil {
		return m.trendingFn(ctx, page)
	}
	return model.Page[*model.Video]{PageRequest: page}, nil
}

func (m *mockVideoRepository) Feed(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[*model.Video], error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, userID, page)
	}
	return model.Page[*model.Video]{PageRequest: page}, nil
}

func (m *mockVideoRepository) Search(ctx context.Context, query string, page model.PageRequest) (model.Page[*model.Video], error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, page)
	}
	return model.Page[*model.Video]{PageRequest: page}, nil
}

func (m *mockVideoRepository) Update(ctx context.Context, video *model.Video) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockVideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockVideoRepository) Hashtags(ctx context.Context, query string, page model.PageRequest) (model.Page[model.HashtagStat], error) {
	if m.hashtagsFn != nil {
		return m.hashtagsFn(ctx, query, page)
	}
	return model.Page[model.HashtagStat]{PageRequest: page}, nil
}

func (m *mockVideoRepository) TrendingHashtags(ctx context.Context, limit int) ([]model.HashtagStat, error) {
	if m.trendingHashtagsFn != nil {
		return m.trendingHashtagsFn(ctx, limit)
	}
	return nil, nil
}

// mockUserRepository provides a configurable mock for UserRepository.
type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*model.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	updateProfileFn func(ctx context.Context, user *model.User) error
	searchFn        func(ctx context.Context, query string, page model.PageRequest) (model.Page[model.UserSummary], error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.User{ID: id, Username: "someone"}, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, page model.PageRequest) (model.Page[model.UserSummary], error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, page)
	}
	return model.Page[model.UserSummary]{PageRequest: page}, nil
}

// mockLikeRepository provides a configurable mock for LikeRepository.
type mockLikeRepository struct {
	likeFn   func(ctx context.Context, videoID, userID uuid.UUID) (int64, error)
	unlikeFn func(ctx context.Context, videoID, userID uuid.UUID) (int64, error)
	listFn   func(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Like], error)
	existsFn func(ctx context.Context, videoID, userID uuid.UUID) (bool, error)
}

func (m *mockLikeRepository) Like(ctx context.Context, videoID, userID uuid.UUID) (int64, error) {
	if m.likeFn != nil {
		return m.likeFn(ctx, videoID, userID)
	}
	return 1, nil
}

func (m *mockLikeRepository) Unlike(ctx context.Context, videoID, userID uuid.UUID) (int64, error) {
	if m.unlikeFn != nil {
		return m.unlikeFn(ctx, videoID, userID)
	}
	return 0, nil
}

func (m *mockLikeRepository) List(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Like], error) {
	if m.listFn != nil {
		return m.listFn(ctx, videoID, page)
	}
	return model.Page[model.Like]{PageRequest: page}, nil
}

func (m *mockLikeRepository) Exists(ctx context.Context, videoID, userID uuid.UUID) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, videoID, userID)
	}
	return false, nil
}

// mockCommentRepository provides a configurable mock for CommentRepository.
type mockCommentRepository struct {
	createFn        func(ctx context.Context, comment *model.Comment) error
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	listByVideoFn   func(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Comment], error)
	updateContentFn func(ctx context.Context, comment *model.Comment) error
	deleteFn        func(ctx context.Context, comment *model.Comment) error
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if m.createFn != nil {
		return m.createFn(ctx, comment)
	}
	return nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrCommentNotFound
}

func (m *mockCommentRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, page model.PageRequest) (model.Page[model.Comment], error) {
	if m.listByVideoFn != nil {
		return m.listByVideoFn(ctx, videoID, page)
	}
	return model.Page[model.Comment]{PageRequest: page}, nil
}

func (m *mockCommentRepository) UpdateContent(ctx context.Context, comment *model.Comment) error {
	if m.updateContentFn != nil {
		return m.updateContentFn(ctx, comment)
	}
	return nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, comment *model.Comment) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, comment)
	}
	return nil
}

// mockFollowRepository provides a configurable mock for FollowRepository.
type mockFollowRepository struct {
	createFn    func(ctx context.Context, follow *model.Follow) error
	deleteFn    func(ctx context.Context, followerID, followingID uuid.UUID) error
	existsFn    func(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	followersFn func(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error)
	followingFn func(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error)
}

func (m *mockFollowRepository) Create(ctx context.Context, follow *model.Follow) error {
	if m.createFn != nil {
		return m.createFn(ctx, follow)
	}
	return nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, followerID, followingID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, followerID, followingID)
	}
	return nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followingID)
	}
	return false, nil
}

func (m *mockFollowRepository) Followers(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	if m.followersFn != nil {
		return m.followersFn(ctx, userID, page)
	}
	return model.Page[model.Follow]{PageRequest: page}, nil
}

func (m *mockFollowRepository) Following(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[model.Follow], error) {
	if m.followingFn != nil {
		return m.followingFn(ctx, userID, page)
	}
	return model.Page[model.Follow]{PageRequest: page}, nil
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
// Uploads are recorded by key.
type mockObjectStorage struct {
	generatePresignedUploadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	uploadFn                     func(ctx context.Context, key string, reader io.Reader, contentType string) error
	downloadFn                   func(ctx context.Context, key string) (io.ReadCloser, error)
	deleteFn                     func(ctx context.Context, key string) error
	deletePrefixFn               func(ctx context.Context, prefix string) (int, error)
	existsFn                     func(ctx context.Context, key string) (bool, error)

	mu       sync.Mutex
	uploaded map[string]string // key -> content type
	deleted  []string
}

func (m *mockObjectStorage) GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedUploadURLFn != nil {
		return m.generatePresignedUploadURLFn(ctx, key, expiry)
	}
	return "http://example.com/upload/" + key, nil
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if m.uploadFn != nil {
		if err := m.uploadFn(ctx, key, reader, contentType); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploaded == nil {
		m.uploaded = make(map[string]string)
	}
	m.uploaded[key] = contentType
	return nil
}

func (m *mockObjectStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, key)
	}
	return io.NopCloser(strings.NewReader("video bytes")), nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, key)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockObjectStorage) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	m.deleted = append(m.deleted, prefix)
	m.mu.Unlock()
	if m.deletePrefixFn != nil {
		return m.deletePrefixFn(ctx, prefix)
	}
	return 1, nil
}

func (m *mockObjectStorage) ObjectURL(key string) string {
	return "http://cdn.local/videos/" + key
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return true, nil
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	publishProcessTaskFn func(ctx context.Context, task repository.ProcessTask) error
	published            []repository.ProcessTask
}

func (m *mockMessageQueue) PublishProcessTask(ctx context.Context, task repository.ProcessTask) error {
	if m.publishProcessTaskFn != nil {
		if err := m.publishProcessTaskFn(ctx, task); err != nil {
			return err
		}
	}
	m.published = append(m.published, task)
	return nil
}

func (m *mockMessageQueue) ConsumeProcessTasks(ctx context.Context, handler func(task repository.ProcessTask) error) error {
	return nil
}

func (m *mockMessageQueue) Close() error {
	return nil
}

// mockProcessor provides a configurable mock for transcoder.Processor.
// By default it writes plausible output files so uploads have something to read.
type mockProcessor struct {
	probeFn     func(ctx context.Context, inputPath string) (float64, error)
	thumbnailFn func(ctx context.Context, inputPath, outputPath string, width, height int) error
	abrFn       func(ctx context.Context, inputPath, outputDir string, variants []transcoder.Variant) (*transcoder.ABROutput, error)
}

func (m *mockProcessor) Probe(ctx context.Context, inputPath string) (float64, error) {
	if m.probeFn != nil {
		return m.probeFn(ctx, inputPath)
	}
	return 12.5, nil
}

func (m *mockProcessor) Thumbnail(ctx context.Context, inputPath, outputPath string, width, height int) error {
	if m.thumbnailFn != nil {
		return m.thumbnailFn(ctx, inputPath, outputPath, width, height)
	}
	return writeFile(outputPath)
}

func (m *mockProcessor) TranscodeToABR(ctx context.Context, inputPath, outputDir string, variants []transcoder.Variant) (*transcoder.ABROutput, error) {
	if m.abrFn != nil {
		return m.abrFn(ctx, inputPath, outputDir, variants)
	}
	return fakeABR(outputDir, variants)
}

// mockEmitter records emitted events.
type mockEmitter struct {
	emitFn func(ctx context.Context, e invalidation.Event) error

	mu     sync.Mutex
	events []invalidation.Event
}

func (m *mockEmitter) Emit(ctx context.Context, e invalidation.Event) error {
	if m.emitFn != nil {
		if err := m.emitFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockEmitter) emitted() []invalidation.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]invalidation.Event(nil), m.events...)
}

// mockHasher prefixes instead of hashing.
type mockHasher struct {
	hashFn    func(password string) (string, error)
	compareFn func(hash, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFn != nil {
		return m.hashFn(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash, password string) error {
	if m.compareFn != nil {
		return m.compareFn(hash, password)
	}
	return nil
}

type mockTokenIssuer struct {
	issueFn func(userID uuid.UUID) (string, error)
}

func (m *mockTokenIssuer) Issue(userID uuid.UUID) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(userID)
	}
	return "token-" + userID.String(), nil
}
