package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/invalidation"
)

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".mkv":  true,
}

// CreateVideoInput contains the input parameters for creating a video.
type CreateVideoInput struct {
	UserID      uuid.UUID
	Title       string
	Description string
	// Hashtags is the raw comma separated list.
	Hashtags   string
	Location   string
	Visibility string
	FileName   string
}

// CreateVideoOutput contains the result of creating a video.
type CreateVideoOutput struct {
	Video     *model.Video
	UploadURL string
}

// ListVideosInput filters the public listing. Zero values mean no filter.
type ListVideosInput struct {
	Page    model.PageRequest
	Hashtag string
	UserID  uuid.UUID
}

// VideoService defines the interface for video business logic operations.
type VideoService interface {
	// CreateVideo creates video metadata and returns a presigned upload URL.
	CreateVideo(ctx context.Context, input CreateVideoInput) (*CreateVideoOutput, error)

	// TriggerProcess queues processing of an uploaded video.
	// Calling it while the video is already processing returns nil.
	TriggerProcess(ctx context.Context, userID, videoID uuid.UUID) error

	// GetVideo returns the video and counts a view.
	GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error)

	ListVideos(ctx context.Context, input ListVideosInput) (model.Page[*model.Video], error)
	Trending(ctx context.Context, page model.PageRequest) (model.Page[*model.Video], error)
	Feed(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[*model.Video], error)

	UpdateVideo(ctx context.Context, userID, videoID uuid.UUID, patch model.VideoPatch) (*model.Video, error)
	// DeleteVideo removes the record, then stored objects on a best effort basis.
	DeleteVideo(ctx context.Context, userID, videoID uuid.UUID) error
}

// VideoServiceConfig holds configuration for VideoService.
type VideoServiceConfig struct {
	UploadURLExpiry time.Duration
}

// DefaultVideoServiceConfig returns the default configuration.
func DefaultVideoServiceConfig() VideoServiceConfig {
	return VideoServiceConfig{
		UploadURLExpiry: 15 * time.Minute,
	}
}

type videoService struct {
	repo    repository.VideoRepository
	storage repository.ObjectStorage
	queue   repository.MessageQueue
	events  EventEmitter

	uploadURLExpiry time.Duration
}

// NewVideoService creates a new VideoService instance.
func NewVideoService(
	repo repository.VideoRepository,
	storage repository.ObjectStorage,
	queue repository.MessageQueue,
	events EventEmitter,
	cfg VideoServiceConfig,
) VideoService {
	return &videoService{
		repo:            repo,
		storage:         storage,
		queue:           queue,
		events:          events,
		uploadURLExpiry: cfg.UploadURLExpiry,
	}
}

func (s *videoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*CreateVideoOutput, error) {
	fileName, err := sanitizeFileName(input.FileName)
	if err != nil {
		return nil, err
	}

	video, err := model.NewVideo(input.UserID, model.VideoDetails{
		Title:       input.Title,
		Description: input.Description,
		Hashtags:    model.ParseHashtags(input.Hashtags),
		Location:    input.Location,
		Visibility:  model.Visibility(input.Visibility),
	})
	if err != nil {
		return nil, err
	}

	key := OriginalKey(video.ID, fileName)

	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, key, s.uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate presigned upload URL: %w", err)
	}

	video.SetOriginalURL(key)

	if err := s.repo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	if err := s.events.Emit(ctx, invalidation.VideoChanged(video.ID, video.UserID)); err != nil {
		return nil, fmt.Errorf("invalidate cache: %w", err)
	}

	return &CreateVideoOutput{
		Video:     video,
		UploadURL: uploadURL,
	}, nil
}

// sanitizeFileName keeps only the base name and defaults to original.mp4.
func sanitizeFileName(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "original.mp4", nil
	}
	if !allowedExtensions[strings.ToLower(path.Ext(name))] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(name))
	}
	return name, nil
}

func (s *videoService) TriggerProcess(ctx context.Context, userID, videoID uuid.UUID) error {
	video, err := s.ownedVideo(ctx, userID, videoID)
	if err != nil {
		return err
	}

	switch video.Status {
	case model.StatusProcessing:
		return nil
	case model.StatusReady, model.StatusFailed:
		return ErrVideoAlreadyCompleted
	}

	uploaded, err := s.storage.Exists(ctx, video.OriginalURL)
	if err != nil {
		return fmt.Errorf("check original: %w", err)
	}
	if !uploaded {
		return ErrUploadMissing
	}

	if err := video.TransitionTo(model.StatusProcessing); err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, video.ID, video.Status); err != nil {
		return fmt.Errorf("update video status: %w", err)
	}

	task := repository.ProcessTask{
		VideoID:     video.ID,
		OriginalKey: video.OriginalURL,
		OutputKey:   HLSPrefix(video.ID),
	}

	if err := s.queue.PublishProcessTask(ctx, task); err != nil {
		return fmt.Errorf("publish process task: %w", err)
	}

	if err := s.events.Emit(ctx, invalidation.VideoChanged(video.ID, video.UserID)); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

// GetVideo counts a view on every call. Behind the response cache this means
// one view per cache miss.
func (s *videoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	views, err := s.repo.IncrementViews(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	video.ViewsCount = views

	return video, nil
}

func (s *videoService) ListVideos(ctx context.Context, input ListVideosInput) (model.Page[*model.Video], error) {
	if err := input.Page.Validate(); err != nil {
		return model.Page[*model.Video]{}, err
	}

	filter := repository.VideoFilter{
		Hashtag: strings.TrimPrefix(strings.ToLower(strings.TrimSpace(input.Hashtag)), "#"),
		UserID:  input.UserID,
	}
	return s.repo.List(ctx, filter, input.Page)
}

func (s *videoService) Trending(ctx context.Context, page model.PageRequest) (model.Page[*model.Video], error) {
	if err := page.Validate(); err != nil {
		return model.Page[*model.Video]{}, err
	}
	return s.repo.Trending(ctx, page)
}

func (s *videoService) Feed(ctx context.Context, userID uuid.UUID, page model.PageRequest) (model.Page[*model.Video], error) {
	if err := page.Validate(); err != nil {
		return model.Page[*model.Video]{}, err
	}
	return s.repo.Feed(ctx, userID, page)
}

func (s *videoService) UpdateVideo(ctx context.Context, userID, videoID uuid.UUID, patch model.VideoPatch) (*model.Video, error) {
	video, err := s.ownedVideo(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}

	if err := video.Apply(patch); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}

	if err := s.events.Emit(ctx, invalidation.VideoChanged(video.ID, video.UserID)); err != nil {
		return nil, fmt.Errorf("invalidate cache: %w", err)
	}
	return video, nil
}

func (s *videoService) DeleteVideo(ctx context.Context, userID, videoID uuid.UUID) error {
	video, err := s.ownedVideo(ctx, userID, videoID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, video.ID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if err := s.events.Emit(ctx, invalidation.VideoChanged(video.ID, video.UserID)); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}

	s.removeObjects(ctx, video.ID)
	return nil
}

// removeObjects deletes everything stored for the video. Orphans are only
// wasted space, so failures are logged and not returned.
func (s *videoService) removeObjects(ctx context.Context, videoID uuid.UUID) {
	for _, prefix := range []string{OriginalPrefix(videoID), HLSPrefix(videoID)} {
		if _, err := s.storage.DeletePrefix(ctx, prefix); err != nil {
			slog.Warn("failed to delete stored objects",
				"video_id", videoID,
				"prefix", prefix,
				"error", err,
			)
		}
	}
	if err := s.storage.Delete(ctx, ThumbnailKey(videoID)); err != nil {
		slog.Warn("failed to delete thumbnail", "video_id", videoID, "error", err)
	}
}

func (s *videoService) ownedVideo(ctx context.Context, userID, videoID uuid.UUID) (*model.Video, error) {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsOwnedBy(userID) {
		return nil, ErrForbidden
	}
	return video, nil
}

// Storage layout:
//
//	originals/{video_id}/{filename}
//	hls/{video_id}/master.m3u8, hls/{video_id}/{variant}/...
//	thumbnails/{video_id}.jpg

func OriginalPrefix(videoID uuid.UUID) string {
	return path.Join("originals", videoID.String()) + "/"
}

func OriginalKey(videoID uuid.UUID, filename string) string {
	return OriginalPrefix(videoID) + filename
}

func HLSPrefix(videoID uuid.UUID) string {
	return path.Join("hls", videoID.String()) + "/"
}

func ThumbnailKey(videoID uuid.UUID) string {
	return path.Join("thumbnails", videoID.String()+".jpg")
}
