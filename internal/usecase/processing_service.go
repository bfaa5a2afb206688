package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/invalidation"
	"github.com/hszk-dev/clipshare/internal/transcoder"
)

const (
	// DefaultMaxRetries is the number of attempts before a video is marked FAILED.
	DefaultMaxRetries = 3

	thumbnailWidth  = 320
	thumbnailHeight = 240
)

// ProcessingServiceConfig holds configuration for ProcessingService.
type ProcessingServiceConfig struct {
	// TempDir is the base directory for per-task working directories.
	TempDir    string
	MaxRetries int
	Variants   []transcoder.Variant
}

// DefaultProcessingServiceConfig returns the default configuration.
func DefaultProcessingServiceConfig() ProcessingServiceConfig {
	return ProcessingServiceConfig{
		TempDir:    os.TempDir(),
		MaxRetries: DefaultMaxRetries,
		Variants:   transcoder.DefaultABRVariants(),
	}
}

// ProcessingService turns uploaded originals into streamable videos.
type ProcessingService interface {
	// ProcessTask returns nil on success or on permanent failure (retries
	// exhausted), and an error for transient failures that should be retried.
	ProcessTask(ctx context.Context, task repository.ProcessTask) error
}

type processingService struct {
	repo      repository.VideoRepository
	storage   repository.ObjectStorage
	processor transcoder.Processor
	events    EventEmitter

	tempDir    string
	maxRetries int
	variants   []transcoder.Variant
}

func NewProcessingService(
	repo repository.VideoRepository,
	storage repository.ObjectStorage,
	processor transcoder.Processor,
	events EventEmitter,
	cfg ProcessingServiceConfig,
) ProcessingService {
	return &processingService{
		repo:       repo,
		storage:    storage,
		processor:  processor,
		events:     events,
		tempDir:    cfg.TempDir,
		maxRetries: cfg.MaxRetries,
		variants:   cfg.Variants,
	}
}

// processed collects the outputs recorded on the video.
type processed struct {
	duration     float64
	thumbnailKey string
	manifestKey  string
}

func (s *processingService) ProcessTask(ctx context.Context, task repository.ProcessTask) error {
	if task.RetryCount >= s.maxRetries {
		// The message is acked either way; a video stuck in PROCESSING is
		// left for manual investigation.
		if err := s.markFailed(ctx, task.VideoID); err != nil {
			slog.Error("failed to mark video as failed",
				"video_id", task.VideoID,
				"retry_count", task.RetryCount,
				"error", err,
			)
		}
		return nil
	}

	workDir := filepath.Join(s.tempDir, "clipshare", task.VideoID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	inputPath, err := s.downloadOriginal(ctx, task.OriginalKey, workDir)
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}

	out, err := s.process(ctx, task, inputPath, workDir)
	if err != nil {
		return err
	}

	if err := s.markReady(ctx, task.VideoID, out); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

func (s *processingService) process(ctx context.Context, task repository.ProcessTask, inputPath, workDir string) (*processed, error) {
	duration, err := s.processor.Probe(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	thumbPath := filepath.Join(workDir, "thumbnail.jpg")
	if err := s.processor.Thumbnail(ctx, inputPath, thumbPath, thumbnailWidth, thumbnailHeight); err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	thumbKey := ThumbnailKey(task.VideoID)
	if err := s.uploadFile(ctx, thumbPath, thumbKey, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}

	hlsDir := filepath.Join(workDir, "hls")
	if err := os.MkdirAll(hlsDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	abr, err := s.processor.TranscodeToABR(ctx, inputPath, hlsDir, s.variants)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}

	manifestKey, err := s.uploadABR(ctx, task.OutputKey, hlsDir, abr)
	if err != nil {
		return nil, fmt.Errorf("upload HLS files: %w", err)
	}

	return &processed{
		duration:     duration,
		thumbnailKey: thumbKey,
		manifestKey:  manifestKey,
	}, nil
}

func (s *processingService) downloadOriginal(ctx context.Context, key, workDir string) (string, error) {
	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("storage download: %w", err)
	}
	defer func() { _ = reader.Close() }()

	filename := filepath.Base(key)
	if filename == "." || filename == "/" {
		filename = "original.mp4"
	}

	localPath := filepath.Join(workDir, filename)
	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create local file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("copy to local file: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close local file: %w", err)
	}

	return localPath, nil
}

// uploadABR mirrors the local HLS tree under prefix and returns the master
// playlist key. Variant files keep their {variant}/ subdirectory.
func (s *processingService) uploadABR(ctx context.Context, prefix, hlsDir string, abr *transcoder.ABROutput) (string, error) {
	key := func(localPath string) (string, error) {
		rel, err := filepath.Rel(hlsDir, localPath)
		if err != nil {
			return "", err
		}
		return prefix + filepath.ToSlash(rel), nil
	}

	for _, v := range abr.Variants {
		files := append([]string{v.ManifestPath}, v.SegmentPaths...)
		for _, f := range files {
			k, err := key(f)
			if err != nil {
				return "", err
			}
			if err := s.uploadFile(ctx, f, k, contentTypeFor(f)); err != nil {
				return "", fmt.Errorf("variant %s: %w", v.Variant.Name, err)
			}
		}
	}

	// The master goes last so players never see a playlist with missing variants.
	masterKey, err := key(abr.MasterManifestPath)
	if err != nil {
		return "", err
	}
	if err := s.uploadFile(ctx, abr.MasterManifestPath, masterKey, contentTypeFor(masterKey)); err != nil {
		return "", fmt.Errorf("master playlist: %w", err)
	}
	return masterKey, nil
}

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(path, ".ts"):
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

func (s *processingService) uploadFile(ctx context.Context, localPath, key, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := s.storage.Upload(ctx, key, file, contentType); err != nil {
		return fmt.Errorf("storage upload %s: %w", key, err)
	}
	return nil
}

func (s *processingService) markReady(ctx context.Context, videoID uuid.UUID, out *processed) error {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("get video: %w", err)
	}

	// Deleted or already settled by a duplicate delivery.
	if video.Status != model.StatusProcessing {
		return nil
	}

	video.SetProcessed(s.storage.ObjectURL(out.manifestKey), s.storage.ObjectURL(out.thumbnailKey), out.duration)
	if err := video.TransitionTo(model.StatusReady); err != nil {
		return fmt.Errorf("transition to ready: %w", err)
	}

	if err := s.repo.Update(ctx, video); err != nil {
		return err
	}

	s.announce(ctx, video)
	return nil
}

func (s *processingService) markFailed(ctx context.Context, videoID uuid.UUID) error {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("get video: %w", err)
	}

	if video.Status != model.StatusProcessing {
		return nil
	}

	if err := video.TransitionTo(model.StatusFailed); err != nil {
		return fmt.Errorf("transition to failed: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, video.ID, video.Status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.announce(ctx, video)
	return nil
}

// announce tells API processes to drop cached copies of the video. The
// status change is already committed, so a failure here only delays
// visibility until the cached entries expire.
func (s *processingService) announce(ctx context.Context, video *model.Video) {
	if err := s.events.Emit(ctx, invalidation.VideoChanged(video.ID, video.UserID)); err != nil {
		slog.Warn("failed to announce video update",
			"video_id", video.ID,
			"status", video.Status,
			"error", err,
		)
	}
}
