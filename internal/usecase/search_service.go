package usecase

import (
	"context"
	"strings"

	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
)

const defaultTrendingHashtags = 20

// SearchService runs read-only lookups across users, videos and hashtags.
type SearchService interface {
	Users(ctx context.Context, query string, page model.PageRequest) (model.Page[model.UserSummary], error)
	Videos(ctx context.Context, query string, page model.PageRequest) (model.Page[*model.Video], error)
	// Hashtags accepts the query with or without a leading '#'.
	Hashtags(ctx context.Context, query string, page model.PageRequest) (model.Page[model.HashtagStat], error)
	// TrendingHashtags uses a default limit when limit is not positive.
	TrendingHashtags(ctx context.Context, limit int) ([]model.HashtagStat, error)
}

type searchService struct {
	users  repository.UserRepository
	videos repository.VideoRepository
}

func NewSearchService(users repository.UserRepository, videos repository.VideoRepository) SearchService {
	return &searchService{users: users, videos: videos}
}

func (s *searchService) Users(ctx context.Context, query string, page model.PageRequest) (model.Page[model.UserSummary], error) {
	q, err := normalizeQuery(query, page)
	if err != nil {
		return model.Page[model.UserSummary]{}, err
	}
	return s.users.Search(ctx, q, page)
}

func (s *searchService) Videos(ctx context.Context, query string, page model.PageRequest) (model.Page[*model.Video], error) {
	q, err := normalizeQuery(query, page)
	if err != nil {
		return model.Page[*model.Video]{}, err
	}
	return s.videos.Search(ctx, q, page)
}

func (s *searchService) Hashtags(ctx context.Context, query string, page model.PageRequest) (model.Page[model.HashtagStat], error) {
	q, err := normalizeQuery(strings.TrimPrefix(strings.TrimSpace(query), "#"), page)
	if err != nil {
		return model.Page[model.HashtagStat]{}, err
	}
	return s.videos.Hashtags(ctx, strings.ToLower(q), page)
}

func (s *searchService) TrendingHashtags(ctx context.Context, limit int) ([]model.HashtagStat, error) {
	if limit <= 0 {
		limit = defaultTrendingHashtags
	}
	return s.videos.TrendingHashtags(ctx, limit)
}

func normalizeQuery(query string, page model.PageRequest) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", ErrEmptySearchQuery
	}
	if err := page.Validate(); err != nil {
		return "", err
	}
	return q, nil
}
