package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyComment       = errors.New("comment content cannot be empty")
	ErrCommentTooLong     = errors.New("comment exceeds maximum length of 500 characters")
	ErrSelfFollow         = errors.New("users cannot follow themselves")
	ErrInvalidPageRequest = errors.New("page and limit must be positive")
)

const maxCommentLength = 500

// Comment is a user comment on a video.
type Comment struct {
	ID        uuid.UUID
	VideoID   uuid.UUID
	UserID    uuid.UUID
	Content   string
	Author    UserSummary
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewComment validates content and returns an unsaved comment.
func NewComment(videoID, userID uuid.UUID, content string) (*Comment, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Comment{
		ID:        uuid.New(),
		VideoID:   videoID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Edit replaces the comment content.
func (c *Comment) Edit(content string) error {
	content, err := validateCommentContent(content)
	if err != nil {
		return err
	}
	c.Content = content
	c.UpdatedAt = time.Now()
	return nil
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyComment
	}
	if len(content) > maxCommentLength {
		return "", ErrCommentTooLong
	}
	return content, nil
}

// Like records that a user liked a video.
type Like struct {
	ID        uuid.UUID
	VideoID   uuid.UUID
	UserID    uuid.UUID
	User      UserSummary
	CreatedAt time.Time
}

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	ID          uuid.UUID
	FollowerID  uuid.UUID
	FollowingID uuid.UUID
	// User is the other side of the edge, depending on the listing.
	User      UserSummary
	CreatedAt time.Time
}

// NewFollow returns an unsaved follow edge.
func NewFollow(followerID, followingID uuid.UUID) (*Follow, error) {
	if followerID == uuid.Nil || followingID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if followerID == followingID {
		return nil, ErrSelfFollow
	}
	return &Follow{
		ID:          uuid.New(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now(),
	}, nil
}

// HashtagStat is an aggregated hashtag usage count.
type HashtagStat struct {
	Tag      string
	Count    int64
	LastUsed time.Time
}

// PageRequest selects a window of a listing.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest clamps limit to max and substitutes defaults for
// non-positive values.
func NewPageRequest(page, limit, defaultLimit, maxLimit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Validate guards repository calls against zero-valued requests.
func (p PageRequest) Validate() error {
	if p.Page < 1 || p.Limit < 1 {
		return ErrInvalidPageRequest
	}
	return nil
}

// Page is a window of a listing plus the total row count.
type Page[T any] struct {
	Items []T
	PageRequest
	Total int64
}

// Pages is the number of pages needed for Total rows.
func (p Page[T]) Pages() int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + int64(p.Limit) - 1) / int64(p.Limit)
}
