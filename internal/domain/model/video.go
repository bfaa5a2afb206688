package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of a video.
type Status string

const (
	StatusPendingUpload Status = "PENDING_UPLOAD"
	StatusProcessing    Status = "PROCESSING"
	StatusReady         Status = "READY"
	StatusFailed        Status = "FAILED"
)

// Valid status transitions:
//
//	PENDING_UPLOAD -> PROCESSING -> READY
//	                           \-> FAILED
var validTransitions = map[Status][]Status{
	StatusPendingUpload: {StatusProcessing},
	StatusProcessing:    {StatusReady, StatusFailed},
	StatusReady:         {},
	StatusFailed:        {},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingUpload, StatusProcessing, StatusReady, StatusFailed:
		return true
	default:
		return false
	}
}

func (s Status) CanTransitionTo(next Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Visibility controls who can see a video in listings and search.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityFriends Visibility = "friends"
)

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityFriends:
		return true
	default:
		return false
	}
}

func (v Visibility) String() string {
	return string(v)
}

// Video represents a video entity in the domain.
type Video struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Title         string
	Description   string
	Hashtags      []string
	Location      string
	Visibility    Visibility
	Status        Status
	OriginalURL   string
	HLSURL        string
	ThumbnailURL  string
	DurationSec   float64
	LikesCount    int64
	CommentsCount int64
	ViewsCount    int64
	// Owner is populated by reads that join the uploader.
	Owner     UserSummary
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrInvalidUserID      = errors.New("user ID cannot be nil")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrTitleTooLong       = errors.New("title exceeds maximum length of 100 characters")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length of 500 characters")
	ErrInvalidVisibility  = errors.New("visibility must be public, private or friends")
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 500
)

// VideoDetails holds the user-editable metadata of a video.
type VideoDetails struct {
	Title       string
	Description string
	Hashtags    []string
	Location    string
	Visibility  Visibility
}

// NewVideo creates a new Video with PENDING_UPLOAD status.
// An empty visibility defaults to public.
func NewVideo(userID uuid.UUID, details VideoDetails) (*Video, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if details.Visibility == "" {
		details.Visibility = VisibilityPublic
	}
	details.Title = strings.TrimSpace(details.Title)
	details.Description = strings.TrimSpace(details.Description)
	details.Location = strings.TrimSpace(details.Location)
	if err := details.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Video{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       details.Title,
		Description: details.Description,
		Hashtags:    details.Hashtags,
		Location:    details.Location,
		Visibility:  details.Visibility,
		Status:      StatusPendingUpload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (d VideoDetails) validate() error {
	if d.Title == "" {
		return ErrEmptyTitle
	}
	if len(d.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if len(d.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !d.Visibility.IsValid() {
		return ErrInvalidVisibility
	}
	return nil
}

// VideoPatch is a partial update; nil fields are left untouched.
type VideoPatch struct {
	Title       *string
	Description *string
	Hashtags    *string
	Location    *string
	Visibility  *string
}

// Apply validates the patch against the current video and applies it.
// The video is left unchanged when validation fails.
func (v *Video) Apply(p VideoPatch) error {
	next := VideoDetails{
		Title:       v.Title,
		Description: v.Description,
		Hashtags:    v.Hashtags,
		Location:    v.Location,
		Visibility:  v.Visibility,
	}
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Hashtags != nil {
		next.Hashtags = ParseHashtags(*p.Hashtags)
	}
	if p.Location != nil {
		next.Location = strings.TrimSpace(*p.Location)
	}
	if p.Visibility != nil {
		next.Visibility = Visibility(*p.Visibility)
	}
	if err := next.validate(); err != nil {
		return err
	}

	v.Title = next.Title
	v.Description = next.Description
	v.Hashtags = next.Hashtags
	v.Location = next.Location
	v.Visibility = next.Visibility
	v.UpdatedAt = time.Now()
	return nil
}

// ParseHashtags splits a comma separated list into trimmed, lowercased tags.
// Empty entries and a leading '#' are dropped.
func ParseHashtags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		tag = strings.TrimPrefix(tag, "#")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// TransitionTo attempts to change the video status.
// Returns error if the transition is not allowed.
func (v *Video) TransitionTo(next Status) error {
	if !next.IsValid() {
		return ErrInvalidTransition
	}
	if !v.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	v.Status = next
	v.UpdatedAt = time.Now()
	return nil
}

// SetOriginalURL sets the original video key after upload URL generation.
func (v *Video) SetOriginalURL(url string) {
	v.OriginalURL = url
	v.UpdatedAt = time.Now()
}

// SetProcessed records the outputs of a successful processing run.
func (v *Video) SetProcessed(hlsURL, thumbnailURL string, durationSec float64) {
	v.HLSURL = hlsURL
	v.ThumbnailURL = thumbnailURL
	v.DurationSec = durationSec
	v.UpdatedAt = time.Now()
}

// IsOwnedBy reports whether userID uploaded the video.
func (v *Video) IsOwnedBy(userID uuid.UUID) bool {
	return v.UserID == userID
}

// IsReady returns true if the video is ready for streaming.
func (v *Video) IsReady() bool {
	return v.Status == StatusReady
}

// IsFailed returns true if the video processing failed.
func (v *Video) IsFailed() bool {
	return v.Status == StatusFailed
}
