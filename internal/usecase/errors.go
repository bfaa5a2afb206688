package usecase

import "errors"

var (
	// ErrForbidden is returned when a user mutates a resource they do not own.
	ErrForbidden = errors.New("not allowed to modify this resource")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCannotFollowSelf   = errors.New("cannot follow yourself")
	// ErrVideoAlreadyCompleted is returned when processing is requested for a
	// video that already reached READY or FAILED.
	ErrVideoAlreadyCompleted = errors.New("video processing has already completed")
	// ErrUploadMissing is returned when processing is requested before the
	// original was uploaded to the presigned URL.
	ErrUploadMissing     = errors.New("original video has not been uploaded")
	ErrUnsupportedFormat = errors.New("unsupported video format")
	ErrEmptySearchQuery  = errors.New("search query cannot be empty")
)
