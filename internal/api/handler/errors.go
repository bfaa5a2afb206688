package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hszk-dev/clipshare/internal/api/middleware"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/infrastructure/cache"
	"github.com/hszk-dev/clipshare/internal/usecase"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	{repository.ErrVideoNotFound, http.StatusNotFound, "video_not_found"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{repository.ErrCommentNotFound, http.StatusNotFound, "comment_not_found"},
	{repository.ErrLikeNotFound, http.StatusNotFound, "like_not_found"},
	{repository.ErrNotFollowing, http.StatusNotFound, "not_following"},
	{repository.ErrDuplicateUser, http.StatusConflict, "user_exists"},
	{repository.ErrAlreadyLiked, http.StatusConflict, "already_liked"},
	{repository.ErrAlreadyFollowing, http.StatusConflict, "already_following"},
	{usecase.ErrVideoAlreadyCompleted, http.StatusConflict, "video_already_completed"},
	{usecase.ErrUploadMissing, http.StatusConflict, "upload_missing"},
	{usecase.ErrForbidden, http.StatusForbidden, "forbidden"},
	{usecase.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{usecase.ErrCannotFollowSelf, http.StatusBadRequest, "cannot_follow_self"},
	{usecase.ErrUnsupportedFormat, http.StatusBadRequest, "unsupported_format"},
	{usecase.ErrEmptySearchQuery, http.StatusBadRequest, "empty_query"},
}

// validationErrors carry a message safe to show to the client.
var validationErrors = []error{
	model.ErrInvalidUserID,
	model.ErrEmptyTitle,
	model.ErrTitleTooLong,
	model.ErrDescriptionTooLong,
	model.ErrInvalidVisibility,
	model.ErrEmptyComment,
	model.ErrCommentTooLong,
	model.ErrInvalidUsername,
	model.ErrInvalidEmail,
	model.ErrPasswordTooWeak,
	model.ErrFullNameTooLong,
	model.ErrBioTooLong,
	model.ErrInvalidPageRequest,
}

// handleServiceError maps service errors to responses. Anything unmapped is
// logged and reported as a 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			Error(w, m.status, m.code, m.err.Error())
			return
		}
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			Error(w, http.StatusBadRequest, "validation_error", v.Error())
			return
		}
	}

	msg := "unexpected service error"
	if errors.Is(err, cache.ErrMalformedPattern) {
		msg = "invalidation pattern rejected by cache"
	}
	slog.ErrorContext(r.Context(), msg,
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
