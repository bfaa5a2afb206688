package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/usecase"
)

// Request/Response types

type CreateVideoRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	// Hashtags is a comma separated list, e.g. "go, #cache".
	Hashtags   string `json:"hashtags"`
	Location   string `json:"location" validate:"max=100"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=public private friends"`
	FileName   string `json:"file_name"`
}

type UpdateVideoRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Hashtags    *string `json:"hashtags"`
	Location    *string `json:"location" validate:"omitempty,max=100"`
	Visibility  *string `json:"visibility" validate:"omitempty,oneof=public private friends"`
}

type CreateVideoResponse struct {
	VideoResponse
	UploadURL string `json:"upload_url"`
}

type VideoResponse struct {
	ID            string              `json:"id"`
	User          UserSummaryResponse `json:"user"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Hashtags      []string            `json:"hashtags"`
	Location      string              `json:"location,omitempty"`
	Visibility    string              `json:"visibility"`
	Status        string              `json:"status"`
	HLSURL        string              `json:"hls_url,omitempty"`
	ThumbnailURL  string              `json:"thumbnail_url,omitempty"`
	Duration      float64             `json:"duration"`
	LikesCount    int64               `json:"likes_count"`
	CommentsCount int64               `json:"comments_count"`
	ViewsCount    int64               `json:"views_count"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc   usecase.VideoService
	pages Pagination
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.VideoService, pages Pagination) *VideoHandler {
	return &VideoHandler{svc: svc, pages: pages}
}

// Create handles POST /v1/videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	output, err := h.svc.CreateVideo(r.Context(), usecase.CreateVideoInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Hashtags:    req.Hashtags,
		Location:    req.Location,
		Visibility:  req.Visibility,
		FileName:    req.FileName,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, CreateVideoResponse{
		VideoResponse: toVideoResponse(output.Video),
		UploadURL:     output.UploadURL,
	})
}

// TriggerProcess handles POST /v1/videos/{id}/process
func (h *VideoHandler) TriggerProcess(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	if err := h.svc.TriggerProcess(r.Context(), userID, videoID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Get handles GET /v1/videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	video, err := h.svc.GetVideo(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(video))
}

// List handles GET /v1/videos?hashtag=&user_id=
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	input := usecase.ListVideosInput{
		Page:    h.pages.PageRequest(r),
		Hashtag: r.URL.Query().Get("hashtag"),
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a valid UUID")
			return
		}
		input.UserID = id
	}

	page, err := h.svc.ListVideos(r.Context(), input)
	h.writePage(w, r, page, err)
}

// Trending handles GET /v1/videos/trending
func (h *VideoHandler) Trending(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Trending(r.Context(), h.pages.PageRequest(r))
	h.writePage(w, r, page, err)
}

// Feed handles GET /v1/videos/feed/{userID}
func (h *VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlUUID(w, r, "userID", "invalid_user_id")
	if !ok {
		return
	}
	page, err := h.svc.Feed(r.Context(), userID, h.pages.PageRequest(r))
	h.writePage(w, r, page, err)
}

func (h *VideoHandler) writePage(w http.ResponseWriter, r *http.Request, page model.Page[*model.Video], err error) {
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toPageResponse(page, toVideoResponse))
}

// Update handles PUT /v1/videos/{id}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	var req UpdateVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	video, err := h.svc.UpdateVideo(r.Context(), userID, videoID, model.VideoPatch{
		Title:       req.Title,
		Description: req.Description,
		Hashtags:    req.Hashtags,
		Location:    req.Location,
		Visibility:  req.Visibility,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(video))
}

// Delete handles DELETE /v1/videos/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteVideo(r.Context(), userID, videoID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toVideoResponse(v *model.Video) VideoResponse {
	hashtags := v.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	owner := v.Owner
	if owner.ID == uuid.Nil {
		owner.ID = v.UserID
	}
	return VideoResponse{
		ID:            v.ID.String(),
		User:          toUserSummaryResponse(owner),
		Title:         v.Title,
		Description:   v.Description,
		Hashtags:      hashtags,
		Location:      v.Location,
		Visibility:    v.Visibility.String(),
		Status:        v.Status.String(),
		HLSURL:        v.HLSURL,
		ThumbnailURL:  v.ThumbnailURL,
		Duration:      v.DurationSec,
		LikesCount:    v.LikesCount,
		CommentsCount: v.CommentsCount,
		ViewsCount:    v.ViewsCount,
		CreatedAt:     v.CreatedAt.Format(timeFormat),
		UpdatedAt:     v.UpdatedAt.Format(timeFormat),
	}
}
