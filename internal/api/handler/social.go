package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/usecase"
)

type LikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

type LikeStatusResponse struct {
	Liked bool `json:"liked"`
}

type LikerResponse struct {
	User      UserSummaryResponse `json:"user"`
	CreatedAt string              `json:"created_at"`
}

// LikeHandler handles likes on videos.
type LikeHandler struct {
	svc   usecase.LikeService
	pages Pagination
}

func NewLikeHandler(svc usecase.LikeService, pages Pagination) *LikeHandler {
	return &LikeHandler{svc: svc, pages: pages}
}

// Like handles POST /v1/videos/{id}/like
func (h *LikeHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// Unlike handles DELETE /v1/videos/{id}/like
func (h *LikeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *LikeHandler) toggle(w http.ResponseWriter, r *http.Request, like bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	op := h.svc.Unlike
	if like {
		op = h.svc.Like
	}
	count, err := op(r.Context(), userID, videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, LikeResponse{Liked: like, LikesCount: count})
}

// List handles GET /v1/videos/{id}/likes
func (h *LikeHandler) List(w http.ResponseWriter, r *http.Request) {
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	page, err := h.svc.ListLikes(r.Context(), videoID, h.pages.PageRequest(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toPageResponse(page, func(l model.Like) LikerResponse {
		return LikerResponse{User: toUserSummaryResponse(l.User), CreatedAt: l.CreatedAt.Format(timeFormat)}
	}))
}

// Status handles GET /v1/videos/{id}/like/status
func (h *LikeHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	liked, err := h.svc.IsLiked(r.Context(), userID, videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, LikeStatusResponse{Liked: liked})
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}

type CommentResponse struct {
	ID        string              `json:"id"`
	VideoID   string              `json:"video_id"`
	User      UserSummaryResponse `json:"user"`
	Content   string              `json:"content"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

func toCommentResponse(c model.Comment) CommentResponse {
	author := c.Author
	if author.ID == uuid.Nil {
		author.ID = c.UserID
	}
	return CommentResponse{
		ID:        c.ID.String(),
		VideoID:   c.VideoID.String(),
		User:      toUserSummaryResponse(author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt.Format(timeFormat),
		UpdatedAt: c.UpdatedAt.Format(timeFormat),
	}
}

// CommentHandler handles comments on videos.
type CommentHandler struct {
	svc   usecase.CommentService
	pages Pagination
}

func NewCommentHandler(svc usecase.CommentService, pages Pagination) *CommentHandler {
	return &CommentHandler{svc: svc, pages: pages}
}

// Add handles POST /v1/videos/{id}/comments
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.svc.AddComment(r.Context(), userID, videoID, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, toCommentResponse(*comment))
}

// List handles GET /v1/videos/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	videoID, ok := urlUUID(w, r, "id", "invalid_video_id")
	if !ok {
		return
	}

	page, err := h.svc.ListComments(r.Context(), videoID, h.pages.PageRequest(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toPageResponse(page, toCommentResponse))
}

// Update handles PUT /v1/comments/{commentID}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	commentID, ok := urlUUID(w, r, "commentID", "invalid_comment_id")
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.svc.UpdateComment(r.Context(), userID, commentID, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toCommentResponse(*comment))
}

// Delete handles DELETE /v1/comments/{commentID}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	commentID, ok := urlUUID(w, r, "commentID", "invalid_comment_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteComment(r.Context(), userID, commentID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type FollowStatusResponse struct {
	Following bool `json:"following"`
}

type FollowResponse struct {
	User      UserSummaryResponse `json:"user"`
	CreatedAt string              `json:"created_at"`
}

func toFollowResponse(f model.Follow) FollowResponse {
	return FollowResponse{User: toUserSummaryResponse(f.User), CreatedAt: f.CreatedAt.Format(timeFormat)}
}

// FollowHandler handles the follow graph.
type FollowHandler struct {
	svc   usecase.FollowService
	pages Pagination
}

func NewFollowHandler(svc usecase.FollowService, pages Pagination) *FollowHandler {
	return &FollowHandler{svc: svc, pages: pages}
}

// Follow handles POST /v1/users/{userID}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	followingID, ok := urlUUID(w, r, "userID", "invalid_user_id")
	if !ok {
		return
	}

	if err := h.svc.Follow(r.Context(), followerID, followingID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, FollowStatusResponse{Following: true})
}

// Unfollow handles DELETE /v1/users/{userID}/follow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	followingID, ok := urlUUID(w, r, "userID", "invalid_user_id")
	if !ok {
		return
	}

	if err := h.svc.Unfollow(r.Context(), followerID, followingID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, FollowStatusResponse{Following: false})
}

// Followers handles GET /v1/users/{userID}/followers
func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.Followers)
}

// Following handles GET /v1/users/{userID}/following
func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.Following)
}

func (h *FollowHandler) list(w http.ResponseWriter, r *http.Request, lister func(context.Context, uuid.UUID, model.PageRequest) (model.Page[model.Follow], error)) {
	userID, ok := urlUUID(w, r, "userID", "invalid_user_id")
	if !ok {
		return
	}

	page, err := lister(r.Context(), userID, h.pages.PageRequest(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toPageResponse(page, toFollowResponse))
}

// Status handles GET /v1/users/{userID}/follow/status
func (h *FollowHandler) Status(w http.ResponseWriter, r *http.Request) {
	followerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	followingID, ok := urlUUID(w, r, "userID", "invalid_user_id")
	if !ok {
		return
	}

	following, err := h.svc.IsFollowing(r.Context(), followerID, followingID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, FollowStatusResponse{Following: following})
}
