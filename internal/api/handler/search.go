package handler

import (
	"net/http"
	"strconv"

	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/usecase"
)

type HashtagResponse struct {
	Tag      string `json:"tag"`
	Count    int64  `json:"count"`
	LastUsed string `json:"last_used"`
}

func toHashtagResponse(h model.HashtagStat) HashtagResponse {
	return HashtagResponse{Tag: h.Tag, Count: h.Count, LastUsed: h.LastUsed.Format(timeFormat)}
}

type TrendingHashtagsResponse struct {
	Hashtags []HashtagResponse `json:"hashtags"`
}

// SearchHandler handles the /v1/search endpoints. The query is read from q.
type SearchHandler struct {
	svc   usecase.SearchService
	pages Pagination
}

func NewSearchHandler(svc usecase.SearchService, pages Pagination) *SearchHandler {
	return &SearchHandler{svc: svc, pages: pages}
}

// Users handles GET /v1/search/users?q=
func (h *SearchHandler) Users(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Users(r.Context(), r.URL.Query().Get("q"), h.pages.PageRequest(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toPageResponse(page, toUserSummaryResponse))
}

// Videos handles GET /v1/search/videos?q=
func (h *SearchHandler) Videos(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Videos(r.Context(), r.URL.Query().Get("q"), h.pages.PageRequest(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toPageResponse(page, toVideoResponse))
}

// Hashtags handles GET /v1/search/hashtags?q=
func (h *SearchHandler) Hashtags(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Hashtags(r.Context(), r.URL.Query().Get("q"), h.pages.PageRequest(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toPageResponse(page, toHashtagResponse))
}

// TrendingHashtags handles GET /v1/search/hashtags/trending?limit=
func (h *SearchHandler) TrendingHashtags(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if h.pages.MaxLimit > 0 && limit > h.pages.MaxLimit {
		limit = h.pages.MaxLimit
	}

	stats, err := h.svc.TrendingHashtags(r.Context(), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := TrendingHashtagsResponse{Hashtags: make([]HashtagResponse, 0, len(stats))}
	for _, s := range stats {
		resp.Hashtags = append(resp.Hashtags, toHashtagResponse(s))
	}
	JSON(w, http.StatusOK, resp)
}
