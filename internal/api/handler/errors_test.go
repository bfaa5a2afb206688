package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/infrastructure/cache"
	"github.com/hszk-dev/clipshare/internal/usecase"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"wrapped not found", fmt.Errorf("get video: %w", repository.ErrVideoNotFound), http.StatusNotFound, "video_not_found"},
		{"conflict", repository.ErrDuplicateUser, http.StatusConflict, "user_exists"},
		{"forbidden", usecase.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"credentials", usecase.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"domain validation", fmt.Errorf("create: %w", model.ErrTitleTooLong), http.StatusBadRequest, "validation_error"},
		{"malformed pattern", fmt.Errorf("invalidate: %w", cache.ErrMalformedPattern), http.StatusInternalServerError, "internal_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, httptest.NewRequest(http.MethodGet, "/v1/videos", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			resp := decodeBody[ErrorResponse](t, rec)
			if resp.Error != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, resp.Error)
			}
			if tt.wantStatus == http.StatusInternalServerError && resp.Message != "An unexpected error occurred" {
				t.Errorf("internal error details leaked: %q", resp.Message)
			}
		})
	}
}

func TestPagination_PageRequest(t *testing.T) {
	p := Pagination{DefaultLimit: 20, MaxLimit: 50}

	tests := []struct {
		target string
		want   model.PageRequest
	}{
		{"/v1/videos", model.PageRequest{Page: 1, Limit: 20}},
		{"/v1/videos?page=3&limit=10", model.PageRequest{Page: 3, Limit: 10}},
		{"/v1/videos?page=-1&limit=abc", model.PageRequest{Page: 1, Limit: 20}},
		{"/v1/videos?limit=51", model.PageRequest{Page: 1, Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := p.PageRequest(httptest.NewRequest(http.MethodGet, tt.target, nil)); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestURLUUID(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		raw    string
		wantOK bool
	}{
		{name: "canonical", raw: id.String(), wantOK: true},
		{name: "uppercase", raw: strings.ToUpper(id.String())},
		{name: "without hyphens", raw: strings.ReplaceAll(id.String(), "-", "")},
		{name: "braced", raw: "{" + id.String() + "}"},
		{name: "urn prefix", raw: "urn:uuid:" + id.String()},
		{name: "garbage", raw: "not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/v1/videos/x", nil, uuid.Nil, map[string]string{"id": tt.raw})
			rec := httptest.NewRecorder()

			got, ok := urlUUID(rec, req, "id", "invalid_video_id")

			if ok != tt.wantOK {
				t.Fatalf("urlUUID() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok {
				if got != id {
					t.Errorf("urlUUID() = %s, want %s", got, id)
				}
				return
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}
