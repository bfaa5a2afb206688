package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hszk-dev/clipshare/internal/api/middleware"
	"github.com/hszk-dev/clipshare/internal/domain/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes and validates the request body, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		Error(w, http.StatusBadRequest, "validation_error", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// urlUUID parses a chi URL parameter, writing a 400 on failure.
// Only the canonical lowercase hyphenated form is accepted: cached responses
// are keyed by the raw path and invalidated by patterns built from id.String().
func urlUUID(w http.ResponseWriter, r *http.Request, param, code string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		Error(w, http.StatusBadRequest, code, "ID must be a valid UUID")
		return uuid.Nil, false
	}
	if id.String() != raw {
		Error(w, http.StatusBadRequest, code, "ID must be a lowercase hyphenated UUID")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user, writing a 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "unauthorized", "Authentication token is required")
		return uuid.Nil, false
	}
	return id, true
}

// Pagination holds the listing defaults applied to page and limit query
// parameters.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// PageRequest reads page and limit. Missing or malformed values fall back to
// the defaults and limit is clamped to MaxLimit.
func (p Pagination) PageRequest(r *http.Request) model.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return model.NewPageRequest(page, limit, p.DefaultLimit, p.MaxLimit)
}
