// Package api assembles the HTTP surface: middleware order, route groups and
// per-route cache lifetimes.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hszk-dev/clipshare/internal/api/handler"
	"github.com/hszk-dev/clipshare/internal/api/middleware"
	"github.com/hszk-dev/clipshare/internal/config"
	"github.com/hszk-dev/clipshare/internal/usecase"
)

// Services are the domain operations behind the routes.
type Services struct {
	Auth    usecase.AuthService
	Video   usecase.VideoService
	Like    usecase.LikeService
	Comment usecase.CommentService
	Follow  usecase.FollowService
	Search  usecase.SearchService
}

// Limiters are applied per client IP. A nil limiter disables that limit.
type Limiters struct {
	API    middleware.Limiter
	Auth   middleware.Limiter
	Upload middleware.Limiter
}

// CacheAdmin is the cache surface used by the admin routes.
type CacheAdmin interface {
	handler.CacheFlusher
	handler.CacheCounter
}

type Deps struct {
	Services Services
	Store    middleware.ResponseStore
	Tokens   middleware.TokenVerifier
	Limiters Limiters

	// Admin and AdminToken must both be set for the admin routes to exist.
	Admin      CacheAdmin
	AdminToken string

	// Readiness checks served on /ready.
	Ready map[string]handler.Pinger

	Cache      config.CacheConfig
	Pagination config.PaginationConfig
	Logger     *slog.Logger
}

// NewRouter wires every route. Per-user reads are never wrapped by the
// response cache.
func NewRouter(d Deps) *chi.Mux {
	pages := handler.Pagination{DefaultLimit: d.Pagination.DefaultLimit, MaxLimit: d.Pagination.MaxLimit}
	authH := handler.NewAuthHandler(d.Services.Auth)
	videoH := handler.NewVideoHandler(d.Services.Video, pages)
	likeH := handler.NewLikeHandler(d.Services.Like, pages)
	commentH := handler.NewCommentHandler(d.Services.Comment, pages)
	followH := handler.NewFollowHandler(d.Services.Follow, pages)
	searchH := handler.NewSearchHandler(d.Services.Search, pages)

	cached := func(ttl time.Duration) func(http.Handler) http.Handler {
		return middleware.ResponseCache(d.Store, ttl)
	}
	limit := func(l middleware.Limiter) func(http.Handler) http.Handler {
		if l == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimit(l, d.Logger)
	}
	authenticated := middleware.Authenticate(d.Tokens)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger))

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready(d.Ready, 2*time.Second))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(limit(d.Limiters.API))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(limit(d.Limiters.Auth))
				r.Post("/register", authH.Register)
				r.Post("/login", authH.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Get("/profile", authH.Profile)
				r.Put("/profile", authH.UpdateProfile)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.With(cached(d.Cache.VideoListTTL)).Get("/", videoH.List)
			r.With(limit(d.Limiters.Upload), authenticated).Post("/", videoH.Create)
			r.With(cached(d.Cache.TrendingTTL)).Get("/trending", videoH.Trending)
			r.With(authenticated, middleware.RequireSelf("userID"), cached(d.Cache.FeedTTL)).
				Get("/feed/{userID}", videoH.Feed)

			r.Route("/{id}", func(r chi.Router) {
				r.With(cached(d.Cache.VideoDetailTTL)).Get("/", videoH.Get)
				r.With(cached(d.Cache.LikeListTTL)).Get("/likes", likeH.List)
				r.With(cached(d.Cache.CommentListTTL)).Get("/comments", commentH.List)

				r.Group(func(r chi.Router) {
					r.Use(authenticated)
					r.Put("/", videoH.Update)
					r.Delete("/", videoH.Delete)
					r.Post("/process", videoH.TriggerProcess)
					r.Post("/like", likeH.Like)
					r.Delete("/like", likeH.Unlike)
					r.Get("/like/status", likeH.Status)
					r.Post("/comments", commentH.Add)
				})
			})
		})

		r.Route("/comments/{commentID}", func(r chi.Router) {
			r.Use(authenticated)
			r.Put("/", commentH.Update)
			r.Delete("/", commentH.Delete)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.With(cached(d.Cache.FollowListTTL)).Get("/followers", followH.Followers)
			r.With(cached(d.Cache.FollowListTTL)).Get("/following", followH.Following)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/follow", followH.Follow)
				r.Delete("/follow", followH.Unfollow)
				r.Get("/follow/status", followH.Status)
			})
		})

		r.Route("/search", func(r chi.Router) {
			r.With(cached(d.Cache.SearchTTL)).Get("/users", searchH.Users)
			r.With(cached(d.Cache.SearchTTL)).Get("/videos", searchH.Videos)
			r.With(cached(d.Cache.HashtagSearchTTL)).Get("/hashtags", searchH.Hashtags)
			r.With(cached(d.Cache.TrendingHashtagsTTL)).Get("/hashtags/trending", searchH.TrendingHashtags)
		})

		if d.Admin != nil && d.AdminToken != "" {
			adminH := handler.NewAdminHandler(d.Admin, d.Admin, d.AdminToken, d.Logger)
			r.With(adminH.RequireToken).Delete("/admin/cache", adminH.FlushCache)
		}
	})

	return r
}
